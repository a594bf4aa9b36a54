package main

import (
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/Proton-105/vending-machine/internal/jobs"
)

func restockCmd() *cobra.Command {
	var (
		level int
		opt   asynq.RedisClientOpt
	)

	cmd := &cobra.Command{
		Use:   "restock",
		Short: "Queue a top-up of every machine served by a running vendingbot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			task, err := jobs.NewRestockTask(level)
			if err != nil {
				return err
			}

			manager := jobs.NewManager(opt, slog.Default())
			defer func() { _ = manager.Close() }()

			info, err := manager.Enqueue(cmd.Context(), task, asynq.Queue(jobs.QueueCritical))
			if err != nil {
				return fmt.Errorf("enqueue restock: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "queued restock to %d units as task %s\n", level, info.ID)
			return nil
		},
	}
	cmd.Flags().IntVar(&level, "level", 42, "Units of every product each machine should hold")
	cmd.Flags().StringVar(&opt.Addr, "redis-addr", "localhost:6379", "Redis address of the job queue")
	cmd.Flags().StringVar(&opt.Password, "redis-password", "", "Redis password")
	cmd.Flags().IntVar(&opt.DB, "redis-db", 0, "Redis database")

	return cmd
}
