package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
)

type Scheduler interface {
	RegisterTasks() error
	Run()
	Shutdown()
}

type scheduler struct {
	asynqScheduler *asynq.Scheduler
	spec           string
	level          int
	log            *slog.Logger
}

// NewScheduler enqueues a restock to level on the standard five-field cron spec.
func NewScheduler(redisOpt asynq.RedisConnOpt, spec string, level int, log *slog.Logger) Scheduler {
	if log == nil {
		log = slog.Default()
	}

	return &scheduler{
		asynqScheduler: asynq.NewScheduler(redisOpt, nil),
		spec:           spec,
		level:          level,
		log:            log,
	}
}

// ValidateSpec rejects cron expressions the scheduler would not understand.
func ValidateSpec(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid restock schedule %q: %w", spec, err)
	}
	return nil
}

func (s *scheduler) RegisterTasks() error {
	if err := ValidateSpec(s.spec); err != nil {
		return err
	}

	task, err := NewRestockTask(s.level)
	if err != nil {
		return err
	}

	if _, err := s.asynqScheduler.Register(s.spec, task); err != nil {
		return err
	}

	s.log.InfoContext(context.Background(), "scheduler: registered restock task", slog.String("spec", s.spec), slog.Int("level", s.level))
	return nil
}

func (s *scheduler) Run() {
	s.log.InfoContext(context.Background(), "scheduler: starting")

	go func() {
		if err := s.asynqScheduler.Run(); err != nil {
			s.log.ErrorContext(context.Background(), "scheduler: run failed", slog.Any("error", err))
		}
	}()
}

func (s *scheduler) Shutdown() {
	s.log.InfoContext(context.Background(), "scheduler: shutting down")
	s.asynqScheduler.Shutdown()
}
