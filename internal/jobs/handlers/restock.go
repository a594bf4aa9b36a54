// Package handlers processes queued maintenance tasks against the fleet.
package handlers

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/Proton-105/vending-machine/internal/jobs"
)

// Fleet is the part of fleet.Service the restock handler needs.
type Fleet interface {
	TopUp(ctx context.Context, level int) (int, error)
}

type RestockHandler struct {
	fleet Fleet
	log   *slog.Logger
}

func NewRestockHandler(fleet Fleet, log *slog.Logger) *RestockHandler {
	if log == nil {
		log = slog.Default()
	}
	return &RestockHandler{fleet: fleet, log: log}
}

func (h *RestockHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	payload, err := jobs.DecodeRestock(t)
	if err != nil {
		h.log.ErrorContext(ctx, "restock: failed to decode payload", slog.String("task_type", t.Type()), slog.Any("error", err))
		return err
	}

	added, err := h.fleet.TopUp(ctx, payload.Level)
	if err != nil {
		h.log.ErrorContext(ctx, "restock: top-up failed", slog.Int("level", payload.Level), slog.Any("error", err))
		return err
	}

	h.log.InfoContext(ctx, "restocked fleet", slog.Int("level", payload.Level), slog.Int("units_added", added))
	return nil
}
