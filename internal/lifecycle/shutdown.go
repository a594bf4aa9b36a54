package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Stage orders shutdown hooks: all hooks of a stage finish before the next stage starts.
type Stage int

const (
	// StageDrain stops advertising readiness.
	StageDrain Stage = iota
	// StageIngress stops accepting customer traffic: the bot poller and the HTTP server.
	StageIngress
	// StageWorkers stops background loops such as the session cleaner.
	StageWorkers
	// StageStorage closes journal and cache connections.
	StageStorage
)

// Shutdown coordinates graceful shutdown hooks, running each stage in parallel.
type Shutdown struct {
	mu     sync.Mutex
	stages map[Stage][]Hook
	log    *slog.Logger
}

// NewShutdown constructs a new Shutdown coordinator.
func NewShutdown(log *slog.Logger) *Shutdown {
	if log == nil {
		log = slog.Default()
	}

	return &Shutdown{log: log, stages: make(map[Stage][]Hook)}
}

// Register adds a named hook to the storage stage.
func (s *Shutdown) Register(name string, fn func(context.Context) error) {
	s.RegisterAt(StageStorage, name, fn)
}

// RegisterAt adds a named hook to the given stage.
func (s *Shutdown) RegisterAt(stage Stage, name string, fn func(context.Context) error) {
	if fn == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.stages[stage] = append(s.stages[stage], Hook{Name: name, Fn: fn})
}

// Execute runs every stage in order and joins the hook errors.
func (s *Shutdown) Execute(ctx context.Context) error {
	s.mu.Lock()
	order := make([]Stage, 0, len(s.stages))
	stages := make(map[Stage][]Hook, len(s.stages))
	for stage, hooks := range s.stages {
		order = append(order, stage)
		stages[stage] = append([]Hook(nil), hooks...)
	}
	s.mu.Unlock()

	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	start := time.Now()
	s.log.Info("shutdown sequence started", slog.Int("stage_count", len(order)))

	var errs []error
	for _, stage := range order {
		errs = append(errs, s.runStage(ctx, stage, stages[stage])...)
	}

	s.log.Info("shutdown sequence finished", slog.Duration("elapsed", time.Since(start)))

	return errors.Join(errs...)
}

func (s *Shutdown) runStage(ctx context.Context, stage Stage, hooks []Hook) []error {
	var (
		wg    sync.WaitGroup
		errMu sync.Mutex
		errs  []error
	)

	for _, hook := range hooks {
		h := hook

		wg.Add(1)
		go func() {
			defer wg.Done()

			s.log.Info("running shutdown hook", slog.String("hook", h.Name), slog.Int("stage", int(stage)))

			if err := h.Fn(ctx); err != nil {
				s.log.Error("shutdown hook failed", slog.String("hook", h.Name), slog.Any("error", err))
				errMu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", h.Name, err))
				errMu.Unlock()
				return
			}

			s.log.Info("shutdown hook completed", slog.String("hook", h.Name))
		}()
	}

	wg.Wait()
	return errs
}
