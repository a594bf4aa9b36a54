package lifecycle

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"
)

// HealthChecker exposes liveness and readiness probes.
type HealthChecker interface {
	Liveness(ctx context.Context) error
	Readiness(ctx context.Context) error
}

// Dependencies is the subset of health.Checker the readiness probe relies on.
type Dependencies interface {
	Healthy(ctx context.Context) error
}

// Probes reports the process as live until it is asked to drain, and ready while its dependencies are healthy.
type Probes struct {
	log      *slog.Logger
	deps     Dependencies
	draining atomic.Bool
}

// NewProbes creates a new Probes instance. deps may be nil when nothing external is required.
func NewProbes(log *slog.Logger, deps Dependencies) *Probes {
	if log == nil {
		log = slog.Default()
	}
	return &Probes{log: log, deps: deps}
}

// Liveness always reports success while the process is running.
func (p *Probes) Liveness(context.Context) error {
	p.log.Debug("liveness probe called")
	return nil
}

// Readiness fails once draining starts or when a dependency check fails.
func (p *Probes) Readiness(ctx context.Context) error {
	p.log.Debug("readiness probe called")

	if p.draining.Load() {
		return ErrDraining
	}
	if p.deps == nil {
		return nil
	}
	return p.deps.Healthy(ctx)
}

// Drain marks the process as no longer ready; registered as the first shutdown hook.
func (p *Probes) Drain(context.Context) error {
	p.draining.Store(true)
	return nil
}

// LivenessHandler serves the liveness probe.
func (p *Probes) LivenessHandler() http.Handler {
	return probeHandler(p.Liveness)
}

// ReadinessHandler serves the readiness probe.
func (p *Probes) ReadinessHandler() http.Handler {
	return probeHandler(p.Readiness)
}

func probeHandler(probe func(context.Context) error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := probe(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}
