// Package graceful runs the operator HTTP endpoints and shuts them down cleanly.
package graceful

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Routes are the operator endpoints mounted next to /metrics. Nil handlers are skipped.
type Routes struct {
	Machines  http.Handler
	Health    http.Handler
	Liveness  http.Handler
	Readiness http.Handler
	Gatherer  prometheus.Gatherer
}

// NewMux mounts /metrics, /machines, /healthz, /livez and /readyz.
func NewMux(routes Routes) *http.ServeMux {
	gatherer := routes.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	if routes.Machines != nil {
		mux.Handle("/machines", routes.Machines)
		mux.Handle("/machines/", routes.Machines)
	}
	if routes.Health != nil {
		mux.Handle("/healthz", routes.Health)
	}
	if routes.Liveness != nil {
		mux.Handle("/livez", routes.Liveness)
	}
	if routes.Readiness != nil {
		mux.Handle("/readyz", routes.Readiness)
	}

	return mux
}

// Server wraps http.Server with graceful shutdown capabilities.
type Server struct {
	httpServer      *http.Server
	log             *slog.Logger
	shutdownTimeout time.Duration
}

// NewServer constructs a graceful server wrapper.
func NewServer(log *slog.Logger, srv *http.Server, shutdownTimeout time.Duration) *Server {
	if log == nil {
		log = slog.Default()
	}

	return &Server{
		httpServer:      srv,
		log:             log,
		shutdownTimeout: shutdownTimeout,
	}
}

// ListenAndServe listens on the configured address and serves until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.httpServer.Addr, err)
	}

	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln and shuts the server down when ctx is canceled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if s.httpServer == nil {
		return ln.Close()
	}

	errCh := make(chan error, 1)

	go func() {
		s.log.Info("http server listening", slog.String("addr", ln.Addr().String()))

		err := s.httpServer.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("http server error", slog.Any("error", err))
		}

		errCh <- err
	}()

	select {
	case err := <-errCh:
		// The server died before anyone asked it to stop.
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	s.log.Info("shutting down http server", slog.Duration("timeout", s.shutdownTimeout))

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.log.Error("http server shutdown error", slog.Any("error", err))
		return err
	}

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
