package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/palette"
	"github.com/aretw0/palette/internal/config"
	httpAdapter "github.com/aretw0/palette/pkg/adapters/http"
	"github.com/aretw0/palette/pkg/domain"
	"github.com/aretw0/palette/pkg/observability"
	"github.com/aretw0/palette/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ShutdownTimeout bounds graceful shutdown of the HTTP listeners.
const ShutdownTimeout = 5 * time.Second

// instrumentedEngine records search metrics for the adapters.
type instrumentedEngine struct {
	*palette.Engine
	metrics *observability.Metrics
}

func (e instrumentedEngine) Search(query string, scope domain.Scope) ([]domain.Result, error) {
	return e.metrics.Search(e.Engine, query, scope)
}

// newMetrics creates a registry with the runtime collectors and the palette metrics.
func newMetrics() (*prometheus.Registry, *observability.Metrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg, observability.NewMetrics(reg)
}

// newServeHandler mounts the JSON API and, unless separate is set, /metrics.
func newServeHandler(engine *palette.Engine, metrics *observability.Metrics, reg *prometheus.Registry, sessions *session.Manager, logger *slog.Logger, separate bool) http.Handler {
	api := httpAdapter.NewHandler(
		instrumentedEngine{Engine: engine, metrics: metrics},
		sessions,
		NavigatorFactory(engine),
		httpAdapter.WithLogger(logger),
		httpAdapter.WithVersion(palette.Version),
	)
	r := chi.NewRouter()
	if !separate {
		r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}
	r.Mount("/", api)
	return r
}

// Serve runs the HTTP API until ctx is done, then shuts down gracefully.
func Serve(ctx context.Context, cfg config.Config, debug bool) error {
	logger, err := NewLogger(cfg.Log, debug)
	if err != nil {
		return err
	}
	reg, metrics := newMetrics()

	engine, err := NewEngine(ctx, EngineOptions{Config: cfg, Logger: logger, Hooks: metrics.Hooks()})
	if err != nil {
		return err
	}
	defer engine.Close()

	sessions, closeStore, err := NewSessionManager(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Warn("failed to close session store", "err", err)
		}
	}()

	go reloadOnChange(ctx, engine, nil)

	servers := []*http.Server{{
		Addr:    cfg.HTTP.Addr,
		Handler: newServeHandler(engine, metrics, reg, sessions, logger, cfg.Metrics.Addr != ""),
	}}
	if cfg.Metrics.Addr != "" {
		mux := chi.NewRouter()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		servers = append(servers, &http.Server{Addr: cfg.Metrics.Addr, Handler: mux})
	}

	serverErrors := make(chan error, len(servers))
	for _, srv := range servers {
		go func() {
			logger.Info("listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErrors <- fmt.Errorf("server %s: %w", srv.Addr, err)
			}
		}()
	}

	var runErr error
	select {
	case runErr = <-serverErrors:
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("graceful shutdown did not complete", "addr", srv.Addr, "err", err)
			_ = srv.Close()
		}
	}
	return runErr
}
