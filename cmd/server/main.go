package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"studioreg/internal/platform/config"
	"studioreg/internal/platform/httpserver"
	"studioreg/internal/platform/logger"
	httpmetrics "studioreg/internal/platform/metrics"
	"studioreg/internal/registry"
	"studioreg/internal/registry/handler"
	registrymetrics "studioreg/internal/registry/metrics"
	"studioreg/internal/registry/models"
	"studioreg/internal/registry/service"
	"studioreg/pkg/platform/httputil"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "studioreg: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	if cfg.Registry.UsingDevAdmin {
		log.Warn("STUDIOREG_INITIAL_ADMIN not set, using development admin principal",
			"admin", cfg.Registry.InitialAdmin,
		)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	sinks, err := buildAuditSinks(ctx, cfg, log, reg)
	if err != nil {
		return err
	}
	defer sinks.Close(log)

	svc, err := registry.NewService(
		models.Principal(cfg.Registry.InitialAdmin),
		cfg.Registry.LockTimeout,
		service.WithLogger(log),
		service.WithAuditPublisher(sinks.Publisher),
		service.WithAuditReader(sinks.Reader),
		service.WithMetrics(registrymetrics.New(reg)),
	)
	if err != nil {
		return err
	}

	r := chi.NewRouter()
	r.Get("/healthz", healthHandler(sinks))
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	registry.NewHandler(svc, log, httpmetrics.New(reg),
		handler.WithRequestTimeout(cfg.Server.RequestTimeout),
	).Register(r)

	srv := httpserver.New(cfg.Server, r)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting studioreg", "addr", cfg.Server.Addr, "admin", cfg.Registry.InitialAdmin)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down studioreg")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func healthHandler(sinks *auditSinks) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := sinks.Health(r.Context()); err != nil {
			httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "degraded",
				"error":  err.Error(),
			})
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
