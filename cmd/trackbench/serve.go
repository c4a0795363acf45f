package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

func serveCmd(flags *globalFlags) *cobra.Command {
	var (
		bench    benchFlags
		addr     string
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run passes continuously and expose metrics over HTTP",
		Long: `Run render passes on an interval and serve:

  /metrics   Prometheus metrics for the engine
  /stats     the benchmark report as JSON
  /healthz   liveness

Metrics are always enabled for serve.

Examples:
  trackbench serve
  trackbench serve --addr=:9100 --interval=50ms`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			bench.apply(&cfg.Bench)
			cfg.Metrics.Enabled = true
			if addr != "" {
				cfg.Metrics.Addr = addr
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := newLogger(cmd.ErrOrStderr(), cfg)
			reg := prometheus.NewRegistry()
			s := newStats()
			tc := newTrackingContext(cfg, logger, reg, s)

			w, err := newWorkload(tc, cfg.Bench, bench.scenario)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := &http.Server{
				Addr:              cfg.Metrics.Addr,
				Handler:           newRouter(reg, s),
				ReadHeaderTimeout: 5 * time.Second,
			}
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()
			go loop(ctx, w, interval, logger)

			success(cmd.OutOrStdout(), "Serving metrics on %s", cfg.Metrics.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	bench.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	cmd.Flags().DurationVar(&interval, "interval", 100*time.Millisecond, "Time between passes")

	return cmd
}

// newRouter serves the metrics, stats and health endpoints.
func newRouter(reg *prometheus.Registry, s *stats) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Get("/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(s.report())
	})
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	return r
}

// loop runs a pass and a round of mutations every interval until ctx ends.
// It owns the workload; nothing else touches the engine.
func loop(ctx context.Context, w *workload, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.pass(ctx); err != nil {
				logger.Debug("pass failed", "error", err)
			}
			w.mutate()
		}
	}
}
