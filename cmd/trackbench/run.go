package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/vango-dev/tracking/internal/config"
	"github.com/vango-dev/tracking/pkg/instrument"
	"github.com/vango-dev/tracking/pkg/reactive"
)

// benchFlags override the bench section of the config.
type benchFlags struct {
	passes     int
	width      int
	depth      int
	mutations  int
	familySize int
	seed       int64
	scenario   string
}

func (f *benchFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.passes, "passes", "n", 0, "Number of render passes (default from config)")
	cmd.Flags().IntVarP(&f.width, "width", "w", 0, "Rows in the synthetic tree (default from config)")
	cmd.Flags().IntVarP(&f.depth, "depth", "d", 0, "Cache layers above each row (default from config)")
	cmd.Flags().IntVarP(&f.mutations, "mutations", "m", -1, "Writes between passes (default from config)")
	cmd.Flags().IntVar(&f.familySize, "family-size", 0, "Caches held per layer (default from config)")
	cmd.Flags().Int64Var(&f.seed, "seed", 0, "Mutation seed (default from config)")
	cmd.Flags().StringVar(&f.scenario, "scenario", scenarioSteady, "Pass scenario: steady or backtrack")
}

func (f *benchFlags) apply(b *config.BenchConfig) {
	if f.passes > 0 {
		b.Passes = f.passes
	}
	if f.width > 0 {
		b.Width = f.width
	}
	if f.depth > 0 {
		b.Depth = f.depth
	}
	if f.mutations >= 0 {
		b.Mutations = f.mutations
	}
	if f.familySize > 0 {
		b.FamilySize = f.familySize
	}
	if f.seed != 0 {
		b.Seed = f.seed
	}
}

func runCmd(flags *globalFlags) *cobra.Command {
	var (
		bench      benchFlags
		jsonOutput string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run synthetic render passes and report cache effectiveness",
		Long: `Build the synthetic tree, run the configured number of render passes
with random writes between them, and print a summary.

The backtrack scenario writes a row inside each pass after reading it. In
strict mode every such pass fails with a tracking violation; in production
mode the write goes through unchecked.

Examples:
  trackbench run
  trackbench run --passes=1000 --width=256 --depth=4
  trackbench run --strict --scenario=backtrack
  trackbench run --json=report.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			bench.apply(&cfg.Bench)
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := newLogger(cmd.ErrOrStderr(), cfg)
			s := newStats()
			tc := newTrackingContext(cfg, logger, prometheus.NewRegistry(), s)

			r, err := runBench(cmd.Context(), tc, cfg, bench.scenario, s, logger)
			if err != nil {
				return err
			}

			writeSummary(cmd.OutOrStdout(), r)
			if jsonOutput != "" {
				return writeJSON(cmd.OutOrStdout(), jsonOutput, r)
			}
			return nil
		},
	}

	bench.register(cmd)
	cmd.Flags().StringVar(&jsonOutput, "json", "", "Also write the report as JSON to this path (- for stdout)")

	return cmd
}

// newTrackingContext builds a context with the observers cfg enables plus
// extra.
func newTrackingContext(cfg *config.Config, logger *slog.Logger, reg prometheus.Registerer, extra ...reactive.Observer) *reactive.TrackingContext {
	observers := extra
	if cfg.Metrics.Enabled {
		observers = append(observers, instrument.Prometheus(
			instrument.WithRegistry(reg),
			instrument.WithNamespace(cfg.Metrics.Namespace),
		))
	}
	if cfg.Tracing.Enabled {
		observers = append(observers, instrument.OpenTelemetry(
			instrument.WithTracerName(cfg.Tracing.TracerName),
		))
	}
	return reactive.NewTrackingContext(
		reactive.WithStrict(cfg.Strict),
		reactive.WithLogger(logger),
		reactive.WithObserver(reactive.Observers(observers...)),
	)
}

// runBench runs cfg.Bench.Passes passes. Failed passes are logged and
// counted; they do not stop the run.
func runBench(ctx context.Context, tc *reactive.TrackingContext, cfg *config.Config, scenario string, s *stats, logger *slog.Logger) (report, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	w, err := newWorkload(tc, cfg.Bench, scenario)
	if err != nil {
		return report{}, err
	}

	start := time.Now()
	for i := 0; i < cfg.Bench.Passes; i++ {
		if err := ctx.Err(); err != nil {
			return report{}, err
		}
		if err := w.pass(ctx); err != nil {
			logger.Debug("pass failed", "pass", i, "error", err)
		}
		w.mutate()
	}

	r := s.report()
	r.Scenario = w.scenario
	r.Strict = tc.Strict()
	r.Total = w.Total()
	r.ElapsedMS = time.Since(start).Milliseconds()
	if r.Failed > 0 {
		logger.Warn("passes failed", "failed", r.Failed, "passes", r.Passes)
	}
	return r, nil
}

func writeSummary(w io.Writer, r report) {
	fmt.Fprintln(w, "=== Tracking Benchmark ===")
	info(w, "Scenario:   %s (strict=%v)", r.Scenario, r.Strict)
	info(w, "Passes:     %d (%d failed)", r.Passes, r.Failed)
	info(w, "Elapsed:    %s", time.Duration(r.ElapsedMS)*time.Millisecond)
	fmt.Fprintln(w)

	info(w, "Cache hits: %d", r.Hits)
	info(w, "Recomputes: %d", r.Recomputes)
	info(w, "Hit ratio:  %.1f%%", r.HitRatio*100)
	info(w, "Dirties:    %d", r.Dirties)
	info(w, "Total:      %d", r.Total)
	fmt.Fprintln(w)

	if r.LatencyMS.Max > 0 {
		fmt.Fprintln(w, "Pass latency:")
		info(w, "min: %.3f ms", r.LatencyMS.Min)
		info(w, "p50: %.3f ms", r.LatencyMS.P50)
		info(w, "p95: %.3f ms", r.LatencyMS.P95)
		info(w, "p99: %.3f ms", r.LatencyMS.P99)
		info(w, "max: %.3f ms", r.LatencyMS.Max)
		fmt.Fprintln(w)
	}

	if len(r.Violations) == 0 {
		success(w, "No violations")
		return
	}
	for code, n := range r.Violations {
		warn(w, "%s: %d violations", code, n)
	}
}

func writeJSON(stdout io.Writer, path string, r report) error {
	out := stdout
	if path != "-" {
		file, err := os.Create(path)
		if err != nil {
			return err
		}
		defer file.Close()
		out = file
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
