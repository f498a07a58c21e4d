package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tasknest/go-task-export/pkg/retry"
	"github.com/tasknest/go-task-export/pkg/telemetry"
	"github.com/tasknest/go-task-export/services/exporter"
	"github.com/tasknest/go-task-export/services/exporter/config"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the export pipeline on a cron schedule",
	Long: `Fire the same single-run pipeline on a cron schedule.

This is the in-binary stand-in for an external trigger: each tick is one
full pipeline run, ticks never overlap (a tick arriving while a run is
in flight is skipped), and failed runs are retried with backoff at the
trigger level before the next tick.`,
	RunE: runSchedule,
}

func init() {
	addPipelineFlags(scheduleCmd.Flags())
	scheduleCmd.Flags().String("schedule", "*/15 * * * *", "cron expression (standard 5-field)")
	scheduleCmd.Flags().String("metrics-addr", ":9091", "Prometheus metrics server address")
	scheduleCmd.Flags().Int("max-retries", 2, "retries per tick after a failed run")
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	bindPipelineFlags(cmd.Flags())
	bindFlag("schedule", cmd.Flags(), "schedule")
	bindFlag("metrics_addr", cmd.Flags(), "metrics-addr")
	bindFlag("max_retries", cmd.Flags(), "max-retries")
	cfg := config.Load(viper.GetViper())
	if err := cfg.Validate(); err != nil {
		return err
	}
	if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
		return fmt.Errorf("parse schedule %q: %w", cfg.Schedule, err)
	}

	logger, closeLogs, err := buildLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closeLogs() }()

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracer, err := telemetry.InitTracer(runCtx, "taskexport", cfg.OTelEndpoint)
	if err != nil {
		return fmt.Errorf("tracer: %w", err)
	}
	defer shutdownTracer()

	telemetry.StartMetricsServer(runCtx, cfg.MetricsAddr, logger)

	var inFlight atomic.Bool
	tick := func() {
		if !inFlight.CompareAndSwap(false, true) {
			logger.Warn("previous run still in flight, skipping tick")
			return
		}
		defer inFlight.Store(false)

		err := retry.Do(runCtx, retry.Policy{
			MaxAttempts: cfg.MaxRetries + 1,
			BaseDelay:   5 * time.Second,
			OnRetry: func(attempt int, retryErr error) {
				logger.Warn("run failed, retrying",
					slog.Int("attempt", attempt),
					slog.String("error", retryErr.Error()),
				)
			},
		}, func() error {
			exp := exporter.New(cfg.PostgresDSN, cfg.OutputDir,
				exporter.WithLogger(logger),
				exporter.WithMaxBackups(cfg.MaxBackups),
				exporter.WithSourceName(cfg.SourceName),
			)
			_, runErr := exp.Run(runCtx)
			return runErr
		})
		if err != nil {
			logger.Error("run dead for this tick", slog.String("error", err.Error()))
		}
	}

	c := cron.New()
	if _, err := c.AddFunc(cfg.Schedule, tick); err != nil {
		return fmt.Errorf("register schedule: %w", err)
	}

	logger.Info("scheduler starting",
		slog.String("schedule", cfg.Schedule),
		slog.String("output_dir", cfg.OutputDir),
	)
	c.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit
	logger.Info("shutting down, waiting for in-flight run...")
	cancel()

	stopCtx := c.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(30 * time.Second):
		logger.Warn("gave up waiting for in-flight run")
	}
	logger.Info("stopped cleanly")
	return nil
}
