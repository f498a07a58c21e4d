package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/tasknest/go-task-export/pkg/telemetry"
	"github.com/tasknest/go-task-export/services/exporter"
	"github.com/tasknest/go-task-export/services/exporter/config"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the export pipeline once",
	Long: `Run one extract → transform → load pass against the task store.

Exits 0 when the snapshot was written and also when no change was
detected; exits nonzero on any fatal error, so callers can gate
downstream steps on the exit code alone.`,
	RunE: runOnce,
}

func init() {
	addPipelineFlags(runCmd.Flags())
}

// addPipelineFlags registers the flags shared by run and schedule. Binding
// to viper happens per invocation in bindPipelineFlags: run and schedule
// share key names, and an init-time bind from both flag sets would leave
// only the last one effective.
func addPipelineFlags(fs *pflag.FlagSet) {
	fs.String("postgres-dsn", "", "PostgreSQL DSN of the to-do task store (required)")
	fs.String("output-dir", "./output", "directory for latest.json, versioned backups and the hash marker")
	fs.String("log-dir", "./logs", "directory for day-keyed export log files")
	fs.Int("max-backups", 5, "number of versioned backup files to keep")
	fs.String("source-name", "todo-api", "source label recorded in dataset metadata")
	fs.String("otel-endpoint", "", "OTLP HTTP endpoint for tracing (e.g. localhost:4318); empty disables tracing")
}

func bindPipelineFlags(fs *pflag.FlagSet) {
	bindFlag("postgres_dsn", fs, "postgres-dsn")
	bindFlag("output_dir", fs, "output-dir")
	bindFlag("log_dir", fs, "log-dir")
	bindFlag("max_backups", fs, "max-backups")
	bindFlag("source_name", fs, "source-name")
	bindFlag("otel_endpoint", fs, "otel-endpoint")
	_ = viper.BindEnv("otel_endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")
	_ = viper.BindEnv("postgres_dsn", "POSTGRES_DSN", "DATABASE_URL")
}

func runOnce(cmd *cobra.Command, _ []string) error {
	bindPipelineFlags(cmd.Flags())
	cfg := config.Load(viper.GetViper())
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, closeLogs, err := buildLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closeLogs() }()

	ctx := context.Background()
	shutdownTracer, err := telemetry.InitTracer(ctx, "taskexport", cfg.OTelEndpoint)
	if err != nil {
		return fmt.Errorf("tracer: %w", err)
	}
	defer shutdownTracer()

	exp := exporter.New(cfg.PostgresDSN, cfg.OutputDir,
		exporter.WithLogger(logger),
		exporter.WithMaxBackups(cfg.MaxBackups),
		exporter.WithSourceName(cfg.SourceName),
	)
	if _, err := exp.Run(ctx); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}
