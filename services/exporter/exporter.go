// Package exporter orchestrates the task export pipeline: extract from the
// store, transform to the external schema, fingerprint, and load to the
// output directory only when the data changed.
package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tasknest/go-task-export/internal/domain"
	"github.com/tasknest/go-task-export/internal/etl"
	"github.com/tasknest/go-task-export/internal/postgres"
	"github.com/tasknest/go-task-export/pkg/telemetry"
)

const defaultConnectTimeout = 10 * time.Second

// Exporter runs the pipeline once. Construct a fresh Exporter per run; a
// second Run call on the same instance fails.
type Exporter struct {
	dsn            string
	outputDir      string
	maxBackups     int
	sourceName     string
	connectTimeout time.Duration
	logger         *slog.Logger
	clock          func() time.Time
	source         postgres.TaskSource

	state State
	ran   atomic.Bool
}

// Option configures an Exporter.
type Option func(*Exporter)

func WithLogger(l *slog.Logger) Option { return func(e *Exporter) { e.logger = l } }
func WithMaxBackups(n int) Option      { return func(e *Exporter) { e.maxBackups = n } }
func WithSourceName(s string) Option   { return func(e *Exporter) { e.sourceName = s } }

func WithConnectTimeout(d time.Duration) Option {
	return func(e *Exporter) { e.connectTimeout = d }
}

// WithClock overrides the extraction-time clock. Tests use it to pin
// version tokens and overdue judgments.
func WithClock(clock func() time.Time) Option { return func(e *Exporter) { e.clock = clock } }

// WithTaskSource injects a ready task source, bypassing the Postgres
// connection entirely.
func WithTaskSource(src postgres.TaskSource) Option {
	return func(e *Exporter) { e.source = src }
}

// New constructs an Exporter reading from the store at dsn and writing to
// outputDir.
func New(dsn, outputDir string, opts ...Option) *Exporter {
	e := &Exporter{
		dsn:            dsn,
		outputDir:      outputDir,
		maxBackups:     etl.DefaultMaxBackups,
		sourceName:     "todo-api",
		connectTimeout: defaultConnectTimeout,
		logger:         slog.Default(),
		clock:          time.Now,
		state:          StateIdle,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State returns the current run state.
func (e *Exporter) State() State { return e.state }

// Run executes one full pipeline pass. The store connection is scoped to
// the run and released on every exit path; stage failures propagate after
// cleanup, never swallowed. Returns the load outcome on success.
func (e *Exporter) Run(ctx context.Context) (domain.LoadResult, error) {
	if !e.ran.CompareAndSwap(false, true) {
		return domain.LoadResult{}, fmt.Errorf("exporter is single-run: construct a new one per run")
	}

	start := time.Now()
	runID := uuid.New().String()[:8]
	log := e.logger.With(slog.String("run_id", runID))

	ctx, span := otel.Tracer("exporter").Start(ctx, "pipeline.run")
	defer span.End()
	span.SetAttributes(
		attribute.String("run.id", runID),
		attribute.String("export.output_dir", e.outputDir),
	)

	if err := os.MkdirAll(e.outputDir, 0o755); err != nil {
		return domain.LoadResult{}, e.fail(log, span, &domain.LoadFailedError{Path: e.outputDir, Cause: err})
	}

	e.transition(log, StateConnecting)
	src := e.source
	var pool *pgxpool.Pool
	if src == nil {
		connectCtx, cancel := context.WithTimeout(ctx, e.connectTimeout)
		var err error
		pool, err = postgres.NewPool(connectCtx, e.dsn)
		cancel()
		if err != nil {
			failErr := e.fail(log, span, err)
			e.transition(log, StateDisconnected)
			return domain.LoadResult{}, failErr
		}
		src = postgres.NewSource(pool)
	}
	defer func() {
		if pool != nil {
			pool.Close()
		}
		e.transition(log, StateDisconnected)
	}()

	e.transition(log, StateExtracting)
	records, err := e.extract(ctx, src)
	if err != nil {
		return domain.LoadResult{}, e.fail(log, span, err)
	}
	log.Info("extracted tasks", slog.Int("count", len(records)))

	e.transition(log, StateTransforming)
	dataset, err := e.transform(ctx, records)
	if err != nil {
		return domain.LoadResult{}, e.fail(log, span, err)
	}

	e.transition(log, StateLoading)
	result, err := e.load(ctx, log, dataset)
	if err != nil {
		return domain.LoadResult{}, e.fail(log, span, err)
	}

	elapsed := time.Since(start)
	telemetry.ExportTasksExtracted.Set(float64(len(records)))
	telemetry.ExportRunDurationSeconds.Observe(elapsed.Seconds())

	if result.Saved {
		e.transition(log, StateCommitted)
		telemetry.ExportRunsTotal.WithLabelValues("saved").Inc()
		log.Info("export committed",
			slog.Int("count", result.Count),
			slog.String("version", result.Version),
			slog.String("hash", result.Hash),
			slog.Duration("elapsed", elapsed),
		)
	} else {
		e.transition(log, StateSkipped)
		telemetry.ExportRunsTotal.WithLabelValues("skipped").Inc()
		log.Info("export skipped",
			slog.Int("count", dataset.Metadata.Count),
			slog.String("reason", result.Reason),
			slog.Duration("elapsed", elapsed),
		)
	}
	return result, nil
}

func (e *Exporter) extract(ctx context.Context, src postgres.TaskSource) ([]domain.TaskRecord, error) {
	ctx, span := otel.Tracer("exporter").Start(ctx, "pipeline.extract")
	defer span.End()

	records, err := src.ListAll(ctx)
	if err != nil {
		recordSpanError(span, err, "extract failed")
		return nil, err
	}
	span.SetAttributes(attribute.Int("export.records", len(records)))
	return records, nil
}

func (e *Exporter) transform(ctx context.Context, records []domain.TaskRecord) (*domain.Dataset, error) {
	_, span := otel.Tracer("exporter").Start(ctx, "pipeline.transform")
	defer span.End()

	dataset, err := etl.Transform(records, e.clock(), e.sourceName)
	if err != nil {
		recordSpanError(span, err, "transform failed")
		return nil, err
	}
	span.SetAttributes(attribute.String("export.version", dataset.Metadata.Version))
	return dataset, nil
}

func (e *Exporter) load(ctx context.Context, log *slog.Logger, dataset *domain.Dataset) (domain.LoadResult, error) {
	_, span := otel.Tracer("exporter").Start(ctx, "pipeline.load",
		trace.WithAttributes(attribute.Int("export.count", dataset.Metadata.Count)))
	defer span.End()

	loader := etl.NewLoader(e.outputDir, e.maxBackups, log)
	result, err := loader.Load(dataset)
	if err != nil {
		recordSpanError(span, err, "load failed")
		return domain.LoadResult{}, err
	}
	span.SetAttributes(attribute.Bool("export.saved", result.Saved))
	return result, nil
}

// fail marks the run failed and returns err unchanged so the caller can
// propagate it after the deferred disconnect.
func (e *Exporter) fail(log *slog.Logger, span trace.Span, err error) error {
	e.transition(log, StateFailed)
	recordSpanError(span, err, "pipeline failed")
	telemetry.ExportRunsTotal.WithLabelValues("failed").Inc()
	log.Error("pipeline failed",
		slog.String("state", string(StateFailed)),
		slog.String("error", err.Error()),
	)
	return err
}

func (e *Exporter) transition(log *slog.Logger, next State) {
	// Terminal outcomes survive the deferred disconnect; the release is
	// still logged so every exit path shows the connection was let go.
	if next == StateDisconnected && e.state.IsTerminal() {
		log.Debug("store connection released", slog.String("state", string(e.state)))
		return
	}
	log.Debug("stage transition",
		slog.String("from", string(e.state)),
		slog.String("to", string(next)),
	)
	e.state = next
}

func recordSpanError(span trace.Span, err error, msg string) {
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
}
