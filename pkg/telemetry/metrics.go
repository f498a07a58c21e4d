package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ExportRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taskexport",
		Subsystem: "pipeline",
		Name:      "runs_total",
		Help:      "Total pipeline runs, labelled by outcome: saved, skipped or failed.",
	}, []string{"outcome"})

	ExportTasksExtracted = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "taskexport",
		Subsystem: "pipeline",
		Name:      "tasks_extracted",
		Help:      "Number of tasks extracted by the most recent run.",
	})

	ExportRunDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "taskexport",
		Subsystem: "pipeline",
		Name:      "run_duration_seconds",
		Help:      "End-to-end pipeline run time in seconds.",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
	})

	ExportBackupsPruned = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "taskexport",
		Subsystem: "loader",
		Name:      "backups_pruned_total",
		Help:      "Total versioned backup files deleted by retention.",
	})
)
