package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/coursedash/coursedash/internal/dashcore"
)

var (
	runsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "coursedash",
		Subsystem: "pipeline",
		Name:      "runs_total",
		Help:      "Total pipeline runs started.",
	})

	stageDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "coursedash",
		Subsystem: "pipeline",
		Name:      "stage_duration_seconds",
		Help:      "Stage duration in seconds, by stage.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"stage"})

	rowsNormalizedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coursedash",
		Subsystem: "pipeline",
		Name:      "rows_normalized_total",
		Help:      "Rows kept by normalization, by source file.",
	}, []string{"file"})

	rowsExcludedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coursedash",
		Subsystem: "pipeline",
		Name:      "rows_excluded_total",
		Help:      "Rows excluded by normalization, by source file.",
	}, []string{"file"})

	diagnosticsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coursedash",
		Subsystem: "pipeline",
		Name:      "diagnostics_total",
		Help:      "Validation diagnostics emitted, by severity.",
	}, []string{"severity"})
)

// MetricsHooks returns Hooks that publish run telemetry as Prometheus
// metrics. Combine with other hooks via Chain when needed.
func MetricsHooks() Hooks {
	return Hooks{
		StageStarted: func(stage string) {
			if stage == "decode" {
				runsTotal.Inc()
			}
		},
		StageCompleted: func(stage string, elapsed time.Duration) {
			stageDurationSeconds.WithLabelValues(stage).Observe(elapsed.Seconds())
		},
		RowsNormalized: func(file string, kept, decoded int) {
			rowsNormalizedTotal.WithLabelValues(file).Add(float64(kept))
			rowsExcludedTotal.WithLabelValues(file).Add(float64(decoded - kept))
		},
		Diagnostics: func(diags []dashcore.ValidationError) {
			for _, d := range diags {
				diagnosticsTotal.WithLabelValues(string(d.Severity)).Inc()
			}
		},
	}
}

// Chain fans telemetry out to several hook sets in order.
func Chain(hooks ...Hooks) Hooks {
	return Hooks{
		StageStarted: func(stage string) {
			for _, h := range hooks {
				h.stageStarted(stage)
			}
		},
		StageCompleted: func(stage string, elapsed time.Duration) {
			for _, h := range hooks {
				h.stageCompleted(stage, elapsed)
			}
		},
		RowsNormalized: func(file string, kept, decoded int) {
			for _, h := range hooks {
				h.rowsNormalized(file, kept, decoded)
			}
		},
		Diagnostics: func(diags []dashcore.ValidationError) {
			for _, h := range hooks {
				h.diagnostics(diags)
			}
		},
	}
}
