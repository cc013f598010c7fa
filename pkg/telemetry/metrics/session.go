package metrics

import (
	"phare-hq/phare/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// SessionMetrics tracks session lifecycle and span export outcomes.
//
// Metrics:
//   - phare_sessions_active: Gauge of currently open sessions
//   - phare_sessions_ended_total: Session end count by end state
//   - phare_export_batches_total: Export batch count by status
//   - phare_export_spans_total: Exported span count by status
type SessionMetrics struct {
	sessionsActive prometheus.Gauge
	sessionsEnded  *prometheus.CounterVec
	exportBatches  *prometheus.CounterVec
	exportSpans    *prometheus.CounterVec
}

// NewSessionMetrics creates and registers session metrics with the provided registry.
func NewSessionMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *SessionMetrics {
	sm := &SessionMetrics{
		sessionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "sessions_active",
				Help:      "Number of currently open sessions",
			},
		),

		sessionsEnded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "sessions_ended_total",
				Help:      "Total number of ended sessions by end state",
			},
			[]string{"end_state"},
		),

		exportBatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "export_batches_total",
				Help:      "Total number of span export batches by status",
			},
			[]string{"status"},
		),

		exportSpans: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "export_spans_total",
				Help:      "Total number of spans in export batches by status",
			},
			[]string{"status"},
		),
	}

	registry.MustRegister(
		sm.sessionsActive,
		sm.sessionsEnded,
		sm.exportBatches,
		sm.exportSpans,
	)

	return sm
}

// SessionStarted increments the active session gauge.
func (sm *SessionMetrics) SessionStarted() {
	sm.sessionsActive.Inc()
}

// SessionEnded decrements the active session gauge and counts the end state.
func (sm *SessionMetrics) SessionEnded(endState string) {
	sm.sessionsActive.Dec()
	sm.sessionsEnded.WithLabelValues(endState).Inc()
}

// RecordExport records the outcome of a span export batch.
func (sm *SessionMetrics) RecordExport(status string, spans int) {
	sm.exportBatches.WithLabelValues(status).Inc()
	if spans > 0 {
		sm.exportSpans.WithLabelValues(status).Add(float64(spans))
	}
}
