package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LedgerSyncMetrics records the outcome of ledger sync attempts per
// entity type.
type LedgerSyncMetrics struct {
	attempts *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewLedgerSyncMetrics registers the sync metrics on the provided registerer.
func NewLedgerSyncMetrics(reg prometheus.Registerer) *LedgerSyncMetrics {
	if reg == nil {
		return &LedgerSyncMetrics{}
	}
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_sync_attempts",
		Help: "Ledger sync attempts by entity type and outcome.",
	}, []string{"entity", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledger_sync_duration_seconds",
		Help:    "Duration of ledger sync calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"entity"})
	reg.MustRegister(attempts, duration)
	return &LedgerSyncMetrics{attempts: attempts, duration: duration}
}

// Observe records one sync attempt.
func (m *LedgerSyncMetrics) Observe(entity, status string, duration time.Duration) {
	if m == nil || m.attempts == nil {
		return
	}
	m.attempts.WithLabelValues(normalizeLabel(entity), normalizeLabel(status)).Inc()
	m.duration.WithLabelValues(normalizeLabel(entity)).Observe(duration.Seconds())
}
