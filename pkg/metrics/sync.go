package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SyncMetrics records pass durations and per-order outcomes for
// background sync workers.
type SyncMetrics struct {
	duration *prometheus.HistogramVec
	synced   *prometheus.CounterVec
	failed   *prometheus.CounterVec
}

// NewSyncMetrics registers the sync worker metrics on the provided registerer.
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	if reg == nil {
		return &SyncMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sync_pass_duration_seconds",
		Help:    "Duration of sync passes in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	synced := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_orders_synced",
		Help: "Orders successfully pushed to the downstream system.",
	}, []string{"job"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_orders_failed",
		Help: "Orders that failed to sync.",
	}, []string{"job"})
	reg.MustRegister(duration, synced, failed)
	return &SyncMetrics{
		duration: duration,
		synced:   synced,
		failed:   failed,
	}
}

// ObserveDuration records the duration for one pass of the named job.
func (s *SyncMetrics) ObserveDuration(job string, duration time.Duration) {
	if s == nil || s.duration == nil {
		return
	}
	s.duration.WithLabelValues(normalizeLabel(job)).Observe(duration.Seconds())
}

// AddSynced adds the number of orders synced during one pass.
func (s *SyncMetrics) AddSynced(job string, n int) {
	if s == nil || s.synced == nil || n <= 0 {
		return
	}
	s.synced.WithLabelValues(normalizeLabel(job)).Add(float64(n))
}

// AddFailed adds the number of orders that failed during one pass.
func (s *SyncMetrics) AddFailed(job string, n int) {
	if s == nil || s.failed == nil || n <= 0 {
		return
	}
	s.failed.WithLabelValues(normalizeLabel(job)).Add(float64(n))
}

func normalizeLabel(job string) string {
	if job == "" {
		return "unknown"
	}
	return job
}
