package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the assistant gateway.
type Metrics struct {
	RequestTotal      *prometheus.CounterVec
	RequestDurationMs *prometheus.HistogramVec
	GuardActionTotal  *prometheus.CounterVec
	IngestFileTotal   *prometheus.CounterVec
	RateLimitHitTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		RequestTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "assistant_request_total",
			Help: "Total number of chat requests processed.",
		}, []string{"org", "category", "outcome"}),

		RequestDurationMs: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "assistant_request_duration_ms",
			Help:    "Total request duration in milliseconds (including capability latency).",
			Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000},
		}, []string{"category"}),

		GuardActionTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "assistant_guard_action_total",
			Help: "Guard pipeline actions by stage.",
		}, []string{"stage", "action"}),

		IngestFileTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "assistant_ingest_file_total",
			Help: "Uploaded files processed by extraction method and outcome.",
		}, []string{"method", "outcome"}),

		RateLimitHitTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "assistant_rate_limit_hit_total",
			Help: "Requests rejected by rate limiting.",
		}, []string{"org"}),
	}
}

// RecordRequest records a completed chat request.
func (m *Metrics) RecordRequest(org, category, outcome string, durationMs float64) {
	m.RequestTotal.WithLabelValues(org, category, outcome).Inc()
	m.RequestDurationMs.WithLabelValues(category).Observe(durationMs)
}

// RecordGuardAction records one guard stage outcome.
func (m *Metrics) RecordGuardAction(stage, action string) {
	m.GuardActionTotal.WithLabelValues(stage, action).Inc()
}

// RecordIngestFile records one upload's extraction outcome.
func (m *Metrics) RecordIngestFile(method, outcome string) {
	m.IngestFileTotal.WithLabelValues(method, outcome).Inc()
}

// RecordRateLimitHit records a rate-limited request.
func (m *Metrics) RecordRateLimitHit(org string) {
	m.RateLimitHitTotal.WithLabelValues(org).Inc()
}
