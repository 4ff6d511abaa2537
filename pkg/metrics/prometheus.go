package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	providerCalls *prometheus.CounterVec
	fetchLatency  *prometheus.HistogramVec
	cacheServes   *prometheus.CounterVec
	rateLimitUsed prometheus.Gauge
	rateLimitMax  prometheus.Gauge
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		providerCalls: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "heatmap_provider_calls_total",
				Help: "Total provider calls by endpoint and outcome",
			},
			[]string{"endpoint", "outcome"},
		),
		fetchLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "heatmap_provider_fetch_duration_seconds",
				Help:    "Duration of provider fetches in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		cacheServes: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "heatmap_cache_serves_total",
				Help: "Responses served from cache by kind (fresh, fallback, stale)",
			},
			[]string{"kind"},
		),
		rateLimitUsed: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "heatmap_rate_limit_used",
			Help: "Provider calls consumed in the current minute window",
		}),
		rateLimitMax: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "heatmap_rate_limit_budget",
			Help: "Configured per-minute provider call budget",
		}),
	}
}

// RecordProviderCall records one provider call attempt outcome.
func (r *Recorder) RecordProviderCall(endpoint, outcome string) {
	r.providerCalls.WithLabelValues(endpoint, outcome).Inc()
}

// RecordFetchLatency records provider call latency in seconds.
func (r *Recorder) RecordFetchLatency(endpoint string, seconds float64) {
	r.fetchLatency.WithLabelValues(endpoint).Observe(seconds)
}

// RecordRateLimit records the limiter window state after a reservation.
func (r *Recorder) RecordRateLimit(used, limit int) {
	r.rateLimitUsed.Set(float64(used))
	r.rateLimitMax.Set(float64(limit))
}

// RecordCacheServe records a payload served from cache.
func (r *Recorder) RecordCacheServe(kind string) {
	r.cacheServes.WithLabelValues(kind).Inc()
}
