package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the request pipeline.
type Metrics struct {
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	WebhooksTotal    *prometheus.CounterVec
	QuotaRejections  prometheus.Counter
	MeteringFailures prometheus.Counter
}

// New registers the instruments on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Inbound HTTP requests by method, path and status.",
		}, []string{"method", "path", "status"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		WebhooksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "webhooks_received_total",
			Help: "Verified webhooks by topic and outcome.",
		}, []string{"topic", "outcome"}),
		QuotaRejections: factory.NewCounter(prometheus.CounterOpts{
			Name: "quota_rejections_total",
			Help: "Requests rejected by the plan limiter.",
		}),
		MeteringFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "metering_failures_total",
			Help: "Usage records that could not be persisted.",
		}),
	}
}
