// Package metrics holds the Prometheus collectors exported at /metrics.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricNamespace = "marquee"

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricNamespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests served, by method, route and status code",
		},
		[]string{"method", "route", "code"},
	)

	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricNamespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency, by method and route",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	EligibilityEvaluations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricNamespace,
			Subsystem: "campaigns",
			Name:      "eligibility_evaluations_total",
			Help:      "Eligibility lookups, by source (cache or store)",
		},
		[]string{"source"},
	)

	CacheErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: metricNamespace,
			Subsystem: "cache",
			Name:      "errors_total",
			Help:      "Redis cache operations that failed",
		},
	)

	MQTTPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricNamespace,
			Subsystem: "mqtt",
			Name:      "published_total",
			Help:      "Notifications handed to the broker, by result",
		},
		[]string{"result"},
	)

	MQTTReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricNamespace,
			Subsystem: "mqtt",
			Name:      "received_total",
			Help:      "Inbound device messages, by kind and result",
		},
		[]string{"kind", "result"},
	)
)

var registerOnce sync.Once

// Register adds every collector to the default registry. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			HTTPRequests,
			HTTPDuration,
			EligibilityEvaluations,
			CacheErrors,
			MQTTPublished,
			MQTTReceived,
		)
	})
}

// Handler serves the default registry in the Prometheus exposition format.
func Handler() http.Handler {
	Register()
	return promhttp.Handler()
}
