// Package metrics provides the Prometheus registry of the catalog service.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "backtest_catalog"

var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	BackendRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "backend_requests_total",
		Help:      "Total number of data backend queries by collection and outcome",
	}, []string{"collection", "outcome"})
	PageRendersTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "page_renders_total",
		Help:      "Total number of catalog pages rendered by display mode",
	}, []string{"mode"})
	OvershootCorrectionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "overshoot_corrections_total",
		Help:      "Total number of empty pages corrected by stepping back",
	})
	MalformedPayloadsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "malformed_payloads_total",
		Help:      "Total number of performance payloads that could not be read",
	})
)

// Histogram metrics
var (
	BackendRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "backend_request_duration_seconds",
		Help:      "Duration of data backend queries in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"collection"})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(collectors.NewGoCollector())
		registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

		registry.MustRegister(BackendRequestsTotal)
		registry.MustRegister(PageRendersTotal)
		registry.MustRegister(OvershootCorrectionsTotal)
		registry.MustRegister(MalformedPayloadsTotal)

		registry.MustRegister(BackendRequestDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	return InitRegistry()
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordBackendRequest records one backend query. outcome is "ok" or "error".
func RecordBackendRequest(collection string, durationSeconds float64, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	BackendRequestsTotal.WithLabelValues(collection, outcome).Inc()
	BackendRequestDuration.WithLabelValues(collection).Observe(durationSeconds)
}

// RecordPageRender records a rendered catalog page.
func RecordPageRender(mobile bool) {
	mode := "desktop"
	if mobile {
		mode = "mobile"
	}
	PageRendersTotal.WithLabelValues(mode).Inc()
}

// RecordOvershootCorrection records one step back from an empty page.
func RecordOvershootCorrection() {
	OvershootCorrectionsTotal.Inc()
}

// RecordMalformedPayload records a payload that rendered as no data.
func RecordMalformedPayload() {
	MalformedPayloadsTotal.Inc()
}
