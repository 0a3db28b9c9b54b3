package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Fallback tiers.
const (
	TierPerAsset    = "per_asset"
	TierBatch       = "batch"
	TierSnapshot    = "snapshot"
	TierSingleQuote = "single_quote"
)

// Oracle outcomes.
const (
	OutcomeOK      = "ok"
	OutcomeMissing = "missing"
	OutcomeError   = "error"
)

var (
	// Registry holds the application collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "stratofi",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stratofi",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "stratofi",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
		},
		[]string{"method", "path"},
	)

	oracleRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stratofi",
			Subsystem: "oracle",
			Name:      "requests_total",
			Help:      "Price oracle requests by asset and outcome.",
		},
		[]string{"asset", "outcome"},
	)

	oracleDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "stratofi",
			Subsystem: "oracle",
			Name:      "request_duration_seconds",
			Help:      "Duration of price oracle requests.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
		},
		[]string{"asset"},
	)

	fallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stratofi",
			Subsystem: "aggregation",
			Name:      "fallbacks_total",
			Help:      "Static fallback substitutions by tier.",
		},
		[]string{"tier"},
	)

	streamClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "stratofi",
			Subsystem: "stream",
			Name:      "clients",
			Help:      "Connected dashboard stream clients.",
		},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		httpInFlight,
		httpRequests,
		httpDuration,
		oracleRequests,
		oracleDuration,
		fallbacks,
		streamClients,
	)
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

func IncrementInFlight() { httpInFlight.Inc() }
func DecrementInFlight() { httpInFlight.Dec() }

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func RecordOracleRequest(asset, outcome string, duration time.Duration) {
	oracleRequests.WithLabelValues(asset, outcome).Inc()
	oracleDuration.WithLabelValues(asset).Observe(duration.Seconds())
}

func RecordFallback(tier string) {
	fallbacks.WithLabelValues(tier).Inc()
}

func StreamConnected()    { streamClients.Inc() }
func StreamDisconnected() { streamClients.Dec() }
