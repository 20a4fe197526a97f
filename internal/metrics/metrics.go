// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultPath is the HTTP path for the Prometheus scrape endpoint.
const DefaultPath = "/metrics"

const namespace = "bigbrother"

var registry = prometheus.NewRegistry()

var (
	activeStreams = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "live_streams_active",
		Help:      "Live log streams currently attached to a registry bus.",
	})

	streamsOpened = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "live_streams_opened_total",
		Help:      "Live log stream requests by outcome.",
	}, []string{"outcome"})

	tokensIssued = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tokens_issued_total",
		Help:      "Signed tokens issued by kind.",
	}, []string{"kind"})

	verifyFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_verify_failures_total",
		Help:      "Token verification failures by reason.",
	}, []string{"reason"})

	tokensSwept = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "refresh_tokens_swept_total",
		Help:      "Refresh tokens evicted from the active set by the sweeper.",
	})

	registryErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registry_errors_total",
		Help:      "Process registry failures by operation.",
	}, []string{"op"})

	sinkDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sink_records_dropped_total",
		Help:      "Live log records dropped because the sink buffer was full.",
	})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method, route pattern and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

func init() {
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		activeStreams,
		streamsOpened,
		tokensIssued,
		verifyFailures,
		tokensSwept,
		registryErrors,
		sinkDropped,
		httpDuration,
	)
}

// Handler serves the collectors in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
}

// Registry exposes the underlying registry for tests.
func Registry() *prometheus.Registry { return registry }

func StreamOpened()           { activeStreams.Inc(); streamsOpened.WithLabelValues("ok").Inc() }
func StreamClosed()           { activeStreams.Dec() }
func StreamFailed()           { streamsOpened.WithLabelValues("bus_error").Inc() }
func TokenIssued(kind string) { tokensIssued.WithLabelValues(kind).Inc() }
func VerifyFailed(reason string) {
	verifyFailures.WithLabelValues(reason).Inc()
}
func TokensSwept(n int)       { tokensSwept.Add(float64(n)) }
func RegistryError(op string) { registryErrors.WithLabelValues(op).Inc() }
func SinkDropped()            { sinkDropped.Inc() }

// ObserveHTTP records one served request. route is the chi route pattern, so
// path parameters never explode label cardinality.
func ObserveHTTP(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}
