package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry

	// HTTP request rate. Watch for: sudden drops (service down) or spikes (refresh storms).
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency per request. Watch for: p95 increases on /snapshot (should be near zero, reads never block).
	HTTPRequestDuration *prometheus.HistogramVec

	// Concurrent requests in flight. Watch for: many long ?wait=true refreshes.
	HTTPRequestsInFlight prometheus.Gauge

	// Upstream provider call rate. Watch for: error vs success ratio per provider.
	ProviderCallsTotal *prometheus.CounterVec

	// Upstream latency per call. Watch for: p99 approaching the provider timeout.
	ProviderDuration *prometheus.HistogramVec

	// Provider failures by category. Watch for: auth (token expired), circuit_open (upstream down).
	ProviderErrorsTotal *prometheus.CounterVec

	// Circuit breaker state per provider: 0 closed, 1 half-open, 2 open.
	CircuitBreakerState *prometheus.GaugeVec

	// Poll passes by outcome (success, partial, failed, abandoned).
	PollPassesTotal *prometheus.CounterVec

	// Duration of a full fetch + merge pass.
	PollPassDuration *prometheus.HistogramVec

	// On-demand refresh requests; result is "scheduled" or "coalesced" into a pending pass.
	RefreshRequestsTotal *prometheus.CounterVec

	// Last published sequence per domain.
	SnapshotSequence *prometheus.GaugeVec

	// Unix time of the last successful merge per domain. Watch for: now - value > 2 intervals.
	SnapshotLastSuccess *prometheus.GaugeVec

	// 1 when the published snapshot carries stale data for the domain.
	SnapshotStale *prometheus.GaugeVec

	// Snapshot mirror writes by backend and status.
	MirrorWritesTotal *prometheus.CounterVec

	// Rate limit denials on the refresh endpoint.
	RateLimitDeniedTotal prometheus.Counter
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "HTTP request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "httpRequestsInFlight",
			Help: "Number of HTTP requests currently being served",
		},
	)
	ProviderCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "providerCallsTotal",
			Help: "Total number of upstream provider calls",
		},
		[]string{"provider", "status"},
	)
	ProviderDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "providerDurationSeconds",
			Help:    "Upstream provider latency in seconds (per call)",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"provider", "status"},
	)
	ProviderErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "providerErrorsTotal",
			Help: "Upstream provider failures by error category",
		},
		[]string{"provider", "category"},
	)
	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuitBreakerState",
			Help: "Circuit breaker state per provider (0 closed, 1 half-open, 2 open)",
		},
		[]string{"provider"},
	)
	PollPassesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pollPassesTotal",
			Help: "Poll passes by domain and outcome",
		},
		[]string{"domain", "outcome"},
	)
	PollPassDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pollPassDurationSeconds",
			Help:    "Duration of one fetch and merge pass in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"domain"},
	)
	RefreshRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refreshRequestsTotal",
			Help: "On-demand refresh requests by domain and result (scheduled, coalesced)",
		},
		[]string{"domain", "result"},
	)
	SnapshotSequence = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "snapshotSequence",
			Help: "Sequence number of the last published snapshot",
		},
		[]string{"domain"},
	)
	SnapshotLastSuccess = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "snapshotLastSuccessTimestampSeconds",
			Help: "Unix time of the last successful merge",
		},
		[]string{"domain"},
	)
	SnapshotStale = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "snapshotStale",
			Help: "1 when the published snapshot holds data from an earlier cycle",
		},
		[]string{"domain"},
	)
	MirrorWritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mirrorWritesTotal",
			Help: "Snapshot mirror writes by backend and status",
		},
		[]string{"backend", "status"},
	)
	RateLimitDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rateLimitDeniedTotal",
			Help: "Total number of refresh requests denied by rate limiter (429)",
		},
	)

	registry.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight,
		ProviderCallsTotal, ProviderDuration, ProviderErrorsTotal, CircuitBreakerState,
		PollPassesTotal, PollPassDuration, RefreshRequestsTotal,
		SnapshotSequence, SnapshotLastSuccess, SnapshotStale,
		MirrorWritesTotal,
		RateLimitDeniedTotal,
	)
}

// MetricsHandler returns an http.Handler that serves application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
