// Package metrics exposes the gateway's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tollgate"

// Metrics holds the gateway collectors on a private registry so tests
// can run multiple instances without duplicate-registration panics.
type Metrics struct {
	registry *prometheus.Registry

	proxiedRequests   *prometheus.CounterVec
	upstreamLatency   *prometheus.HistogramVec
	transactions      prometheus.Counter
	builderFailures   prometheus.Counter
	rawSnapshotsSwept prometheus.Counter
}

// New creates the collectors and registers them along with the
// standard Go runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		proxiedRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "proxied_requests_total",
			Help:      "Proxied upstream exchanges by provider and status class.",
		}, []string{"provider", "status_class"}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_latency_seconds",
			Help:      "Wall time of the upstream call, per provider.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"provider"}),
		transactions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_recorded_total",
			Help:      "Transactions persisted by the background builder.",
		}),
		builderFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "builder_failures_total",
			Help:      "Background transaction builds that failed.",
		}),
		rawSnapshotsSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "raw_snapshots_swept_total",
			Help:      "Raw request/response snapshots removed by retention.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.proxiedRequests,
		m.upstreamLatency,
		m.transactions,
		m.builderFailures,
		m.rawSnapshotsSwept,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveProxiedRequest records one completed upstream exchange.
func (m *Metrics) ObserveProxiedRequest(provider string, statusCode int, elapsed time.Duration) {
	class := strconv.Itoa(statusCode / 100 * 100)
	m.proxiedRequests.WithLabelValues(provider, class).Inc()
	m.upstreamLatency.WithLabelValues(provider).Observe(elapsed.Seconds())
}

// TransactionRecorded counts one persisted transaction.
func (m *Metrics) TransactionRecorded() { m.transactions.Inc() }

// BuilderFailed counts one failed background build.
func (m *Metrics) BuilderFailed() { m.builderFailures.Inc() }

// RawSnapshotsSwept counts snapshots removed by the retention job.
func (m *Metrics) RawSnapshotsSwept(n int64) { m.rawSnapshotsSwept.Add(float64(n)) }
