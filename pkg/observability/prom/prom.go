// Package prom implements the observability hooks with Prometheus collectors.
package prom

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/matzehuels/netgraph/pkg/observability"
)

const namespace = "netgraph"

// Metrics holds the collectors behind the build, cache and HTTP hooks.
type Metrics struct {
	loadDuration  *prometheus.HistogramVec
	buildTotal    *prometheus.CounterVec
	buildDuration prometheus.Histogram
	graphSize     *prometheus.HistogramVec
	violations    *prometheus.CounterVec
	cacheOps      *prometheus.CounterVec
	cacheBytes    prometheus.Counter
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
}

// New creates and registers the collectors with reg.
// Use prometheus.DefaultRegisterer to expose them on the default handler.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		loadDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "load_duration_seconds",
			Help:      "Time spent reading netlists.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
		}, []string{"status"}),
		buildTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "builds_total",
			Help:      "Graph builds by outcome.",
		}, []string{"status"}),
		buildDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Time spent constructing connectivity graphs.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 16), // 0.1ms to ~3s
		}),
		graphSize: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "graph_size",
			Help:      "Vertex and edge counts of built graphs.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 12),
		}, []string{"element"}),
		violations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "net_violations_total",
			Help:      "Nets rejected during graph construction, by violation kind.",
		}, []string{"kind"}),
		cacheOps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_operations_total",
			Help:      "Cache lookups and writes.",
		}, []string{"key_type", "op"}),
		cacheBytes: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_written_bytes_total",
			Help:      "Bytes written to the cache.",
		}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP API requests by route and status code.",
		}, []string{"method", "route", "code"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP API latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Register installs m as the global build, cache and HTTP hooks.
func (m *Metrics) Register() {
	observability.SetBuildHooks(m)
	observability.SetCacheHooks(m)
	observability.SetHTTPHooks(m)
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *Metrics) OnLoadStart(context.Context, string) {}

func (m *Metrics) OnLoadComplete(_ context.Context, _ string, _ int, d time.Duration, err error) {
	m.loadDuration.WithLabelValues(status(err)).Observe(d.Seconds())
}

func (m *Metrics) OnBuildStart(context.Context, string, int) {}

func (m *Metrics) OnBuildComplete(_ context.Context, _ string, vertices, edges int, d time.Duration, err error) {
	m.buildTotal.WithLabelValues(status(err)).Inc()
	m.buildDuration.Observe(d.Seconds())
	if err == nil {
		m.graphSize.WithLabelValues("vertices").Observe(float64(vertices))
		m.graphSize.WithLabelValues("edges").Observe(float64(edges))
	}
}

func (m *Metrics) OnViolation(_ context.Context, _, _ string, kind string) {
	m.violations.WithLabelValues(kind).Inc()
}

func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.cacheOps.WithLabelValues(keyType, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.cacheOps.WithLabelValues(keyType, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.cacheOps.WithLabelValues(keyType, "set").Inc()
	m.cacheBytes.Add(float64(size))
}

func (m *Metrics) OnRequest(context.Context, string, string) {}

func (m *Metrics) OnResponse(_ context.Context, method, route string, code int, d time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

var (
	_ observability.BuildHooks = (*Metrics)(nil)
	_ observability.CacheHooks = (*Metrics)(nil)
	_ observability.HTTPHooks  = (*Metrics)(nil)
)
