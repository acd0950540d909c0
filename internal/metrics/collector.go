// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Collector aggregates the Prometheus instruments for the workflow
// builder service.
type Collector struct {
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	graphMutationsTotal *prometheus.CounterVec
	mutationsRejected   *prometheus.CounterVec
	handleVersionBumps  prometheus.Counter

	compileDuration prometheus.Histogram
	workflowSaves   prometheus.Counter
	workflowDeletes prometheus.Counter

	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter

	logger *zap.Logger
}

// NewCollector registers the instruments on reg. Tests pass a fresh
// prometheus.NewRegistry; the service passes the default registerer.
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	factory := promauto.With(reg)
	return &Collector{
		httpRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		httpRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		graphMutationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "graph_mutations_total",
			Help:      "Graph store mutations by operation",
		}, []string{"op"}),
		mutationsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "graph_mutations_rejected_total",
			Help:      "Graph mutations rejected by invariant checks",
		}, []string{"code"}),
		handleVersionBumps: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handle_version_bumps_total",
			Help:      "Router handle version increments, including trailing bumps",
		}),
		compileDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "compile_duration_seconds",
			Help:      "Graph compilation duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		workflowSaves: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflow_saves_total",
			Help:      "Workflows saved",
		}),
		workflowDeletes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflow_deletes_total",
			Help:      "Workflows deleted",
		}),
		cacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "document_cache_hits_total",
			Help:      "Document cache hits",
		}),
		cacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "document_cache_misses_total",
			Help:      "Document cache misses",
		}),
		logger: logger.With(zap.String("component", "metrics")),
	}
}

// RecordHTTPRequest records one served request.
func (c *Collector) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	c.httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordMutation records a graph store mutation.
func (c *Collector) RecordMutation(op string) {
	c.graphMutationsTotal.WithLabelValues(op).Inc()
}

// RecordRejected records a mutation rejected by an invariant check.
func (c *Collector) RecordRejected(code string) {
	c.mutationsRejected.WithLabelValues(code).Inc()
}

// RecordVersionBump records a handle version increment.
func (c *Collector) RecordVersionBump() {
	c.handleVersionBumps.Inc()
}

// RecordCompile records one compilation pass.
func (c *Collector) RecordCompile(duration time.Duration) {
	c.compileDuration.Observe(duration.Seconds())
}

// RecordSave records a persisted workflow.
func (c *Collector) RecordSave() { c.workflowSaves.Inc() }

// RecordDelete records a deleted workflow.
func (c *Collector) RecordDelete() { c.workflowDeletes.Inc() }

// RecordCacheHit records a document cache hit.
func (c *Collector) RecordCacheHit() { c.cacheHits.Inc() }

// RecordCacheMiss records a document cache miss.
func (c *Collector) RecordCacheMiss() { c.cacheMisses.Inc() }
