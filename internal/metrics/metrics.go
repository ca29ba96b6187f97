// Package metrics registers docqd's Prometheus instruments.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the pipeline's Prometheus counters.
type Metrics struct {
	QueriesTotal        prometheus.Counter
	QueriesRejected     prometheus.Counter
	QueriesFailed       prometheus.Counter
	CacheHits           prometheus.Counter
	CacheMisses         prometheus.Counter
	InferenceCalls      prometheus.Counter
	DocumentsIngested   prometheus.Counter
	ChunksIndexed       prometheus.Counter
	NotifyFailures      prometheus.Counter
	RetrievalDegraded   prometheus.Counter
	FilterFallbacksUsed prometheus.Counter
}

// New registers the docqd metrics on the given registerer. Pass
// prometheus.DefaultRegisterer in the daemon; tests use a private registry
// so parallel packages do not collide.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		QueriesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "docqd_queries_total",
			Help: "Total questions accepted into the pipeline.",
		}),
		QueriesRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "docqd_queries_rejected_total",
			Help: "Questions rejected by the content filter.",
		}),
		QueriesFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "docqd_queries_failed_total",
			Help: "Questions that ended in the failed state.",
		}),
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "docqd_cache_hits_total",
			Help: "Answers served from the response cache.",
		}),
		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "docqd_cache_misses_total",
			Help: "Cache lookups that fell through to inference.",
		}),
		InferenceCalls: factory.NewCounter(prometheus.CounterOpts{
			Name: "docqd_inference_calls_total",
			Help: "Completion calls made to the language model.",
		}),
		DocumentsIngested: factory.NewCounter(prometheus.CounterOpts{
			Name: "docqd_documents_ingested_total",
			Help: "Documents successfully extracted and indexed.",
		}),
		ChunksIndexed: factory.NewCounter(prometheus.CounterOpts{
			Name: "docqd_chunks_indexed_total",
			Help: "Chunks embedded and stored in the vector index.",
		}),
		NotifyFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "docqd_notify_failures_total",
			Help: "Notification deliveries that failed (best-effort, logged).",
		}),
		RetrievalDegraded: factory.NewCounter(prometheus.CounterOpts{
			Name: "docqd_retrieval_degraded_total",
			Help: "Queries answered without context after a retrieval failure.",
		}),
		FilterFallbacksUsed: factory.NewCounter(prometheus.CounterOpts{
			Name: "docqd_filter_fallbacks_total",
			Help: "Times the content filter failed and the configured fallback applied.",
		}),
	}
}

// NewNop returns metrics bound to a throwaway registry, for tests.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
