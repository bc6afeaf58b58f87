package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	WebhookRequests   prometheus.Counter
	CallsImported     prometheus.Counter
	CallsDuplicate    prometheus.Counter
	CallsUnmatched    prometheus.Counter
	SyncRuns          prometheus.Counter
	SyncErrors        prometheus.Counter
	AnalysisSuccesses prometheus.Counter
	AnalysisFailures  prometheus.Counter
	IngestDuration    prometheus.Histogram
}

// NewMetrics creates new Prometheus metrics registered against the given
// registerer. Pass nil to use the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		WebhookRequests: factory.NewCounter(prometheus.CounterOpts{
			Name: "call_coach_webhook_requests_total",
			Help: "Total number of inbound webhook requests",
		}),
		CallsImported: factory.NewCounter(prometheus.CounterOpts{
			Name: "call_coach_calls_imported_total",
			Help: "Total number of calls imported and persisted",
		}),
		CallsDuplicate: factory.NewCounter(prometheus.CounterOpts{
			Name: "call_coach_calls_duplicate_total",
			Help: "Total number of calls skipped as already ingested",
		}),
		CallsUnmatched: factory.NewCounter(prometheus.CounterOpts{
			Name: "call_coach_calls_unmatched_total",
			Help: "Total number of calls routed to the manual review queue",
		}),
		SyncRuns: factory.NewCounter(prometheus.CounterOpts{
			Name: "call_coach_sync_runs_total",
			Help: "Total number of provider sync runs",
		}),
		SyncErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "call_coach_sync_errors_total",
			Help: "Total number of per-call errors during sync runs",
		}),
		AnalysisSuccesses: factory.NewCounter(prometheus.CounterOpts{
			Name: "call_coach_analysis_successes_total",
			Help: "Total number of successful call analyses",
		}),
		AnalysisFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "call_coach_analysis_failures_total",
			Help: "Total number of permanently failed call analyses",
		}),
		IngestDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "call_coach_ingest_duration_seconds",
			Help:    "Time spent processing inbound calls",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
