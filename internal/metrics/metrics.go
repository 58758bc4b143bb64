package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds every simmatch collector plus the Go runtime collectors.
var Registry = prometheus.NewRegistry()

var (
	QueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simmatch_queries_total",
			Help: "Template recommendation queries by outcome",
		},
		[]string{"outcome"},
	)
	QueryDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "simmatch_query_duration_seconds",
			Help:    "End-to-end recommendation latency",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
		},
	)
	EmbedDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "simmatch_embed_duration_seconds",
			Help:    "Latency of embedding provider calls",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		},
	)
	CorpusRecords = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "simmatch_corpus_records",
			Help: "Records in the active snapshot that have an embedding",
		},
	)
	Orphans = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "simmatch_orphans",
			Help: "Records without embeddings and embeddings without records in the active snapshot",
		},
		[]string{"kind"},
	)
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simmatch_http_requests_total",
			Help: "HTTP API requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "simmatch_http_request_duration_seconds",
			Help:    "HTTP API latency by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
)

// Query outcomes.
const (
	OutcomeOK            = "ok"
	OutcomeUnparseable   = "unparseable"
	OutcomeEmbedFailure  = "embed_failure"
	OutcomeCanceled      = "canceled"
	OutcomeInternalError = "error"
)

func init() {
	Registry.MustRegister(
		QueriesTotal, QueryDuration, EmbedDuration, CorpusRecords, Orphans,
		HTTPRequests, HTTPDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}
