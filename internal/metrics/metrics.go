// Package metrics holds the service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PagesIndexed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pagegest_pages_indexed_total",
		Help: "Pages processed by the chunk indexer, by outcome",
	}, []string{"status"})

	Documents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pagegest_documents_total",
		Help: "Documents processed by the ingestion pipeline, by final status",
	}, []string{"status"})

	LinearizeWarnings = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pagegest_linearize_warnings_total",
		Help: "Recoverable span anomalies clipped while linearizing pages",
	})

	SynthesisStrategy = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pagegest_synthesis_strategy_total",
		Help: "Answer synthesis strategy chosen per query",
	}, []string{"strategy"})

	CollaboratorDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pagegest_collaborator_duration_seconds",
		Help:    "Latency of calls to external collaborators",
		Buckets: prometheus.DefBuckets,
	}, []string{"collaborator"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pagegest_http_request_duration_seconds",
		Help:    "HTTP request latency by route pattern",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// Page outcome labels.
const (
	StatusOK           = "ok"
	StatusEmbedFailed  = "embed_failed"
	StatusUploadFailed = "upload_failed"
)
