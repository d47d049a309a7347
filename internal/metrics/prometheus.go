package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AnalysesTotal counts finished analyses by terminal state.
	AnalysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitemapsage_analyses_total",
			Help: "Total number of completed sitemap analyses",
		},
		[]string{"state"},
	)

	// StageDuration tracks per-stage pipeline durations in seconds.
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sitemapsage_stage_duration_seconds",
			Help:    "Duration of analysis pipeline stages in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12), // 50ms to ~100s
		},
		[]string{"stage"},
	)

	// WorkersActive tracks the number of jobs currently being processed.
	WorkersActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sitemapsage_workers_active",
			Help: "Number of analysis jobs currently in flight",
		},
	)

	// URLsExtracted observes the size of fetched sitemap URL sets.
	URLsExtracted = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sitemapsage_sitemap_urls_extracted",
			Help:    "Number of URLs extracted per sitemap fetch",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8), // 1 to ~16k
		},
	)

	// ClusterRequests counts outbound clustering requests by outcome.
	ClusterRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitemapsage_cluster_requests_total",
			Help: "Total number of clustering service requests",
		},
		[]string{"outcome"},
	)
)
