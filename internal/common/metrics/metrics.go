// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BuildsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "builder_builds_completed_total",
			Help: "Total number of agent builds completed, by generation source",
		},
		[]string{"source"},
	)

	BuildsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "builder_builds_failed_total",
			Help: "Total number of agent builds that failed, by stage and error code",
		},
		[]string{"stage", "error_code"},
	)

	BuildDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "builder_build_duration_seconds",
			Help: "Duration of agent builds in seconds",
		},
		[]string{"source"},
	)

	BuildsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "builder_builds_active",
			Help: "Number of builds currently in progress",
		},
	)

	RemoteFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "builder_remote_fallbacks_total",
			Help: "Times remote generation failed and the template path took over",
		},
		[]string{"reason"},
	)

	ValidationIssues = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "builder_validation_issues_total",
			Help: "Output validation findings, by severity",
		},
		[]string{"severity"},
	)

	KnowledgeCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "builder_knowledge_cache_hits_total",
			Help: "Knowledge search results served from Redis",
		},
	)

	KnowledgeCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "builder_knowledge_cache_misses_total",
			Help: "Knowledge searches that hit Elasticsearch",
		},
	)
)
