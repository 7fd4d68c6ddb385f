package skill

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "tunego"

var (
	metricSearches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: module,
		Name:      "searches_total",
		Help:      "Directory searches by outcome.",
	}, []string{"outcome"})

	metricSuggestionRetries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: module,
		Name:      "suggestion_retries_total",
		Help:      "Searches repeated with a suggested term.",
	})

	metricMatchConfidence = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: module,
		Name:      "match_confidence",
		Help:      "Confidence of fuzzy station selections.",
		Buckets:   prometheus.LinearBuckets(10, 10, 10),
	})

	metricResolveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: module,
		Name:      "resolve_duration_seconds",
		Help:      "Time taken to resolve a query to a stream url.",
		Buckets:   prometheus.DefBuckets,
	})

	metricPlaying = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Subsystem: module,
		Name:      "playing",
		Help:      "1 while a station is playing.",
	})

	metricRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: module,
		Name:      "requests_total",
		Help:      "Play requests by entry point and result.",
	}, []string{"source", "result"})

	metricAliases = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Subsystem: module,
		Name:      "aliases",
		Help:      "Number of loaded aliases.",
	})

	metricAliasReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: module,
		Name:      "alias_reloads_total",
		Help:      "Alias reloads triggered by file changes.",
	}, []string{"result"})
)
