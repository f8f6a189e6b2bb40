package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SearchTotal counts searches by strategy and locale.
	SearchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gemstore_search_total",
		Help: "Total number of catalog searches.",
	}, []string{"strategy", "locale"})

	// SearchZeroResults counts searches that matched nothing.
	SearchZeroResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gemstore_search_zero_results_total",
		Help: "Searches that returned no rows.",
	}, []string{"strategy", "locale"})

	// SearchDuration observes end-to-end search latency.
	SearchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gemstore_search_duration_seconds",
		Help:    "Duration of catalog searches.",
		Buckets: prometheus.DefBuckets,
	}, []string{"strategy"})

	SuggestionTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gemstore_suggestion_total",
		Help: "Total number of suggestion lookups.",
	})

	AnalyticsFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gemstore_search_analytics_failures_total",
		Help: "Search analytics rows that could not be written.",
	})

	// ImportItems counts imported catalog items by outcome (processed, skipped, failed).
	ImportItems = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gemstore_import_items_total",
		Help: "Catalog import items by outcome.",
	}, []string{"outcome"})

	ReindexedGemstones = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gemstore_reindexed_gemstones_total",
		Help: "Gemstones whose search vectors were recomputed by reindex runs.",
	})

	OrderStatusChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gemstore_order_status_changes_total",
		Help: "Order status transitions by target status.",
	}, []string{"status"})
)
