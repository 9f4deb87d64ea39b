// Package metrics defines the prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UpstreamPages counts vPIC page requests by outcome (ok|short|status|error).
	UpstreamPages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recallfinder_upstream_pages_total",
			Help: "Total number of recall-letter pages requested from the vPIC API",
		},
		[]string{"outcome"},
	)

	// DocumentFetches counts PDF downloads by outcome (ok|status|error).
	DocumentFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recallfinder_document_fetches_total",
			Help: "Total number of recall-letter PDF downloads",
		},
		[]string{"outcome"},
	)

	// CacheLookups counts year cache lookups by result (hit|miss|expired).
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recallfinder_cache_lookups_total",
			Help: "Total number of year cache lookups",
		},
		[]string{"result"},
	)

	// CachedYears tracks the number of years held in the cache.
	CachedYears = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recallfinder_cached_years",
			Help: "Number of model years currently cached",
		},
	)

	// RequestLatency measures HTTP handler latency.
	RequestLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recallfinder_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)
