// Streamrec - Real-Time Streaming Recommendation Pipeline
// Copyright 2026 Streamrec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamrec/streamrec

// Package metrics provides Prometheus instrumentation for the pipeline and
// the API layer. All collectors are registered with the default registry
// and exposed on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Pipeline metrics

	EventsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamrec_events_processed_total",
			Help: "Total user events folded into profiles, by event type",
		},
		[]string{"event_type"},
	)

	EventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamrec_events_dropped_total",
			Help: "Total records dropped without processing, by reason",
		},
		[]string{"reason"}, // "malformed", "codec"
	)

	CatalogUpserts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "streamrec_catalog_upserts_total",
			Help: "Total catalog item upserts applied to the snapshot",
		},
	)

	CatalogJoins = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamrec_catalog_joins_total",
			Help: "Total stream-to-catalog lookups, by outcome",
		},
		[]string{"outcome"}, // "hit", "miss"
	)

	ProfileUpdates = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "streamrec_profile_updates_total",
			Help: "Total user profile updates committed",
		},
	)

	ActiveWindows = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "streamrec_activity_windows",
			Help: "Tumbling activity windows currently retained",
		},
	)

	WindowsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "streamrec_activity_windows_evicted_total",
			Help: "Activity windows evicted after close plus grace",
		},
	)

	RecommendationsGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "streamrec_recommendations_generated_total",
			Help: "Total recommendation sets generated",
		},
	)

	GenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "streamrec_generation_duration_seconds",
			Help:    "Recommendation generation latency",
			Buckets: prometheus.DefBuckets,
		},
	)

	ChangelogWrites = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "streamrec_changelog_writes_total",
			Help: "Profile changelog entries appended",
		},
	)

	ServingDegraded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "streamrec_serving_degraded_total",
			Help: "Recommendation lookups degraded to an empty result",
		},
	)

	// API metrics

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamrec_api_requests_total",
			Help: "Total API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "streamrec_api_request_duration_seconds",
			Help:    "API request duration",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "endpoint"},
	)
)

// RecordAPIRequest records a completed API request.
func RecordAPIRequest(method, endpoint string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
