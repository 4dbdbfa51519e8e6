// Streamrec - Real-Time Streaming Recommendation Pipeline
// Copyright 2026 Streamrec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamrec/streamrec

package models

import "time"

// RecommendedItem is one entry of a recommendation list.
type RecommendedItem struct {
	ItemID string  `json:"itemId"`
	Score  float64 `json:"score"`

	// ScoreComponents breaks the score down for explanation, e.g.
	// {"category_match": 0.9, "popularity": 0.24}.
	ScoreComponents map[string]float64 `json:"scoreComponents,omitempty"`
	Explanation     string             `json:"explanation,omitempty"`
}

// Recommendation is the ranked recommendation set for one user. It is
// regenerated wholesale on every profile update; the previous value for the
// user is replaced, never merged.
//
// Items are sorted by score descending, ties broken by ascending item ID so
// that generation is deterministic for a fixed profile and catalog.
type Recommendation struct {
	ID           string            `json:"id"`
	UserID       string            `json:"userId"`
	Timestamp    int64             `json:"timestamp"` // unix milliseconds
	ContextID    string            `json:"contextId,omitempty"`
	Items        []RecommendedItem `json:"items"`
	ModelVersion string            `json:"modelVersion"`
	ExperimentID string            `json:"experimentId,omitempty"`
}

// Truncate returns the recommendation with at most limit items. The stored
// value is not modified; serving truncation never triggers recomputation.
func (r *Recommendation) Truncate(limit int) *Recommendation {
	if limit < 0 || limit >= len(r.Items) {
		return r
	}
	out := *r
	out.Items = r.Items[:limit]
	return &out
}

// FeatureVector is the ephemeral output of the stream-to-catalog join: one
// vector per (event, catalog lookup) pair.
type FeatureVector struct {
	ItemID   string             `json:"itemId"`
	Features map[string]float64 `json:"features"`
}

// ActivityWindow counts events for one user within a 10-minute tumbling
// window. The count is monotonically non-decreasing until the window closes
// and its grace period elapses.
type ActivityWindow struct {
	UserID      string    `json:"userId"`
	WindowStart time.Time `json:"windowStart"`
	WindowEnd   time.Time `json:"windowEnd"`
	EventCount  int64     `json:"eventCount"`
}
