// Streamrec - Real-Time Streaming Recommendation Pipeline
// Copyright 2026 Streamrec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamrec/streamrec

package models

// Item is a catalog entry. Items are mutated by full-record upsert keyed by
// ID; the latest write per key wins within the catalog feed.
type Item struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Categories  []string           `json:"categories,omitempty"`
	Features    map[string]float64 `json:"features,omitempty"`
	Metadata    map[string]string  `json:"metadata,omitempty"`
	Popularity  float64            `json:"popularity"`

	// Unix milliseconds, set by the ingestion boundary.
	CreationTimestamp   int64 `json:"creationTimestamp"`
	LastUpdateTimestamp int64 `json:"lastUpdateTimestamp"`
}

// Validate checks required fields and returns an error if validation fails.
func (i *Item) Validate() error {
	if i.ID == "" {
		return &ValidationError{Field: "id", Message: "required"}
	}
	if i.Name == "" {
		return &ValidationError{Field: "name", Message: "required"}
	}
	return nil
}

// PartitionKey returns the key by which this record is sharded.
func (i *Item) PartitionKey() string {
	return i.ID
}

// HasCategory reports whether the item carries the given category.
func (i *Item) HasCategory(category string) bool {
	for _, c := range i.Categories {
		if c == category {
			return true
		}
	}
	return false
}
