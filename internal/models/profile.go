// Streamrec - Real-Time Streaming Recommendation Pipeline
// Copyright 2026 Streamrec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamrec/streamrec

package models

// UserProfile is the per-user aggregate folded from that user's event
// stream. One instance exists per user, created lazily on the first event
// and never deleted by the pipeline.
//
// Sets are represented as map[string]bool so that repeated insertion of the
// same member is a no-op, which makes the fold idempotent under exact
// duplicate replay.
type UserProfile struct {
	UserID              string             `json:"userId"`
	CategoryPreferences map[string]float64 `json:"categoryPreferences,omitempty"`
	FeaturePreferences  map[string]float64 `json:"featurePreferences,omitempty"`
	RecentlyViewedItems map[string]bool    `json:"recentlyViewedItems,omitempty"`
	PurchasedItems      map[string]bool    `json:"purchasedItems,omitempty"`
	ItemRatings         map[string]float64 `json:"itemRatings,omitempty"`

	// Unix milliseconds of the most recent event for this user.
	LastActivityTimestamp int64 `json:"lastActivityTimestamp"`
}

// NewUserProfile returns an empty profile seeded with the user ID.
func NewUserProfile(userID string) *UserProfile {
	return &UserProfile{
		UserID:              userID,
		CategoryPreferences: make(map[string]float64),
		FeaturePreferences:  make(map[string]float64),
		RecentlyViewedItems: make(map[string]bool),
		PurchasedItems:      make(map[string]bool),
		ItemRatings:         make(map[string]float64),
	}
}

// Clone returns a deep copy. The fold mutates copies so that previously
// emitted profiles are never changed retroactively.
func (p *UserProfile) Clone() *UserProfile {
	c := &UserProfile{
		UserID:                p.UserID,
		CategoryPreferences:   make(map[string]float64, len(p.CategoryPreferences)),
		FeaturePreferences:    make(map[string]float64, len(p.FeaturePreferences)),
		RecentlyViewedItems:   make(map[string]bool, len(p.RecentlyViewedItems)),
		PurchasedItems:        make(map[string]bool, len(p.PurchasedItems)),
		ItemRatings:           make(map[string]float64, len(p.ItemRatings)),
		LastActivityTimestamp: p.LastActivityTimestamp,
	}
	for k, v := range p.CategoryPreferences {
		c.CategoryPreferences[k] = v
	}
	for k, v := range p.FeaturePreferences {
		c.FeaturePreferences[k] = v
	}
	for k, v := range p.RecentlyViewedItems {
		c.RecentlyViewedItems[k] = v
	}
	for k, v := range p.PurchasedItems {
		c.PurchasedItems[k] = v
	}
	for k, v := range p.ItemRatings {
		c.ItemRatings[k] = v
	}
	return c
}

// HasPurchased reports whether the user has purchased the given item.
func (p *UserProfile) HasPurchased(itemID string) bool {
	return p.PurchasedItems[itemID]
}
