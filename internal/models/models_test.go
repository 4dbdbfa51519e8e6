// Streamrec - Real-Time Streaming Recommendation Pipeline
// Copyright 2026 Streamrec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamrec/streamrec

package models

import "testing"

func TestUserEventValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		event   UserEvent
		wantErr bool
	}{
		{"valid", UserEvent{UserID: "u", ItemID: "i", EventType: EventView, Timestamp: 1}, false},
		{"unknown_type_is_valid", UserEvent{UserID: "u", ItemID: "i", EventType: "FUTURE_TYPE", Timestamp: 1}, false},
		{"missing_user", UserEvent{ItemID: "i", EventType: EventView}, true},
		{"missing_item", UserEvent{UserID: "u", EventType: EventView}, true},
		{"missing_type", UserEvent{UserID: "u", ItemID: "i"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.event.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEventTypeKnown(t *testing.T) {
	t.Parallel()

	for _, known := range []EventType{EventView, EventClick, EventAddToCart, EventPurchase, EventRate, EventSearch, EventLike, EventDislike} {
		if !known.Known() {
			t.Errorf("expected %s to be known", known)
		}
	}
	if EventType("WISHLIST").Known() {
		t.Error("expected WISHLIST to be unknown")
	}
}

func TestProfileCloneIsDeep(t *testing.T) {
	t.Parallel()

	p := NewUserProfile("u")
	p.RecentlyViewedItems["item-1"] = true
	p.ItemRatings["item-1"] = 4.0
	p.CategoryPreferences["books"] = 0.8

	c := p.Clone()
	c.RecentlyViewedItems["item-2"] = true
	c.ItemRatings["item-1"] = 1.0
	c.LastActivityTimestamp = 99

	if p.RecentlyViewedItems["item-2"] {
		t.Error("clone shares the view set")
	}
	if p.ItemRatings["item-1"] != 4.0 {
		t.Error("clone shares the ratings map")
	}
	if p.LastActivityTimestamp != 0 {
		t.Error("clone shares the activity timestamp")
	}
}

func TestRecommendationTruncate(t *testing.T) {
	t.Parallel()

	rec := &Recommendation{
		ID:     "r",
		UserID: "u",
		Items: []RecommendedItem{
			{ItemID: "a"}, {ItemID: "b"}, {ItemID: "c"},
		},
	}

	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"below_len", 2, 2},
		{"zero", 0, 0},
		{"at_len", 3, 3},
		{"above_len", 10, 3},
		{"negative_means_all", -1, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := rec.Truncate(tt.limit)
			if len(got.Items) != tt.want {
				t.Errorf("Truncate(%d) kept %d items, want %d", tt.limit, len(got.Items), tt.want)
			}
			// Prefix order preserved.
			for i, item := range got.Items {
				if item.ItemID != rec.Items[i].ItemID {
					t.Errorf("Truncate reordered items at %d", i)
				}
			}
		})
	}

	// Stored value untouched.
	if len(rec.Items) != 3 {
		t.Error("truncation mutated the stored recommendation")
	}
}

func TestItemValidateAndCategories(t *testing.T) {
	t.Parallel()

	item := Item{ID: "i", Name: "n", Categories: []string{"books"}}
	if err := item.Validate(); err != nil {
		t.Fatalf("expected valid item, got %v", err)
	}
	if !item.HasCategory("books") || item.HasCategory("games") {
		t.Error("HasCategory mismatch")
	}

	if err := (&Item{Name: "n"}).Validate(); err == nil {
		t.Error("expected error for missing id")
	}
	if err := (&Item{ID: "i"}).Validate(); err == nil {
		t.Error("expected error for missing name")
	}
}
