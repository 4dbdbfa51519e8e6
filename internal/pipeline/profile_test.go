// Streamrec - Real-Time Streaming Recommendation Pipeline
// Copyright 2026 Streamrec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamrec/streamrec

package pipeline

import (
	"bytes"
	"context"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/streamrec/streamrec/internal/codec"
	"github.com/streamrec/streamrec/internal/logging"
	"github.com/streamrec/streamrec/internal/models"
	"github.com/streamrec/streamrec/internal/state"
	"github.com/streamrec/streamrec/internal/window"
)

func ptrFloat(v float64) *float64 { return &v }

func TestApplyEventFold(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		event models.UserEvent
		check func(t *testing.T, p *models.UserProfile)
	}{
		{
			name:  "view_adds_recently_viewed",
			event: models.UserEvent{UserID: "u", ItemID: "item-1", EventType: models.EventView, Timestamp: 100},
			check: func(t *testing.T, p *models.UserProfile) {
				if !p.RecentlyViewedItems["item-1"] {
					t.Error("expected item-1 in recently viewed")
				}
				if len(p.PurchasedItems) != 0 || len(p.ItemRatings) != 0 {
					t.Error("view must not touch purchases or ratings")
				}
			},
		},
		{
			name:  "purchase_adds_purchased",
			event: models.UserEvent{UserID: "u", ItemID: "item-2", EventType: models.EventPurchase, Timestamp: 100},
			check: func(t *testing.T, p *models.UserProfile) {
				if !p.PurchasedItems["item-2"] {
					t.Error("expected item-2 in purchased")
				}
			},
		},
		{
			name:  "rate_with_score_records_rating",
			event: models.UserEvent{UserID: "u", ItemID: "item-3", EventType: models.EventRate, Score: ptrFloat(4.5), Timestamp: 100},
			check: func(t *testing.T, p *models.UserProfile) {
				if got := p.ItemRatings["item-3"]; got != 4.5 {
					t.Errorf("expected rating 4.5, got %v", got)
				}
			},
		},
		{
			name:  "rate_without_score_is_noop",
			event: models.UserEvent{UserID: "u", ItemID: "item-3", EventType: models.EventRate, Timestamp: 100},
			check: func(t *testing.T, p *models.UserProfile) {
				if len(p.ItemRatings) != 0 {
					t.Error("rating without score must not be recorded")
				}
			},
		},
		{
			name:  "click_updates_activity_only",
			event: models.UserEvent{UserID: "u", ItemID: "item-4", EventType: models.EventClick, Timestamp: 100},
			check: func(t *testing.T, p *models.UserProfile) {
				if len(p.RecentlyViewedItems)+len(p.PurchasedItems)+len(p.ItemRatings) != 0 {
					t.Error("click must only update activity timestamp")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ApplyEvent(nil, &tt.event)
			if got.UserID != "u" {
				t.Errorf("expected profile for user u, got %s", got.UserID)
			}
			if got.LastActivityTimestamp != 100 {
				t.Errorf("expected lastActivityTimestamp 100, got %d", got.LastActivityTimestamp)
			}
			tt.check(t, got)
		})
	}
}

func TestApplyEventDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	base := models.NewUserProfile("u")
	base.RecentlyViewedItems["item-0"] = true
	base.LastActivityTimestamp = 50

	event := &models.UserEvent{UserID: "u", ItemID: "item-1", EventType: models.EventView, Timestamp: 100}
	updated := ApplyEvent(base, event)

	if base.LastActivityTimestamp != 50 {
		t.Error("input profile timestamp mutated")
	}
	if base.RecentlyViewedItems["item-1"] {
		t.Error("input profile view set mutated")
	}
	if !updated.RecentlyViewedItems["item-0"] || !updated.RecentlyViewedItems["item-1"] {
		t.Error("updated profile missing expected views")
	}
}

func TestApplyEventIdempotentForSets(t *testing.T) {
	t.Parallel()

	event := &models.UserEvent{UserID: "u", ItemID: "item-1", EventType: models.EventPurchase, Timestamp: 100}
	once := ApplyEvent(nil, event)
	twice := ApplyEvent(once, event)

	if len(twice.PurchasedItems) != 1 {
		t.Errorf("expected 1 purchased item after replay, got %d", len(twice.PurchasedItems))
	}
	if twice.LastActivityTimestamp != once.LastActivityTimestamp {
		t.Error("replaying the same event must converge")
	}
}

func TestEventScoreTable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		eventType models.EventType
		want      float64
	}{
		{models.EventView, 1.0},
		{models.EventClick, 2.0},
		{models.EventAddToCart, 3.0},
		{models.EventPurchase, 5.0},
		{models.EventRate, 4.0},
		{models.EventSearch, 0.5},
		{models.EventLike, 2.5},
		{models.EventDislike, -1.0},
		{models.EventType("BOGUS"), 0.0},
	}
	for _, tt := range tests {
		if got := EventScore(tt.eventType); got != tt.want {
			t.Errorf("EventScore(%s) = %v, want %v", tt.eventType, got, tt.want)
		}
	}
}

func newTestAggregator(t *testing.T) (*ProfileAggregator, *state.ProfileStore, *Executor) {
	t.Helper()
	store := state.NewProfileStore(nil, nil)
	windows := window.NewTumbling(10*time.Minute, 10*time.Minute)
	executor := NewExecutor(4)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = executor.Drain(ctx)
	})
	return NewProfileAggregator(codec.NewJSON(), store, windows, executor), store, executor
}

func TestProfileAggregatorHandle(t *testing.T) {
	t.Parallel()

	agg, store, _ := newTestAggregator(t)
	c := codec.NewJSON()

	event := &models.UserEvent{
		UserID:    "user-1",
		ItemID:    "item-1",
		EventType: models.EventView,
		Timestamp: time.Now().UnixMilli(),
	}
	payload, err := codec.EncodeEvent(c, event)
	if err != nil {
		t.Fatalf("encoding event: %v", err)
	}

	out, err := agg.Handle(message.NewMessage(watermill.NewUUID(), payload))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 output message, got %d", len(out))
	}

	profile := store.Get("user-1")
	if profile == nil || !profile.RecentlyViewedItems["item-1"] {
		t.Fatal("expected stored profile with item-1 viewed")
	}

	// The output carries the updated profile.
	decoded, err := codec.DecodeProfile(c, out[0].Payload)
	if err != nil {
		t.Fatalf("decoding output: %v", err)
	}
	if decoded.UserID != "user-1" || !decoded.RecentlyViewedItems["item-1"] {
		t.Errorf("unexpected output profile: %+v", decoded)
	}
	if out[0].Metadata.Get("user_id") != "user-1" {
		t.Error("expected user_id metadata on output")
	}
}

func TestProfileAggregatorDropsMalformed(t *testing.T) {
	t.Parallel()

	agg, store, _ := newTestAggregator(t)

	// Not JSON at all.
	out, err := agg.Handle(message.NewMessage(watermill.NewUUID(), []byte("{not json")))
	if err != nil || out != nil {
		t.Fatalf("expected undecodable record to be dropped silently, got out=%v err=%v", out, err)
	}

	// Valid JSON, missing required fields.
	out, err = agg.Handle(message.NewMessage(watermill.NewUUID(), []byte(`{"itemId":"item-1"}`)))
	if err != nil || out != nil {
		t.Fatalf("expected invalid record to be dropped silently, got out=%v err=%v", out, err)
	}

	if store.Len() != 0 {
		t.Error("dropped records must not create profiles")
	}
}

func TestApplyEventSequenceResumable(t *testing.T) {
	t.Parallel()

	events := []models.UserEvent{
		{UserID: "u", ItemID: "item-1", EventType: models.EventView, Timestamp: 100},
		{UserID: "u", ItemID: "item-2", EventType: models.EventClick, Timestamp: 200},
		{UserID: "u", ItemID: "item-1", EventType: models.EventRate, Score: ptrFloat(4.0), Timestamp: 300},
		{UserID: "u", ItemID: "item-2", EventType: models.EventPurchase, Timestamp: 400},
		{UserID: "u", ItemID: "item-3", EventType: models.EventDislike, Timestamp: 500},
	}

	fold := func(start *models.UserProfile, events []models.UserEvent) *models.UserProfile {
		p := start
		for i := range events {
			p = ApplyEvent(p, &events[i])
		}
		return p
	}

	full := fold(nil, events)
	if !full.RecentlyViewedItems["item-1"] || !full.PurchasedItems["item-2"] {
		t.Fatalf("unexpected cumulative profile: %+v", full)
	}
	if got := full.ItemRatings["item-1"]; got != 4.0 {
		t.Fatalf("rating = %v, want 4.0", got)
	}
	if full.LastActivityTimestamp != 500 {
		t.Fatalf("timestamp = %d, want 500", full.LastActivityTimestamp)
	}

	// Folding a prefix and resuming from its result reaches the same
	// state as one continuous pass, for every split point.
	for k := 0; k <= len(events); k++ {
		prefix := fold(nil, events[:k])
		resumed := fold(prefix, events[k:])
		if !reflect.DeepEqual(resumed, full) {
			t.Errorf("split at %d diverged: %+v vs %+v", k, resumed, full)
		}
	}
}

func TestProfileAggregatorLogsUnknownEventType(t *testing.T) {
	var buf bytes.Buffer
	logging.Init(logging.Config{Level: "debug", Output: &buf})
	defer logging.Init(logging.Config{})

	agg, store, _ := newTestAggregator(t)
	c := codec.NewJSON()

	event := &models.UserEvent{
		UserID:    "user-1",
		ItemID:    "item-1",
		EventType: "WISHLIST",
		Timestamp: 100,
	}
	payload, err := codec.EncodeEvent(c, event)
	if err != nil {
		t.Fatalf("encoding event: %v", err)
	}
	out, err := agg.Handle(message.NewMessage(watermill.NewUUID(), payload))
	if err != nil || len(out) != 1 {
		t.Fatalf("unknown types still update the profile, got out=%v err=%v", out, err)
	}

	if !strings.Contains(buf.String(), "Unknown event type") {
		t.Errorf("expected unknown event type log, got: %s", buf.String())
	}
	profile := store.Get("user-1")
	if profile == nil || profile.LastActivityTimestamp != 100 {
		t.Fatal("expected activity timestamp update for unknown type")
	}
	if len(profile.RecentlyViewedItems)+len(profile.PurchasedItems)+len(profile.ItemRatings) != 0 {
		t.Error("unknown types must not touch the fold sets")
	}
}
