// Streamrec - Real-Time Streaming Recommendation Pipeline
// Copyright 2026 Streamrec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamrec/streamrec

package pipeline

import (
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/streamrec/streamrec/internal/codec"
	"github.com/streamrec/streamrec/internal/models"
	"github.com/streamrec/streamrec/internal/state"
)

func TestExtractFeatureVector(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	event := &models.UserEvent{
		UserID:    "user-1",
		ItemID:    "item-1",
		EventType: models.EventClick,
		Timestamp: now.Add(-time.Minute).UnixMilli(),
	}
	item := &models.Item{
		ID:         "item-1",
		Categories: []string{"books", "fiction"},
		Features:   map[string]float64{"page_count": 320},
		Popularity: 0.7,
	}

	vector := Extract(event, item, now)
	if vector.ItemID != "item-1" {
		t.Errorf("expected vector keyed by item, got %s", vector.ItemID)
	}

	want := map[string]float64{
		"event_score":      2.0,
		"item_page_count":  320,
		"category_books":   1.0,
		"category_fiction": 1.0,
		"item_popularity":  0.7,
		"recency":          float64(time.Minute.Milliseconds()),
	}
	if len(vector.Features) != len(want) {
		t.Fatalf("expected %d features, got %d: %v", len(want), len(vector.Features), vector.Features)
	}
	for name, value := range want {
		if got := vector.Features[name]; got != value {
			t.Errorf("feature %s = %v, want %v", name, got, value)
		}
	}
}

func TestExtractWithoutItem(t *testing.T) {
	t.Parallel()

	now := time.Now()
	event := &models.UserEvent{
		UserID:    "user-1",
		ItemID:    "item-1",
		EventType: models.EventSearch,
		Timestamp: now.UnixMilli(),
	}

	vector := Extract(event, nil, now)
	if got := vector.Features["event_score"]; got != 0.5 {
		t.Errorf("expected event_score 0.5, got %v", got)
	}
	if _, ok := vector.Features["item_popularity"]; ok {
		t.Error("expected no item features without a catalog match")
	}
	if _, ok := vector.Features["recency"]; !ok {
		t.Error("expected recency even without a catalog match")
	}
}

func TestExtractClampsFutureTimestamps(t *testing.T) {
	t.Parallel()

	now := time.Now()
	event := &models.UserEvent{
		UserID:    "user-1",
		ItemID:    "item-1",
		EventType: models.EventView,
		Timestamp: now.Add(5 * time.Second).UnixMilli(),
	}

	vector := Extract(event, nil, now)
	if got := vector.Features["recency"]; got != 0 {
		t.Errorf("expected recency clamped to 0 for a future timestamp, got %v", got)
	}
}

func TestFeatureExtractorJoin(t *testing.T) {
	t.Parallel()

	catalog := state.NewCatalogStore()
	catalog.Upsert(&models.Item{ID: "item-1", Name: "Known", Popularity: 0.5})
	extractor := NewFeatureExtractor(codec.NewJSON(), catalog)

	hit := &models.UserEvent{UserID: "u", ItemID: "item-1", EventType: models.EventView, Timestamp: 1}
	miss := &models.UserEvent{UserID: "u", ItemID: "item-unknown", EventType: models.EventView, Timestamp: 1}

	for _, event := range []*models.UserEvent{hit, miss} {
		payload, err := codec.EncodeEvent(codec.NewJSON(), event)
		if err != nil {
			t.Fatalf("encoding event: %v", err)
		}
		if err := extractor.Handle(message.NewMessage(watermill.NewUUID(), payload)); err != nil {
			t.Fatalf("handle: %v", err)
		}
	}

	// Undecodable payloads are dropped, not errored.
	if err := extractor.Handle(message.NewMessage(watermill.NewUUID(), []byte("oops"))); err != nil {
		t.Fatalf("expected drop, got error: %v", err)
	}
}

func TestFeatureExtractorMissYieldsPartialVector(t *testing.T) {
	t.Parallel()

	extractor := NewFeatureExtractor(codec.NewJSON(), state.NewCatalogStore())

	now := time.Now()
	event := &models.UserEvent{
		UserID:    "u",
		ItemID:    "item-unknown",
		EventType: models.EventClick,
		Timestamp: now.Add(-time.Second).UnixMilli(),
	}

	vector, hit := extractor.extract(event, now)
	if hit {
		t.Fatal("expected a catalog miss")
	}
	if len(vector.Features) != 2 {
		t.Fatalf("expected only event_score and recency, got %v", vector.Features)
	}
	if got := vector.Features["event_score"]; got != 2.0 {
		t.Errorf("event_score = %v, want 2.0", got)
	}
	if got := vector.Features["recency"]; got != float64(time.Second.Milliseconds()) {
		t.Errorf("recency = %v, want %v", got, time.Second.Milliseconds())
	}
}

func TestCatalogProjectorUpsert(t *testing.T) {
	t.Parallel()

	catalog := state.NewCatalogStore()
	projector := NewCatalogProjector(codec.NewJSON(), catalog)

	item := &models.Item{ID: "item-1", Name: "First", Popularity: 0.2}
	payload, err := codec.EncodeItem(codec.NewJSON(), item)
	if err != nil {
		t.Fatalf("encoding item: %v", err)
	}
	if err := projector.Handle(message.NewMessage(watermill.NewUUID(), payload)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if got := catalog.Get("item-1"); got == nil || got.Name != "First" {
		t.Fatalf("expected item-1 in catalog, got %+v", got)
	}

	// Replacement record wins.
	item.Name = "Second"
	payload, _ = codec.EncodeItem(codec.NewJSON(), item)
	if err := projector.Handle(message.NewMessage(watermill.NewUUID(), payload)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if got := catalog.Get("item-1"); got.Name != "Second" {
		t.Fatalf("expected replacement to win, got %+v", got)
	}

	// Invalid records are dropped.
	if err := projector.Handle(message.NewMessage(watermill.NewUUID(), []byte(`{"name":"no id"}`))); err != nil {
		t.Fatalf("expected drop, got error: %v", err)
	}
	if catalog.Len() != 1 {
		t.Fatalf("expected 1 item, got %d", catalog.Len())
	}
}
