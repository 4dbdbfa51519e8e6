// Streamrec - Real-Time Streaming Recommendation Pipeline
// Copyright 2026 Streamrec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamrec/streamrec

package pipeline

import (
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/streamrec/streamrec/internal/codec"
	"github.com/streamrec/streamrec/internal/logging"
	"github.com/streamrec/streamrec/internal/metrics"
	"github.com/streamrec/streamrec/internal/models"
	"github.com/streamrec/streamrec/internal/state"
)

// Extract joins an event with its catalog item and builds the feature
// vector: the event's interaction weight, the item's own features under
// an item_ prefix, a unit feature per category, popularity, and the
// event's age in milliseconds at extraction time.
func Extract(event *models.UserEvent, item *models.Item, now time.Time) models.FeatureVector {
	features := map[string]float64{
		"event_score": EventScore(event.EventType),
	}

	if item != nil {
		for key, value := range item.Features {
			features["item_"+key] = value
		}
		for _, category := range item.Categories {
			features["category_"+category] = 1.0
		}
		features["item_popularity"] = item.Popularity
	}

	age := now.UnixMilli() - event.Timestamp
	if age < 0 {
		// Clock skew between producer and extractor.
		age = 0
	}
	features["recency"] = float64(age)

	return models.FeatureVector{
		ItemID:   event.ItemID,
		Features: features,
	}
}

// FeatureExtractor consumes user events and emits a feature vector per
// event, joined against the catalog when the item is known. This stage
// is terminal: the vectors feed model training, which is outside the
// pipeline, so they are surfaced through logs and metrics only.
type FeatureExtractor struct {
	codec   codec.Codec
	catalog *state.CatalogStore
}

// NewFeatureExtractor wires the feature extraction stage.
func NewFeatureExtractor(c codec.Codec, catalog *state.CatalogStore) *FeatureExtractor {
	return &FeatureExtractor{codec: c, catalog: catalog}
}

// Handle extracts features for one event. A missing catalog item counts
// as a join miss and yields a partial vector, not an error.
func (f *FeatureExtractor) Handle(msg *message.Message) error {
	event, err := codec.DecodeEvent(f.codec, msg.Payload)
	if err != nil {
		metrics.EventsDropped.WithLabelValues("codec").Inc()
		logging.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("Dropping undecodable event")
		return nil
	}
	if err := event.Validate(); err != nil {
		metrics.EventsDropped.WithLabelValues("malformed").Inc()
		return nil
	}

	vector, hit := f.extract(event, time.Now())
	logging.Debug().
		Str("item_id", vector.ItemID).
		Str("user_id", event.UserID).
		Int("features", len(vector.Features)).
		Bool("catalog_hit", hit).
		Msg("Features extracted")
	return nil
}

// extract joins the event against the catalog. A miss still yields a
// partial vector: event_score and recency carry signal without the item
// record.
func (f *FeatureExtractor) extract(event *models.UserEvent, now time.Time) (models.FeatureVector, bool) {
	item := f.catalog.Get(event.ItemID)
	if item == nil {
		metrics.CatalogJoins.WithLabelValues("miss").Inc()
	} else {
		metrics.CatalogJoins.WithLabelValues("hit").Inc()
	}
	return Extract(event, item, now), item != nil
}
