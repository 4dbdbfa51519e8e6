// Streamrec - Real-Time Streaming Recommendation Pipeline
// Copyright 2026 Streamrec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamrec/streamrec

package pipeline

import (
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/streamrec/streamrec/internal/codec"
	"github.com/streamrec/streamrec/internal/logging"
	"github.com/streamrec/streamrec/internal/metrics"
	"github.com/streamrec/streamrec/internal/models"
	"github.com/streamrec/streamrec/internal/state"
	"github.com/streamrec/streamrec/internal/window"
)

// ApplyEvent folds one event into a profile and returns the updated
// profile. The input profile is never mutated; a nil profile starts from
// an empty one. Applying the same event to equal profiles yields equal
// profiles, so changelog replay converges.
func ApplyEvent(profile *models.UserProfile, event *models.UserEvent) *models.UserProfile {
	var updated *models.UserProfile
	if profile == nil {
		updated = models.NewUserProfile(event.UserID)
	} else {
		updated = profile.Clone()
	}

	switch event.EventType {
	case models.EventView:
		updated.RecentlyViewedItems[event.ItemID] = true
	case models.EventPurchase:
		updated.PurchasedItems[event.ItemID] = true
	case models.EventRate:
		// A rating without a score carries no signal for the fold.
		if event.Score != nil {
			updated.ItemRatings[event.ItemID] = *event.Score
		}
	}

	updated.LastActivityTimestamp = event.Timestamp
	return updated
}

// ProfileAggregator consumes user events, folds them into per-user
// profiles, and emits the updated profile downstream. Work is keyed by
// user ID so updates to one profile are strictly ordered.
type ProfileAggregator struct {
	codec    codec.Codec
	store    *state.ProfileStore
	windows  *window.Tumbling
	executor *Executor
}

// NewProfileAggregator wires the aggregation stage.
func NewProfileAggregator(c codec.Codec, store *state.ProfileStore, windows *window.Tumbling, executor *Executor) *ProfileAggregator {
	return &ProfileAggregator{
		codec:    c,
		store:    store,
		windows:  windows,
		executor: executor,
	}
}

// Handle processes one event message and returns the updated profile as
// the output message. Records that cannot be decoded or fail validation
// are dropped and counted; they never halt the stream.
func (a *ProfileAggregator) Handle(msg *message.Message) ([]*message.Message, error) {
	event, err := codec.DecodeEvent(a.codec, msg.Payload)
	if err != nil {
		metrics.EventsDropped.WithLabelValues("codec").Inc()
		logging.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("Dropping undecodable event")
		return nil, nil
	}
	if err := event.Validate(); err != nil {
		metrics.EventsDropped.WithLabelValues("malformed").Inc()
		logging.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("Dropping malformed event")
		return nil, nil
	}
	if !event.EventType.Known() {
		logging.Debug().
			Str("event_type", string(event.EventType)).
			Str("user_id", event.UserID).
			Msg("Unknown event type, recording activity only")
	}

	var payload []byte
	err = a.executor.SubmitWait(msg.Context(), event.UserID, func() error {
		updated := ApplyEvent(a.store.Get(event.UserID), event)
		if err := a.store.Put(updated); err != nil {
			return err
		}
		a.windows.Record(event.UserID, event.Timestamp, time.Now())

		var err error
		payload, err = a.codec.Marshal(updated)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.EventsProcessed.WithLabelValues(string(event.EventType)).Inc()
	logging.Debug().
		Str("user_id", event.UserID).
		Str("event_type", string(event.EventType)).
		Float64("event_score", EventScore(event.EventType)).
		Msg("Profile updated")

	out := message.NewMessage(watermill.NewUUID(), payload)
	out.Metadata.Set("user_id", event.UserID)
	return []*message.Message{out}, nil
}
