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
	"github.com/streamrec/streamrec/internal/recommend"
	"github.com/streamrec/streamrec/internal/state"
)

// RecommendationWriter is the serving-store surface the generation stage
// writes through.
type RecommendationWriter interface {
	Put(rec *models.Recommendation) error
}

// Generator consumes updated profiles and regenerates the user's
// recommendation set against the current catalog snapshot. The stored set
// is replaced wholesale on every update.
type Generator struct {
	codec    codec.Codec
	catalog  *state.CatalogStore
	store    RecommendationWriter
	executor *Executor
}

// NewGenerator wires the recommendation generation stage.
func NewGenerator(c codec.Codec, catalog *state.CatalogStore, store RecommendationWriter, executor *Executor) *Generator {
	return &Generator{
		codec:    c,
		catalog:  catalog,
		store:    store,
		executor: executor,
	}
}

// Handle regenerates recommendations for the profile carried by the
// message. Generation is keyed by user so a newer profile update can
// never be overwritten by an older one racing it.
func (g *Generator) Handle(msg *message.Message) error {
	profile, err := codec.DecodeProfile(g.codec, msg.Payload)
	if err != nil {
		metrics.EventsDropped.WithLabelValues("codec").Inc()
		logging.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("Dropping undecodable profile update")
		return nil
	}

	return g.executor.SubmitWait(msg.Context(), profile.UserID, func() error {
		rec := recommend.Generate(profile, g.catalog.Snapshot(), time.Now())
		if err := g.store.Put(rec); err != nil {
			return err
		}
		logging.Debug().
			Str("user_id", profile.UserID).
			Int("items", len(rec.Items)).
			Msg("Recommendations regenerated")
		return nil
	})
}
