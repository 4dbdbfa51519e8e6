// Streamrec - Real-Time Streaming Recommendation Pipeline
// Copyright 2026 Streamrec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamrec/streamrec

package pipeline

import (
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/streamrec/streamrec/internal/codec"
	"github.com/streamrec/streamrec/internal/logging"
	"github.com/streamrec/streamrec/internal/metrics"
	"github.com/streamrec/streamrec/internal/state"
)

// CatalogProjector consumes catalog records and maintains the in-memory
// item snapshot. The projection is last-write-wins per item.
type CatalogProjector struct {
	codec   codec.Codec
	catalog *state.CatalogStore
}

// NewCatalogProjector wires the catalog projection stage.
func NewCatalogProjector(c codec.Codec, catalog *state.CatalogStore) *CatalogProjector {
	return &CatalogProjector{codec: c, catalog: catalog}
}

// Handle applies one catalog record to the snapshot. Undecodable or
// invalid records are dropped and counted.
func (p *CatalogProjector) Handle(msg *message.Message) error {
	item, err := codec.DecodeItem(p.codec, msg.Payload)
	if err != nil {
		metrics.EventsDropped.WithLabelValues("codec").Inc()
		logging.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("Dropping undecodable catalog record")
		return nil
	}
	if err := item.Validate(); err != nil {
		metrics.EventsDropped.WithLabelValues("malformed").Inc()
		logging.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("Dropping invalid catalog record")
		return nil
	}

	p.catalog.Upsert(item)
	metrics.CatalogUpserts.Inc()
	logging.Debug().Str("item_id", item.ID).Msg("Catalog item upserted")
	return nil
}
