// Streamrec - Real-Time Streaming Recommendation Pipeline
// Copyright 2026 Streamrec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamrec/streamrec

// Package pipeline contains the stream processing stages: profile
// aggregation, catalog projection, feature extraction, and
// recommendation generation, plus the partitioned executor that
// serializes per-user work.
package pipeline

import "github.com/streamrec/streamrec/internal/models"

// eventWeights maps each event type to its interaction strength.
var eventWeights = map[models.EventType]float64{
	models.EventView:      1.0,
	models.EventClick:     2.0,
	models.EventAddToCart: 3.0,
	models.EventPurchase:  5.0,
	models.EventRate:      4.0,
	models.EventSearch:    0.5,
	models.EventLike:      2.5,
	models.EventDislike:   -1.0,
}

// EventScore returns the interaction weight for an event type. Unknown
// types score zero.
func EventScore(eventType models.EventType) float64 {
	return eventWeights[eventType]
}
