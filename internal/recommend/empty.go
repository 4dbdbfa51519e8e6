// Streamrec - Real-Time Streaming Recommendation Pipeline
// Copyright 2026 Streamrec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamrec/streamrec

package recommend

import (
	"time"

	"github.com/google/uuid"

	"github.com/streamrec/streamrec/internal/models"
)

// Empty synthesizes a valid recommendation set with no items. Serving
// uses it to degrade lookups for users with no stored recommendations
// instead of returning an error.
func Empty(userID string, now time.Time) *models.Recommendation {
	return &models.Recommendation{
		ID:           uuid.New().String(),
		UserID:       userID,
		Timestamp:    now.UnixMilli(),
		ContextID:    DefaultContextID,
		Items:        []models.RecommendedItem{},
		ModelVersion: ModelVersion,
	}
}
