// Streamrec - Real-Time Streaming Recommendation Pipeline
// Copyright 2026 Streamrec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamrec/streamrec

// Package api exposes the HTTP boundary: event and catalog ingestion
// plus recommendation serving.
package api

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/streamrec/streamrec/internal/models"
)

var validate = validator.New()

// SubmitEventRequest is the body of POST /api/events.
type SubmitEventRequest struct {
	UserID      string   `json:"userId" validate:"required"`
	ItemID      string   `json:"itemId" validate:"required"`
	EventType   string   `json:"eventType" validate:"required"`
	Timestamp   int64    `json:"timestamp,omitempty"`
	Score       *float64 `json:"score,omitempty"`
	SessionID   string   `json:"sessionId,omitempty"`
	ContextInfo string   `json:"contextInfo,omitempty"`
}

// ToEvent converts the request to a domain event, defaulting the
// timestamp to now (unix ms) when the caller omitted it.
func (r *SubmitEventRequest) ToEvent(nowMs int64) *models.UserEvent {
	ts := r.Timestamp
	if ts == 0 {
		ts = nowMs
	}
	return &models.UserEvent{
		UserID:      r.UserID,
		ItemID:      r.ItemID,
		EventType:   models.EventType(r.EventType),
		Timestamp:   ts,
		Score:       r.Score,
		SessionID:   r.SessionID,
		ContextInfo: r.ContextInfo,
	}
}

// SubmitItemRequest is the body of POST /api/items and PUT /api/items/{id}.
type SubmitItemRequest struct {
	ID          string             `json:"id" validate:"required"`
	Name        string             `json:"name" validate:"required"`
	Description string             `json:"description,omitempty"`
	Categories  []string           `json:"categories,omitempty"`
	Features    map[string]float64 `json:"features,omitempty"`
	Metadata    map[string]string  `json:"metadata,omitempty"`
	Popularity  float64            `json:"popularity,omitempty"`
}

// ToItem converts the request to a catalog item. The ingestion boundary
// stamps both timestamps; an update is a full-record replacement, so its
// creation timestamp restarts with the new record.
func (r *SubmitItemRequest) ToItem(creationMs, updateMs int64) *models.Item {
	return &models.Item{
		ID:                  r.ID,
		Name:                r.Name,
		Description:         r.Description,
		Categories:          r.Categories,
		Features:            r.Features,
		Metadata:            r.Metadata,
		Popularity:          r.Popularity,
		CreationTimestamp:   creationMs,
		LastUpdateTimestamp: updateMs,
	}
}

// validateRequest runs struct validation and flattens the first failure
// into a readable message.
func validateRequest(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
		return fmt.Errorf("field %s failed on %s", errs[0].Field(), errs[0].Tag())
	}
	return err
}
