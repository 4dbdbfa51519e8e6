// Streamrec - Real-Time Streaming Recommendation Pipeline
// Copyright 2026 Streamrec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamrec/streamrec

package models

// EventType classifies a user interaction.
type EventType string

// Known event types. Unknown values are tolerated throughout the pipeline:
// they carry zero weight and update only the profile's activity timestamp.
const (
	EventView      EventType = "VIEW"
	EventClick     EventType = "CLICK"
	EventAddToCart EventType = "ADD_TO_CART"
	EventPurchase  EventType = "PURCHASE"
	EventRate      EventType = "RATE"
	EventSearch    EventType = "SEARCH"
	EventLike      EventType = "LIKE"
	EventDislike   EventType = "DISLIKE"
)

// Known reports whether t is one of the recognized event types.
func (t EventType) Known() bool {
	switch t {
	case EventView, EventClick, EventAddToCart, EventPurchase,
		EventRate, EventSearch, EventLike, EventDislike:
		return true
	}
	return false
}

// UserEvent is a single user interaction with an item. Events are immutable
// once produced and are partitioned by UserID on the event log.
type UserEvent struct {
	UserID      string    `json:"userId"`
	ItemID      string    `json:"itemId"`
	EventType   EventType `json:"eventType"`
	Timestamp   int64     `json:"timestamp"` // unix milliseconds
	Score       *float64  `json:"score,omitempty"`
	SessionID   string    `json:"sessionId,omitempty"`
	ContextInfo string    `json:"contextInfo,omitempty"`
}

// Validate checks required fields and returns an error if validation fails.
func (e *UserEvent) Validate() error {
	if e.UserID == "" {
		return &ValidationError{Field: "userId", Message: "required"}
	}
	if e.ItemID == "" {
		return &ValidationError{Field: "itemId", Message: "required"}
	}
	if e.EventType == "" {
		return &ValidationError{Field: "eventType", Message: "required"}
	}
	return nil
}

// PartitionKey returns the key by which this record is sharded for ordered
// processing.
func (e *UserEvent) PartitionKey() string {
	return e.UserID
}

// ValidationError represents a field validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
