// Streamrec - Real-Time Streaming Recommendation Pipeline
// Copyright 2026 Streamrec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamrec/streamrec

// Package codec provides the pluggable encode/decode contract between
// domain records and the event log's byte representation.
//
// Codec failures are per-record: a record that cannot be decoded is lost and
// counted, and the pipeline continues with the next record.
package codec

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/streamrec/streamrec/internal/models"
)

// Codec encodes and decodes domain records. Implementations must be safe
// for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error

	// Name identifies the codec in logs and metrics.
	Name() string
}

// JSON is the default Codec backed by goccy/go-json.
type JSON struct{}

// NewJSON creates the default JSON codec.
func NewJSON() JSON {
	return JSON{}
}

// Marshal converts a record to JSON bytes.
func (JSON) Marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	return data, nil
}

// Unmarshal converts JSON bytes to a record.
func (JSON) Unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal record: %w", err)
	}
	return nil
}

// Name identifies the codec.
func (JSON) Name() string {
	return "json"
}

// EncodeEvent marshals a user event after validating its required fields.
func EncodeEvent(c Codec, event *models.UserEvent) ([]byte, error) {
	if err := event.Validate(); err != nil {
		return nil, fmt.Errorf("validate event: %w", err)
	}
	return c.Marshal(event)
}

// DecodeEvent unmarshals a user event.
func DecodeEvent(c Codec, data []byte) (*models.UserEvent, error) {
	var event models.UserEvent
	if err := c.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	return &event, nil
}

// EncodeItem marshals a catalog item after validating its required fields.
func EncodeItem(c Codec, item *models.Item) ([]byte, error) {
	if err := item.Validate(); err != nil {
		return nil, fmt.Errorf("validate item: %w", err)
	}
	return c.Marshal(item)
}

// DecodeItem unmarshals a catalog item.
func DecodeItem(c Codec, data []byte) (*models.Item, error) {
	var item models.Item
	if err := c.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("decode item: %w", err)
	}
	return &item, nil
}

// DecodeProfile unmarshals a user profile.
func DecodeProfile(c Codec, data []byte) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := c.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return &profile, nil
}
