// Streamrec - Real-Time Streaming Recommendation Pipeline
// Copyright 2026 Streamrec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamrec/streamrec

package stream

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"
)

// JetStreamContext is the subset of jetstream.JetStream used by
// StreamInitializer. It allows testing with mock implementations.
type JetStreamContext interface {
	Stream(ctx context.Context, name string) (jetstream.Stream, error)
	CreateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error)
	UpdateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error)
}

// StreamInitializer provisions the JetStream streams before publishers
// and subscribers start. Initialization is idempotent: existing streams
// are updated to the desired configuration.
type StreamInitializer struct {
	js      JetStreamContext
	streams []StreamConfig
}

// NewStreamInitializer creates an initializer for the given streams.
func NewStreamInitializer(js JetStreamContext, streams []StreamConfig) (*StreamInitializer, error) {
	if js == nil {
		return nil, fmt.Errorf("JetStream context required")
	}
	if len(streams) == 0 {
		return nil, fmt.Errorf("at least one stream config required")
	}
	return &StreamInitializer{js: js, streams: streams}, nil
}

// EnsureStreams creates or updates every configured stream. All streams
// use file storage with limits-based retention.
func (s *StreamInitializer) EnsureStreams(ctx context.Context) error {
	for _, cfg := range s.streams {
		if _, err := s.ensureStream(ctx, cfg); err != nil {
			return err
		}
	}
	return nil
}

func (s *StreamInitializer) ensureStream(ctx context.Context, cfg StreamConfig) (jetstream.Stream, error) {
	streamCfg := jetstream.StreamConfig{
		Name:        cfg.Name,
		Subjects:    cfg.Subjects,
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      cfg.MaxAge,
		MaxBytes:    cfg.MaxBytes,
		MaxMsgs:     cfg.MaxMsgs,
		Duplicates:  cfg.DuplicateWindow,
		Replicas:    cfg.Replicas,
		Storage:     jetstream.FileStorage,
		AllowDirect: true,
		Discard:     jetstream.DiscardOld,
	}

	_, err := s.js.Stream(ctx, cfg.Name)
	if err == nil {
		stream, err := s.js.UpdateStream(ctx, streamCfg)
		if err != nil {
			return nil, fmt.Errorf("update stream %s: %w", cfg.Name, err)
		}
		return stream, nil
	}

	if errors.Is(err, jetstream.ErrStreamNotFound) {
		stream, err := s.js.CreateStream(ctx, streamCfg)
		if err != nil {
			return nil, fmt.Errorf("create stream %s: %w", cfg.Name, err)
		}
		return stream, nil
	}

	return nil, fmt.Errorf("check stream %s: %w", cfg.Name, err)
}

// IsHealthy reports whether every configured stream is accessible.
func (s *StreamInitializer) IsHealthy(ctx context.Context) bool {
	for _, cfg := range s.streams {
		if _, err := s.js.Stream(ctx, cfg.Name); err != nil {
			return false
		}
	}
	return true
}
