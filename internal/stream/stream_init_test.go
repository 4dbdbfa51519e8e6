// Streamrec - Real-Time Streaming Recommendation Pipeline
// Copyright 2026 Streamrec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamrec/streamrec

package stream

import (
	"context"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

type mockJetStream struct {
	existing map[string]bool
	created  []jetstream.StreamConfig
	updated  []jetstream.StreamConfig
}

func (m *mockJetStream) Stream(_ context.Context, name string) (jetstream.Stream, error) {
	if m.existing[name] {
		return nil, nil
	}
	return nil, jetstream.ErrStreamNotFound
}

func (m *mockJetStream) CreateStream(_ context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error) {
	m.created = append(m.created, cfg)
	return nil, nil
}

func (m *mockJetStream) UpdateStream(_ context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error) {
	m.updated = append(m.updated, cfg)
	return nil, nil
}

func TestEnsureStreamsCreatesMissing(t *testing.T) {
	t.Parallel()

	js := &mockJetStream{existing: map[string]bool{StreamCatalog: true}}
	init, err := NewStreamInitializer(js, DefaultStreams(7*24*time.Hour))
	if err != nil {
		t.Fatalf("creating initializer: %v", err)
	}

	if err := init.EnsureStreams(context.Background()); err != nil {
		t.Fatalf("ensure streams: %v", err)
	}

	if len(js.created) != 2 {
		t.Fatalf("expected 2 created streams, got %d", len(js.created))
	}
	if len(js.updated) != 1 || js.updated[0].Name != StreamCatalog {
		t.Fatalf("expected existing catalog stream to be updated, got %+v", js.updated)
	}
	for _, cfg := range js.created {
		if cfg.Storage != jetstream.FileStorage {
			t.Errorf("stream %s: expected file storage", cfg.Name)
		}
		if cfg.Retention != jetstream.LimitsPolicy {
			t.Errorf("stream %s: expected limits retention", cfg.Name)
		}
	}
}

func TestDefaultStreamsSubjects(t *testing.T) {
	t.Parallel()

	streams := DefaultStreams(24 * time.Hour)
	subjects := map[string]string{}
	for _, cfg := range streams {
		for _, subject := range cfg.Subjects {
			subjects[subject] = cfg.Name
		}
	}

	want := map[string]string{
		SubjectUserEvents:      StreamEvents,
		SubjectPoison:          StreamEvents,
		SubjectCatalogItems:    StreamCatalog,
		SubjectProfilesUpdated: StreamProfiles,
	}
	for subject, stream := range want {
		if subjects[subject] != stream {
			t.Errorf("subject %s: expected stream %s, got %s", subject, stream, subjects[subject])
		}
	}
}
