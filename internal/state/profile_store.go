// Streamrec - Real-Time Streaming Recommendation Pipeline
// Copyright 2026 Streamrec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamrec/streamrec

package state

import (
	"fmt"
	"sync"

	"github.com/streamrec/streamrec/internal/codec"
	"github.com/streamrec/streamrec/internal/metrics"
	"github.com/streamrec/streamrec/internal/models"
)

// ProfileStore keeps the authoritative per-user profiles in memory and
// records every committed update in the changelog. A nil changelog makes
// the store purely in-memory.
type ProfileStore struct {
	codec     codec.Codec
	changelog *Changelog

	mu       sync.RWMutex
	profiles map[string]*models.UserProfile
}

// NewProfileStore returns a profile store backed by the given changelog.
func NewProfileStore(cl *Changelog, c codec.Codec) *ProfileStore {
	if c == nil {
		c = codec.NewJSON()
	}
	return &ProfileStore{
		codec:     c,
		changelog: cl,
		profiles:  make(map[string]*models.UserProfile),
	}
}

// Get returns the stored profile for the user, or nil when the user has
// no history. Callers must not mutate the returned profile; fold updates
// go through Put with a fresh clone.
func (s *ProfileStore) Get(userID string) *models.UserProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profiles[userID]
}

// Put commits an updated profile: the update is appended to the changelog
// before it becomes visible to readers. Append and map publish happen
// under one critical section so a concurrent Snapshot never truncates an
// append whose profile it has not yet seen.
func (s *ProfileStore) Put(profile *models.UserProfile) error {
	payload, err := s.codec.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encoding profile %s: %w", profile.UserID, err)
	}

	s.mu.Lock()
	if s.changelog != nil {
		if err := s.changelog.Append(payload); err != nil {
			s.mu.Unlock()
			return err
		}
	}
	s.profiles[profile.UserID] = profile
	s.mu.Unlock()
	metrics.ProfileUpdates.Inc()
	return nil
}

// Recover rebuilds the in-memory profile set from the changelog's
// snapshot plus tail. It must run before the store serves traffic.
func (s *ProfileStore) Recover() (int, error) {
	if s.changelog == nil {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.changelog.Replay(func(payload []byte) error {
		profile, err := codec.DecodeProfile(s.codec, payload)
		if err != nil {
			return fmt.Errorf("decoding changelog profile: %w", err)
		}
		s.profiles[profile.UserID] = profile
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(s.profiles), nil
}

// Snapshot compacts the changelog against the current profile set. The
// truncation bound is captured under the same lock as the map read, so
// every truncated append is represented in the snapshotted profiles.
func (s *ProfileStore) Snapshot() error {
	if s.changelog == nil {
		return nil
	}
	s.mu.RLock()
	upTo := s.changelog.Seq()
	encoded := make(map[string][]byte, len(s.profiles))
	for userID, profile := range s.profiles {
		payload, err := s.codec.Marshal(profile)
		if err != nil {
			s.mu.RUnlock()
			return fmt.Errorf("encoding profile %s for snapshot: %w", userID, err)
		}
		encoded[userID] = payload
	}
	s.mu.RUnlock()
	return s.changelog.Snapshot(encoded, upTo)
}

// Len returns the number of users with a stored profile.
func (s *ProfileStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.profiles)
}
