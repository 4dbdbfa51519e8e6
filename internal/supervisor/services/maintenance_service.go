// Streamrec - Real-Time Streaming Recommendation Pipeline
// Copyright 2026 Streamrec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamrec/streamrec

package services

import (
	"context"
	"time"

	"github.com/streamrec/streamrec/internal/logging"
	"github.com/streamrec/streamrec/internal/state"
	"github.com/streamrec/streamrec/internal/window"
)

// MaintenanceService runs the periodic background work: window eviction
// and profile changelog snapshots.
type MaintenanceService struct {
	windows          *window.Tumbling
	profiles         *state.ProfileStore
	evictInterval    time.Duration
	snapshotInterval time.Duration
}

// NewMaintenanceService wires the maintenance loop.
func NewMaintenanceService(windows *window.Tumbling, profiles *state.ProfileStore, evictInterval, snapshotInterval time.Duration) *MaintenanceService {
	if evictInterval <= 0 {
		evictInterval = time.Minute
	}
	if snapshotInterval <= 0 {
		snapshotInterval = 5 * time.Minute
	}
	return &MaintenanceService{
		windows:          windows,
		profiles:         profiles,
		evictInterval:    evictInterval,
		snapshotInterval: snapshotInterval,
	}
}

// Serve implements suture.Service.
func (s *MaintenanceService) Serve(ctx context.Context) error {
	evict := time.NewTicker(s.evictInterval)
	defer evict.Stop()
	snapshot := time.NewTicker(s.snapshotInterval)
	defer snapshot.Stop()

	for {
		select {
		case <-ctx.Done():
			// Final snapshot so recovery replays a short tail.
			if err := s.profiles.Snapshot(); err != nil {
				logging.Error().Err(err).Msg("Final profile snapshot failed")
			}
			return ctx.Err()

		case now := <-evict.C:
			for _, closed := range s.windows.Evict(now) {
				logging.Info().
					Str("user_id", closed.UserID).
					Time("window_start", closed.WindowStart).
					Time("window_end", closed.WindowEnd).
					Int64("event_count", closed.EventCount).
					Msg("Activity window closed")
			}

		case <-snapshot.C:
			if err := s.profiles.Snapshot(); err != nil {
				logging.Error().Err(err).Msg("Profile snapshot failed")
			} else {
				logging.Debug().Int("profiles", s.profiles.Len()).Msg("Profile changelog compacted")
			}
		}
	}
}

func (s *MaintenanceService) String() string {
	return "maintenance"
}
