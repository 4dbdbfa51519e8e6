// Streamrec - Real-Time Streaming Recommendation Pipeline
// Copyright 2026 Streamrec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamrec/streamrec

// Package window implements per-user tumbling activity windows.
//
// Every user event lands in exactly one window: the 10-minute interval
// [floor(ts/size)*size, floor(ts/size)*size+size) containing its event
// timestamp. Windows accept late events until window end plus a grace
// period, after which they are evicted and their final counts published
// as observability output.
package window

import (
	"sync"
	"time"

	"github.com/streamrec/streamrec/internal/metrics"
	"github.com/streamrec/streamrec/internal/models"
)

type windowKey struct {
	userID string
	start  int64 // unix ms
}

// Tumbling tracks event counts per (user, window) pair and evicts
// windows whose close-plus-grace deadline has passed.
type Tumbling struct {
	size  time.Duration
	grace time.Duration

	mu      sync.Mutex
	windows map[windowKey]int64
}

// NewTumbling returns a window tracker with the given window size and
// grace period. Size must be positive.
func NewTumbling(size, grace time.Duration) *Tumbling {
	return &Tumbling{
		size:    size,
		grace:   grace,
		windows: make(map[windowKey]int64),
	}
}

// Record assigns the event timestamp (unix ms) to its tumbling window and
// increments the window's count. Events older than their window's
// close-plus-grace deadline relative to now are dropped; Record reports
// whether the event was counted.
func (t *Tumbling) Record(userID string, eventTimestamp int64, now time.Time) bool {
	sizeMs := t.size.Milliseconds()
	start := (eventTimestamp / sizeMs) * sizeMs
	if eventTimestamp < 0 && eventTimestamp%sizeMs != 0 {
		start -= sizeMs
	}
	deadline := start + sizeMs + t.grace.Milliseconds()
	if now.UnixMilli() >= deadline {
		return false
	}

	t.mu.Lock()
	key := windowKey{userID: userID, start: start}
	if _, ok := t.windows[key]; !ok {
		metrics.ActiveWindows.Inc()
	}
	t.windows[key]++
	t.mu.Unlock()
	return true
}

// Count returns the current count for the window containing the given
// timestamp, or zero when no such window is retained.
func (t *Tumbling) Count(userID string, eventTimestamp int64) int64 {
	sizeMs := t.size.Milliseconds()
	start := (eventTimestamp / sizeMs) * sizeMs
	if eventTimestamp < 0 && eventTimestamp%sizeMs != 0 {
		start -= sizeMs
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.windows[windowKey{userID: userID, start: start}]
}

// Evict removes every window whose close-plus-grace deadline is at or
// before now and returns the finalized windows.
func (t *Tumbling) Evict(now time.Time) []models.ActivityWindow {
	sizeMs := t.size.Milliseconds()
	nowMs := now.UnixMilli()

	t.mu.Lock()
	var closed []models.ActivityWindow
	for key, count := range t.windows {
		deadline := key.start + sizeMs + t.grace.Milliseconds()
		if nowMs >= deadline {
			closed = append(closed, models.ActivityWindow{
				UserID:      key.userID,
				WindowStart: time.UnixMilli(key.start).UTC(),
				WindowEnd:   time.UnixMilli(key.start + sizeMs).UTC(),
				EventCount:  count,
			})
			delete(t.windows, key)
		}
	}
	t.mu.Unlock()

	if n := len(closed); n > 0 {
		metrics.ActiveWindows.Sub(float64(n))
		metrics.WindowsEvicted.Add(float64(n))
	}
	return closed
}

// Len returns the number of retained windows.
func (t *Tumbling) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.windows)
}
