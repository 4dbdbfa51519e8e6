// Streamrec - Real-Time Streaming Recommendation Pipeline
// Copyright 2026 Streamrec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamrec/streamrec

package window

import (
	"testing"
	"time"
)

func TestTumblingAssignsSameWindow(t *testing.T) {
	t.Parallel()

	w := NewTumbling(10*time.Minute, 10*time.Minute)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := base.Add(5 * time.Minute)

	// Two events 9 minutes apart inside the same 10-minute interval.
	if !w.Record("user-1", base.UnixMilli(), now) {
		t.Fatal("expected first event to be counted")
	}
	if !w.Record("user-1", base.Add(9*time.Minute).UnixMilli(), now) {
		t.Fatal("expected second event to be counted")
	}

	if got := w.Count("user-1", base.UnixMilli()); got != 2 {
		t.Fatalf("expected count 2, got %d", got)
	}
	if got := w.Len(); got != 1 {
		t.Fatalf("expected 1 window, got %d", got)
	}
}

func TestTumblingBoundaryStartsNewWindow(t *testing.T) {
	t.Parallel()

	w := NewTumbling(10*time.Minute, 10*time.Minute)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := base.Add(11 * time.Minute)

	w.Record("user-1", base.Add(9*time.Minute+59*time.Second).UnixMilli(), now)
	// Exactly on the boundary belongs to the next window.
	w.Record("user-1", base.Add(10*time.Minute).UnixMilli(), now)

	if got := w.Len(); got != 2 {
		t.Fatalf("expected 2 windows, got %d", got)
	}
	if got := w.Count("user-1", base.Add(10*time.Minute).UnixMilli()); got != 1 {
		t.Fatalf("expected count 1 in second window, got %d", got)
	}
}

func TestTumblingLateEventWithinGrace(t *testing.T) {
	t.Parallel()

	w := NewTumbling(10*time.Minute, 10*time.Minute)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// Window closes at 12:10; grace extends acceptance to 12:20.
	now := base.Add(15 * time.Minute)
	if !w.Record("user-1", base.Add(time.Minute).UnixMilli(), now) {
		t.Fatal("expected late event within grace to be counted")
	}

	// Past the grace deadline the event is dropped.
	now = base.Add(20 * time.Minute)
	if w.Record("user-1", base.Add(2*time.Minute).UnixMilli(), now) {
		t.Fatal("expected event past grace to be dropped")
	}

	if got := w.Count("user-1", base.UnixMilli()); got != 1 {
		t.Fatalf("expected count 1, got %d", got)
	}
}

func TestTumblingEvict(t *testing.T) {
	t.Parallel()

	w := NewTumbling(10*time.Minute, 10*time.Minute)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := base.Add(time.Minute)

	w.Record("user-1", base.UnixMilli(), now)
	w.Record("user-1", base.UnixMilli(), now)
	w.Record("user-2", base.UnixMilli(), now)

	if got := w.Evict(base.Add(19 * time.Minute)); len(got) != 0 {
		t.Fatalf("expected no evictions before deadline, got %d", len(got))
	}

	closed := w.Evict(base.Add(20 * time.Minute))
	if len(closed) != 2 {
		t.Fatalf("expected 2 evicted windows, got %d", len(closed))
	}
	for _, win := range closed {
		if !win.WindowStart.Equal(base) {
			t.Errorf("unexpected window start %v", win.WindowStart)
		}
		if !win.WindowEnd.Equal(base.Add(10 * time.Minute)) {
			t.Errorf("unexpected window end %v", win.WindowEnd)
		}
		if win.UserID == "user-1" && win.EventCount != 2 {
			t.Errorf("expected user-1 count 2, got %d", win.EventCount)
		}
		if win.UserID == "user-2" && win.EventCount != 1 {
			t.Errorf("expected user-2 count 1, got %d", win.EventCount)
		}
	}
	if got := w.Len(); got != 0 {
		t.Fatalf("expected no retained windows, got %d", got)
	}
}
