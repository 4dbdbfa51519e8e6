// Streamrec - Real-Time Streaming Recommendation Pipeline
// Copyright 2026 Streamrec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamrec/streamrec

// Package models defines the domain records that flow through the pipeline:
// user-interaction events, catalog items, per-user profiles, activity
// windows, feature vectors and recommendations.
//
// All records are JSON-encoded on the wire. Events are partitioned by user
// ID, items by item ID; per-key ordering is supplied by the event log and
// must be preserved by every consumer.
package models
