// Streamrec - Real-Time Streaming Recommendation Pipeline
// Copyright 2026 Streamrec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamrec/streamrec

// Package stream wraps the NATS JetStream transport: the embedded server,
// stream provisioning, and the Watermill publisher, subscriber, and router
// the pipeline is built on.
package stream

import "time"

// Subjects carried by the event log.
const (
	SubjectUserEvents      = "events.user"
	SubjectCatalogItems    = "catalog.items"
	SubjectProfilesUpdated = "profiles.updated"
	SubjectPoison          = "events.poison"
)

// Stream names.
const (
	StreamEvents   = "STREAMREC_EVENTS"
	StreamCatalog  = "STREAMREC_CATALOG"
	StreamProfiles = "STREAMREC_PROFILES"
)

// ServerConfig configures the embedded NATS server.
type ServerConfig struct {
	Host              string
	Port              int
	StoreDir          string
	JetStreamMaxMem   int64
	JetStreamMaxStore int64
}

// PublisherConfig configures the Watermill NATS publisher.
type PublisherConfig struct {
	URL              string
	MaxReconnects    int
	ReconnectWait    time.Duration
	ReconnectBuffer  int
	EnableTrackMsgID bool
}

// DefaultPublisherConfig returns production defaults for the given URL.
func DefaultPublisherConfig(url string) PublisherConfig {
	return PublisherConfig{
		URL:              url,
		MaxReconnects:    -1,
		ReconnectWait:    2 * time.Second,
		ReconnectBuffer:  8 * 1024 * 1024,
		EnableTrackMsgID: true,
	}
}

// SubscriberConfig configures a durable JetStream subscriber.
type SubscriberConfig struct {
	URL              string
	StreamName       string
	DurableName      string
	QueueGroup       string
	SubscribersCount int
	AckWaitTimeout   time.Duration
	MaxDeliver       int
	MaxAckPending    int
	CloseTimeout     time.Duration
	MaxReconnects    int
	ReconnectWait    time.Duration
}

// StreamConfig describes one JetStream stream to provision.
type StreamConfig struct {
	Name            string
	Subjects        []string
	MaxAge          time.Duration
	MaxBytes        int64
	MaxMsgs         int64
	DuplicateWindow time.Duration
	Replicas        int
}

// DefaultStreams returns the three streams the pipeline requires, with
// the given retention applied to the event log.
func DefaultStreams(retention time.Duration) []StreamConfig {
	return []StreamConfig{
		{
			Name:            StreamEvents,
			Subjects:        []string{SubjectUserEvents, SubjectPoison},
			MaxAge:          retention,
			DuplicateWindow: 2 * time.Minute,
			Replicas:        1,
		},
		{
			Name:            StreamCatalog,
			Subjects:        []string{SubjectCatalogItems},
			MaxAge:          0, // catalog records are retained indefinitely
			DuplicateWindow: 2 * time.Minute,
			Replicas:        1,
		},
		{
			Name:            StreamProfiles,
			Subjects:        []string{SubjectProfilesUpdated},
			MaxAge:          retention,
			DuplicateWindow: 2 * time.Minute,
			Replicas:        1,
		},
	}
}
