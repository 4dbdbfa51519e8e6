// Streamrec - Real-Time Streaming Recommendation Pipeline
// Copyright 2026 Streamrec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamrec/streamrec

// Package config loads and validates application configuration using koanf.
// Defaults are applied first, then overridden by an optional YAML file and
// STREAMREC_-prefixed environment variables.
package config

import (
	"fmt"
	"time"
)

// Config is the root application configuration.
type Config struct {
	Log      LogConfig      `koanf:"log"`
	NATS     NATSConfig     `koanf:"nats"`
	HTTP     HTTPConfig     `koanf:"http"`
	Pipeline PipelineConfig `koanf:"pipeline"`
	Store    StoreConfig    `koanf:"store"`
}

// LogConfig configures the global logger.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// NATSConfig configures the event log transport.
type NATSConfig struct {
	URL            string `koanf:"url"`
	EmbeddedServer bool   `koanf:"embedded_server"`
	StoreDir       string `koanf:"store_dir"`
	MaxMemory      int64  `koanf:"max_memory"`
	MaxStore       int64  `koanf:"max_store"`

	// Stream retention for the event, catalog and profile streams.
	RetentionDays int `koanf:"retention_days"`

	// Consumer settings.
	SubscribersCount int           `koanf:"subscribers_count"`
	DurableName      string        `koanf:"durable_name"`
	QueueGroup       string        `koanf:"queue_group"`
	AckWaitTimeout   time.Duration `koanf:"ack_wait_timeout"`
	MaxDeliver       int           `koanf:"max_deliver"`
	MaxAckPending    int           `koanf:"max_ack_pending"`
	MaxReconnects    int           `koanf:"max_reconnects"`
	ReconnectWait    time.Duration `koanf:"reconnect_wait"`
	CloseTimeout     time.Duration `koanf:"close_timeout"`

	// Router middleware settings.
	RetryMaxRetries      int           `koanf:"retry_max_retries"`
	RetryInitialInterval time.Duration `koanf:"retry_initial_interval"`
	RetryMaxInterval     time.Duration `koanf:"retry_max_interval"`
	PoisonTopic          string        `koanf:"poison_topic"`
}

// HTTPConfig configures the API server.
type HTTPConfig struct {
	Addr            string        `koanf:"addr"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// Request limit for the submission endpoints, per client IP.
	RequestLimit       int           `koanf:"request_limit"`
	RequestLimitWindow time.Duration `koanf:"request_limit_window"`
}

// PipelineConfig configures the processing stages.
type PipelineConfig struct {
	// Partitions is the number of single-threaded workers event keys are
	// sharded across.
	Partitions int `koanf:"partitions"`

	WindowSize    time.Duration `koanf:"window_size"`
	WindowGrace   time.Duration `koanf:"window_grace"`
	EvictInterval time.Duration `koanf:"evict_interval"`
}

// StoreConfig configures durable state.
type StoreConfig struct {
	// Path is the BadgerDB directory holding the profile changelog and the
	// recommendation store.
	Path string `koanf:"path"`

	// SnapshotInterval controls how often the profile store compacts its
	// changelog into a snapshot.
	SnapshotInterval time.Duration `koanf:"snapshot_interval"`
}

// Default returns a Config with production defaults. These are applied
// before file and environment overrides.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		NATS: NATSConfig{
			URL:                  "nats://127.0.0.1:4222",
			EmbeddedServer:       true,
			StoreDir:             "/data/streamrec/jetstream",
			MaxMemory:            1 << 30,  // 1GB
			MaxStore:             10 << 30, // 10GB
			RetentionDays:        7,
			SubscribersCount:     4,
			DurableName:          "streamrec",
			QueueGroup:           "streamrec-workers",
			AckWaitTimeout:       30 * time.Second,
			MaxDeliver:           5,
			MaxAckPending:        1024,
			MaxReconnects:        -1,
			ReconnectWait:        2 * time.Second,
			CloseTimeout:         30 * time.Second,
			RetryMaxRetries:      5,
			RetryInitialInterval: time.Second,
			RetryMaxInterval:     time.Minute,
			PoisonTopic:          "events.poison",
		},
		HTTP: HTTPConfig{
			Addr:               ":8080",
			ShutdownTimeout:    10 * time.Second,
			RequestLimit:       300,
			RequestLimitWindow: time.Minute,
		},
		Pipeline: PipelineConfig{
			Partitions:    8,
			WindowSize:    10 * time.Minute,
			WindowGrace:   10 * time.Minute,
			EvictInterval: time.Minute,
		},
		Store: StoreConfig{
			Path:             "/data/streamrec/state",
			SnapshotInterval: 5 * time.Minute,
		},
	}
}

// Validate checks the configuration for values the pipeline cannot run
// with.
func (c *Config) Validate() error {
	if c.NATS.URL == "" && !c.NATS.EmbeddedServer {
		return fmt.Errorf("nats: url required when embedded server is disabled")
	}
	if c.Pipeline.Partitions <= 0 {
		return fmt.Errorf("pipeline: partitions must be positive, got %d", c.Pipeline.Partitions)
	}
	if c.Pipeline.WindowSize <= 0 {
		return fmt.Errorf("pipeline: window_size must be positive")
	}
	if c.Pipeline.WindowGrace < 0 {
		return fmt.Errorf("pipeline: window_grace must not be negative")
	}
	if c.Store.Path == "" {
		return fmt.Errorf("store: path required")
	}
	if c.HTTP.Addr == "" {
		return fmt.Errorf("http: addr required")
	}
	if c.NATS.RetryMaxRetries < 0 {
		return fmt.Errorf("nats: retry_max_retries must not be negative")
	}
	return nil
}
