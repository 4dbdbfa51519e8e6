// Streamrec - Real-Time Streaming Recommendation Pipeline
// Copyright 2026 Streamrec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamrec/streamrec

package logging

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"
)

// WatermillLogger adapts the global zerolog logger to Watermill's
// LoggerAdapter so transport internals log through the same sink as the
// rest of the process.
type WatermillLogger struct {
	fields watermill.LogFields
}

// NewWatermillLogger returns an adapter over the global logger.
func NewWatermillLogger() *WatermillLogger {
	return &WatermillLogger{}
}

func (l *WatermillLogger) event(e *zerolog.Event, fields watermill.LogFields) *zerolog.Event {
	for k, v := range l.fields {
		e = e.Interface(k, v)
	}
	for k, v := range fields {
		e = e.Interface(k, v)
	}
	return e
}

// Error implements watermill.LoggerAdapter.
func (l *WatermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	l.event(Error().Err(err), fields).Msg(msg)
}

// Info implements watermill.LoggerAdapter.
func (l *WatermillLogger) Info(msg string, fields watermill.LogFields) {
	l.event(Info(), fields).Msg(msg)
}

// Debug implements watermill.LoggerAdapter.
func (l *WatermillLogger) Debug(msg string, fields watermill.LogFields) {
	l.event(Debug(), fields).Msg(msg)
}

// Trace implements watermill.LoggerAdapter.
func (l *WatermillLogger) Trace(msg string, fields watermill.LogFields) {
	l.event(Debug(), fields).Msg(msg)
}

// With implements watermill.LoggerAdapter.
func (l *WatermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	merged := make(watermill.LogFields, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &WatermillLogger{fields: merged}
}
