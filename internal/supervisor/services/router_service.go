// Streamrec - Real-Time Streaming Recommendation Pipeline
// Copyright 2026 Streamrec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamrec/streamrec

package services

import (
	"context"
	"fmt"

	"github.com/streamrec/streamrec/internal/stream"
)

// RouterService runs the Watermill router under supervision.
type RouterService struct {
	router *stream.Router
}

// NewRouterService wraps the router.
func NewRouterService(router *stream.Router) *RouterService {
	return &RouterService{router: router}
}

// Serve implements suture.Service. The router blocks until context
// cancellation; any earlier return is a failure and triggers a restart.
func (s *RouterService) Serve(ctx context.Context) error {
	if err := s.router.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("message router failed: %w", err)
	}
	return ctx.Err()
}

func (s *RouterService) String() string {
	return "message-router"
}
