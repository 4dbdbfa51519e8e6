// Streamrec - Real-Time Streaming Recommendation Pipeline
// Copyright 2026 Streamrec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamrec/streamrec

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/streamrec/streamrec/internal/metrics"
)

// RouterConfig tunes the HTTP surface.
type RouterConfig struct {
	// RequestLimit caps requests per client IP per RequestLimitWindow on
	// the write endpoints.
	RequestLimit       int
	RequestLimitWindow time.Duration
}

// prometheusMetrics records request count and latency per endpoint with
// the real status code.
func prometheusMetrics(endpoint string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			metrics.RecordAPIRequest(r.Method, endpoint, ww.Status(), time.Since(start))
		})
	}
}

// NewRouter assembles the chi router: ingestion endpoints with rate
// limiting, the serving endpoint, health, and prometheus metrics.
func NewRouter(handler *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if cfg.RequestLimit > 0 {
				r.Use(httprate.LimitByIP(cfg.RequestLimit, cfg.RequestLimitWindow))
			}
			r.With(prometheusMetrics("/api/events")).Post("/events", handler.SubmitEvent)
			r.With(prometheusMetrics("/api/items")).Post("/items", handler.SubmitItem)
			r.With(prometheusMetrics("/api/items")).Put("/items/{id}", handler.UpdateItem)
		})

		r.With(prometheusMetrics("/api/recommendations")).
			Get("/recommendations/{userId}", handler.GetRecommendations)
	})

	r.Get("/healthz", handler.Healthz)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
