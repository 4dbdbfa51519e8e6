// Streamrec - Real-Time Streaming Recommendation Pipeline
// Copyright 2026 Streamrec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamrec/streamrec

package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/streamrec/streamrec/internal/codec"
	"github.com/streamrec/streamrec/internal/logging"
	"github.com/streamrec/streamrec/internal/metrics"
	"github.com/streamrec/streamrec/internal/models"
	"github.com/streamrec/streamrec/internal/recommend"
	"github.com/streamrec/streamrec/internal/state"
	"github.com/streamrec/streamrec/internal/stream"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

// EventPublisher is the transport surface the handlers publish through.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, msg *message.Message) error
}

// RecommendationReader serves stored recommendation sets.
type RecommendationReader interface {
	Get(userID string) (*models.Recommendation, error)
}

// Handler implements the HTTP endpoints.
type Handler struct {
	codec     codec.Codec
	publisher EventPublisher
	recs      RecommendationReader
}

// NewHandler wires the HTTP handlers.
func NewHandler(c codec.Codec, publisher EventPublisher, recs RecommendationReader) *Handler {
	return &Handler{codec: c, publisher: publisher, recs: recs}
}

type errorResponse struct {
	Error string `json:"error"`
}

type acceptedResponse struct {
	Status string `json:"status"`
	ID     string `json:"id,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	data, err := json.Marshal(v)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}

// SubmitEvent handles POST /api/events: validate, stamp a missing
// timestamp, and publish keyed by user.
func (h *Handler) SubmitEvent(w http.ResponseWriter, r *http.Request) {
	var req SubmitEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := validateRequest(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	event := req.ToEvent(time.Now().UnixMilli())
	payload, err := codec.EncodeEvent(h.codec, event)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("user_id", event.UserID)
	if err := h.publisher.Publish(r.Context(), stream.SubjectUserEvents, msg); err != nil {
		logging.Error().Err(err).Str("user_id", event.UserID).Msg("Failed to publish event")
		respondError(w, http.StatusServiceUnavailable, "event log unavailable")
		return
	}

	respondJSON(w, http.StatusAccepted, acceptedResponse{Status: "accepted", ID: msg.UUID})
}

// SubmitItem handles POST /api/items: publish a new catalog record with
// both timestamps set to now.
func (h *Handler) SubmitItem(w http.ResponseWriter, r *http.Request) {
	h.publishItem(w, r, "")
}

// UpdateItem handles PUT /api/items/{id}: the path ID wins over any body
// ID, and only the update timestamp is advanced.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	h.publishItem(w, r, chi.URLParam(r, "id"))
}

func (h *Handler) publishItem(w http.ResponseWriter, r *http.Request, pathID string) {
	var req SubmitItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if pathID != "" {
		req.ID = pathID
	}
	if err := validateRequest(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	nowMs := time.Now().UnixMilli()
	item := req.ToItem(nowMs, nowMs)
	payload, err := codec.EncodeItem(h.codec, item)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("item_id", item.ID)
	if err := h.publisher.Publish(r.Context(), stream.SubjectCatalogItems, msg); err != nil {
		logging.Error().Err(err).Str("item_id", item.ID).Msg("Failed to publish catalog record")
		respondError(w, http.StatusServiceUnavailable, "event log unavailable")
		return
	}

	respondJSON(w, http.StatusAccepted, acceptedResponse{Status: "accepted", ID: item.ID})
}

// GetRecommendations handles GET /api/recommendations/{userId}. A store
// miss or failure degrades to a synthesized empty set; serving never
// returns 5xx for pipeline unavailability.
func (h *Handler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "userId required")
		return
	}

	limit := defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxLimit {
			respondError(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = parsed
	}
	includeExplanations := true
	if raw := r.URL.Query().Get("includeExplanations"); raw == "false" {
		includeExplanations = false
	}

	rec, err := h.recs.Get(userID)
	if err != nil {
		if !errors.Is(err, state.ErrNotFound) {
			metrics.ServingDegraded.Inc()
			logging.Warn().Err(err).Str("user_id", userID).Msg("Recommendation store degraded, serving empty set")
		}
		rec = recommend.Empty(userID, time.Now())
		if contextID := r.URL.Query().Get("contextId"); contextID != "" {
			rec.ContextID = contextID
		}
	}

	// Serving shapes the stored set; it never triggers regeneration.
	out := *rec.Truncate(limit)
	if experimentID := r.URL.Query().Get("experimentId"); experimentID != "" {
		out.ExperimentID = experimentID
	}
	if !includeExplanations {
		stripped := make([]models.RecommendedItem, len(out.Items))
		for i, item := range out.Items {
			item.Explanation = ""
			item.ScoreComponents = nil
			stripped[i] = item
		}
		out.Items = stripped
	}

	respondJSON(w, http.StatusOK, &out)
}

// Healthz reports liveness.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
