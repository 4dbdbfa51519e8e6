// Streamrec - Real-Time Streaming Recommendation Pipeline
// Copyright 2026 Streamrec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamrec/streamrec

package state

import (
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/sony/gobreaker/v2"

	"github.com/streamrec/streamrec/internal/codec"
	"github.com/streamrec/streamrec/internal/logging"
	"github.com/streamrec/streamrec/internal/models"
)

// ErrNotFound marks a lookup for a user with no stored recommendations.
var ErrNotFound = errors.New("not found")

var recPrefix = []byte("rec/")

// RecommendationStore persists the latest recommendation set per user.
// Writes replace the previous set wholesale.
type RecommendationStore struct {
	db    *badger.DB
	codec codec.Codec
}

// OpenRecommendationStore opens (or creates) the serving store at path.
func OpenRecommendationStore(path string, c codec.Codec) (*RecommendationStore, error) {
	if c == nil {
		c = codec.NewJSON()
	}
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening recommendation store: %w", err)
	}
	return &RecommendationStore{db: db, codec: c}, nil
}

func recKey(userID string) []byte {
	return append(append([]byte{}, recPrefix...), userID...)
}

// Put stores the recommendation set for rec.UserID, replacing any
// previous set.
func (s *RecommendationStore) Put(rec *models.Recommendation) error {
	payload, err := s.codec.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding recommendations for %s: %w", rec.UserID, err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(recKey(rec.UserID), payload)
	})
	if err != nil {
		return fmt.Errorf("storing recommendations for %s: %w", rec.UserID, err)
	}
	return nil
}

// Get returns the stored recommendation set for the user, or ErrNotFound.
func (s *RecommendationStore) Get(userID string) (*models.Recommendation, error) {
	var payload []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(recKey(userID))
		if err != nil {
			return err
		}
		payload, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading recommendations for %s: %w", userID, err)
	}

	var rec models.Recommendation
	if err := s.codec.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("decoding recommendations for %s: %w", userID, err)
	}
	return &rec, nil
}

// Close releases the underlying database.
func (s *RecommendationStore) Close() error {
	return s.db.Close()
}

// GuardedStore wraps recommendation lookups in a circuit breaker so a
// misbehaving store degrades reads instead of stalling the API.
type GuardedStore struct {
	store   *RecommendationStore
	breaker *gobreaker.CircuitBreaker[*models.Recommendation]
}

// NewGuardedStore wraps the store with a circuit breaker tuned for read
// traffic.
func NewGuardedStore(store *RecommendationStore) *GuardedStore {
	settings := gobreaker.Settings{
		Name:    "recommendation-store",
		Timeout: 10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
		},
	}
	return &GuardedStore{
		store:   store,
		breaker: gobreaker.NewCircuitBreaker[*models.Recommendation](settings),
	}
}

// Get looks up the user's recommendations through the breaker. ErrNotFound
// passes through untouched so an empty history never trips the breaker.
func (g *GuardedStore) Get(userID string) (*models.Recommendation, error) {
	rec, err := g.breaker.Execute(func() (*models.Recommendation, error) {
		rec, err := g.store.Get(userID)
		if errors.Is(err, ErrNotFound) {
			// Absence is a valid outcome, not a store failure.
			return nil, nil
		}
		return rec, err
	})
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrNotFound
	}
	return rec, nil
}

// Put delegates to the underlying store.
func (g *GuardedStore) Put(rec *models.Recommendation) error {
	return g.store.Put(rec)
}
