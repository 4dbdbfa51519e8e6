// Streamrec - Real-Time Streaming Recommendation Pipeline
// Copyright 2026 Streamrec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamrec/streamrec

// Package state holds the pipeline's materialized state: the catalog
// snapshot, per-user profiles with a durable changelog, and the
// recommendation serving store.
package state

import (
	"sync"

	"github.com/streamrec/streamrec/internal/models"
)

// CatalogStore is the in-memory catalog projection. Upserts replace the
// stored item wholesale; the last observed record for a key wins.
type CatalogStore struct {
	mu    sync.RWMutex
	items map[string]*models.Item
}

// NewCatalogStore returns an empty catalog projection.
func NewCatalogStore() *CatalogStore {
	return &CatalogStore{items: make(map[string]*models.Item)}
}

// Upsert stores the item under its ID, replacing any previous record.
func (c *CatalogStore) Upsert(item *models.Item) {
	c.mu.Lock()
	c.items[item.ID] = item
	c.mu.Unlock()
}

// Get returns the item for the given ID, or nil when absent.
func (c *CatalogStore) Get(itemID string) *models.Item {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.items[itemID]
}

// Snapshot returns all items currently in the catalog. The slice is a
// fresh copy; the items themselves are shared and must not be mutated.
func (c *CatalogStore) Snapshot() []*models.Item {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*models.Item, 0, len(c.items))
	for _, item := range c.items {
		out = append(out, item)
	}
	return out
}

// Len returns the number of distinct items.
func (c *CatalogStore) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
