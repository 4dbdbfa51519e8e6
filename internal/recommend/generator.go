// Streamrec - Real-Time Streaming Recommendation Pipeline
// Copyright 2026 Streamrec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamrec/streamrec

// Package recommend scores and ranks catalog items for a user profile.
//
// Generation scans the full catalog snapshot on every profile update.
// That is O(catalog) per update and is the main scalability limit of the
// current design; candidate pre-filtering would have to replace the scan
// before catalogs grow past memory-comfortable sizes.
package recommend

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/streamrec/streamrec/internal/metrics"
	"github.com/streamrec/streamrec/internal/models"
)

const (
	// ModelVersion is stamped on every generated recommendation set.
	ModelVersion = "1.0.0"

	// MaxRecommendations caps the number of ranked items per set.
	MaxRecommendations = 10

	// DefaultContextID is the serving context for generated sets.
	DefaultContextID = "homepage"
)

// Score weighting. Popularity, category preference and item recency
// combine into a single ranking score.
const (
	popularityWeight = 0.3
	categoryWeight   = 0.4
	recencyWeight    = 0.3

	// Items older than this window get no recency boost.
	recencyWindow = 30 * 24 * time.Hour
)

// Generate ranks the catalog against the profile and returns the user's
// new recommendation set. Purchased items are excluded before scoring.
// The result is deterministic for a given profile, catalog, and now:
// score ties rank by ascending item ID.
func Generate(profile *models.UserProfile, catalog []*models.Item, now time.Time) *models.Recommendation {
	start := time.Now()
	defer func() {
		metrics.GenerationDuration.Observe(time.Since(start).Seconds())
		metrics.RecommendationsGenerated.Inc()
	}()

	type scored struct {
		item  *models.Item
		score float64
	}

	candidates := make([]scored, 0, len(catalog))
	for _, item := range catalog {
		if profile.HasPurchased(item.ID) {
			continue
		}
		candidates = append(candidates, scored{
			item:  item,
			score: itemScore(profile, item, now),
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].item.ID < candidates[j].item.ID
	})
	if len(candidates) > MaxRecommendations {
		candidates = candidates[:MaxRecommendations]
	}

	items := make([]models.RecommendedItem, 0, len(candidates))
	for _, c := range candidates {
		components := scoreComponents(profile, c.item)
		items = append(items, models.RecommendedItem{
			ItemID:          c.item.ID,
			Score:           c.score,
			ScoreComponents: components,
			Explanation:     explanation(c.item, components),
		})
	}

	return &models.Recommendation{
		ID:           uuid.New().String(),
		UserID:       profile.UserID,
		Timestamp:    now.UnixMilli(),
		ContextID:    DefaultContextID,
		Items:        items,
		ModelVersion: ModelVersion,
	}
}

func itemScore(profile *models.UserProfile, item *models.Item, now time.Time) float64 {
	score := item.Popularity * popularityWeight

	if len(profile.CategoryPreferences) > 0 && len(item.Categories) > 0 {
		score += categoryScore(profile, item) * categoryWeight
	}

	score += recencyScore(item, now) * recencyWeight
	return score
}

// categoryScore averages the profile's preference weights over the item
// categories the profile has a preference for.
func categoryScore(profile *models.UserProfile, item *models.Item) float64 {
	var total float64
	matches := 0
	for _, category := range item.Categories {
		if pref, ok := profile.CategoryPreferences[category]; ok {
			total += pref
			matches++
		}
	}
	if matches == 0 {
		return 0
	}
	return total / float64(matches)
}

// recencyScore decays linearly from 1 at creation to 0 at the recency
// window, clamped at zero so old items are never penalized below it.
func recencyScore(item *models.Item, now time.Time) float64 {
	age := float64(now.UnixMilli() - item.CreationTimestamp)
	s := 1.0 - age/float64(recencyWindow.Milliseconds())
	if s < 0 {
		return 0
	}
	return s
}

func scoreComponents(profile *models.UserProfile, item *models.Item) map[string]float64 {
	components := make(map[string]float64, 2)
	if len(profile.CategoryPreferences) > 0 && len(item.Categories) > 0 {
		components["category_match"] = categoryScore(profile, item)
	}
	components["popularity"] = item.Popularity * popularityWeight
	return components
}

// explanation names the dominant score component. Ties and empty
// component maps fall back to the generic message.
func explanation(item *models.Item, components map[string]float64) string {
	var best string
	var bestValue float64
	tied := false
	first := true
	for name, value := range components {
		switch {
		case first || value > bestValue:
			best, bestValue, tied, first = name, value, false, false
		case value == bestValue:
			tied = true
		}
	}

	if best == "" || tied {
		return "Recommended for you"
	}
	switch best {
	case "category_match":
		return "Based on your interest in " + strings.Join(item.Categories, ", ")
	case "popularity":
		return "Popular among other users"
	default:
		return "Recommended for you"
	}
}
