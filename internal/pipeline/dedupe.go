package pipeline

import "github.com/Bessima/fieldops/internal/models"

// Dedupe keeps the first order seen for every key. Orders without a key are
// dropped and reported in UnkeyableCount; RemovedCount covers both kinds of drop.
func Dedupe(orders []models.RawOrder) models.DedupeResult {
	seen := make(map[models.OrderKey]struct{}, len(orders))
	unique := make([]models.RawOrder, 0, len(orders))
	stats := models.DedupeStats{OriginalCount: len(orders)}

	for _, order := range orders {
		key, ok := ExtractKey(order)
		if !ok {
			stats.UnkeyableCount++
			continue
		}
		if _, exists := seen[key]; exists {
			stats.DuplicateCount++
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, order)
	}

	stats.UniqueCount = len(unique)
	stats.RemovedCount = stats.OriginalCount - stats.UniqueCount

	return models.DedupeResult{UniqueOrders: unique, Stats: stats}
}

// Keys returns the keys of already deduplicated orders in input order.
func Keys(orders []models.RawOrder) []models.OrderKey {
	keys := make([]models.OrderKey, 0, len(orders))
	for _, order := range orders {
		if key, ok := ExtractKey(order); ok {
			keys = append(keys, key)
		}
	}
	return keys
}
