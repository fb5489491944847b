// File: services/acquisition/discovery.go
package acquisition

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"visaflow/models"

	"go.uber.org/zap"
)

const discoveryCacheTTL = 2 * time.Minute

// sourceRank orders channels by confidence for de-duplication and sorting.
var sourceRank = map[string]int{
	models.MethodOfficial: 0,
	models.MethodPartner:  1,
	models.MethodScraping: 2,
}

// FindAvailableSlots queries official, partner and scraping channels
// concurrently. Unlike booking, these are independent reads with no shared
// side effect, so they run in parallel and every channel is best-effort: a
// failing channel becomes a warning, not an error.
func (h *DefaultHybridService) FindAvailableSlots(ctx context.Context, country, visaType string) (*models.SlotDiscoveryResult, error) {
	cacheKey := fmt.Sprintf("slots:%s:%s", country, visaType)
	if cached := h.cachedDiscovery(ctx, cacheKey); cached != nil {
		return cached, nil
	}

	result := &models.SlotDiscoveryResult{
		Official: []models.AppointmentSlot{},
		Partners: []models.AppointmentSlot{},
		Scraping: []models.AppointmentSlot{},
	}

	var mu sync.Mutex
	var wg sync.WaitGroup

	wg.Add(3)
	go func() {
		defer wg.Done()
		var slots []models.AppointmentSlot
		for _, consulate := range ConsulatesByCountry(country) {
			found, err := h.Official.FindSlots(ctx, consulate.Key, visaType)
			if err != nil {
				mu.Lock()
				result.Warnings = append(result.Warnings, fmt.Sprintf("official: %v", err))
				mu.Unlock()
				continue
			}
			slots = append(slots, found...)
		}
		mu.Lock()
		result.Official = tagSource(slots, models.MethodOfficial)
		mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		slots, err := h.Partner.FindSlots(ctx, country, visaType)
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("partner: %v", err))
			return
		}
		result.Partners = tagSource(slots, models.MethodPartner)
	}()
	go func() {
		defer wg.Done()
		sc := h.Scraping.CheckAvailability(ctx, country, visaType)
		mu.Lock()
		defer mu.Unlock()
		if sc.Err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("scraping: %v", sc.Err))
			return
		}
		result.Scraping = tagSource(sc.Slots, models.MethodScraping)
	}()
	wg.Wait()

	result.Consolidated = consolidateSlots(result.Official, result.Partners, result.Scraping)
	if len(result.Scraping) > 0 {
		result.Warnings = append(result.Warnings, scrapingWarnings()...)
	}

	h.cacheDiscovery(ctx, cacheKey, result)
	return result, nil
}

// consolidateSlots merges per-channel views into one deterministic list. The
// same physical slot observed by several channels is kept once, from the
// highest-confidence source.
func consolidateSlots(lists ...[]models.AppointmentSlot) []models.AppointmentSlot {
	seen := make(map[string]int) // slot key -> index in out
	var out []models.AppointmentSlot
	for _, list := range lists {
		for _, slot := range list {
			key := slot.SlotKey()
			if idx, ok := seen[key]; ok {
				if sourceRank[slot.Source] < sourceRank[out[idx].Source] {
					out[idx] = slot
				}
				continue
			}
			seen[key] = len(out)
			out = append(out, slot)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		if out[i].Time != out[j].Time {
			return out[i].Time < out[j].Time
		}
		if out[i].Location != out[j].Location {
			return out[i].Location < out[j].Location
		}
		return sourceRank[out[i].Source] < sourceRank[out[j].Source]
	})
	return out
}

func tagSource(slots []models.AppointmentSlot, source string) []models.AppointmentSlot {
	if slots == nil {
		return []models.AppointmentSlot{}
	}
	out := make([]models.AppointmentSlot, len(slots))
	for i, s := range slots {
		s.Source = source
		out[i] = s
	}
	return out
}

func (h *DefaultHybridService) cachedDiscovery(ctx context.Context, key string) *models.SlotDiscoveryResult {
	if h.CacheClient == nil {
		return nil
	}
	data, err := h.CacheClient.Get(ctx, key).Result()
	if err != nil {
		return nil
	}
	var result models.SlotDiscoveryResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		return nil
	}
	return &result
}

func (h *DefaultHybridService) cacheDiscovery(ctx context.Context, key string, result *models.SlotDiscoveryResult) {
	if h.CacheClient == nil {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := h.CacheClient.Set(ctx, key, data, discoveryCacheTTL).Err(); err != nil {
		h.Logger.Warn("failed to cache discovery result", zap.String("key", key), zap.Error(err))
	}
}
