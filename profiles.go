package main

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"nostr-workbench/internal/config"
	"nostr-workbench/internal/types"
)

// Singleflight group for deduplicating concurrent profile fetches.
// When multiple goroutines request the same pubkey simultaneously,
// only one actually fetches while the others wait and share the result.
var profileGroup singleflight.Group

// profileFetchDirect is the relay-facing fetch, swappable in tests.
var profileFetchDirect = fetchProfilesDirect

// shortID truncates a hex ID for log output
func shortID(id string) string {
	if len(id) <= 12 {
		return id
	}
	return id[:12]
}

// fetchProfile fetches a single kind 0 profile with singleflight deduplication.
func fetchProfile(pubkey string) *types.ProfileInfo {
	if profile, notFound, ok := profileCache.Get(pubkey); ok {
		if notFound {
			return nil
		}
		return profile
	}

	result, _, shared := profileGroup.Do(pubkey, func() (interface{}, error) {
		return profileFetchDirect([]string{pubkey})[pubkey], nil
	})

	if shared {
		slog.Debug("singleflight: shared profile fetch", "pubkey", shortID(pubkey))
	}

	profile, _ := result.(*types.ProfileInfo)
	return profile
}

// fetchProfiles fetches kind 0 profiles for multiple pubkeys, serving from
// cache where possible. Misses go through fetchProfile in parallel so
// overlapping concurrent requests coalesce on the per-pubkey flight.
func fetchProfiles(pubkeys []string) map[string]*types.ProfileInfo {
	if len(pubkeys) == 0 {
		return nil
	}

	cached, missing := profileCache.GetMultiple(pubkeys)
	if len(missing) == 0 {
		return cached
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	fresh := make(map[string]*types.ProfileInfo)
	for _, pk := range missing {
		wg.Add(1)
		go func(pubkey string) {
			defer wg.Done()
			if profile := fetchProfile(pubkey); profile != nil {
				mu.Lock()
				fresh[pubkey] = profile
				mu.Unlock()
			}
		}(pk)
	}
	wg.Wait()

	result := make(map[string]*types.ProfileInfo, len(cached)+len(fresh))
	for pk, p := range cached {
		result[pk] = p
	}
	for pk, p := range fresh {
		result[pk] = p
	}
	return result
}

// fetchProfilesDirect queries profile relays for kind 0 events and caches
// whatever comes back. Pubkeys with no profile get a negative cache entry.
func fetchProfilesDirect(pubkeys []string) map[string]*types.ProfileInfo {
	relays := config.GetProfileRelays()
	filter := types.Filter{
		Authors: pubkeys,
		Kinds:   []int{0},
		Limit:   len(pubkeys),
	}

	events := fetchEventsFromRelaysWithTimeout(relays, filter, 2500*time.Millisecond)

	fresh := make(map[string]*types.ProfileInfo)
	for _, evt := range events {
		if evt.Kind != 0 {
			continue
		}
		// fetchEventsFromRelays sorts newest first, keep the newest per pubkey
		if _, ok := fresh[evt.PubKey]; ok {
			continue
		}

		var profile types.ProfileInfo
		if err := json.Unmarshal([]byte(evt.Content), &profile); err != nil {
			continue
		}
		fresh[evt.PubKey] = &profile
	}

	if len(fresh) > 0 {
		profileCache.SetMultiple(fresh)
		slog.Debug("cached profiles", "count", len(fresh))
	}

	var notFound []string
	for _, pk := range pubkeys {
		if _, ok := fresh[pk]; !ok {
			notFound = append(notFound, pk)
		}
	}
	if len(notFound) > 0 {
		profileCache.SetNotFound(notFound)
	}

	return fresh
}
