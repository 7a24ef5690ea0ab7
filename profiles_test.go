package main

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"nostr-workbench/internal/cache"
	"nostr-workbench/internal/types"
)

func setupProfileCache(t *testing.T) {
	t.Helper()
	profileCache = NewProfileCacheWrapper(cache.NewMemoryCache(100, time.Minute), cache.DefaultCacheConfig())
}

func TestFetchProfileServedFromCache(t *testing.T) {
	setupProfileCache(t)

	var calls atomic.Int64
	profileFetchDirect = func(pubkeys []string) map[string]*types.ProfileInfo {
		calls.Add(1)
		return nil
	}
	defer func() { profileFetchDirect = fetchProfilesDirect }()

	profileCache.SetMultiple(map[string]*types.ProfileInfo{
		"alice": {Name: "alice"},
	})

	profile := fetchProfile("alice")
	if profile == nil || profile.Name != "alice" {
		t.Fatalf("expected cached profile, got %+v", profile)
	}
	if got := calls.Load(); got != 0 {
		t.Errorf("cache hit reached the relay fetch %d times", got)
	}
}

func TestFetchProfileCoalescesConcurrent(t *testing.T) {
	setupProfileCache(t)

	var calls atomic.Int64
	release := make(chan struct{})
	profileFetchDirect = func(pubkeys []string) map[string]*types.ProfileInfo {
		calls.Add(1)
		<-release
		fresh := map[string]*types.ProfileInfo{pubkeys[0]: {Name: "bob"}}
		profileCache.SetMultiple(fresh)
		return fresh
	}
	defer func() { profileFetchDirect = fetchProfilesDirect }()

	const workers = 8
	results := make([]*types.ProfileInfo, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = fetchProfile("bob")
		}(i)
	}

	// Let every worker miss the cache and park on the flight before the
	// fetch is allowed to complete.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Errorf("expected one relay fetch for %d concurrent callers, got %d", workers, got)
	}
	for i, p := range results {
		if p == nil || p.Name != "bob" {
			t.Errorf("worker %d got %+v, want shared result", i, p)
		}
	}
}

func TestFetchProfilesMergesCachedAndFresh(t *testing.T) {
	setupProfileCache(t)

	var fetched []string
	var mu sync.Mutex
	profileFetchDirect = func(pubkeys []string) map[string]*types.ProfileInfo {
		mu.Lock()
		fetched = append(fetched, pubkeys...)
		mu.Unlock()
		out := make(map[string]*types.ProfileInfo)
		for _, pk := range pubkeys {
			out[pk] = &types.ProfileInfo{Name: pk}
		}
		return out
	}
	defer func() { profileFetchDirect = fetchProfilesDirect }()

	profileCache.SetMultiple(map[string]*types.ProfileInfo{
		"alice": {Name: "alice"},
	})

	profiles := fetchProfiles([]string{"alice", "carol"})
	if len(profiles) != 2 {
		t.Fatalf("expected 2 profiles, got %d", len(profiles))
	}
	if profiles["alice"] == nil || profiles["carol"] == nil {
		t.Fatalf("missing merged profile: %+v", profiles)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(fetched) != 1 || fetched[0] != "carol" {
		t.Errorf("expected only the cache miss to hit relays, fetched %v", fetched)
	}
}
