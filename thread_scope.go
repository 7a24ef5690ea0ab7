package main

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"nostr-workbench/internal/compose"
	"nostr-workbench/internal/config"
	"nostr-workbench/internal/thread"
	"nostr-workbench/internal/types"
)

// scopeIdleTimeout is how long a thread scope survives without a viewer
// before its subscription is torn down.
const scopeIdleTimeout = 5 * time.Minute

// scopeBridge ties one thread aggregator to its live relay subscriptions.
type scopeBridge struct {
	agg        *thread.Aggregator
	cancel     context.CancelFunc
	lastAccess time.Time
}

// ScopeManager owns the live thread scopes: one aggregator plus subscription
// bridge per viewed (parent object, author filter) pair. Tearing a scope down
// cancels its bridge context before the aggregator dies, so no ingest can race
// past teardown.
type ScopeManager struct {
	mu     sync.Mutex
	scopes map[string]*scopeBridge
}

// scopeKey builds a stable map key from the parent ID and author filter.
// Authors are sorted so the same filter in any order lands on the same scope,
// and a filtered view never aliases the unfiltered one.
func scopeKey(parentID string, authorFilter []string) string {
	if len(authorFilter) == 0 {
		return parentID
	}
	sorted := make([]string, len(authorFilter))
	copy(sorted, authorFilter)
	sort.Strings(sorted)
	return parentID + "|" + strings.Join(sorted, ",")
}

var threadScopes = NewScopeManager()

// NewScopeManager creates a scope manager and starts its janitor.
func NewScopeManager() *ScopeManager {
	m := &ScopeManager{scopes: make(map[string]*scopeBridge)}
	go m.janitorLoop()
	return m
}

// Acquire returns the aggregator for the (parentID, authorFilter) scope,
// creating it and its subscription bridge on first access.
func (m *ScopeManager) Acquire(parentID string, authorFilter []string) *thread.Aggregator {
	key := scopeKey(parentID, authorFilter)

	m.mu.Lock()
	defer m.mu.Unlock()

	if bridge, ok := m.scopes[key]; ok {
		bridge.lastAccess = time.Now()
		return bridge.agg
	}

	agg := thread.Scope(parentID, authorFilter)
	ctx, cancel := context.WithCancel(context.Background())
	bridge := &scopeBridge{agg: agg, cancel: cancel, lastAccess: time.Now()}
	m.scopes[key] = bridge

	relays := config.GetDefaultRelays()
	for _, relay := range relays {
		go runScopeSubscription(ctx, relay, agg)
	}

	slog.Debug("thread scope opened", "parent_id", parentID, "relays", len(relays))
	return agg
}

// Len reports the number of live scopes.
func (m *ScopeManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.scopes)
}

// Unscope tears down the (parentID, authorFilter) scope: the bridge context
// is cancelled first, then the aggregator is killed so late events are
// dropped.
func (m *ScopeManager) Unscope(parentID string, authorFilter []string) {
	m.unscopeKey(scopeKey(parentID, authorFilter))
}

func (m *ScopeManager) unscopeKey(key string) {
	m.mu.Lock()
	bridge := m.scopes[key]
	delete(m.scopes, key)
	m.mu.Unlock()

	if bridge == nil {
		return
	}
	bridge.cancel()
	bridge.agg.Unscope()
	slog.Debug("thread scope closed", "parent_id", bridge.agg.ParentID())
}

func (m *ScopeManager) janitorLoop() {
	ticker := time.NewTicker(time.Minute)
	for range ticker.C {
		m.mu.Lock()
		var stale []string
		for key, bridge := range m.scopes {
			if time.Since(bridge.lastAccess) > scopeIdleTimeout {
				stale = append(stale, key)
			}
		}
		m.mu.Unlock()

		for _, key := range stale {
			m.unscopeKey(key)
		}
	}
}

// runScopeSubscription keeps the thread subscriptions to one relay alive,
// reconnecting on disconnect until the scope is torn down. Replies arrive
// through #e references, task comments through #E.
func runScopeSubscription(ctx context.Context, relayURL string, agg *thread.Aggregator) {
	filters := []types.Filter{
		agg.Filter([]int{compose.KindNote, compose.KindRepost}, 100),
		{
			Kinds:  []int{compose.KindComment},
			UpperE: []string{agg.ParentID()},
			Limit:  100,
		},
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		var wg sync.WaitGroup
		for _, filter := range filters {
			wg.Add(1)
			go func(f types.Filter) {
				defer wg.Done()
				streamIntoAggregator(ctx, relayURL, f, agg)
			}(filter)
		}
		wg.Wait()

		// Wait before reconnecting
		select {
		case <-ctx.Done():
			return
		case <-time.After(5 * time.Second):
		}
	}
}

// streamIntoAggregator runs one subscription and feeds its events to the
// aggregator until the connection drops or the scope context ends.
func streamIntoAggregator(ctx context.Context, relayURL string, filter types.Filter, agg *thread.Aggregator) {
	subID := "thread-" + randomString(8)
	sub, err := relayPool.Subscribe(ctx, relayURL, subID, filter)
	if err != nil {
		slog.Debug("thread scope: subscribe failed", "relay", relayURL, "error", err)
		return
	}
	defer relayPool.Unsubscribe(relayURL, sub)

	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.Done:
			return
		case evt := <-sub.EventChan:
			if agg.Ingest(evt) {
				eventsIngestedTotal.Add(1)
			} else {
				duplicatesDropped.Add(1)
			}
		case <-sub.EOSEChan:
			// Keep listening after EOSE for live updates
		}
	}
}
