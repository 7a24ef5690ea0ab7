// Package thread reduces a live subscription stream into a deduplicated,
// time-ordered view scoped to a parent object (a task or a note).
package thread

import (
	"sort"
	"sync"

	"nostr-workbench/internal/types"
)

// Aggregator owns the event set for one subscription scope. Ingest is an
// O(1) keyed insert; ordering is recomputed lazily on Snapshot so the
// aggregation cadence is decoupled from the rendering cadence.
type Aggregator struct {
	mu       sync.RWMutex
	parentID string
	authors  map[string]bool // nil means no author restriction
	items    map[string]types.Event
	lastSeen int64
	dead     bool
}

// Scope creates an aggregator bound to parentID. If authorFilter is
// non-empty, events from other authors are dropped on ingest.
func Scope(parentID string, authorFilter []string) *Aggregator {
	a := &Aggregator{
		parentID: parentID,
		items:    make(map[string]types.Event),
	}
	if len(authorFilter) > 0 {
		a.authors = make(map[string]bool, len(authorFilter))
		for _, pk := range authorFilter {
			a.authors[pk] = true
		}
	}
	return a
}

// ParentID returns the scope's parent object ID.
func (a *Aggregator) ParentID() string {
	return a.parentID
}

// Filter builds the subscription filter for this scope: events of the given
// kinds referencing the parent, restricted to the scope's author set.
func (a *Aggregator) Filter(kinds []int, limit int) types.Filter {
	f := types.Filter{
		Kinds: kinds,
		ETags: []string{a.parentID},
		Limit: limit,
	}
	for pk := range a.authors {
		f.Authors = append(f.Authors, pk)
	}
	sort.Strings(f.Authors)
	return f
}

// Ingest adds an event to the view and reports whether it was new.
// Re-ingesting an ID already present is a no-op: content is immutable per
// ID, so structural equality by ID is enough. Ingests after Unscope are
// silently dropped.
func (a *Aggregator) Ingest(evt types.Event) bool {
	if evt.ID == "" {
		return false
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.dead {
		return false
	}
	if a.authors != nil && !a.authors[evt.PubKey] {
		return false
	}
	if _, exists := a.items[evt.ID]; exists {
		return false
	}

	a.items[evt.ID] = evt
	if evt.CreatedAt > a.lastSeen {
		a.lastSeen = evt.CreatedAt
	}
	return true
}

// Snapshot returns the current view ordered by CreatedAt descending, ties
// broken by ascending ID for determinism. The returned slice is a copy.
func (a *Aggregator) Snapshot() []types.Event {
	a.mu.RLock()
	events := make([]types.Event, 0, len(a.items))
	for _, evt := range a.items {
		events = append(events, evt)
	}
	a.mu.RUnlock()

	sort.Slice(events, func(i, j int) bool {
		if events[i].CreatedAt != events[j].CreatedAt {
			return events[i].CreatedAt > events[j].CreatedAt
		}
		return events[i].ID < events[j].ID
	})
	return events
}

// Len returns the number of distinct events in the view.
func (a *Aggregator) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.items)
}

// LastSeen returns the newest CreatedAt ingested so far.
func (a *Aggregator) LastSeen() int64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lastSeen
}

// Dead reports whether the scope has been torn down.
func (a *Aggregator) Dead() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.dead
}

// Unscope tears the scope down and releases all held events. The handle is
// dead afterwards; further ingests are dropped.
func (a *Aggregator) Unscope() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.dead = true
	a.items = make(map[string]types.Event)
}
