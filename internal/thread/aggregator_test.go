package thread

import (
	"testing"

	"nostr-workbench/internal/types"
)

func TestIngestDeduplicates(t *testing.T) {
	agg := Scope("parent1", nil)
	evt := types.Event{ID: "e1", CreatedAt: 100}

	if !agg.Ingest(evt) {
		t.Error("first ingest should report new")
	}
	if agg.Ingest(evt) {
		t.Error("re-ingest should report duplicate")
	}
	agg.Ingest(evt)

	snap := agg.Snapshot()
	if len(snap) != 1 {
		t.Errorf("expected 1 event after re-ingest, got %d", len(snap))
	}
}

func TestSnapshotOrdering(t *testing.T) {
	agg := Scope("parent1", nil)
	agg.Ingest(types.Event{ID: "c", CreatedAt: 100})
	agg.Ingest(types.Event{ID: "a", CreatedAt: 300})
	agg.Ingest(types.Event{ID: "b", CreatedAt: 200})

	snap := agg.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("expected 3 events, got %d", len(snap))
	}

	wantIDs := []string{"a", "b", "c"}
	for i, want := range wantIDs {
		if snap[i].ID != want {
			t.Errorf("position %d: got %s, want %s", i, snap[i].ID, want)
		}
	}
}

func TestSnapshotTieBreak(t *testing.T) {
	agg := Scope("parent1", nil)
	agg.Ingest(types.Event{ID: "zz", CreatedAt: 100})
	agg.Ingest(types.Event{ID: "aa", CreatedAt: 100})
	agg.Ingest(types.Event{ID: "mm", CreatedAt: 100})

	snap := agg.Snapshot()
	for i := 1; i < len(snap); i++ {
		a, b := snap[i-1], snap[i]
		if a.CreatedAt < b.CreatedAt {
			t.Errorf("not descending by created_at: %d before %d", a.CreatedAt, b.CreatedAt)
		}
		if a.CreatedAt == b.CreatedAt && a.ID > b.ID {
			t.Errorf("tie not broken by ascending id: %s before %s", a.ID, b.ID)
		}
	}
}

func TestIngestAfterUnscopeDropped(t *testing.T) {
	agg := Scope("parent1", nil)
	agg.Ingest(types.Event{ID: "e1", CreatedAt: 100})
	agg.Unscope()

	if !agg.Dead() {
		t.Error("aggregator should be dead after unscope")
	}

	// Not an error to ingest after teardown, just a silent drop.
	agg.Ingest(types.Event{ID: "e2", CreatedAt: 200})

	if got := agg.Len(); got != 0 {
		t.Errorf("unscope should release all events, got %d", got)
	}
}

func TestAuthorFilter(t *testing.T) {
	agg := Scope("parent1", []string{"alice", "bob"})
	agg.Ingest(types.Event{ID: "e1", PubKey: "alice", CreatedAt: 1})
	agg.Ingest(types.Event{ID: "e2", PubKey: "mallory", CreatedAt: 2})
	agg.Ingest(types.Event{ID: "e3", PubKey: "bob", CreatedAt: 3})

	if got := agg.Len(); got != 2 {
		t.Errorf("expected 2 events from scoped authors, got %d", got)
	}
}

func TestIngestIgnoresEmptyID(t *testing.T) {
	agg := Scope("parent1", nil)
	agg.Ingest(types.Event{CreatedAt: 10})
	if got := agg.Len(); got != 0 {
		t.Errorf("event without id should be dropped, got %d", got)
	}
}

func TestScopeFilter(t *testing.T) {
	agg := Scope("parent1", []string{"bob", "alice"})
	f := agg.Filter([]int{1, 1111}, 50)

	if len(f.ETags) != 1 || f.ETags[0] != "parent1" {
		t.Errorf("filter should reference the parent, got %v", f.ETags)
	}
	if len(f.Authors) != 2 || f.Authors[0] != "alice" {
		t.Errorf("filter authors should be the sorted scope set, got %v", f.Authors)
	}
	if f.Limit != 50 {
		t.Errorf("limit not carried: %d", f.Limit)
	}
}

func TestLastSeen(t *testing.T) {
	agg := Scope("parent1", nil)
	agg.Ingest(types.Event{ID: "e1", CreatedAt: 300})
	agg.Ingest(types.Event{ID: "e2", CreatedAt: 100})

	if got := agg.LastSeen(); got != 300 {
		t.Errorf("expected last seen 300, got %d", got)
	}
}
