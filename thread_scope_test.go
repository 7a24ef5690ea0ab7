package main

import "testing"

func TestAcquireSeparatesAuthorFilters(t *testing.T) {
	m := NewScopeManager()
	defer m.Unscope("parent1", nil)
	defer m.Unscope("parent1", []string{"alice"})

	unfiltered := m.Acquire("parent1", nil)
	filtered := m.Acquire("parent1", []string{"alice"})
	if unfiltered == filtered {
		t.Fatal("filtered view aliased the unfiltered scope")
	}

	if got := m.Acquire("parent1", nil); got != unfiltered {
		t.Error("unfiltered reacquire returned a different aggregator")
	}
	if got := m.Acquire("parent1", []string{"alice"}); got != filtered {
		t.Error("filtered reacquire returned a different aggregator")
	}
	if got := m.Len(); got != 2 {
		t.Errorf("expected 2 scopes, got %d", got)
	}
}

func TestAcquireAuthorOrderInsensitive(t *testing.T) {
	m := NewScopeManager()
	defer m.Unscope("parent1", []string{"alice", "bob"})

	first := m.Acquire("parent1", []string{"bob", "alice"})
	second := m.Acquire("parent1", []string{"alice", "bob"})
	if first != second {
		t.Error("same author set in different order opened a second scope")
	}
	if got := m.Len(); got != 1 {
		t.Errorf("expected 1 scope, got %d", got)
	}
}

func TestUnscopeKillsAggregator(t *testing.T) {
	m := NewScopeManager()

	agg := m.Acquire("parent1", []string{"alice"})
	m.Unscope("parent1", []string{"alice"})

	if !agg.Dead() {
		t.Error("aggregator still live after unscope")
	}
	if got := m.Len(); got != 0 {
		t.Errorf("expected 0 scopes, got %d", got)
	}

	// Unscoping a key that never existed is a no-op.
	m.Unscope("parent1", nil)
}
