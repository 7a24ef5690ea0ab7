// Package types provides shared type definitions used across internal packages.
package types

// Event represents a signed Nostr event (NIP-01)
type Event struct {
	ID         string     `json:"id"`
	PubKey     string     `json:"pubkey"`
	CreatedAt  int64      `json:"created_at"`
	Kind       int        `json:"kind"`
	Tags       [][]string `json:"tags"`
	Content    string     `json:"content"`
	Sig        string     `json:"sig"`
	RelaysSeen []string   `json:"-"`
}

// UnsignedEvent is an event that still needs an ID and signature.
// The signer fills in pubkey, id and sig.
type UnsignedEvent struct {
	Kind      int        `json:"kind"`
	Content   string     `json:"content"`
	Tags      [][]string `json:"tags"`
	CreatedAt int64      `json:"created_at"`
}

// Filter represents a Nostr subscription filter (NIP-01)
type Filter struct {
	IDs     []string
	Authors []string
	Kinds   []int
	Limit   int
	Since   *int64
	Until   *int64
	ETags   []string // #e tag filter (events referencing these IDs)
	UpperE  []string // #E tag filter (scoped-root references for comment threads)
	PTags   []string // #p tag filter (mentions)
}

// NostrMessage represents a raw Nostr protocol message
type NostrMessage []interface{}
