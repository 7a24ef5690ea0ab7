package main

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"

	"nostr-workbench/internal/nips"
	"nostr-workbench/internal/types"
)

// LocalSigner signs events with an in-process schnorr key. It implements the
// publish.Signer capability.
type LocalSigner struct {
	mu         sync.RWMutex
	privateKey *btcec.PrivateKey
	pubKeyHex  string
	npub       string
}

// NewLocalSigner creates a signer from a 32-byte hex private key.
func NewLocalSigner(privKeyHex string) (*LocalSigner, error) {
	privKeyBytes, err := hex.DecodeString(privKeyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid private key hex: %w", err)
	}
	if len(privKeyBytes) != 32 {
		return nil, errors.New("private key must be 32 bytes")
	}

	privateKey, _ := btcec.PrivKeyFromBytes(privKeyBytes)
	pubKeyBytes := privateKey.PubKey().SerializeCompressed()[1:] // x-only, drop prefix byte
	pubKeyHex := hex.EncodeToString(pubKeyBytes)
	npub, _ := nips.EncodePubkey(pubKeyHex)

	return &LocalSigner{
		privateKey: privateKey,
		pubKeyHex:  pubKeyHex,
		npub:       npub,
	}, nil
}

// IsAvailable reports whether a key is loaded.
func (s *LocalSigner) IsAvailable() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.privateKey != nil
}

// PublicKey returns the signer's x-only pubkey as hex.
func (s *LocalSigner) PublicKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pubKeyHex
}

// Npub returns the signer's pubkey in bech32 form.
func (s *LocalSigner) Npub() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.npub
}

// Forget drops the loaded key. The signer reports unavailable afterwards.
func (s *LocalSigner) Forget() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.privateKey = nil
	s.pubKeyHex = ""
	s.npub = ""
}

// TrySign computes the event ID over the canonical serialization and signs
// it, returning the complete signed event.
func (s *LocalSigner) TrySign(ctx context.Context, event types.UnsignedEvent) (*types.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	privateKey := s.privateKey
	pubKeyHex := s.pubKeyHex
	s.mu.RUnlock()

	if privateKey == nil {
		return nil, errors.New("no key loaded")
	}

	tags := event.Tags
	if tags == nil {
		tags = [][]string{}
	}

	signed := &types.Event{
		PubKey:    pubKeyHex,
		CreatedAt: event.CreatedAt,
		Kind:      event.Kind,
		Tags:      tags,
		Content:   event.Content,
	}
	signed.ID = computeEventID(signed)

	idBytes, err := hex.DecodeString(signed.ID)
	if err != nil {
		return nil, err
	}
	sig, err := schnorr.Sign(privateKey, idBytes)
	if err != nil {
		return nil, fmt.Errorf("schnorr sign: %w", err)
	}
	signed.Sig = hex.EncodeToString(sig.Serialize())

	return signed, nil
}

// computeEventID returns the SHA-256 of the canonical NIP-01 serialization:
// [0, pubkey, created_at, kind, tags, content].
//
// HTML escaping must be disabled: relays expect <, > and & unescaped, while
// Go's json.Marshal escapes them by default.
func computeEventID(event *types.Event) string {
	serialized := []interface{}{
		0,
		event.PubKey,
		event.CreatedAt,
		event.Kind,
		event.Tags,
		event.Content,
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.Encode(serialized)

	// Encoder.Encode adds a trailing newline, remove it
	jsonBytes := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))

	hash := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(hash[:])
}
