package main

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2/schnorr"

	"nostr-workbench/internal/types"
)

const (
	testPrivKey        = "edc90d06fee17615229c8526dc005d959e4af3bdc0b48c5776c951bcafedec85"
	testExpectedPubkey = "bbde6a0e8847e1cdb2ba5ec021cc949eb3cef125b8304a748fe11c0407990eec"
)

func TestSignerPubkeyDerivation(t *testing.T) {
	signer, err := NewLocalSigner(testPrivKey)
	if err != nil {
		t.Fatalf("NewLocalSigner failed: %v", err)
	}

	if signer.PublicKey() != testExpectedPubkey {
		t.Errorf("pubkey mismatch\n  got:      %s\n  expected: %s", signer.PublicKey(), testExpectedPubkey)
	}

	if !strings.HasPrefix(signer.Npub(), "npub1") {
		t.Errorf("npub should start with npub1, got %s", signer.Npub())
	}
}

func TestNewLocalSignerRejectsBadKeys(t *testing.T) {
	if _, err := NewLocalSigner("not-hex"); err == nil {
		t.Error("expected error for non-hex key")
	}
	if _, err := NewLocalSigner("abcd"); err == nil {
		t.Error("expected error for short key")
	}
}

func TestTrySignProducesVerifiableSignature(t *testing.T) {
	signer, err := NewLocalSigner(testPrivKey)
	if err != nil {
		t.Fatalf("NewLocalSigner failed: %v", err)
	}

	unsigned := types.UnsignedEvent{
		Kind:      1,
		Content:   "hello nostr",
		Tags:      [][]string{{"e", strings.Repeat("a", 64), "", "root"}},
		CreatedAt: 1700000000,
	}

	signed, err := signer.TrySign(context.Background(), unsigned)
	if err != nil {
		t.Fatalf("TrySign failed: %v", err)
	}

	if signed.PubKey != testExpectedPubkey {
		t.Errorf("signed event has wrong pubkey: %s", signed.PubKey)
	}

	// ID must equal the SHA256 of the canonical serialization
	serialized := []interface{}{0, signed.PubKey, signed.CreatedAt, signed.Kind, signed.Tags, signed.Content}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.Encode(serialized)
	hash := sha256.Sum256(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
	wantID := hex.EncodeToString(hash[:])

	if signed.ID != wantID {
		t.Errorf("event ID mismatch\n  got:      %s\n  expected: %s", signed.ID, wantID)
	}

	// Signature must verify against the ID and pubkey
	sigBytes, err := hex.DecodeString(signed.Sig)
	if err != nil {
		t.Fatalf("signature is not hex: %v", err)
	}
	sig, err := schnorr.ParseSignature(sigBytes)
	if err != nil {
		t.Fatalf("ParseSignature failed: %v", err)
	}

	pubKeyBytes, _ := hex.DecodeString(signed.PubKey)
	pubKey, err := schnorr.ParsePubKey(pubKeyBytes)
	if err != nil {
		t.Fatalf("ParsePubKey failed: %v", err)
	}

	idBytes, _ := hex.DecodeString(signed.ID)
	if !sig.Verify(idBytes, pubKey) {
		t.Error("signature does not verify")
	}
}

func TestTrySignNilTagsBecomeEmptyArray(t *testing.T) {
	signer, _ := NewLocalSigner(testPrivKey)

	signed, err := signer.TrySign(context.Background(), types.UnsignedEvent{
		Kind:      1,
		Content:   "no tags",
		CreatedAt: 1700000000,
	})
	if err != nil {
		t.Fatalf("TrySign failed: %v", err)
	}
	if signed.Tags == nil {
		t.Error("tags should serialize as [] not null")
	}
}

func TestComputeEventIDDoesNotEscapeHTML(t *testing.T) {
	event := &types.Event{
		PubKey:    testExpectedPubkey,
		CreatedAt: 1700000000,
		Kind:      1,
		Tags:      [][]string{},
		Content:   "a < b && c > d",
	}

	id := computeEventID(event)

	// json.Marshal escapes <, > and & as unicode sequences. If that form
	// leaked into the hash, relays would compute a different ID.
	serialized := []interface{}{0, event.PubKey, event.CreatedAt, event.Kind, event.Tags, event.Content}
	escaped, _ := json.Marshal(serialized)
	escapedHash := sha256.Sum256(escaped)
	escapedID := hex.EncodeToString(escapedHash[:])

	if id == escapedID {
		t.Error("event ID was computed over HTML-escaped JSON")
	}
}

func TestTrySignCancelledContext(t *testing.T) {
	signer, _ := NewLocalSigner(testPrivKey)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := signer.TrySign(ctx, types.UnsignedEvent{Kind: 1, Content: "x"}); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestForgetDisablesSigner(t *testing.T) {
	signer, _ := NewLocalSigner(testPrivKey)
	if !signer.IsAvailable() {
		t.Fatal("signer should be available after load")
	}

	signer.Forget()

	if signer.IsAvailable() {
		t.Error("signer should be unavailable after Forget")
	}
	if _, err := signer.TrySign(context.Background(), types.UnsignedEvent{Kind: 1, Content: "x"}); err == nil {
		t.Error("TrySign should fail after Forget")
	}
}
