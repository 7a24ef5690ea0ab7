package nips

import "testing"

func TestEncodePubkeyKnownVector(t *testing.T) {
	// Test vector from NIP-19
	pubkey := "3bf0c63fcb93463407af97a5e5ee64fa883d107ef9e558472c4eb9aaaefa459d"
	want := "npub10elfcs4fr0l0r8af98jlmgdh9c8tcxjvz9qkw038js35mp4dma8qzvjptg"

	got, err := EncodePubkey(pubkey)
	if err != nil {
		t.Fatalf("encode pubkey: %v", err)
	}
	if got != want {
		t.Errorf("npub mismatch:\n  got:  %s\n  want: %s", got, want)
	}
}

func TestEncodePubkeyRejectsBadInput(t *testing.T) {
	if _, err := EncodePubkey("nothex"); err == nil {
		t.Error("expected error for non-hex input")
	}
	if _, err := EncodePubkey("abcd"); err == nil {
		t.Error("expected error for short input")
	}
}

func TestEncodeEventIDRoundTrip(t *testing.T) {
	eventID := "5c83da77af1dec6d7289834998ad7aafbd9e2191396d75ec3cc27f5a77226f36"

	note, err := EncodeEventID(eventID)
	if err != nil {
		t.Fatalf("encode event id: %v", err)
	}
	if len(note) < 6 || note[:5] != "note1" {
		t.Fatalf("expected note1 prefix, got %s", note)
	}

	decoded, err := DecodeNote(note)
	if err != nil {
		t.Fatalf("decode note: %v", err)
	}
	if decoded != eventID {
		t.Errorf("round trip mismatch:\n  got:  %s\n  want: %s", decoded, eventID)
	}
}

func TestEncodeNEventRoundTrip(t *testing.T) {
	eventID := "5c83da77af1dec6d7289834998ad7aafbd9e2191396d75ec3cc27f5a77226f36"
	author := "3bf0c63fcb93463407af97a5e5ee64fa883d107ef9e558472c4eb9aaaefa459d"
	relays := []string{"wss://relay.example.com"}

	nevent, err := EncodeNEvent(eventID, author, relays)
	if err != nil {
		t.Fatalf("encode nevent: %v", err)
	}

	decoded, err := DecodeNEvent(nevent)
	if err != nil {
		t.Fatalf("decode nevent: %v", err)
	}
	if decoded.EventID != eventID {
		t.Errorf("event id mismatch: %s", decoded.EventID)
	}
	if decoded.Author != author {
		t.Errorf("author mismatch: %s", decoded.Author)
	}
	if len(decoded.RelayHints) != 1 || decoded.RelayHints[0] != relays[0] {
		t.Errorf("relay hints mismatch: %v", decoded.RelayHints)
	}
}

func TestEncodeNEventWithoutAuthor(t *testing.T) {
	eventID := "5c83da77af1dec6d7289834998ad7aafbd9e2191396d75ec3cc27f5a77226f36"

	nevent, err := EncodeNEvent(eventID, "", nil)
	if err != nil {
		t.Fatalf("encode nevent: %v", err)
	}

	decoded, err := DecodeNEvent(nevent)
	if err != nil {
		t.Fatalf("decode nevent: %v", err)
	}
	if decoded.EventID != eventID || decoded.Author != "" {
		t.Errorf("unexpected decode result: %+v", decoded)
	}
}

func TestDecodeNoteRejectsWrongPrefix(t *testing.T) {
	if _, err := DecodeNote("npub10elfcs4fr0l0r8af98jlmgdh9c8tcxjvz9qkw038js35mp4dma8qzvjptg"); err == nil {
		t.Error("expected error decoding npub as note")
	}
}
