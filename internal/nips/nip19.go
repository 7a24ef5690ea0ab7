package nips

import (
	"encoding/hex"
	"errors"
	"strings"
)

// NEvent represents a decoded nevent1... identifier
type NEvent struct {
	EventID    string   // 32-byte event ID as hex
	Author     string   // Optional 32-byte author pubkey as hex
	RelayHints []string // Optional relay URLs
}

// TLV type constants for NIP-19
const (
	tlvTypeSpecial = 0 // event_id for nevent, pubkey for nprofile
	tlvTypeRelay   = 1 // relay URL
	tlvTypeAuthor  = 2 // author pubkey
)

// DecodeNEvent decodes a nevent1... bech32 string
func DecodeNEvent(nevent string) (*NEvent, error) {
	if !strings.HasPrefix(nevent, "nevent1") {
		return nil, errors.New("not a nevent")
	}

	hrp, data, err := Bech32Decode(nevent)
	if err != nil {
		return nil, err
	}
	if hrp != "nevent" {
		return nil, errors.New("invalid hrp for nevent")
	}

	tlvBytes, err := Bech32ConvertBits(data, 5, 8, false)
	if err != nil {
		return nil, err
	}

	return decodeNEventTLV(tlvBytes)
}

// DecodeNote decodes a note1... bech32 string to a hex event ID
func DecodeNote(note string) (string, error) {
	if !strings.HasPrefix(note, "note1") {
		return "", errors.New("not a note")
	}

	hrp, data, err := Bech32Decode(note)
	if err != nil {
		return "", err
	}
	if hrp != "note" {
		return "", errors.New("invalid hrp for note")
	}

	eventIDBytes, err := Bech32ConvertBits(data, 5, 8, false)
	if err != nil {
		return "", err
	}
	if len(eventIDBytes) != 32 {
		return "", errors.New("invalid note length")
	}

	return hex.EncodeToString(eventIDBytes), nil
}

// EncodeNEvent encodes an event ID (hex) plus optional author and relay hints
// into a nevent1... identifier
func EncodeNEvent(eventIDHex string, authorHex string, relayHints []string) (string, error) {
	eventIDBytes, err := hex.DecodeString(eventIDHex)
	if err != nil {
		return "", err
	}
	if len(eventIDBytes) != 32 {
		return "", errors.New("invalid event ID length")
	}

	var tlvData []byte
	tlvData = append(tlvData, tlvTypeSpecial, 32)
	tlvData = append(tlvData, eventIDBytes...)

	for _, relay := range relayHints {
		if relay == "" || len(relay) > 255 {
			continue
		}
		tlvData = append(tlvData, tlvTypeRelay, byte(len(relay)))
		tlvData = append(tlvData, []byte(relay)...)
	}

	if authorHex != "" {
		authorBytes, err := hex.DecodeString(authorHex)
		if err != nil {
			return "", err
		}
		if len(authorBytes) != 32 {
			return "", errors.New("invalid author pubkey length")
		}
		tlvData = append(tlvData, tlvTypeAuthor, 32)
		tlvData = append(tlvData, authorBytes...)
	}

	data5bit, err := Bech32ConvertBits(tlvData, 8, 5, true)
	if err != nil {
		return "", err
	}

	return Bech32Encode("nevent", data5bit)
}

func decodeNEventTLV(data []byte) (*NEvent, error) {
	n := &NEvent{RelayHints: []string{}}

	for i := 0; i < len(data); {
		if i+2 > len(data) {
			break
		}

		tlvType := data[i]
		tlvLen := int(data[i+1])
		i += 2

		if i+tlvLen > len(data) {
			break
		}

		value := data[i : i+tlvLen]
		i += tlvLen

		switch tlvType {
		case tlvTypeSpecial: // event_id
			if tlvLen == 32 {
				n.EventID = hex.EncodeToString(value)
			}
		case tlvTypeRelay:
			n.RelayHints = append(n.RelayHints, string(value))
		case tlvTypeAuthor:
			if tlvLen == 32 {
				n.Author = hex.EncodeToString(value)
			}
		}
	}

	if n.EventID == "" {
		return nil, errors.New("nevent missing event ID")
	}

	return n, nil
}
