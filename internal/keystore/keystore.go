// Package keystore persists the signing key encrypted at rest. The file key
// is derived from a passphrase with HKDF-SHA256 and the payload is sealed
// with XChaCha20-Poly1305.
package keystore

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// keystoreFile is the on-disk format for the encrypted signing key
type keystoreFile struct {
	Version    int    `json:"version"`
	Salt       string `json:"salt"`       // hex, 32 bytes
	Nonce      string `json:"nonce"`      // hex, 24 bytes (XChaCha20)
	Ciphertext string `json:"ciphertext"` // hex
}

const keystoreVersion = 1

// deriveKey derives the 32-byte file key from a passphrase via HKDF-SHA256
// with a per-file salt.
func deriveKey(passphrase string, salt []byte) ([]byte, error) {
	reader := hkdf.New(sha256.New, []byte(passphrase), salt, []byte("nostr-workbench-keystore-v1"))
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, err
	}
	return key, nil
}

// Save encrypts the private key with a passphrase-derived key and writes it
// to path with owner-only permissions.
func Save(path, passphrase, privKeyHex string) error {
	if _, err := hex.DecodeString(privKeyHex); err != nil {
		return fmt.Errorf("invalid private key hex: %w", err)
	}

	salt := make([]byte, 32)
	if _, err := rand.Read(salt); err != nil {
		return err
	}

	key, err := deriveKey(passphrase, salt)
	if err != nil {
		return err
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return err
	}

	ciphertext := aead.Seal(nil, nonce, []byte(privKeyHex), nil)

	data, err := json.MarshalIndent(keystoreFile{
		Version:    keystoreVersion,
		Salt:       hex.EncodeToString(salt),
		Nonce:      hex.EncodeToString(nonce),
		Ciphertext: hex.EncodeToString(ciphertext),
	}, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// Load reads and decrypts the signing key from path.
func Load(path, passphrase string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	var ks keystoreFile
	if err := json.Unmarshal(data, &ks); err != nil {
		return "", fmt.Errorf("invalid keystore file: %w", err)
	}
	if ks.Version != keystoreVersion {
		return "", fmt.Errorf("unsupported keystore version %d", ks.Version)
	}

	salt, err := hex.DecodeString(ks.Salt)
	if err != nil {
		return "", errors.New("invalid keystore salt")
	}
	nonce, err := hex.DecodeString(ks.Nonce)
	if err != nil {
		return "", errors.New("invalid keystore nonce")
	}
	ciphertext, err := hex.DecodeString(ks.Ciphertext)
	if err != nil {
		return "", errors.New("invalid keystore ciphertext")
	}

	key, err := deriveKey(passphrase, salt)
	if err != nil {
		return "", err
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return "", err
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", errors.New("keystore decryption failed: wrong passphrase or corrupted file")
	}

	return string(plaintext), nil
}
