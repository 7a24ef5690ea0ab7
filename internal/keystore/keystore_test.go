package keystore

import (
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

const testKey = "edc90d06fee17615229c8526dc005d959e4af3bdc0b48c5776c951bcafedec85"

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keystore.json")

	if err := Save(path, "correct horse battery staple", testKey); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := Load(path, "correct horse battery staple")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got != testKey {
		t.Errorf("round trip mismatch\n  got:      %s\n  expected: %s", got, testKey)
	}
}

func TestWrongPassphrase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keystore.json")

	if err := Save(path, "right", testKey); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if _, err := Load(path, "wrong"); err == nil {
		t.Error("expected decryption failure with wrong passphrase")
	}
}

func TestTamperedCiphertext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keystore.json")

	if err := Save(path, "pass", testKey); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var ks keystoreFile
	if err := json.Unmarshal(data, &ks); err != nil {
		t.Fatal(err)
	}

	ct, _ := hex.DecodeString(ks.Ciphertext)
	ct[0] ^= 0xff
	ks.Ciphertext = hex.EncodeToString(ct)

	tampered, _ := json.Marshal(ks)
	if err := os.WriteFile(path, tampered, 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path, "pass"); err == nil {
		t.Error("expected decryption failure for tampered ciphertext")
	}
}

func TestRejectsInvalidKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keystore.json")
	if err := Save(path, "pass", "not hex at all"); err == nil {
		t.Error("expected error for non-hex private key")
	}
}

func TestFilePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file modes not meaningful on windows")
	}

	path := filepath.Join(t.TempDir(), "keystore.json")
	if err := Save(path, "pass", testKey); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		t.Errorf("keystore mode = %o, want 0600", mode)
	}
}
