package main

import (
	"log/slog"
	"os"

	"nostr-workbench/internal/keystore"
)

// loadSignerFromEnv builds the local signer from either a raw key in
// WORKBENCH_NSEC or an encrypted keystore (WORKBENCH_KEYSTORE +
// WORKBENCH_KEYSTORE_PASSPHRASE). Returns nil when no key is configured;
// the client then runs read-only and submit is disabled.
func loadSignerFromEnv() *LocalSigner {
	if nsec := os.Getenv("WORKBENCH_NSEC"); nsec != "" {
		signer, err := NewLocalSigner(nsec)
		if err != nil {
			slog.Error("invalid WORKBENCH_NSEC", "error", err)
			return nil
		}
		return signer
	}

	path := os.Getenv("WORKBENCH_KEYSTORE")
	if path == "" {
		return nil
	}

	privKeyHex, err := keystore.Load(path, os.Getenv("WORKBENCH_KEYSTORE_PASSPHRASE"))
	if err != nil {
		slog.Error("failed to unlock keystore", "path", path, "error", err)
		return nil
	}

	signer, err := NewLocalSigner(privKeyHex)
	if err != nil {
		slog.Error("keystore contained an invalid key", "error", err)
		return nil
	}
	return signer
}
