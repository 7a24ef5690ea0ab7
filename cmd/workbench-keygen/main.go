// Command workbench-keygen generates a signing key and writes it to an
// encrypted keystore file for use with WORKBENCH_KEYSTORE.
//
// Usage:
//
//	workbench-keygen -out keystore.json
//	workbench-keygen -out keystore.json -key <64-hex-privkey>
//
// The passphrase is read from WORKBENCH_KEYSTORE_PASSPHRASE.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"

	"github.com/btcsuite/btcd/btcec/v2"

	"nostr-workbench/internal/keystore"
	"nostr-workbench/internal/nips"
)

func main() {
	out := flag.String("out", "keystore.json", "output path for the encrypted keystore")
	keyHex := flag.String("key", "", "import an existing private key (hex) instead of generating one")
	flag.Parse()

	passphrase := os.Getenv("WORKBENCH_KEYSTORE_PASSPHRASE")
	if passphrase == "" {
		fmt.Fprintln(os.Stderr, "WORKBENCH_KEYSTORE_PASSPHRASE must be set")
		os.Exit(1)
	}

	privKeyHex := *keyHex
	if privKeyHex == "" {
		privKey, err := btcec.NewPrivateKey()
		if err != nil {
			fmt.Fprintf(os.Stderr, "key generation failed: %v\n", err)
			os.Exit(1)
		}
		privKeyHex = hex.EncodeToString(privKey.Serialize())
	}

	privKeyBytes, err := hex.DecodeString(privKeyHex)
	if err != nil || len(privKeyBytes) != 32 {
		fmt.Fprintln(os.Stderr, "private key must be 32 bytes of hex")
		os.Exit(1)
	}

	if err := keystore.Save(*out, passphrase, privKeyHex); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write keystore: %v\n", err)
		os.Exit(1)
	}

	privKey, _ := btcec.PrivKeyFromBytes(privKeyBytes)
	pubKeyHex := hex.EncodeToString(privKey.PubKey().SerializeCompressed()[1:])
	npub, _ := nips.EncodePubkey(pubKeyHex)

	fmt.Printf("keystore written to %s\n", *out)
	fmt.Printf("pubkey: %s\n", pubKeyHex)
	fmt.Printf("npub:   %s\n", npub)
}
