// Package wallet loads and validates the Solana keypair used to sign swaps.
package wallet

import (
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"os"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// keypairLen is the standard Solana keypair file length: 32 bytes of seed
// followed by the 32-byte public key.
const keypairLen = 64

// Wallet holds a Solana ed25519 keypair.
type Wallet struct {
	priv   ed25519.PrivateKey
	pubkey string
}

// Load reads a keypair from a Solana CLI JSON file (an array of 64 bytes).
func Load(path string) (*Wallet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keypair %s: %w", path, err)
	}

	var bytes []byte
	if err := json.Unmarshal(raw, &bytes); err != nil {
		return nil, fmt.Errorf("parse keypair %s: %w", path, err)
	}
	return FromBytes(bytes)
}

// FromBytes builds a wallet from raw keypair bytes.
func FromBytes(b []byte) (*Wallet, error) {
	if len(b) != keypairLen {
		return nil, fmt.Errorf("keypair must be %d bytes, got %d", keypairLen, len(b))
	}

	// The trailing 32 bytes must match the key derived from the seed,
	// and must decode to a valid curve point.
	priv := ed25519.NewKeyFromSeed(b[:32])
	pub := priv.Public().(ed25519.PublicKey)
	if !pub.Equal(ed25519.PublicKey(b[32:])) {
		return nil, fmt.Errorf("keypair mismatch: public half does not derive from seed")
	}
	if _, err := new(edwards25519.Point).SetBytes(pub); err != nil {
		return nil, fmt.Errorf("public key not on curve: %w", err)
	}

	return &Wallet{
		priv:   priv,
		pubkey: base58.Encode(pub),
	}, nil
}

// PublicKey returns the base58-encoded public key.
func (w *Wallet) PublicKey() string {
	return w.pubkey
}

// Sign signs the message with the wallet's private key.
func (w *Wallet) Sign(message []byte) []byte {
	return ed25519.Sign(w.priv, message)
}
