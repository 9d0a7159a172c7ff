// Package ed25519 verifies GRANDPA voter signatures.
package ed25519

import (
	"github.com/oasisprotocol/curve25519-voi/primitives/ed25519"
)

const (
	// PublicKeySize of a GRANDPA authority id.
	PublicKeySize = ed25519.PublicKeySize
	// SignatureSize of a GRANDPA vote signature.
	SignatureSize = ed25519.SignatureSize
)

// Verify reports whether sig is a valid signature of msg by pub.
func Verify(pub [PublicKeySize]byte, msg []byte, sig [SignatureSize]byte) bool {
	return ed25519.Verify(ed25519.PublicKey(pub[:]), msg, sig[:])
}

// SecretKey is an ed25519 signing key, used to author votes in tests and tools.
type SecretKey struct {
	priv ed25519.PrivateKey
}

// NewSecretKey derives a signing key from a 32 byte seed.
func NewSecretKey(seed [ed25519.SeedSize]byte) *SecretKey {
	return &SecretKey{priv: ed25519.NewKeyFromSeed(seed[:])}
}

// PublicKey returns the authority id for the key.
func (s *SecretKey) PublicKey() [PublicKeySize]byte {
	var out [PublicKeySize]byte
	copy(out[:], s.priv[ed25519.SeedSize:])
	return out
}

// Sign signs msg.
func (s *SecretKey) Sign(msg []byte) [SignatureSize]byte {
	var out [SignatureSize]byte
	copy(out[:], ed25519.Sign(s.priv, msg))
	return out
}
