// Package ecdsa wraps secp256k1 public key recovery for BEEFY authority
// signatures. Keys are handled in their 33 byte compressed form and identified
// on-chain by the 20 byte Ethereum-style address derived from them.
package ecdsa

import (
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

const (
	// SignatureLength is r || s || v.
	SignatureLength = 65
	// CompressedPublicKeyLength is the SEC1 compressed encoding length.
	CompressedPublicKeyLength = 33
	// AddressLength of an authority address.
	AddressLength = 20
)

var errInvalidRecoveryID = errors.New("invalid signature recovery id")

// RecoverCompressed recovers the compressed public key that produced sig over
// the 32 byte prehashed message. Recovery ids 27 and 28 are accepted alongside
// 0 and 1.
func RecoverCompressed(sig [SignatureLength]byte, digest [32]byte) ([CompressedPublicKeyLength]byte, error) {
	var out [CompressedPublicKeyLength]byte
	normalized := sig
	switch v := sig[64]; {
	case v == 0 || v == 1:
	case v == 27 || v == 28:
		normalized[64] = v - 27
	default:
		return out, errInvalidRecoveryID
	}
	pub, err := crypto.SigToPub(digest[:], normalized[:])
	if err != nil {
		return out, errors.Wrap(err, "could not recover public key")
	}
	copy(out[:], crypto.CompressPubkey(pub))
	return out, nil
}

// Address returns keccak256(uncompressed_key[1:])[12:] for a compressed key.
func Address(compressed [CompressedPublicKeyLength]byte) ([AddressLength]byte, error) {
	var out [AddressLength]byte
	pub, err := crypto.DecompressPubkey(compressed[:])
	if err != nil {
		return out, errors.Wrap(err, "could not decompress public key")
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// CompressedKey returns the compressed encoding of a private key's public half.
func CompressedKey(priv *ecdsa.PrivateKey) [CompressedPublicKeyLength]byte {
	var out [CompressedPublicKeyLength]byte
	copy(out[:], crypto.CompressPubkey(&priv.PublicKey))
	return out
}

// Sign produces a recoverable signature over a 32 byte digest.
func Sign(priv *ecdsa.PrivateKey, digest [32]byte) ([SignatureLength]byte, error) {
	var out [SignatureLength]byte
	sig, err := crypto.Sign(digest[:], priv)
	if err != nil {
		return out, errors.Wrap(err, "could not sign digest")
	}
	copy(out[:], sig)
	return out, nil
}

// KeyFromSeed derives a deterministic private key from a 32 byte seed.
func KeyFromSeed(seed [32]byte) (*ecdsa.PrivateKey, error) {
	return crypto.ToECDSA(seed[:])
}
