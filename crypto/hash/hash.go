// Package hash provides the hash functions used by relay-chain light clients:
// keccak-256 for BEEFY, BLAKE2b-256 for Substrate headers and tries, xxHash
// based twox for storage key derivation and SHA-256 for commitments.
package hash

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/minio/sha256-simd"
	"golang.org/x/crypto/blake2b"
)

// Keccak256 returns the keccak-256 digest of the concatenated inputs.
func Keccak256(data ...[]byte) [32]byte {
	var h [32]byte
	copy(h[:], crypto.Keccak256(data...))
	return h
}

// Blake2b256 returns the unkeyed BLAKE2b digest with a 32 byte output.
func Blake2b256(data []byte) [32]byte {
	return blake2b.Sum256(data)
}

// Sha256 returns the SHA-256 digest of data.
func Sha256(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// Twox64 is the 8 byte twox hash, the little endian xxh64 of data with seed 0.
func Twox64(data []byte) [8]byte {
	var out [8]byte
	binary.LittleEndian.PutUint64(out[:], xxh64(data, 0))
	return out
}

// Twox128 is the concatenation of two little endian xxh64 digests seeded
// with 0 and 1.
func Twox128(data []byte) [16]byte {
	var out [16]byte
	binary.LittleEndian.PutUint64(out[:8], xxh64(data, 0))
	binary.LittleEndian.PutUint64(out[8:], xxh64(data, 1))
	return out
}

func xxh64(data []byte, seed uint64) uint64 {
	if seed == 0 {
		return xxhash.Sum64(data)
	}
	d := xxhash.NewWithSeed(seed)
	// Digest.Write never returns an error.
	_, _ = d.Write(data)
	return d.Sum64()
}
