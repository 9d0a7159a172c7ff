package ecdsa

import (
	"testing"

	"github.com/ComposableFi/composable-sub011/crypto/hash"
	"github.com/ComposableFi/composable-sub011/testing/assert"
	"github.com/ComposableFi/composable-sub011/testing/require"
	"github.com/ethereum/go-ethereum/crypto"
)

func seed(b byte) [32]byte {
	var s [32]byte
	s[31] = b
	s[0] = 0x42
	return s
}

func TestRecoverCompressed(t *testing.T) {
	priv, err := KeyFromSeed(seed(1))
	require.NoError(t, err)
	digest := hash.Keccak256([]byte("commitment"))
	sig, err := Sign(priv, digest)
	require.NoError(t, err)

	got, err := RecoverCompressed(sig, digest)
	require.NoError(t, err)
	assert.Equal(t, CompressedKey(priv), got)

	// Ethereum style recovery ids.
	sig[64] += 27
	got, err = RecoverCompressed(sig, digest)
	require.NoError(t, err)
	assert.Equal(t, CompressedKey(priv), got)

	sig[64] = 5
	_, err = RecoverCompressed(sig, digest)
	require.ErrorContains(t, "invalid signature recovery id", err)
}

func TestRecoverCompressed_WrongDigest(t *testing.T) {
	priv, err := KeyFromSeed(seed(2))
	require.NoError(t, err)
	sig, err := Sign(priv, hash.Keccak256([]byte("a")))
	require.NoError(t, err)

	got, err := RecoverCompressed(sig, hash.Keccak256([]byte("b")))
	if err == nil {
		assert.NotEqual(t, CompressedKey(priv), got)
	}
}

func TestAddress(t *testing.T) {
	priv, err := KeyFromSeed(seed(3))
	require.NoError(t, err)
	addr, err := Address(CompressedKey(priv))
	require.NoError(t, err)
	assert.Equal(t, [AddressLength]byte(crypto.PubkeyToAddress(priv.PublicKey)), addr)

	_, err = Address([CompressedPublicKeyLength]byte{0x05})
	require.ErrorContains(t, "could not decompress public key", err)
}
