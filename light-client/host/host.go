// Package host defines the cryptographic and proof primitives the light
// client verification core is parameterised over. Embedding environments
// (on-chain runtimes, relayers, tests) may supply accelerated versions; the
// native implementation here is deterministic and side-effect free.
package host

import (
	"bytes"

	"github.com/ChainSafe/gossamer/pkg/trie/proof"
	"github.com/ComposableFi/composable-sub011/config/params"
	"github.com/ComposableFi/composable-sub011/container/patricia"
	"github.com/ComposableFi/composable-sub011/crypto/ecdsa"
	"github.com/ComposableFi/composable-sub011/crypto/ed25519"
	"github.com/ComposableFi/composable-sub011/crypto/hash"
	"github.com/pkg/errors"
)

// Functions is the capability set required by the verifiers.
type Functions interface {
	Keccak256(data []byte) [32]byte
	Blake2b256(data []byte) [32]byte
	Sha256(data []byte) [32]byte
	Twox64(data []byte) [8]byte
	Twox128(data []byte) [16]byte
	// EcdsaRecoverCompressed recovers the compressed secp256k1 key that
	// signed a 32 byte prehashed message.
	EcdsaRecoverCompressed(sig [65]byte, digest [32]byte) ([33]byte, error)
	Ed25519Verify(sig [64]byte, msg []byte, pub [32]byte) bool
	// VerifyTrieProof checks key maps to expected under root; a nil expected
	// value proves absence.
	VerifyTrieProof(root [32]byte, proof [][]byte, key []byte, expected []byte) error
	// ReadTrieProof returns the value proven under key, nil when absent.
	ReadTrieProof(root [32]byte, proof [][]byte, key []byte) ([]byte, error)
}

// Native implements Functions with the module's own crypto packages.
type Native struct {
	maxProofNodes int
}

var _ Functions = (*Native)(nil)

// Default returns native host functions limited by the active config.
func Default() *Native {
	return New(params.LightClient())
}

// New returns native host functions limited by cfg.
func New(cfg *params.LightClientConfig) *Native {
	return &Native{maxProofNodes: int(cfg.MaxProofNodes)}
}

// Keccak256 --
func (*Native) Keccak256(data []byte) [32]byte { return hash.Keccak256(data) }

// Blake2b256 --
func (*Native) Blake2b256(data []byte) [32]byte { return hash.Blake2b256(data) }

// Sha256 --
func (*Native) Sha256(data []byte) [32]byte { return hash.Sha256(data) }

// Twox64 --
func (*Native) Twox64(data []byte) [8]byte { return hash.Twox64(data) }

// Twox128 --
func (*Native) Twox128(data []byte) [16]byte { return hash.Twox128(data) }

// EcdsaRecoverCompressed --
func (*Native) EcdsaRecoverCompressed(sig [65]byte, digest [32]byte) ([33]byte, error) {
	return ecdsa.RecoverCompressed(sig, digest)
}

// Ed25519Verify --
func (*Native) Ed25519Verify(sig [64]byte, msg []byte, pub [32]byte) bool {
	return ed25519.Verify(pub, msg, sig)
}

// VerifyTrieProof checks membership with gossamer's proof verifier. Absence
// is proven by walking the path with the patricia reader, which fails unless
// every node down to the divergence point is present.
func (n *Native) VerifyTrieProof(root [32]byte, nodes [][]byte, key []byte, expected []byte) error {
	if err := n.checkProofSize(nodes); err != nil {
		return err
	}
	if expected == nil {
		return patricia.VerifyProof(hash.Blake2b256, root, nodes, key, nil, n.maxProofNodes)
	}
	if len(expected) == 0 {
		// Verify only compares non-empty values.
		got, err := n.ReadTrieProof(root, nodes, key)
		if err != nil {
			return err
		}
		if got == nil || len(got) != 0 {
			return errors.Wrap(patricia.ErrValueMismatch, "expected empty value")
		}
		return nil
	}
	if err := proof.Verify(nodes, root[:], key, expected); err != nil {
		return errors.Wrap(patricia.ErrValueMismatch, err.Error())
	}
	return nil
}

// ReadTrieProof locates the value under key and, when present, confirms it
// against gossamer's proof verifier.
func (n *Native) ReadTrieProof(root [32]byte, nodes [][]byte, key []byte) ([]byte, error) {
	if err := n.checkProofSize(nodes); err != nil {
		return nil, err
	}
	value, err := patricia.ReadProof(hash.Blake2b256, root, nodes, key, n.maxProofNodes)
	if err != nil || value == nil {
		return nil, err
	}
	if len(value) == 0 {
		return value, nil
	}
	if err := proof.Verify(nodes, root[:], key, value); err != nil {
		return nil, errors.Wrap(err, "could not verify trie proof")
	}
	return bytes.Clone(value), nil
}

func (n *Native) checkProofSize(nodes [][]byte) error {
	if n.maxProofNodes > 0 && len(nodes) > n.maxProofNodes {
		return errors.Wrapf(patricia.ErrTooManyNodes, "%d nodes, limit %d", len(nodes), n.maxProofNodes)
	}
	return nil
}
