package beefy

import (
	"github.com/ComposableFi/composable-sub011/config/params"
	"github.com/ComposableFi/composable-sub011/container/merkle"
	"github.com/ComposableFi/composable-sub011/crypto/ecdsa"
	"github.com/ComposableFi/composable-sub011/light-client/host"
	"github.com/ComposableFi/composable-sub011/light-client/primitives"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/go-bitfield"
)

// AuthorityLeaf returns the authority Merkle leaf for a compressed key:
// keccak256 of its 20 byte Ethereum address.
func AuthorityLeaf(h host.Functions, key [33]byte) (primitives.Hash, error) {
	addr, err := ecdsa.Address(key)
	if err != nil {
		return primitives.Hash{}, err
	}
	return h.Keccak256(addr[:]), nil
}

// AuthoritySetFromKeys commits to the ordered compressed authority keys.
func AuthoritySetFromKeys(h host.Functions, id uint64, keys [][33]byte) (AuthoritySet, error) {
	leaves := make([][32]byte, len(keys))
	for i, k := range keys {
		leaf, err := AuthorityLeaf(h, k)
		if err != nil {
			return AuthoritySet{}, errors.Wrapf(err, "authority %d", i)
		}
		leaves[i] = leaf
	}
	tree, err := merkle.NewTree(h.Keccak256, leaves)
	if err != nil {
		return AuthoritySet{}, err
	}
	return AuthoritySet{ID: id, Len: uint32(len(keys)), Root: tree.Root()}, nil
}

// HasSupermajority reports whether signers is strictly more than two thirds
// of setLen.
func HasSupermajority(signers, setLen uint64) bool {
	return signers*3 > setLen*2
}

// CommitmentDigest is the message authorities sign: keccak256 of the
// encoded commitment.
func CommitmentDigest(h host.Functions, c *Commitment) (primitives.Hash, error) {
	enc, err := c.Encode()
	if err != nil {
		return primitives.Hash{}, primitives.Malformedf("commitment: %v", err)
	}
	return h.Keccak256(enc), nil
}

// VerifySignatures checks that a supermajority of set signed digest and that
// every signer is the authority at the claimed index.
func VerifySignatures(
	h host.Functions,
	set AuthoritySet,
	digest primitives.Hash,
	signatures []SignatureWithAuthorityIndex,
	authorityProof []primitives.Hash,
) error {
	cfg := params.LightClient()
	if uint64(set.Len) > cfg.MaxAuthorities {
		return primitives.LimitExceeded("authorities", uint64(set.Len), cfg.MaxAuthorities)
	}
	if uint64(len(signatures)) > uint64(set.Len) {
		return primitives.Malformedf("%d signatures for %d authorities", len(signatures), set.Len)
	}
	if uint64(len(authorityProof)) > cfg.MaxMerkleProofItems {
		return primitives.LimitExceeded("authority proof items", uint64(len(authorityProof)), cfg.MaxMerkleProofItems)
	}

	signed := bitfield.NewBitlist(uint64(set.Len))
	for _, sig := range signatures {
		if sig.Index >= set.Len {
			return primitives.Malformedf("signature index %d out of range %d", sig.Index, set.Len)
		}
		if signed.BitAt(uint64(sig.Index)) {
			return primitives.Malformedf("duplicate signature for authority %d", sig.Index)
		}
		signed.SetBitAt(uint64(sig.Index), true)
	}
	if !HasSupermajority(signed.Count(), uint64(set.Len)) {
		return errors.Wrapf(ErrInsufficientSignatures, "%d of %d authorities signed", signed.Count(), set.Len)
	}

	indices := make([]uint64, len(signatures))
	leaves := make([][32]byte, len(signatures))
	seen := make(map[primitives.Hash]struct{}, len(signatures))
	for i, sig := range signatures {
		key, err := h.EcdsaRecoverCompressed(sig.Signature, digest)
		if err != nil {
			return errors.Wrapf(ErrInsufficientSignatures, "authority %d: %v", sig.Index, err)
		}
		leaf, err := AuthorityLeaf(h, key)
		if err != nil {
			return errors.Wrapf(ErrInsufficientSignatures, "authority %d: %v", sig.Index, err)
		}
		if _, ok := seen[leaf]; ok {
			return primitives.Malformedf("authority %d signed under more than one index", sig.Index)
		}
		seen[leaf] = struct{}{}
		indices[i] = uint64(sig.Index)
		leaves[i] = leaf
	}

	proof := make([][32]byte, len(authorityProof))
	for i, item := range authorityProof {
		proof[i] = item
	}
	if !merkle.VerifyMultiProof(h.Keccak256, set.Root, indices, leaves, uint64(set.Len), proof) {
		return errors.Wrapf(ErrInvalidAuthorityProof, "set %d", set.ID)
	}
	return nil
}

// VerifyAuthority checks that key is a member of set. Sorted pair hashing
// does not bind the proof to index, so callers must not count members by it.
func VerifyAuthority(h host.Functions, set AuthoritySet, index uint32, key [33]byte, proof []primitives.Hash) error {
	if index >= set.Len {
		return primitives.Malformedf("authority index %d out of range %d", index, set.Len)
	}
	leaf, err := AuthorityLeaf(h, key)
	if err != nil {
		return errors.Wrap(ErrInvalidAuthorityProof, err.Error())
	}
	items := make([][32]byte, len(proof))
	for i, item := range proof {
		items[i] = item
	}
	if !merkle.VerifyMultiProof(h.Keccak256, set.Root, []uint64{uint64(index)}, [][32]byte{leaf}, uint64(set.Len), items) {
		return errors.Wrapf(ErrInvalidAuthorityProof, "authority %d of set %d", index, set.ID)
	}
	return nil
}
