package beefy

import (
	"github.com/ComposableFi/composable-sub011/config/params"
	"github.com/ComposableFi/composable-sub011/container/mmr"
	"github.com/ComposableFi/composable-sub011/light-client/host"
	"github.com/ComposableFi/composable-sub011/light-client/primitives"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// LeafIndex maps a relay block number to its MMR leaf index. Leaves start at
// the activation block, or at block 1 when BEEFY ran from genesis.
func LeafIndex(activation, block uint32) (uint64, error) {
	if activation > 0 {
		if block < activation {
			return 0, primitives.Malformedf("block %d precedes beefy activation %d", block, activation)
		}
		return uint64(block - activation), nil
	}
	if block == 0 {
		return 0, primitives.Malformedf("genesis block has no mmr leaf")
	}
	return uint64(block - 1), nil
}

// Validate checks the structural invariants of a trusted state.
func (s *ClientState) Validate() error {
	if s.NextAuthorities.ID != s.CurrentAuthorities.ID+1 {
		return primitives.Malformedf("next authority set %d does not follow current set %d", s.NextAuthorities.ID, s.CurrentAuthorities.ID)
	}
	if s.CurrentAuthorities.Len == 0 || s.NextAuthorities.Len == 0 {
		return primitives.Malformedf("empty authority set")
	}
	return nil
}

// signingSet selects the authority set that signs commitments for setID.
func (s *ClientState) signingSet(setID uint64) (AuthoritySet, bool, error) {
	switch {
	case setID == s.CurrentAuthorities.ID:
		return s.CurrentAuthorities, false, nil
	case setID == s.NextAuthorities.ID:
		return s.NextAuthorities, true, nil
	case setID < s.CurrentAuthorities.ID:
		return AuthoritySet{}, false, errors.Wrapf(ErrStaleCommitment, "set id %d below current set %d", setID, s.CurrentAuthorities.ID)
	case setID > s.NextAuthorities.ID:
		return AuthoritySet{}, false, errors.Wrapf(ErrFutureAuthoritySet, "set id %d beyond next set %d", setID, s.NextAuthorities.ID)
	default:
		return AuthoritySet{}, false, errors.Wrapf(primitives.ErrAuthoritySetMismatch, "set id %d", setID)
	}
}

// VerifyMmrRootWithProof verifies a signed commitment and the latest MMR
// leaf it commits to, returning the advanced state. On a commitment signed
// by the next authority set the sets are rotated using the leaf's next
// authority set. The input state is not modified.
func VerifyMmrRootWithProof(h host.Functions, state ClientState, update *MmrUpdateProof) (ClientState, error) {
	cfg := params.LightClient()
	commitment := &update.SignedCommitment.Commitment
	if uint64(len(update.MmrProof.Items)) > cfg.MaxMmrProofItems {
		return state, primitives.LimitExceeded("mmr proof items", uint64(len(update.MmrProof.Items)), cfg.MaxMmrProofItems)
	}
	if update.MmrProof.LeafCount > cfg.MaxMmrLeafCount {
		return state, primitives.LimitExceeded("mmr leaves", update.MmrProof.LeafCount, cfg.MaxMmrLeafCount)
	}

	set, rotate, err := state.signingSet(commitment.ValidatorSetID)
	if err != nil {
		return state, err
	}
	if commitment.BlockNumber <= state.LatestBeefyHeight {
		return state, errors.Wrapf(ErrStaleCommitment, "block %d not above latest beefy height %d", commitment.BlockNumber, state.LatestBeefyHeight)
	}

	digest, err := CommitmentDigest(h, commitment)
	if err != nil {
		return state, err
	}
	if err := VerifySignatures(h, set, digest, update.SignedCommitment.Signatures, update.AuthorityProof); err != nil {
		return state, err
	}

	rawRoot, ok := commitment.PayloadValue(MmrRootID)
	if !ok {
		return state, errors.Wrap(ErrInvalidMmrRoot, "mmr root not in payload")
	}
	if len(rawRoot) != 32 {
		return state, errors.Wrapf(ErrInvalidMmrRoot, "mmr root of %d bytes", len(rawRoot))
	}
	var mmrRoot primitives.Hash
	copy(mmrRoot[:], rawRoot)

	leaf := &update.LatestMmrLeaf
	leafIndex, err := LeafIndex(state.BeefyActivationBlock, commitment.BlockNumber)
	if err != nil {
		return state, err
	}
	if update.MmrProof.LeafIndex != leafIndex {
		return state, primitives.Malformedf("mmr leaf index %d, block %d has leaf %d", update.MmrProof.LeafIndex, commitment.BlockNumber, leafIndex)
	}
	if update.MmrProof.LeafCount != leafIndex+1 {
		return state, primitives.Malformedf("mmr leaf count %d, expected %d", update.MmrProof.LeafCount, leafIndex+1)
	}
	if uint64(leaf.ParentNumber)+1 != uint64(commitment.BlockNumber) {
		return state, primitives.Malformedf("mmr leaf parent %d does not precede block %d", leaf.ParentNumber, commitment.BlockNumber)
	}
	if err := leaf.Version.Validate(); err != nil {
		return state, err
	}
	leafHash, err := leaf.Hash(h.Keccak256)
	if err != nil {
		return state, primitives.Malformedf("mmr leaf: %v", err)
	}
	ok, err = mmr.VerifyLeaves(h.Keccak256, mmrRoot, []mmr.Leaf{{Index: leafIndex, Hash: leafHash}}, update.MmrProof.LeafCount, toArrays(update.MmrProof.Items))
	if err != nil {
		return state, errors.Wrap(ErrInvalidLeafProof, err.Error())
	}
	if !ok {
		return state, errors.Wrapf(ErrInvalidLeafProof, "latest leaf %d not under root %s", leafIndex, mmrRoot)
	}

	next := state
	next.LatestBeefyHeight = commitment.BlockNumber
	next.MmrRootHash = mmrRoot
	if rotate {
		next.CurrentAuthorities = state.NextAuthorities
		next.NextAuthorities = leaf.BeefyNextAuthoritySet
		log.WithFields(logrus.Fields{
			"currentSetID": next.CurrentAuthorities.ID,
			"nextSetID":    next.NextAuthorities.ID,
			"block":        commitment.BlockNumber,
		}).Debug("Rotated authority set")
	}
	return next, nil
}

func toArrays(hashes []primitives.Hash) [][32]byte {
	out := make([][32]byte, len(hashes))
	for i, h := range hashes {
		out[i] = h
	}
	return out
}
