package beefy

import (
	"github.com/ComposableFi/composable-sub011/config/params"
	"github.com/ComposableFi/composable-sub011/container/merkle"
	"github.com/ComposableFi/composable-sub011/container/mmr"
	"github.com/ComposableFi/composable-sub011/encoding/scaleutil"
	"github.com/ComposableFi/composable-sub011/light-client/host"
	"github.com/ComposableFi/composable-sub011/light-client/parachain"
	"github.com/ComposableFi/composable-sub011/light-client/primitives"
	"github.com/pkg/errors"
)

// ParaHead is the parachain heads Merkle leaf preimage.
type ParaHead struct {
	ParaID uint32
	Head   []byte
}

// ParaHeadLeaf returns keccak256 of the encoded (para id, head) pair.
func ParaHeadLeaf(h host.Functions, paraID uint32, head []byte) (primitives.Hash, error) {
	enc, err := scaleutil.Marshal(ParaHead{ParaID: paraID, Head: head})
	if err != nil {
		return primitives.Hash{}, err
	}
	return h.Keccak256(enc), nil
}

// VerifyParachainHeaders proves every header into the MMR leaf of its relay
// block and batch-verifies those leaves against the trusted MMR root. It
// returns the consensus states of the proven headers; genesis headers and
// headers without a timestamp yield none.
func VerifyParachainHeaders(h host.Functions, state ClientState, proof *ParachainsUpdateProof) ([]primitives.ConsensusUpdate, error) {
	cfg := params.LightClient()
	if len(proof.ParachainHeaders) == 0 {
		return nil, primitives.Malformedf("no parachain headers")
	}
	if uint64(len(proof.ParachainHeaders)) > cfg.MaxParachainHeaders {
		return nil, primitives.LimitExceeded("parachain headers", uint64(len(proof.ParachainHeaders)), cfg.MaxParachainHeaders)
	}
	if uint64(len(proof.MmrProof.Items)) > cfg.MaxMmrProofItems {
		return nil, primitives.LimitExceeded("mmr proof items", uint64(len(proof.MmrProof.Items)), cfg.MaxMmrProofItems)
	}
	if len(proof.MmrProof.LeafIndices) != len(proof.ParachainHeaders) {
		return nil, primitives.Malformedf("%d leaf indices for %d headers", len(proof.MmrProof.LeafIndices), len(proof.ParachainHeaders))
	}
	latestIndex, err := LeafIndex(state.BeefyActivationBlock, state.LatestBeefyHeight)
	if err != nil {
		return nil, err
	}
	if proof.MmrProof.LeafCount != latestIndex+1 {
		return nil, primitives.Malformedf("mmr leaf count %d, expected %d", proof.MmrProof.LeafCount, latestIndex+1)
	}

	leaves := make([]mmr.Leaf, 0, len(proof.ParachainHeaders))
	byIndex := make(map[uint64]primitives.Hash, len(proof.ParachainHeaders))
	updates := make([]primitives.ConsensusUpdate, 0, len(proof.ParachainHeaders))
	for i := range proof.ParachainHeaders {
		ph := &proof.ParachainHeaders[i]
		if uint64(len(ph.ParachainHeadsProof)) > cfg.MaxMerkleProofItems {
			return nil, primitives.LimitExceeded("heads proof items", uint64(len(ph.ParachainHeadsProof)), cfg.MaxMerkleProofItems)
		}
		header, err := parachain.DecodeHeader(ph.ParachainHeader)
		if err != nil {
			return nil, errors.Wrapf(err, "parachain header %d", i)
		}

		headLeaf, err := ParaHeadLeaf(h, ph.ParaID, ph.ParachainHeader)
		if err != nil {
			return nil, primitives.Malformedf("parachain header %d: %v", i, err)
		}
		headsRoot, err := merkle.CalculateRoot(
			h.Keccak256,
			[]uint64{uint64(ph.HeadsLeafIndex)},
			[][32]byte{headLeaf},
			uint64(ph.HeadsTotalCount),
			toArrays(ph.ParachainHeadsProof),
		)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidLeafProof, "parachain heads proof %d: %v", i, err)
		}
		if err := ph.PartialMmrLeaf.Version.Validate(); err != nil {
			return nil, errors.Wrapf(err, "parachain header %d", i)
		}
		leafHash, err := ph.PartialMmrLeaf.Complete(headsRoot).Hash(h.Keccak256)
		if err != nil {
			return nil, primitives.Malformedf("mmr leaf %d: %v", i, err)
		}
		leafIndex, err := LeafIndex(state.BeefyActivationBlock, ph.PartialMmrLeaf.ParentNumber+1)
		if err != nil {
			return nil, err
		}
		if proof.MmrProof.LeafIndices[i] != leafIndex {
			return nil, primitives.Malformedf("leaf index %d for header %d, expected %d", proof.MmrProof.LeafIndices[i], i, leafIndex)
		}
		if prev, ok := byIndex[leafIndex]; ok {
			if prev != leafHash {
				return nil, errors.Wrapf(ErrInvalidLeafProof, "conflicting leaves at index %d", leafIndex)
			}
		} else {
			byIndex[leafIndex] = leafHash
			leaves = append(leaves, mmr.Leaf{Index: leafIndex, Hash: leafHash})
		}

		height, cs, err := parachain.ConsensusStateFromHeader(h, ph.ParaID, header, ph.TimestampExtrinsic, ph.ExtrinsicProof)
		if err != nil {
			return nil, errors.Wrapf(err, "parachain header %d", i)
		}
		if cs != nil {
			updates = append(updates, primitives.ConsensusUpdate{Height: height, ConsensusState: *cs})
		}
	}

	ok, err := mmr.VerifyLeaves(h.Keccak256, state.MmrRootHash, leaves, proof.MmrProof.LeafCount, toArrays(proof.MmrProof.Items))
	if err != nil {
		return nil, errors.Wrap(ErrInvalidLeafProof, err.Error())
	}
	if !ok {
		return nil, errors.Wrapf(ErrInvalidLeafProof, "parachain leaves not under mmr root %s", state.MmrRootHash)
	}
	return updates, nil
}
