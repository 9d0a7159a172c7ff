package client

import (
	"github.com/ComposableFi/composable-sub011/light-client/beefy"
	"github.com/ComposableFi/composable-sub011/light-client/primitives"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// verifyBeefyHeader applies the optional MMR root update and then proves the
// parachain headers against the resulting root.
func (d *ClientDef) verifyBeefyHeader(cs *BeefyClientState, header *BeefyHeader) (*verified, error) {
	if header.MmrUpdateProof == nil && header.HeadersWithProof == nil {
		return nil, primitives.Malformedf("beefy header carries neither an mmr update nor parachain headers")
	}
	next := cs.copy()
	state := cs.algorithmState()
	if header.MmrUpdateProof != nil {
		updated, err := beefy.VerifyMmrRootWithProof(d.host, state, header.MmrUpdateProof)
		if err != nil {
			return nil, err
		}
		state = updated
		next.LatestBeefyHeight = state.LatestBeefyHeight
		next.MmrRootHash = state.MmrRootHash
		next.CurrentAuthorities = state.CurrentAuthorities
		next.NextAuthorities = state.NextAuthorities
	}

	var updates []primitives.ConsensusUpdate
	if hp := header.HeadersWithProof; hp != nil {
		proof, err := d.parachainsUpdateProof(cs.ParaID, state, hp)
		if err != nil {
			return nil, err
		}
		updates, err = beefy.VerifyParachainHeaders(d.host, state, proof)
		if err != nil {
			return nil, err
		}
	}
	log.WithFields(logrus.Fields{
		"beefyHeight": next.LatestBeefyHeight,
		"setID":       next.CurrentAuthorities.ID,
		"updates":     len(updates),
	}).Debug("Verified beefy header")
	return &verified{state: next, updates: updates}, nil
}

// parachainsUpdateProof assembles the batch proof for hp. Every header is
// taken to belong to paraID, and the leaf positions follow from the headers'
// parent numbers and the latest BEEFY height.
func (d *ClientDef) parachainsUpdateProof(paraID uint32, state beefy.ClientState, hp *ParachainHeadersWithProof) (*beefy.ParachainsUpdateProof, error) {
	if uint64(len(hp.Headers)) > d.cfg.MaxParachainHeaders {
		return nil, primitives.LimitExceeded("parachain headers", uint64(len(hp.Headers)), d.cfg.MaxParachainHeaders)
	}
	latest, err := beefy.LeafIndex(state.BeefyActivationBlock, state.LatestBeefyHeight)
	if err != nil {
		return nil, err
	}
	headers := make([]beefy.ParachainHeader, len(hp.Headers))
	indices := make([]uint64, len(hp.Headers))
	for i := range hp.Headers {
		headers[i] = hp.Headers[i]
		headers[i].ParaID = paraID
		index, err := beefy.LeafIndex(state.BeefyActivationBlock, headers[i].PartialMmrLeaf.ParentNumber+1)
		if err != nil {
			return nil, errors.Wrapf(err, "parachain header %d", i)
		}
		indices[i] = index
	}
	return &beefy.ParachainsUpdateProof{
		ParachainHeaders: headers,
		MmrProof: beefy.MmrBatchProof{
			LeafIndices: indices,
			LeafCount:   latest + 1,
			Items:       hp.MmrProofs,
		},
	}, nil
}

func (d *ClientDef) checkBeefyMisbehaviour(cs *BeefyClientState, eqs []beefy.VoteEquivocation) error {
	if err := beefy.CheckVoteEquivocations(d.host, cs.algorithmState(), eqs); err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"paraID":        cs.ParaID,
		"equivocations": len(eqs),
	}).Debug("Verified beefy misbehaviour")
	return nil
}
