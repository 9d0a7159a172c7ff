package grandpa

import (
	"github.com/ComposableFi/composable-sub011/config/params"
	"github.com/ComposableFi/composable-sub011/light-client/host"
	"github.com/ComposableFi/composable-sub011/light-client/parachain"
	"github.com/ComposableFi/composable-sub011/light-client/primitives"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Validate checks the structural invariants of a trusted state.
func (s *ClientState) Validate() error {
	if len(s.CurrentAuthorities) == 0 {
		return primitives.Malformedf("empty authority set")
	}
	if limit := params.LightClient().MaxAuthorities; uint64(len(s.CurrentAuthorities)) > limit {
		return primitives.LimitExceeded("authorities", uint64(len(s.CurrentAuthorities)), limit)
	}
	seen := make(map[[32]byte]bool, len(s.CurrentAuthorities))
	for _, a := range s.CurrentAuthorities {
		if seen[a.ID] {
			return primitives.Malformedf("duplicate authority %#x", a.ID[:4])
		}
		seen[a.ID] = true
	}
	return nil
}

// VerifyParachainHeadersWithFinalityProof verifies that the finality proof
// finalizes a descendant of the latest relay block, extracts the consensus
// states of the parachain heads stored in the newly finalized relay blocks
// and returns the advanced state. Heads anchored at relay blocks outside the
// finalized route are skipped. The input state is not modified.
func VerifyParachainHeadersWithFinalityProof(h host.Functions, state ClientState, proof *ParachainHeadersWithFinalityProof) (*VerifiedUpdate, error) {
	cfg := params.LightClient()
	fp := &proof.FinalityProof
	if uint64(len(fp.UnknownHeaders)) > cfg.MaxUnknownHeaders {
		return nil, primitives.LimitExceeded("unknown headers", uint64(len(fp.UnknownHeaders)), cfg.MaxUnknownHeaders)
	}
	if uint64(len(proof.ParachainHeaders)) > cfg.MaxParachainHeaders {
		return nil, primitives.LimitExceeded("parachain headers", uint64(len(proof.ParachainHeaders)), cfg.MaxParachainHeaders)
	}

	justification, err := DecodeJustification(fp.Justification)
	if err != nil {
		return nil, err
	}
	targetNumber, targetHash := justification.Target()
	if targetHash != fp.Block {
		return nil, primitives.Malformedf("justification target %s does not match finality proof block %s", targetHash, fp.Block)
	}
	ancestry, err := NewAncestryChain(h, fp.UnknownHeaders)
	if err != nil {
		return nil, err
	}
	target, ok := ancestry.Header(fp.Block)
	if !ok {
		return nil, primitives.Malformedf("target %s not in unknown headers", fp.Block)
	}
	if target.Number != targetNumber {
		return nil, primitives.Malformedf("target number %d, justification claims %d", target.Number, targetNumber)
	}
	if target.Number <= state.LatestRelayHeight {
		return nil, errors.Wrapf(ErrStaleJustification, "target %d not above latest relay height %d", target.Number, state.LatestRelayHeight)
	}
	finalized, err := ancestry.Route(state.LatestRelayHash, fp.Block)
	if err != nil {
		return nil, err
	}
	if err := justification.Verify(h, state.CurrentSetID, state.CurrentAuthorities); err != nil {
		return nil, err
	}

	onRoute := make(map[primitives.Hash]bool, len(finalized))
	for _, hash := range finalized {
		onRoute[hash] = true
	}
	updates := make([]primitives.ConsensusUpdate, 0, len(proof.ParachainHeaders))
	for _, relayHash := range SortedRelayHashes(proof.ParachainHeaders) {
		relay, ok := ancestry.Header(relayHash)
		if !ok {
			return nil, primitives.Malformedf("no relay header for %s", relayHash)
		}
		if !onRoute[relayHash] {
			log.WithField("relayHash", relayHash).Debug("Skipping parachain header outside finalized route")
			continue
		}
		height, cs, err := parachain.ConsensusStateFromRelayProof(h, state.ParaID, relay.StateRoot, proof.ParachainHeaders[relayHash])
		if err != nil {
			return nil, errors.Wrapf(err, "relay block %d", relay.Number)
		}
		if cs != nil {
			updates = append(updates, primitives.ConsensusUpdate{Height: height, ConsensusState: *cs})
		}
	}

	next := state
	next.LatestRelayHash = fp.Block
	next.LatestRelayHeight = target.Number
	change, err := FindScheduledChange(target)
	if err != nil {
		return nil, err
	}
	if change != nil {
		if len(change.NextAuthorities) == 0 {
			return nil, primitives.Malformedf("scheduled change to an empty authority set")
		}
		next.CurrentSetID = state.CurrentSetID + 1
		next.CurrentAuthorities = append(AuthorityList(nil), change.NextAuthorities...)
		log.WithFields(logrus.Fields{
			"setID":       next.CurrentSetID,
			"authorities": len(next.CurrentAuthorities),
			"block":       target.Number,
		}).Debug("Enacted scheduled authority set change")
	}
	return &VerifiedUpdate{State: next, ConsensusUpdates: updates, Finalized: finalized}, nil
}
