package client

import (
	"github.com/ComposableFi/composable-sub011/light-client/grandpa"
	"github.com/sirupsen/logrus"
)

func (d *ClientDef) verifyGrandpaHeader(cs *GrandpaClientState, header *GrandpaHeader) (*verified, error) {
	update, err := grandpa.VerifyParachainHeadersWithFinalityProof(d.host, cs.algorithmState(), &header.ParachainHeadersWithFinalityProof)
	if err != nil {
		return nil, err
	}
	next := cs.copy()
	next.LatestRelayHeight = update.State.LatestRelayHeight
	next.LatestRelayHash = update.State.LatestRelayHash
	next.CurrentSetID = update.State.CurrentSetID
	next.CurrentAuthorities = update.State.CurrentAuthorities
	log.WithFields(logrus.Fields{
		"relayHeight": next.LatestRelayHeight,
		"setID":       next.CurrentSetID,
		"finalized":   len(update.Finalized),
		"updates":     len(update.ConsensusUpdates),
	}).Debug("Verified grandpa header")
	return &verified{state: next, updates: update.ConsensusUpdates}, nil
}

func (d *ClientDef) checkGrandpaMisbehaviour(cs *GrandpaClientState, eqs []grandpa.Equivocation) error {
	if err := grandpa.CheckEquivocations(d.host, cs.CurrentAuthorities, cs.CurrentSetID, eqs); err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"paraID":        cs.ParaID,
		"setID":         cs.CurrentSetID,
		"equivocations": len(eqs),
	}).Debug("Verified grandpa misbehaviour")
	return nil
}
