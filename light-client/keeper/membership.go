package keeper

import (
	"context"

	"github.com/ComposableFi/composable-sub011/light-client/primitives"
	"go.opencensus.io/trace"
)

// VerifyMembership checks that prefix||path maps to value in the parachain
// state of clientID at height.
func (k *Keeper) VerifyMembership(ctx context.Context, clientID string, height primitives.Height, prefix, proof, path, value []byte) error {
	ctx, span := trace.StartSpan(ctx, "Keeper.VerifyMembership")
	defer span.End()
	cs, err := k.ClientState(ctx, clientID)
	if err != nil {
		return err
	}
	if err := cs.VerifyHeight(height); err != nil {
		return err
	}
	cons, err := k.ConsensusState(ctx, clientID, height)
	if err != nil {
		return err
	}
	return k.def.VerifyMembership(cs, height, cons, prefix, proof, path, value)
}

// VerifyNonMembership checks that prefix||path is absent from the parachain
// state of clientID at height.
func (k *Keeper) VerifyNonMembership(ctx context.Context, clientID string, height primitives.Height, prefix, proof, path []byte) error {
	ctx, span := trace.StartSpan(ctx, "Keeper.VerifyNonMembership")
	defer span.End()
	cs, err := k.ClientState(ctx, clientID)
	if err != nil {
		return err
	}
	if err := cs.VerifyHeight(height); err != nil {
		return err
	}
	cons, err := k.ConsensusState(ctx, clientID, height)
	if err != nil {
		return err
	}
	return k.def.VerifyNonMembership(cs, height, cons, prefix, proof, path)
}
