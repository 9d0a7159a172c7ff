package keeper

import (
	"context"
	"math"
	"time"

	"github.com/ComposableFi/composable-sub011/light-client/client"
	"github.com/ComposableFi/composable-sub011/light-client/primitives"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opencensus.io/trace"
)

// Outcome of an accepted client message.
type Outcome int

const (
	// OutcomeUpdated means the client advanced and new consensus states were stored.
	OutcomeUpdated Outcome = iota
	// OutcomeMisbehaviour means misbehaviour was proven and the client is now frozen.
	OutcomeMisbehaviour
)

// String --
func (o Outcome) String() string {
	switch o {
	case OutcomeUpdated:
		return "updated"
	case OutcomeMisbehaviour:
		return "misbehaviour"
	default:
		return "unknown"
	}
}

// UpdateResult describes what an accepted client message did.
type UpdateResult struct {
	Outcome          Outcome
	ClientState      client.ClientState
	ConsensusUpdates []primitives.ConsensusUpdate
}

// Update verifies msg against the stored state of clientID. Proven
// misbehaviour freezes the client; a valid header advances it and stores
// the consensus states it proves. Nothing is persisted when msg is rejected.
func (k *Keeper) Update(ctx context.Context, clientID string, msg client.ClientMessage) (*UpdateResult, error) {
	ctx, span := trace.StartSpan(ctx, "Keeper.Update")
	defer span.End()

	k.lock.Lock()
	defer k.lock.Unlock()
	cs, err := k.clientState(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if cs == nil {
		return nil, errors.Wrapf(ErrClientNotFound, "%s", clientID)
	}
	clientType := string(cs.ClientType())
	reader := k.reader(ctx, clientID)

	misbehaving, err := k.def.CheckForMisbehaviour(reader, cs, msg)
	if err != nil {
		return nil, k.reject(clientID, clientType, err)
	}
	if misbehaving {
		frozen, err := k.def.UpdateStateOnMisbehaviour(cs, msg)
		if err != nil {
			return nil, k.reject(clientID, clientType, err)
		}
		if err := k.db.SaveClientState(ctx, clientID, frozen); err != nil {
			return nil, errors.Wrap(err, "could not save frozen client")
		}
		k.cache.Add(clientID, frozen)
		misbehaviourDetected.WithLabelValues(clientType).Inc()
		frozenClients.Inc()
		log.WithFields(logrus.Fields{
			"clientID":     clientID,
			"clientType":   clientType,
			"frozenHeight": frozen.FrozenHeight(),
		}).Warn("Misbehaviour detected, client frozen")
		return &UpdateResult{Outcome: OutcomeMisbehaviour, ClientState: frozen}, nil
	}

	next, updates, err := k.def.UpdateState(reader, cs, msg)
	if err != nil {
		return nil, k.reject(clientID, clientType, err)
	}
	k.checkClockDrift(clientID, updates)
	if err := k.db.SaveUpdate(ctx, clientID, next, updates); err != nil {
		return nil, errors.Wrap(err, "could not save client update")
	}
	k.cache.Add(clientID, next)
	updatesAccepted.WithLabelValues(clientType).Inc()
	consensusStatesStored.Add(float64(len(updates)))
	latestParaHeight.WithLabelValues(clientID).Set(float64(next.LatestHeight().RevisionHeight))
	log.WithFields(logrus.Fields{
		"clientID":        clientID,
		"latestHeight":    next.LatestHeight(),
		"consensusStates": len(updates),
	}).Info("Updated client")
	return &UpdateResult{Outcome: OutcomeUpdated, ClientState: next, ConsensusUpdates: updates}, nil
}

func (k *Keeper) reject(clientID, clientType string, err error) error {
	updatesRejected.WithLabelValues(clientType, primitives.KindName(err)).Inc()
	log.WithError(err).WithField("clientID", clientID).Debug("Rejected client message")
	return err
}

// checkClockDrift warns about consensus states from the future. Their
// timestamps are proven by the chain, so they are stored regardless.
func (k *Keeper) checkClockDrift(clientID string, updates []primitives.ConsensusUpdate) {
	limit := k.clock().Add(k.cfg.MaxClockDrift)
	for _, u := range updates {
		nanos := u.ConsensusState.Timestamp
		if nanos > math.MaxInt64 {
			nanos = math.MaxInt64
		}
		ts := time.Unix(0, int64(nanos))
		if ts.After(limit) {
			log.WithFields(logrus.Fields{
				"clientID":  clientID,
				"height":    u.Height,
				"timestamp": ts,
			}).Warn("Consensus state timestamp is ahead of local clock")
		}
	}
}

// Upgrade replaces the state of clientID with an upgrade the chain committed
// to at the client's latest height.
func (k *Keeper) Upgrade(
	ctx context.Context,
	clientID string,
	upgradedClient client.ClientState,
	upgradedCons *primitives.ConsensusState,
	proofUpgradeClient, proofUpgradeCons []byte,
) (client.ClientState, error) {
	ctx, span := trace.StartSpan(ctx, "Keeper.Upgrade")
	defer span.End()

	k.lock.Lock()
	defer k.lock.Unlock()
	cs, err := k.clientState(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if cs == nil {
		return nil, errors.Wrapf(ErrClientNotFound, "%s", clientID)
	}
	cons, err := k.db.ConsensusState(ctx, clientID, cs.LatestHeight())
	if err != nil {
		return nil, err
	}
	if cons == nil {
		return nil, errors.Wrapf(ErrConsensusStateNotFound, "%s at %s", clientID, cs.LatestHeight())
	}
	next, nextCons, err := k.def.VerifyUpgradeAndUpdateState(cs, cons, upgradedClient, upgradedCons, proofUpgradeClient, proofUpgradeCons)
	if err != nil {
		return nil, err
	}
	updates := []primitives.ConsensusUpdate{{Height: next.LatestHeight(), ConsensusState: *nextCons}}
	if err := k.db.SaveUpdate(ctx, clientID, next, updates); err != nil {
		return nil, errors.Wrap(err, "could not save upgraded client")
	}
	k.cache.Add(clientID, next)
	latestParaHeight.WithLabelValues(clientID).Set(float64(next.LatestHeight().RevisionHeight))
	log.WithFields(logrus.Fields{
		"clientID":     clientID,
		"latestHeight": next.LatestHeight(),
	}).Info("Upgraded client")
	return next, nil
}
