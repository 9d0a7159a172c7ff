package client

import (
	"github.com/ComposableFi/composable-sub011/config/params"
	"github.com/ComposableFi/composable-sub011/light-client/host"
	"github.com/ComposableFi/composable-sub011/light-client/primitives"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ConsensusReader looks up stored consensus states. It returns nil, nil for
// heights that have none.
type ConsensusReader interface {
	ConsensusState(height primitives.Height) (*primitives.ConsensusState, error)
}

// ConsensusReaderFunc adapts a function to ConsensusReader.
type ConsensusReaderFunc func(height primitives.Height) (*primitives.ConsensusState, error)

// ConsensusState --
func (f ConsensusReaderFunc) ConsensusState(height primitives.Height) (*primitives.ConsensusState, error) {
	return f(height)
}

// ClientDef implements the client entry points over a set of host functions.
// It holds no mutable state and is safe for concurrent use.
type ClientDef struct {
	host host.Functions
	cfg  *params.LightClientConfig
}

// NewClientDef returns a ClientDef. A nil cfg selects the active config.
func NewClientDef(h host.Functions, cfg *params.LightClientConfig) *ClientDef {
	if cfg == nil {
		cfg = params.LightClient()
	}
	return &ClientDef{host: h, cfg: cfg}
}

// verified is the outcome of verifying a header against a client state.
type verified struct {
	state   ClientState
	updates []primitives.ConsensusUpdate
}

// VerifyClientMessage verifies a header or misbehaviour against cs without
// changing any state.
func (d *ClientDef) VerifyClientMessage(cs ClientState, msg ClientMessage) error {
	if cs.IsFrozen() {
		return errors.Wrapf(ErrClientFrozen, "frozen at %s", cs.FrozenHeight())
	}
	if m, ok := msg.(*Misbehaviour); ok {
		return d.verifyMisbehaviour(cs, m)
	}
	_, err := d.verifyHeader(cs, msg)
	return err
}

func (d *ClientDef) verifyHeader(cs ClientState, msg ClientMessage) (*verified, error) {
	switch s := cs.(type) {
	case *BeefyClientState:
		header, ok := msg.(*BeefyHeader)
		if !ok {
			return nil, errors.Wrapf(ErrMessageMismatch, "%T for %s client", msg, s.ClientType())
		}
		return d.verifyBeefyHeader(s, header)
	case *GrandpaClientState:
		header, ok := msg.(*GrandpaHeader)
		if !ok {
			return nil, errors.Wrapf(ErrMessageMismatch, "%T for %s client", msg, s.ClientType())
		}
		return d.verifyGrandpaHeader(s, header)
	default:
		return nil, errors.Wrapf(ErrMessageMismatch, "unknown client state %T", cs)
	}
}

func (d *ClientDef) verifyMisbehaviour(cs ClientState, m *Misbehaviour) error {
	switch s := cs.(type) {
	case *BeefyClientState:
		if len(m.GrandpaEquivocations) > 0 {
			return errors.Wrap(ErrMessageMismatch, "grandpa equivocations for beefy client")
		}
		return d.checkBeefyMisbehaviour(s, m.BeefyEquivocations)
	case *GrandpaClientState:
		if len(m.BeefyEquivocations) > 0 {
			return errors.Wrap(ErrMessageMismatch, "beefy equivocations for grandpa client")
		}
		return d.checkGrandpaMisbehaviour(s, m.GrandpaEquivocations)
	default:
		return errors.Wrapf(ErrMessageMismatch, "unknown client state %T", cs)
	}
}

// CheckForMisbehaviour reports whether msg shows the client's authorities
// misbehaving. Misbehaviour messages always do once verified. A header does
// when it proves two different consensus states for one height, either
// within the batch or against a state already stored.
func (d *ClientDef) CheckForMisbehaviour(reader ConsensusReader, cs ClientState, msg ClientMessage) (bool, error) {
	if cs.IsFrozen() {
		return false, errors.Wrapf(ErrClientFrozen, "frozen at %s", cs.FrozenHeight())
	}
	if m, ok := msg.(*Misbehaviour); ok {
		if err := d.verifyMisbehaviour(cs, m); err != nil {
			return false, err
		}
		return true, nil
	}
	v, err := d.verifyHeader(cs, msg)
	if err != nil {
		return false, err
	}
	seen := make(map[primitives.Height]primitives.ConsensusState, len(v.updates))
	for _, u := range v.updates {
		if prev, ok := seen[u.Height]; ok && prev != u.ConsensusState {
			log.WithField("height", u.Height).Debug("Conflicting consensus states within header")
			return true, nil
		}
		seen[u.Height] = u.ConsensusState
		stored, err := reader.ConsensusState(u.Height)
		if err != nil {
			return false, errors.Wrapf(err, "could not read consensus state at %s", u.Height)
		}
		if stored != nil && *stored != u.ConsensusState {
			log.WithField("height", u.Height).Debug("Header conflicts with stored consensus state")
			return true, nil
		}
	}
	return false, nil
}

// UpdateState verifies a header and returns the advanced client state with
// the consensus states to persist. Heights already stored are skipped; a
// conflicting duplicate within the header fails with
// ErrConflictingConsensusState. cs is not modified.
func (d *ClientDef) UpdateState(reader ConsensusReader, cs ClientState, msg ClientMessage) (ClientState, []primitives.ConsensusUpdate, error) {
	if cs.IsFrozen() {
		return nil, nil, errors.Wrapf(ErrClientFrozen, "frozen at %s", cs.FrozenHeight())
	}
	if _, ok := msg.(*Misbehaviour); ok {
		return nil, nil, errors.Wrap(ErrMessageMismatch, "misbehaviour cannot update state")
	}
	v, err := d.verifyHeader(cs, msg)
	if err != nil {
		return nil, nil, err
	}

	latest := cs.LatestHeight().RevisionHeight
	seen := make(map[primitives.Height]primitives.ConsensusState, len(v.updates))
	updates := make([]primitives.ConsensusUpdate, 0, len(v.updates))
	for _, u := range v.updates {
		if prev, ok := seen[u.Height]; ok {
			if prev != u.ConsensusState {
				return nil, nil, errors.Wrapf(ErrConflictingConsensusState, "height %s", u.Height)
			}
			continue
		}
		seen[u.Height] = u.ConsensusState
		stored, err := reader.ConsensusState(u.Height)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "could not read consensus state at %s", u.Height)
		}
		if stored != nil {
			if *stored != u.ConsensusState {
				return nil, nil, errors.Wrapf(ErrConflictingConsensusState, "height %s", u.Height)
			}
			continue
		}
		updates = append(updates, u)
		if u.Height.RevisionHeight > latest {
			latest = u.Height.RevisionHeight
		}
	}

	next := v.state.withLatestParaHeight(uint32(latest))
	log.WithFields(logrus.Fields{
		"clientType":   cs.ClientType(),
		"latestHeight": next.LatestHeight(),
		"stored":       len(updates),
		"skipped":      len(v.updates) - len(updates),
	}).Debug("Derived client state update")
	return next, updates, nil
}

// UpdateStateOnMisbehaviour freezes the client at its latest height.
func (d *ClientDef) UpdateStateOnMisbehaviour(cs ClientState, msg ClientMessage) (ClientState, error) {
	switch msg.(type) {
	case *Misbehaviour, *BeefyHeader, *GrandpaHeader:
	default:
		return nil, errors.Wrapf(ErrMessageMismatch, "unknown client message %T", msg)
	}
	if cs.IsFrozen() {
		return cs, nil
	}
	return cs.withFrozen(cs.LatestHeight()), nil
}

// Status reports whether the client is active or frozen.
func (d *ClientDef) Status(cs ClientState) Status {
	if cs.IsFrozen() {
		return Frozen
	}
	return Active
}
