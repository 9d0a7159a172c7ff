package client

import (
	"github.com/ComposableFi/composable-sub011/encoding/bytesutil"
	"github.com/ComposableFi/composable-sub011/encoding/scaleutil"
	"github.com/ComposableFi/composable-sub011/light-client/grandpa"
	"github.com/ComposableFi/composable-sub011/light-client/primitives"
	"github.com/pkg/errors"
)

// Client state variants.
const (
	beefyClientStateVariant   byte = 0
	grandpaClientStateVariant byte = 1
)

// Client message variants.
const (
	beefyHeaderVariant   byte = 0
	grandpaHeaderVariant byte = 1
	misbehaviourVariant  byte = 2
)

// ConsensusStateLen is the size of an encoded consensus state.
const ConsensusStateLen = 8 + 32

// EncodeClientState returns the variant byte followed by the SCALE encoding
// of the state.
func EncodeClientState(cs ClientState) ([]byte, error) {
	w := &scaleutil.Writer{}
	switch s := cs.(type) {
	case *BeefyClientState:
		if err := w.WriteByte(beefyClientStateVariant); err != nil {
			return nil, err
		}
		w.Encode(*s)
	case *GrandpaClientState:
		if err := w.WriteByte(grandpaClientStateVariant); err != nil {
			return nil, err
		}
		w.Encode(*s)
	default:
		return nil, errors.Errorf("unknown client state %T", cs)
	}
	return w.Bytes()
}

// DecodeClientState decodes the output of EncodeClientState.
func DecodeClientState(data []byte) (ClientState, error) {
	if len(data) == 0 {
		return nil, primitives.Malformedf("empty client state")
	}
	switch data[0] {
	case beefyClientStateVariant:
		cs := &BeefyClientState{}
		if err := scaleutil.Unmarshal(data[1:], cs); err != nil {
			return nil, primitives.Malformedf("beefy client state: %v", err)
		}
		return cs, nil
	case grandpaClientStateVariant:
		cs := &GrandpaClientState{}
		if err := scaleutil.Unmarshal(data[1:], cs); err != nil {
			return nil, primitives.Malformedf("grandpa client state: %v", err)
		}
		return cs, nil
	default:
		return nil, primitives.Malformedf("unknown client state variant %d", data[0])
	}
}

// EncodeClientMessage returns the variant byte followed by the SCALE
// encoding of the message.
func EncodeClientMessage(msg ClientMessage) ([]byte, error) {
	w := &scaleutil.Writer{}
	switch m := msg.(type) {
	case *BeefyHeader:
		if err := w.WriteByte(beefyHeaderVariant); err != nil {
			return nil, err
		}
		w.Encode(*m)
	case *GrandpaHeader:
		if err := w.WriteByte(grandpaHeaderVariant); err != nil {
			return nil, err
		}
		m.EncodeTo(w)
	case *Misbehaviour:
		if err := w.WriteByte(misbehaviourVariant); err != nil {
			return nil, err
		}
		w.Encode(*m)
	default:
		return nil, errors.Errorf("unknown client message %T", msg)
	}
	return w.Bytes()
}

// DecodeClientMessage decodes the output of EncodeClientMessage.
func DecodeClientMessage(data []byte) (ClientMessage, error) {
	if len(data) == 0 {
		return nil, primitives.Malformedf("empty client message")
	}
	switch data[0] {
	case beefyHeaderVariant:
		m := &BeefyHeader{}
		if err := scaleutil.Unmarshal(data[1:], m); err != nil {
			return nil, primitives.Malformedf("beefy header: %v", err)
		}
		return m, nil
	case grandpaHeaderVariant:
		r := scaleutil.NewReader(data[1:])
		proof, err := grandpa.ReadParachainHeadersWithFinalityProof(r)
		if err != nil {
			return nil, errors.Wrap(err, "grandpa header")
		}
		if err := r.Done(); err != nil {
			return nil, primitives.Malformedf("grandpa header: %v", err)
		}
		return &GrandpaHeader{ParachainHeadersWithFinalityProof: *proof}, nil
	case misbehaviourVariant:
		m := &Misbehaviour{}
		if err := scaleutil.Unmarshal(data[1:], m); err != nil {
			return nil, primitives.Malformedf("misbehaviour: %v", err)
		}
		return m, nil
	default:
		return nil, primitives.Malformedf("unknown client message variant %d", data[0])
	}
}

// EncodeConsensusState returns the little endian timestamp followed by the root.
func EncodeConsensusState(cs *primitives.ConsensusState) []byte {
	out := make([]byte, 0, ConsensusStateLen)
	out = append(out, bytesutil.Bytes8(cs.Timestamp)...)
	return append(out, cs.Root[:]...)
}

// DecodeConsensusState decodes the output of EncodeConsensusState.
func DecodeConsensusState(data []byte) (*primitives.ConsensusState, error) {
	if len(data) != ConsensusStateLen {
		return nil, primitives.Malformedf("consensus state of %d bytes, want %d", len(data), ConsensusStateLen)
	}
	return &primitives.ConsensusState{
		Timestamp: bytesutil.FromBytes8(data[:8]),
		Root:      bytesutil.ToBytes32(data[8:]),
	}, nil
}
