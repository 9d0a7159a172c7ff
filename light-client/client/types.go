// Package client is the light client state machine. It wraps the BEEFY and
// GRANDPA verifiers behind tagged client states and client messages and
// returns state deltas for the host to persist.
package client

import (
	"github.com/ComposableFi/composable-sub011/light-client/beefy"
	"github.com/ComposableFi/composable-sub011/light-client/grandpa"
	"github.com/ComposableFi/composable-sub011/light-client/primitives"
	"github.com/pkg/errors"
)

// ClientType identifies the consensus a client follows.
type ClientType string

// Supported client types.
const (
	BeefyClientType   ClientType = "11-beefy"
	GrandpaClientType ClientType = "10-grandpa"
)

// Status of a client.
type Status string

// Client statuses.
const (
	Active Status = "Active"
	Frozen Status = "Frozen"
)

// ClientState is the trusted state of one client. It is implemented by
// *BeefyClientState and *GrandpaClientState only.
type ClientState interface {
	ClientType() ClientType
	// LatestHeight is (para id, latest para height).
	LatestHeight() primitives.Height
	// FrozenHeight returns the height the client was frozen at, or nil.
	FrozenHeight() *primitives.Height
	IsFrozen() bool
	// VerifyHeight rejects proofs at heights the client cannot serve.
	VerifyHeight(height primitives.Height) error
	Validate() error

	withFrozen(height primitives.Height) ClientState
	withLatestParaHeight(height uint32) ClientState
}

// BeefyClientState tracks a parachain through BEEFY commitments.
type BeefyClientState struct {
	ParaID               uint32
	LatestParaHeight     uint32
	LatestBeefyHeight    uint32
	MmrRootHash          primitives.Hash
	CurrentAuthorities   beefy.AuthoritySet
	NextAuthorities      beefy.AuthoritySet
	BeefyActivationBlock uint32
	Frozen               *primitives.Height
}

// GrandpaClientState tracks a parachain through GRANDPA justifications.
type GrandpaClientState struct {
	ParaID             uint32
	LatestParaHeight   uint32
	LatestRelayHeight  uint32
	LatestRelayHash    primitives.Hash
	CurrentSetID       uint64
	CurrentAuthorities grandpa.AuthorityList
	Frozen             *primitives.Height
}

var (
	_ ClientState = (*BeefyClientState)(nil)
	_ ClientState = (*GrandpaClientState)(nil)
)

// ClientType --
func (*BeefyClientState) ClientType() ClientType { return BeefyClientType }

// LatestHeight --
func (s *BeefyClientState) LatestHeight() primitives.Height {
	return primitives.NewHeight(uint64(s.ParaID), uint64(s.LatestParaHeight))
}

// FrozenHeight --
func (s *BeefyClientState) FrozenHeight() *primitives.Height { return s.Frozen }

// IsFrozen --
func (s *BeefyClientState) IsFrozen() bool { return s.Frozen != nil }

// VerifyHeight --
func (s *BeefyClientState) VerifyHeight(height primitives.Height) error {
	return verifyHeight(s, height)
}

// Validate checks the authority set invariants of the state.
func (s *BeefyClientState) Validate() error {
	state := s.algorithmState()
	return state.Validate()
}

func (s *BeefyClientState) algorithmState() beefy.ClientState {
	return beefy.ClientState{
		LatestBeefyHeight:    s.LatestBeefyHeight,
		MmrRootHash:          s.MmrRootHash,
		CurrentAuthorities:   s.CurrentAuthorities,
		NextAuthorities:      s.NextAuthorities,
		BeefyActivationBlock: s.BeefyActivationBlock,
	}
}

func (s *BeefyClientState) copy() *BeefyClientState {
	out := *s
	if s.Frozen != nil {
		h := *s.Frozen
		out.Frozen = &h
	}
	return &out
}

func (s *BeefyClientState) withFrozen(height primitives.Height) ClientState {
	out := s.copy()
	out.Frozen = &height
	return out
}

func (s *BeefyClientState) withLatestParaHeight(height uint32) ClientState {
	out := s.copy()
	out.LatestParaHeight = height
	return out
}

// ClientType --
func (*GrandpaClientState) ClientType() ClientType { return GrandpaClientType }

// LatestHeight --
func (s *GrandpaClientState) LatestHeight() primitives.Height {
	return primitives.NewHeight(uint64(s.ParaID), uint64(s.LatestParaHeight))
}

// FrozenHeight --
func (s *GrandpaClientState) FrozenHeight() *primitives.Height { return s.Frozen }

// IsFrozen --
func (s *GrandpaClientState) IsFrozen() bool { return s.Frozen != nil }

// VerifyHeight --
func (s *GrandpaClientState) VerifyHeight(height primitives.Height) error {
	return verifyHeight(s, height)
}

// Validate checks the authority set invariants of the state.
func (s *GrandpaClientState) Validate() error {
	state := s.algorithmState()
	return state.Validate()
}

func (s *GrandpaClientState) algorithmState() grandpa.ClientState {
	return grandpa.ClientState{
		CurrentAuthorities: s.CurrentAuthorities,
		CurrentSetID:       s.CurrentSetID,
		LatestRelayHeight:  s.LatestRelayHeight,
		LatestRelayHash:    s.LatestRelayHash,
		ParaID:             s.ParaID,
	}
}

func (s *GrandpaClientState) copy() *GrandpaClientState {
	out := *s
	out.CurrentAuthorities = append(grandpa.AuthorityList(nil), s.CurrentAuthorities...)
	if s.Frozen != nil {
		h := *s.Frozen
		out.Frozen = &h
	}
	return &out
}

func (s *GrandpaClientState) withFrozen(height primitives.Height) ClientState {
	out := s.copy()
	out.Frozen = &height
	return out
}

func (s *GrandpaClientState) withLatestParaHeight(height uint32) ClientState {
	out := s.copy()
	out.LatestParaHeight = height
	return out
}

func verifyHeight(cs ClientState, height primitives.Height) error {
	if frozen := cs.FrozenHeight(); frozen != nil {
		return errors.Wrapf(ErrClientFrozen, "frozen at %s", frozen)
	}
	if latest := cs.LatestHeight(); latest.LT(height) {
		return errors.Wrapf(ErrInsufficientHeight, "latest height %s, requested %s", latest, height)
	}
	return nil
}

// ClientMessage is an update for a client: *BeefyHeader, *GrandpaHeader or
// *Misbehaviour.
type ClientMessage interface {
	isClientMessage()
}

// ParachainHeadersWithProof are parachain headers proven against the MMR
// root. The leaf indices and leaf count of the batch proof follow from the
// headers and the client state.
type ParachainHeadersWithProof struct {
	Headers   []beefy.ParachainHeader
	MmrProofs []primitives.Hash
}

// BeefyHeader carries an optional MMR root update and optional parachain
// headers proven against the (updated) root. At least one must be set.
type BeefyHeader struct {
	MmrUpdateProof   *beefy.MmrUpdateProof
	HeadersWithProof *ParachainHeadersWithProof
}

// GrandpaHeader is a finality proof with parachain head proofs anchored in
// the finalized relay blocks.
type GrandpaHeader struct {
	grandpa.ParachainHeadersWithFinalityProof
}

// Misbehaviour is equivocation evidence against the client's authorities.
// Only the list matching the client type may be non-empty.
type Misbehaviour struct {
	GrandpaEquivocations []grandpa.Equivocation
	BeefyEquivocations   []beefy.VoteEquivocation
}

func (*BeefyHeader) isClientMessage()   {}
func (*GrandpaHeader) isClientMessage() {}
func (*Misbehaviour) isClientMessage()  {}
