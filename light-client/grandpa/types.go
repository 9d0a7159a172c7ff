// Package grandpa verifies GRANDPA finality proofs for relay-chain blocks and
// the parachain heads stored in the finalized relay state.
package grandpa

import (
	"github.com/ComposableFi/composable-sub011/light-client/parachain"
	"github.com/ComposableFi/composable-sub011/light-client/primitives"
)

// Authority is an ed25519 voter with its voting weight.
type Authority struct {
	ID     [32]byte
	Weight uint64
}

// AuthorityList is an ordered authority set.
type AuthorityList []Authority

// Index returns the position of id in the list.
func (l AuthorityList) Index(id [32]byte) (int, bool) {
	for i := range l {
		if l[i].ID == id {
			return i, true
		}
	}
	return 0, false
}

// Stage is the vote type, encoded as the GRANDPA message variant index.
type Stage uint8

// Vote stages.
const (
	StagePrevote   Stage = 0
	StagePrecommit Stage = 1
)

func (s Stage) String() string {
	switch s {
	case StagePrevote:
		return "prevote"
	case StagePrecommit:
		return "precommit"
	default:
		return "unknown"
	}
}

// Vote is a prevote or precommit for a target block.
type Vote struct {
	TargetHash   primitives.Hash
	TargetNumber uint32
}

// Precommit is a vote to finalize a block.
type Precommit = Vote

// SignedPrecommit is a precommit with its author and signature.
type SignedPrecommit struct {
	Precommit Precommit
	Signature [64]byte
	ID        [32]byte
}

// Commit finalizes TargetHash with a supermajority of precommits.
type Commit struct {
	TargetHash   primitives.Hash
	TargetNumber uint32
	Precommits   []SignedPrecommit
}

// Justification proves finality of the commit target. VotesAncestries are
// the headers linking precommit targets to the commit target.
type Justification struct {
	Round           uint64
	Commit          Commit
	VotesAncestries []primitives.Header
}

// FinalityProof finalizes Block. UnknownHeaders link the client's latest
// relay block to Block.
type FinalityProof struct {
	Block          primitives.Hash
	Justification  []byte
	UnknownHeaders []primitives.Header
}

// ParachainHeadersWithFinalityProof is a finality proof together with the
// parachain heads to extract from the finalized relay blocks.
type ParachainHeadersWithFinalityProof struct {
	FinalityProof    FinalityProof
	ParachainHeaders map[primitives.Hash]*parachain.HeaderProofs
}

// ScheduledChange announces the next authority set, enacted after Delay blocks.
type ScheduledChange struct {
	NextAuthorities AuthorityList
	Delay           uint32
}

// Equivocation shows an authority casting two different votes in the same
// round and stage.
type Equivocation struct {
	AuthorityIndex  uint32
	Round           uint64
	SetID           uint64
	Stage           Stage
	First           Vote
	Second          Vote
	FirstSignature  [64]byte
	SecondSignature [64]byte
}

// ClientState is the trusted GRANDPA view of the relay chain.
type ClientState struct {
	CurrentAuthorities AuthorityList
	CurrentSetID       uint64
	LatestRelayHeight  uint32
	LatestRelayHash    primitives.Hash
	ParaID             uint32
}

// VerifiedUpdate is the result of a verified finality proof.
type VerifiedUpdate struct {
	State            ClientState
	ConsensusUpdates []primitives.ConsensusUpdate
	// Finalized lists the newly finalized relay hashes, target first.
	Finalized []primitives.Hash
}
