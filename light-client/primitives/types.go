// Package primitives holds the relay-chain types shared by the BEEFY and
// GRANDPA light clients: block headers with their digests, IBC heights and
// the error kinds every verifier reports through.
package primitives

import (
	"encoding/hex"
	"fmt"
)

// Hash is a 32 byte digest.
type Hash [32]byte

// String returns the 0x prefixed hex encoding.
func (h Hash) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

// Height identifies a parachain block as (revision number, revision height).
// The revision number is the parachain id.
type Height struct {
	RevisionNumber uint64
	RevisionHeight uint64
}

// NewHeight --
func NewHeight(revisionNumber, revisionHeight uint64) Height {
	return Height{RevisionNumber: revisionNumber, RevisionHeight: revisionHeight}
}

// Compare returns -1, 0 or 1 ordering heights by revision number then height.
func (h Height) Compare(other Height) int {
	switch {
	case h.RevisionNumber < other.RevisionNumber:
		return -1
	case h.RevisionNumber > other.RevisionNumber:
		return 1
	case h.RevisionHeight < other.RevisionHeight:
		return -1
	case h.RevisionHeight > other.RevisionHeight:
		return 1
	}
	return 0
}

// LT is h < other.
func (h Height) LT(other Height) bool { return h.Compare(other) < 0 }

// GT is h > other.
func (h Height) GT(other Height) bool { return h.Compare(other) > 0 }

// IsZero reports whether both components are zero.
func (h Height) IsZero() bool { return h.RevisionNumber == 0 && h.RevisionHeight == 0 }

// String formats the height as "number-height".
func (h Height) String() string {
	return fmt.Sprintf("%d-%d", h.RevisionNumber, h.RevisionHeight)
}

// ParseHeight parses the output of String.
func ParseHeight(s string) (Height, error) {
	var h Height
	if _, err := fmt.Sscanf(s, "%d-%d", &h.RevisionNumber, &h.RevisionHeight); err != nil {
		return Height{}, Malformedf("invalid height %q", s)
	}
	return h, nil
}

// ConsensusState is the per parachain height record used to verify IBC
// proofs: the block timestamp in nanoseconds and the parachain state root.
type ConsensusState struct {
	Timestamp uint64
	Root      Hash
}

// ConsensusUpdate pairs a consensus state with the height it was proven at.
type ConsensusUpdate struct {
	Height         Height
	ConsensusState ConsensusState
}
