// Package beefy verifies BEEFY signed commitments, the MMR leaves they commit
// to and the parachain heads committed in those leaves.
package beefy

import (
	"bytes"

	"github.com/ComposableFi/composable-sub011/encoding/scaleutil"
	"github.com/ComposableFi/composable-sub011/light-client/primitives"
)

// MmrRootID is the payload id of the MMR root in a commitment.
var MmrRootID = [2]byte{'m', 'h'}

// AuthoritySet commits to an authority set as a Merkle root over the
// keccak hashes of the authorities' addresses.
type AuthoritySet struct {
	ID   uint64
	Len  uint32
	Root primitives.Hash
}

// PayloadItem is one keyed entry of a commitment payload.
type PayloadItem struct {
	ID   [2]byte
	Data []byte
}

// Commitment is the message BEEFY authorities sign.
type Commitment struct {
	Payload        []PayloadItem
	BlockNumber    uint32
	ValidatorSetID uint64
}

// Encode returns the SCALE encoding of the commitment.
func (c *Commitment) Encode() ([]byte, error) {
	return scaleutil.Marshal(*c)
}

// PayloadValue returns the data stored under id.
func (c *Commitment) PayloadValue(id [2]byte) ([]byte, bool) {
	for _, item := range c.Payload {
		if item.ID == id {
			return item.Data, true
		}
	}
	return nil, false
}

// Equal reports whether two commitments are identical.
func (c *Commitment) Equal(other *Commitment) bool {
	if c.BlockNumber != other.BlockNumber || c.ValidatorSetID != other.ValidatorSetID {
		return false
	}
	if len(c.Payload) != len(other.Payload) {
		return false
	}
	for i := range c.Payload {
		if c.Payload[i].ID != other.Payload[i].ID || !bytes.Equal(c.Payload[i].Data, other.Payload[i].Data) {
			return false
		}
	}
	return true
}

// SignatureWithAuthorityIndex is an authority's recoverable ECDSA signature.
type SignatureWithAuthorityIndex struct {
	Index     uint32
	Signature [65]byte
}

// SignedCommitment is a commitment with the signatures collected for it.
type SignedCommitment struct {
	Commitment Commitment
	Signatures []SignatureWithAuthorityIndex
}

// SupportedMmrLeafMajor is the leaf layout major version this client decodes.
const SupportedMmrLeafMajor = 0

// MmrLeafVersion packs a 3 bit major and 5 bit minor version.
type MmrLeafVersion uint8

// NewMmrLeafVersion --
func NewMmrLeafVersion(major, minor uint8) MmrLeafVersion {
	return MmrLeafVersion(major<<5 | minor&0x1f)
}

// Major version.
func (v MmrLeafVersion) Major() uint8 { return uint8(v) >> 5 }

// Minor version.
func (v MmrLeafVersion) Minor() uint8 { return uint8(v) & 0x1f }

// Validate rejects major versions other than the one this client decodes.
// Minor bumps only append fields and stay readable.
func (v MmrLeafVersion) Validate() error {
	if v.Major() != SupportedMmrLeafMajor {
		return primitives.Malformedf("mmr leaf version %d.%d, supported major %d", v.Major(), v.Minor(), SupportedMmrLeafMajor)
	}
	return nil
}

// MmrLeaf is the leaf BEEFY appends to the MMR for every relay block. It
// commits to the parent block, the next authority set and the parachain
// heads root.
type MmrLeaf struct {
	Version               MmrLeafVersion
	ParentNumber          uint32
	ParentHash            primitives.Hash
	BeefyNextAuthoritySet AuthoritySet
	LeafExtra             primitives.Hash
}

// Hash returns keccak256 of the encoded leaf.
func (l *MmrLeaf) Hash(hasher func([]byte) [32]byte) (primitives.Hash, error) {
	enc, err := scaleutil.Marshal(*l)
	if err != nil {
		return primitives.Hash{}, err
	}
	return hasher(enc), nil
}

// PartialMmrLeaf is an MmrLeaf without the parachain heads root, which the
// verifier recomputes.
type PartialMmrLeaf struct {
	Version               MmrLeafVersion
	ParentNumber          uint32
	ParentHash            primitives.Hash
	BeefyNextAuthoritySet AuthoritySet
}

// Complete returns the full leaf with the given heads root.
func (p *PartialMmrLeaf) Complete(headsRoot primitives.Hash) *MmrLeaf {
	return &MmrLeaf{
		Version:               p.Version,
		ParentNumber:          p.ParentNumber,
		ParentHash:            p.ParentHash,
		BeefyNextAuthoritySet: p.BeefyNextAuthoritySet,
		LeafExtra:             headsRoot,
	}
}

// MmrProof proves a single leaf.
type MmrProof struct {
	LeafIndex uint64
	LeafCount uint64
	Items     []primitives.Hash
}

// MmrBatchProof proves several leaves at once.
type MmrBatchProof struct {
	LeafIndices []uint64
	LeafCount   uint64
	Items       []primitives.Hash
}

// MmrUpdateProof advances the client to a newly signed commitment.
type MmrUpdateProof struct {
	SignedCommitment SignedCommitment
	LatestMmrLeaf    MmrLeaf
	MmrProof         MmrProof
	// AuthorityProof is a multi-proof of the signers' authority leaves.
	AuthorityProof []primitives.Hash
}

// ParachainHeader is an encoded parachain header with the proofs linking it
// to an MMR leaf and to its own timestamp.
type ParachainHeader struct {
	ParachainHeader     []byte
	PartialMmrLeaf      PartialMmrLeaf
	ParaID              uint32
	ParachainHeadsProof []primitives.Hash
	HeadsLeafIndex      uint32
	HeadsTotalCount     uint32
	ExtrinsicProof      [][]byte
	TimestampExtrinsic  []byte
}

// ParachainsUpdateProof proves parachain headers against the MMR root.
type ParachainsUpdateProof struct {
	ParachainHeaders []ParachainHeader
	MmrProof         MmrBatchProof
}

// ClientState is the trusted BEEFY view of the relay chain.
type ClientState struct {
	LatestBeefyHeight    uint32
	MmrRootHash          primitives.Hash
	CurrentAuthorities   AuthoritySet
	NextAuthorities      AuthoritySet
	BeefyActivationBlock uint32
}

// SignedVote is a single authority's signature over a commitment.
type SignedVote struct {
	Commitment Commitment
	Signature  [65]byte
}

// VoteEquivocation shows one authority signing two different commitments
// for the same block.
type VoteEquivocation struct {
	AuthorityIndex uint32
	AuthorityProof []primitives.Hash
	First          SignedVote
	Second         SignedVote
}
