package util

import (
	"testing"

	"github.com/ComposableFi/composable-sub011/crypto/ed25519"
	"github.com/ComposableFi/composable-sub011/crypto/hash"
	"github.com/ComposableFi/composable-sub011/light-client/grandpa"
	"github.com/ComposableFi/composable-sub011/light-client/primitives"
	"github.com/ComposableFi/composable-sub011/testing/require"
)

// GrandpaVoters is a deterministic GRANDPA authority set and its keys.
type GrandpaVoters struct {
	SetID       uint64
	Keys        []*ed25519.SecretKey
	Authorities grandpa.AuthorityList
}

// NewGrandpaVoters derives n voters for set id.
func NewGrandpaVoters(setID uint64, n int) *GrandpaVoters {
	v := &GrandpaVoters{SetID: setID}
	for i := 0; i < n; i++ {
		var seed [32]byte
		seed[0] = byte(setID + 1)
		seed[1] = byte(i + 1)
		key := ed25519.NewSecretKey(seed)
		v.Keys = append(v.Keys, key)
		v.Authorities = append(v.Authorities, grandpa.Authority{ID: key.PublicKey(), Weight: 1})
	}
	return v
}

// Precommit signs a precommit for target by voter index.
func (v *GrandpaVoters) Precommit(index int, round uint64, target grandpa.Vote) grandpa.SignedPrecommit {
	msg := grandpa.VoteMessage(grandpa.StagePrecommit, target, round, v.SetID)
	return grandpa.SignedPrecommit{
		Precommit: target,
		Signature: v.Keys[index].Sign(msg),
		ID:        v.Keys[index].PublicKey(),
	}
}

// Justification builds a justification for target signed by signers, all
// precommitting the target itself.
func (v *GrandpaVoters) Justification(round uint64, target grandpa.Vote, signers []int) *grandpa.Justification {
	j := &grandpa.Justification{
		Round:  round,
		Commit: grandpa.Commit{TargetHash: target.TargetHash, TargetNumber: target.TargetNumber},
	}
	for _, i := range signers {
		j.Commit.Precommits = append(j.Commit.Precommits, v.Precommit(i, round, target))
	}
	return j
}

// Equivocation has voter index cast two precommits for different blocks at
// the same height.
func (v *GrandpaVoters) Equivocation(index int, round uint64, number uint32) grandpa.Equivocation {
	first := grandpa.Vote{TargetHash: hash.Blake2b256([]byte("first")), TargetNumber: number}
	second := grandpa.Vote{TargetHash: hash.Blake2b256([]byte("second")), TargetNumber: number}
	return grandpa.Equivocation{
		AuthorityIndex:  uint32(index),
		Round:           round,
		SetID:           v.SetID,
		Stage:           grandpa.StagePrecommit,
		First:           first,
		Second:          second,
		FirstSignature:  v.Keys[index].Sign(grandpa.VoteMessage(grandpa.StagePrecommit, first, round, v.SetID)),
		SecondSignature: v.Keys[index].Sign(grandpa.VoteMessage(grandpa.StagePrecommit, second, round, v.SetID)),
	}
}

// RelayChain is a linear chain of relay headers.
type RelayChain struct {
	headers []primitives.Header
	hashes  []primitives.Hash
}

// NewRelayChain starts a chain at a base block with the given number.
func NewRelayChain(t testing.TB, number uint32) *RelayChain {
	c := &RelayChain{}
	c.push(t, primitives.Header{
		ParentHash: hash.Blake2b256([]byte("relay-base")),
		Number:     number,
	})
	return c
}

func (c *RelayChain) push(t testing.TB, h primitives.Header) primitives.Hash {
	hsh, err := h.Hash(hash.Blake2b256)
	require.NoError(t, err)
	c.headers = append(c.headers, h)
	c.hashes = append(c.hashes, hsh)
	return hsh
}

// Extend appends a child of the tip with the given state root and digest.
func (c *RelayChain) Extend(t testing.TB, stateRoot primitives.Hash, digest ...primitives.DigestItem) primitives.Hash {
	tip := len(c.headers) - 1
	return c.push(t, primitives.Header{
		ParentHash:     c.hashes[tip],
		Number:         c.headers[tip].Number + 1,
		StateRoot:      stateRoot,
		ExtrinsicsRoot: hash.Blake2b256(c.hashes[tip][:]),
		Digest:         digest,
	})
}

// Fork returns a chain sharing blocks up to and including number.
func (c *RelayChain) Fork(number uint32) *RelayChain {
	n := int(number-c.headers[0].Number) + 1
	return &RelayChain{
		headers: append([]primitives.Header(nil), c.headers[:n]...),
		hashes:  append([]primitives.Hash(nil), c.hashes[:n]...),
	}
}

func (c *RelayChain) index(number uint32) int {
	return int(number - c.headers[0].Number)
}

// Hash of block number.
func (c *RelayChain) Hash(number uint32) primitives.Hash {
	return c.hashes[c.index(number)]
}

// Header of block number.
func (c *RelayChain) Header(number uint32) primitives.Header {
	return c.headers[c.index(number)]
}

// Tip returns the latest block number.
func (c *RelayChain) Tip() uint32 {
	return c.headers[len(c.headers)-1].Number
}

// Vote returns a vote for block number.
func (c *RelayChain) Vote(number uint32) grandpa.Vote {
	return grandpa.Vote{TargetHash: c.Hash(number), TargetNumber: number}
}

// Headers returns the headers in (from, to].
func (c *RelayChain) Headers(from, to uint32) []primitives.Header {
	return append([]primitives.Header(nil), c.headers[c.index(from)+1:c.index(to)+1]...)
}

// FinalityProof finalizes block to with j, carrying the headers in (from, to].
func (c *RelayChain) FinalityProof(t testing.TB, from, to uint32, j *grandpa.Justification) grandpa.FinalityProof {
	enc, err := j.Encode()
	require.NoError(t, err)
	return grandpa.FinalityProof{
		Block:          c.Hash(to),
		Justification:  enc,
		UnknownHeaders: c.Headers(from, to),
	}
}

// ScheduledChangeDigest returns a digest item announcing next.
func ScheduledChangeDigest(t testing.TB, next grandpa.AuthorityList, delay uint32) primitives.DigestItem {
	enc, err := grandpa.EncodeScheduledChange(&grandpa.ScheduledChange{NextAuthorities: next, Delay: delay})
	require.NoError(t, err)
	return primitives.DigestItem{Kind: primitives.DigestConsensus, Engine: primitives.GrandpaEngineID, Data: enc}
}
