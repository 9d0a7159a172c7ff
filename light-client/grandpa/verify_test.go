package grandpa_test

import (
	"testing"

	"github.com/ComposableFi/composable-sub011/crypto/hash"
	"github.com/ComposableFi/composable-sub011/light-client/grandpa"
	"github.com/ComposableFi/composable-sub011/light-client/host"
	"github.com/ComposableFi/composable-sub011/light-client/parachain"
	"github.com/ComposableFi/composable-sub011/light-client/primitives"
	"github.com/ComposableFi/composable-sub011/testing/assert"
	"github.com/ComposableFi/composable-sub011/testing/require"
	"github.com/ComposableFi/composable-sub011/testing/util"
)

const testParaID = 2000

type grandpaFixture struct {
	voters *util.GrandpaVoters
	chain  *util.RelayChain
	state  grandpa.ClientState
	proofs map[primitives.Hash]*parachain.HeaderProofs
}

func newGrandpaFixture(t *testing.T) *grandpaFixture {
	voters := util.NewGrandpaVoters(0, 5)
	chain := util.NewRelayChain(t, 100)
	return &grandpaFixture{
		voters: voters,
		chain:  chain,
		state: grandpa.ClientState{
			CurrentAuthorities: voters.Authorities,
			CurrentSetID:       0,
			LatestRelayHeight:  100,
			LatestRelayHash:    chain.Hash(100),
			ParaID:             testParaID,
		},
		proofs: make(map[primitives.Hash]*parachain.HeaderProofs),
	}
}

// paraBlock extends chain with a relay block whose state holds parachain
// block number, and records its header proofs.
func (f *grandpaFixture) paraBlock(t *testing.T, chain *util.RelayChain, number uint32) primitives.Hash {
	pb := util.NewParachainBlock(t, number, hash.Blake2b256([]byte{byte(number)}), 1_690_000_000_000+uint64(number)*6000)
	rs := util.NewRelayState(t, map[uint32][]byte{testParaID: pb.Encoded})
	relayHash := chain.Extend(t, rs.Root())
	f.proofs[relayHash] = rs.HeaderProofs(t, testParaID, pb)
	return relayHash
}

func (f *grandpaFixture) proof(t *testing.T, from, to uint32, signers []int) *grandpa.ParachainHeadersWithFinalityProof {
	j := f.voters.Justification(1, f.chain.Vote(to), signers)
	return &grandpa.ParachainHeadersWithFinalityProof{
		FinalityProof:    f.chain.FinalityProof(t, from, to, j),
		ParachainHeaders: f.proofs,
	}
}

func heights(updates []primitives.ConsensusUpdate) map[primitives.Height]primitives.ConsensusState {
	out := make(map[primitives.Height]primitives.ConsensusState, len(updates))
	for _, u := range updates {
		out[u.Height] = u.ConsensusState
	}
	return out
}

func TestVerifyParachainHeadersWithFinalityProof(t *testing.T) {
	f := newGrandpaFixture(t)
	h101 := f.paraBlock(t, f.chain, 7)
	h102 := f.paraBlock(t, f.chain, 8)
	h103 := f.chain.Extend(t, primitives.Hash{})

	update, err := grandpa.VerifyParachainHeadersWithFinalityProof(host.Default(), f.state, f.proof(t, 100, 103, []int{0, 1, 2, 3}))
	require.NoError(t, err)
	assert.Equal(t, uint32(103), update.State.LatestRelayHeight)
	assert.Equal(t, h103, update.State.LatestRelayHash)
	assert.Equal(t, uint64(0), update.State.CurrentSetID)
	assert.DeepEqual(t, []primitives.Hash{h103, h102, h101}, update.Finalized)

	got := heights(update.ConsensusUpdates)
	require.Equal(t, 2, len(got))
	cs, ok := got[primitives.NewHeight(testParaID, 7)]
	require.Equal(t, true, ok)
	assert.Equal(t, uint64(1_690_000_042_000)*1_000_000, cs.Timestamp)
	_, ok = got[primitives.NewHeight(testParaID, 8)]
	assert.Equal(t, true, ok)

	assert.Equal(t, uint32(100), f.state.LatestRelayHeight, "input state modified")
}

func TestVerifyParachainHeadersWithFinalityProof_Stale(t *testing.T) {
	f := newGrandpaFixture(t)
	f.paraBlock(t, f.chain, 7)
	proof := f.proof(t, 100, 101, []int{0, 1, 2, 3})

	update, err := grandpa.VerifyParachainHeadersWithFinalityProof(host.Default(), f.state, proof)
	require.NoError(t, err)
	_, err = grandpa.VerifyParachainHeadersWithFinalityProof(host.Default(), update.State, proof)
	require.ErrorIs(t, err, grandpa.ErrStaleJustification)
	assert.Equal(t, primitives.ErrStaleUpdate, primitives.Kind(err))
}

func TestVerifyParachainHeadersWithFinalityProof_SkipsFork(t *testing.T) {
	f := newGrandpaFixture(t)
	f.paraBlock(t, f.chain, 7)
	fork := f.chain.Fork(101)
	f.paraBlock(t, f.chain, 8)
	f.chain.Extend(t, primitives.Hash{})
	f.paraBlock(t, fork, 9)

	proof := f.proof(t, 100, 103, []int{0, 1, 2, 3})
	proof.FinalityProof.UnknownHeaders = append(proof.FinalityProof.UnknownHeaders, fork.Header(102))

	update, err := grandpa.VerifyParachainHeadersWithFinalityProof(host.Default(), f.state, proof)
	require.NoError(t, err)
	got := heights(update.ConsensusUpdates)
	assert.Equal(t, 2, len(got))
	_, ok := got[primitives.NewHeight(testParaID, 9)]
	assert.Equal(t, false, ok)
}

func TestVerifyParachainHeadersWithFinalityProof_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(f *grandpaFixture, p *grandpa.ParachainHeadersWithFinalityProof)
		wantErr error
	}{
		{
			name: "insufficient precommits",
			mutate: func(f *grandpaFixture, p *grandpa.ParachainHeadersWithFinalityProof) {
				j := f.voters.Justification(1, f.chain.Vote(103), []int{0, 1, 2})
				p.FinalityProof = f.chain.FinalityProof(t, 100, 103, j)
			},
			wantErr: grandpa.ErrInsufficientSignatures,
		},
		{
			name: "target mismatch",
			mutate: func(f *grandpaFixture, p *grandpa.ParachainHeadersWithFinalityProof) {
				p.FinalityProof.Block = f.chain.Hash(102)
			},
			wantErr: primitives.ErrMalformedMessage,
		},
		{
			name: "target header missing",
			mutate: func(f *grandpaFixture, p *grandpa.ParachainHeadersWithFinalityProof) {
				p.FinalityProof.UnknownHeaders = f.chain.Headers(100, 102)
			},
			wantErr: primitives.ErrMalformedMessage,
		},
		{
			name: "gap in route",
			mutate: func(f *grandpaFixture, p *grandpa.ParachainHeadersWithFinalityProof) {
				p.FinalityProof.UnknownHeaders = f.chain.Headers(101, 103)
				delete(p.ParachainHeaders, f.chain.Hash(101))
			},
			wantErr: grandpa.ErrInvalidAncestry,
		},
		{
			name: "unknown relay hash",
			mutate: func(f *grandpaFixture, p *grandpa.ParachainHeadersWithFinalityProof) {
				p.ParachainHeaders[hash.Blake2b256([]byte("unknown"))] = &parachain.HeaderProofs{}
			},
			wantErr: primitives.ErrMalformedMessage,
		},
		{
			name: "forged timestamp",
			mutate: func(f *grandpaFixture, p *grandpa.ParachainHeadersWithFinalityProof) {
				proofs := *p.ParachainHeaders[f.chain.Hash(101)]
				proofs.Extrinsic = util.TimestampExtrinsic(1)
				p.ParachainHeaders[f.chain.Hash(101)] = &proofs
			},
			wantErr: primitives.ErrProofFailure,
		},
		{
			name: "head proof from another block",
			mutate: func(f *grandpaFixture, p *grandpa.ParachainHeadersWithFinalityProof) {
				p.ParachainHeaders[f.chain.Hash(101)] = p.ParachainHeaders[f.chain.Hash(102)]
			},
			wantErr: primitives.ErrProofFailure,
		},
		{
			name: "undecodable justification",
			mutate: func(f *grandpaFixture, p *grandpa.ParachainHeadersWithFinalityProof) {
				p.FinalityProof.Justification = p.FinalityProof.Justification[:10]
			},
			wantErr: primitives.ErrMalformedMessage,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newGrandpaFixture(t)
			f.paraBlock(t, f.chain, 7)
			f.paraBlock(t, f.chain, 8)
			f.chain.Extend(t, primitives.Hash{})
			proof := f.proof(t, 100, 103, []int{0, 1, 2, 3})
			tt.mutate(f, proof)
			_, err := grandpa.VerifyParachainHeadersWithFinalityProof(host.Default(), f.state, proof)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestVerifyParachainHeadersWithFinalityProof_NotDescendant(t *testing.T) {
	f := newGrandpaFixture(t)
	f.paraBlock(t, f.chain, 7)
	f.state.LatestRelayHash = hash.Blake2b256([]byte("elsewhere"))

	_, err := grandpa.VerifyParachainHeadersWithFinalityProof(host.Default(), f.state, f.proof(t, 100, 101, []int{0, 1, 2, 3}))
	require.ErrorIs(t, err, grandpa.ErrInvalidAncestry)
	assert.Equal(t, primitives.ErrProofFailure, primitives.Kind(err))
}

func TestVerifyParachainHeadersWithFinalityProof_ScheduledChange(t *testing.T) {
	h := host.Default()
	f := newGrandpaFixture(t)
	next := util.NewGrandpaVoters(1, 4)
	f.chain.Extend(t, primitives.Hash{}, util.ScheduledChangeDigest(t, next.Authorities, 0))

	update, err := grandpa.VerifyParachainHeadersWithFinalityProof(h, f.state, f.proof(t, 100, 101, []int{0, 1, 2, 3}))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), update.State.CurrentSetID)
	assert.DeepEqual(t, next.Authorities, update.State.CurrentAuthorities)
	assert.Equal(t, 0, len(update.ConsensusUpdates))

	f.chain.Extend(t, primitives.Hash{})
	j := next.Justification(1, f.chain.Vote(102), []int{0, 1, 2})
	proof := &grandpa.ParachainHeadersWithFinalityProof{FinalityProof: f.chain.FinalityProof(t, 101, 102, j)}
	rotated, err := grandpa.VerifyParachainHeadersWithFinalityProof(h, update.State, proof)
	require.NoError(t, err)
	assert.Equal(t, uint32(102), rotated.State.LatestRelayHeight)

	// The retired set can no longer finalize.
	_, err = grandpa.VerifyParachainHeadersWithFinalityProof(h, update.State, f.proof(t, 101, 102, []int{0, 1, 2, 3}))
	require.ErrorIs(t, err, grandpa.ErrUnknownAuthority)
}

func TestVerifyParachainHeadersWithFinalityProof_ChangeOnlyFromTarget(t *testing.T) {
	f := newGrandpaFixture(t)
	next := util.NewGrandpaVoters(1, 4)
	f.chain.Extend(t, primitives.Hash{}, util.ScheduledChangeDigest(t, next.Authorities, 0))
	f.chain.Extend(t, primitives.Hash{})

	update, err := grandpa.VerifyParachainHeadersWithFinalityProof(host.Default(), f.state, f.proof(t, 100, 102, []int{0, 1, 2, 3}))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), update.State.CurrentSetID)
}

func TestVerifyParachainHeadersWithFinalityProof_ForcedChangeIgnored(t *testing.T) {
	f := newGrandpaFixture(t)
	next := util.NewGrandpaVoters(1, 4)
	enc, err := grandpa.EncodeForcedChange(90, &grandpa.ScheduledChange{NextAuthorities: next.Authorities})
	require.NoError(t, err)
	f.chain.Extend(t, primitives.Hash{}, primitives.DigestItem{
		Kind:   primitives.DigestConsensus,
		Engine: primitives.GrandpaEngineID,
		Data:   enc,
	})

	update, err := grandpa.VerifyParachainHeadersWithFinalityProof(host.Default(), f.state, f.proof(t, 100, 101, []int{0, 1, 2, 3}))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), update.State.CurrentSetID)
	assert.DeepEqual(t, f.voters.Authorities, update.State.CurrentAuthorities)
}

func TestVerifyParachainHeadersWithFinalityProof_EmptyScheduledSet(t *testing.T) {
	f := newGrandpaFixture(t)
	f.chain.Extend(t, primitives.Hash{}, util.ScheduledChangeDigest(t, nil, 0))

	_, err := grandpa.VerifyParachainHeadersWithFinalityProof(host.Default(), f.state, f.proof(t, 100, 101, []int{0, 1, 2, 3}))
	require.ErrorIs(t, err, primitives.ErrMalformedMessage)
}

func TestClientState_Validate(t *testing.T) {
	f := newGrandpaFixture(t)
	require.NoError(t, f.state.Validate())

	bad := f.state
	bad.CurrentAuthorities = nil
	require.ErrorIs(t, bad.Validate(), primitives.ErrMalformedMessage)

	bad = f.state
	bad.CurrentAuthorities = append(grandpa.AuthorityList{f.voters.Authorities[0]}, f.voters.Authorities...)
	require.ErrorIs(t, bad.Validate(), primitives.ErrMalformedMessage)
}
