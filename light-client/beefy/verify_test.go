package beefy_test

import (
	"testing"

	"github.com/ComposableFi/composable-sub011/crypto/hash"
	"github.com/ComposableFi/composable-sub011/light-client/beefy"
	"github.com/ComposableFi/composable-sub011/light-client/host"
	"github.com/ComposableFi/composable-sub011/light-client/primitives"
	"github.com/ComposableFi/composable-sub011/testing/assert"
	"github.com/ComposableFi/composable-sub011/testing/require"
	"github.com/ComposableFi/composable-sub011/testing/util"
)

type beefyFixture struct {
	chain *util.BeefyChain
	sets  []*util.BeefyAuthorities
	state beefy.ClientState
}

func newBeefyFixture(t *testing.T, activation uint32) *beefyFixture {
	sets := []*util.BeefyAuthorities{
		util.NewBeefyAuthorities(t, 0, 5),
		util.NewBeefyAuthorities(t, 1, 5),
		util.NewBeefyAuthorities(t, 2, 5),
	}
	return &beefyFixture{
		chain: util.NewBeefyChain(activation),
		sets:  sets,
		state: beefy.ClientState{
			CurrentAuthorities:   sets[0].Set,
			NextAuthorities:      sets[1].Set,
			BeefyActivationBlock: activation,
		},
	}
}

func TestLeafIndex(t *testing.T) {
	tests := []struct {
		name       string
		activation uint32
		block      uint32
		want       uint64
		wantErr    bool
	}{
		{name: "from genesis, first block", activation: 0, block: 1, want: 0},
		{name: "from genesis", activation: 0, block: 10, want: 9},
		{name: "genesis block", activation: 0, block: 0, wantErr: true},
		{name: "activation block", activation: 100, block: 100, want: 0},
		{name: "after activation", activation: 100, block: 105, want: 5},
		{name: "before activation", activation: 100, block: 99, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := beefy.LeafIndex(tt.activation, tt.block)
			if tt.wantErr {
				require.ErrorIs(t, err, primitives.ErrMalformedMessage)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHasSupermajority(t *testing.T) {
	for n := uint64(1); n <= 12; n++ {
		threshold := 2*n/3 + 1
		for k := uint64(0); k <= n; k++ {
			assert.Equal(t, k >= threshold, beefy.HasSupermajority(k, n), "k=%d n=%d", k, n)
		}
	}
}

func TestVerifyMmrRootWithProof_BootstrapAndHandoff(t *testing.T) {
	f := newBeefyFixture(t, 0)
	f.chain.ExtendTo(t, 10, f.sets[1].Set)

	update := f.chain.MmrUpdate(t, f.sets[0], util.Range(4))
	state, err := beefy.VerifyMmrRootWithProof(host.Default(), f.state, update)
	require.NoError(t, err)
	assert.Equal(t, uint32(10), state.LatestBeefyHeight)
	assert.Equal(t, f.chain.Root(t), state.MmrRootHash)
	assert.Equal(t, uint64(0), state.CurrentAuthorities.ID)
	assert.Equal(t, uint64(1), state.NextAuthorities.ID)
	assert.Equal(t, uint32(0), f.state.LatestBeefyHeight, "input state modified")

	f.chain.ExtendTo(t, 20, f.sets[2].Set)
	update = f.chain.MmrUpdate(t, f.sets[1], util.Range(4))
	state, err = beefy.VerifyMmrRootWithProof(host.Default(), state, update)
	require.NoError(t, err)
	assert.Equal(t, uint32(20), state.LatestBeefyHeight)
	assert.Equal(t, f.sets[1].Set, state.CurrentAuthorities)
	assert.Equal(t, f.sets[2].Set, state.NextAuthorities)
}

func TestVerifyMmrRootWithProof_ActivationOffset(t *testing.T) {
	f := newBeefyFixture(t, 100)
	f.chain.ExtendTo(t, 105, f.sets[1].Set)
	assert.Equal(t, uint64(6), f.chain.LeafCount())

	update := f.chain.MmrUpdate(t, f.sets[0], util.Range(5))
	assert.Equal(t, uint64(5), update.MmrProof.LeafIndex)
	state, err := beefy.VerifyMmrRootWithProof(host.Default(), f.state, update)
	require.NoError(t, err)
	assert.Equal(t, uint32(105), state.LatestBeefyHeight)
}

func TestVerifyMmrRootWithProof_InsufficientSignatures(t *testing.T) {
	f := newBeefyFixture(t, 0)
	f.chain.ExtendTo(t, 10, f.sets[1].Set)

	update := f.chain.MmrUpdate(t, f.sets[0], util.Range(3))
	_, err := beefy.VerifyMmrRootWithProof(host.Default(), f.state, update)
	require.ErrorIs(t, err, beefy.ErrInsufficientSignatures)
	assert.Equal(t, primitives.ErrCryptoFailure, primitives.Kind(err))
}

func TestVerifyMmrRootWithProof_ThreeAuthorities(t *testing.T) {
	h := host.Default()
	auth := util.NewBeefyAuthorities(t, 0, 3)
	next := util.NewBeefyAuthorities(t, 1, 3)
	chain := util.NewBeefyChain(0)
	chain.ExtendTo(t, 4, next.Set)
	state := beefy.ClientState{CurrentAuthorities: auth.Set, NextAuthorities: next.Set}

	_, err := beefy.VerifyMmrRootWithProof(h, state, chain.MmrUpdate(t, auth, util.Range(2)))
	require.ErrorIs(t, err, beefy.ErrInsufficientSignatures)

	_, err = beefy.VerifyMmrRootWithProof(h, state, chain.MmrUpdate(t, auth, util.Range(3)))
	require.NoError(t, err)
}

func TestVerifyMmrRootWithProof_DuplicateSignature(t *testing.T) {
	f := newBeefyFixture(t, 0)
	f.chain.ExtendTo(t, 10, f.sets[1].Set)

	update := f.chain.MmrUpdate(t, f.sets[0], util.Range(3))
	sigs := update.SignedCommitment.Signatures
	update.SignedCommitment.Signatures = append(sigs, sigs[0])
	_, err := beefy.VerifyMmrRootWithProof(host.Default(), f.state, update)
	require.ErrorIs(t, err, primitives.ErrMalformedMessage)
}

func TestVerifyMmrRootWithProof_SignerUnderTwoIndices(t *testing.T) {
	f := newBeefyFixture(t, 0)
	f.chain.ExtendTo(t, 10, f.sets[1].Set)

	update := f.chain.MmrUpdate(t, f.sets[0], util.Range(4))
	update.SignedCommitment.Signatures[3].Signature = update.SignedCommitment.Signatures[1].Signature
	_, err := beefy.VerifyMmrRootWithProof(host.Default(), f.state, update)
	require.ErrorIs(t, err, primitives.ErrMalformedMessage)
}

func TestVerifyMmrRootWithProof_Stale(t *testing.T) {
	f := newBeefyFixture(t, 0)
	f.chain.ExtendTo(t, 10, f.sets[1].Set)

	update := f.chain.MmrUpdate(t, f.sets[0], util.Range(4))
	state, err := beefy.VerifyMmrRootWithProof(host.Default(), f.state, update)
	require.NoError(t, err)

	_, err = beefy.VerifyMmrRootWithProof(host.Default(), state, update)
	require.ErrorIs(t, err, beefy.ErrStaleCommitment)
	assert.Equal(t, primitives.ErrStaleUpdate, primitives.Kind(err))
}

func TestVerifyMmrRootWithProof_FutureSet(t *testing.T) {
	f := newBeefyFixture(t, 0)
	f.chain.ExtendTo(t, 10, f.sets[1].Set)

	commitment := util.MmrRootCommitment(f.chain.Root(t), 10, 5)
	update := f.chain.MmrUpdateFor(t, f.sets[0], commitment, util.Range(4))
	_, err := beefy.VerifyMmrRootWithProof(host.Default(), f.state, update)
	require.ErrorIs(t, err, beefy.ErrFutureAuthoritySet)
	assert.Equal(t, primitives.ErrAuthoritySetMismatch, primitives.Kind(err))
}

func TestVerifyMmrRootWithProof_WrongSigners(t *testing.T) {
	f := newBeefyFixture(t, 0)
	f.chain.ExtendTo(t, 10, f.sets[1].Set)

	// Keys of set 0 signing a commitment that claims set 1.
	commitment := util.MmrRootCommitment(f.chain.Root(t), 10, 1)
	update := f.chain.MmrUpdateFor(t, f.sets[0], commitment, util.Range(4))
	_, err := beefy.VerifyMmrRootWithProof(host.Default(), f.state, update)
	require.ErrorIs(t, err, beefy.ErrInvalidAuthorityProof)
}

func TestVerifyMmrRootWithProof_BadMmrRoot(t *testing.T) {
	f := newBeefyFixture(t, 0)
	f.chain.ExtendTo(t, 10, f.sets[1].Set)
	root := f.chain.Root(t)

	short := beefy.Commitment{
		Payload:        []beefy.PayloadItem{{ID: beefy.MmrRootID, Data: root[:31]}},
		BlockNumber:    10,
		ValidatorSetID: 0,
	}
	_, err := beefy.VerifyMmrRootWithProof(host.Default(), f.state, f.chain.MmrUpdateFor(t, f.sets[0], short, util.Range(4)))
	require.ErrorIs(t, err, beefy.ErrInvalidMmrRoot)

	missing := beefy.Commitment{
		Payload:        []beefy.PayloadItem{{ID: [2]byte{'x', 'y'}, Data: root[:]}},
		BlockNumber:    10,
		ValidatorSetID: 0,
	}
	_, err = beefy.VerifyMmrRootWithProof(host.Default(), f.state, f.chain.MmrUpdateFor(t, f.sets[0], missing, util.Range(4)))
	require.ErrorIs(t, err, beefy.ErrInvalidMmrRoot)

	other := util.MmrRootCommitment(hash.Keccak256([]byte("other")), 10, 0)
	_, err = beefy.VerifyMmrRootWithProof(host.Default(), f.state, f.chain.MmrUpdateFor(t, f.sets[0], other, util.Range(4)))
	require.ErrorIs(t, err, beefy.ErrInvalidLeafProof)
}

func TestVerifyMmrRootWithProof_LeafVersion(t *testing.T) {
	f := newBeefyFixture(t, 0)
	f.chain.ExtendTo(t, 10, f.sets[1].Set)

	update := f.chain.MmrUpdate(t, f.sets[0], util.Range(4))
	update.LatestMmrLeaf.Version = beefy.NewMmrLeafVersion(1, 0)
	_, err := beefy.VerifyMmrRootWithProof(host.Default(), f.state, update)
	require.ErrorIs(t, err, primitives.ErrMalformedMessage)
}

func TestMmrLeafVersion(t *testing.T) {
	v := beefy.NewMmrLeafVersion(2, 31)
	assert.Equal(t, uint8(2), v.Major())
	assert.Equal(t, uint8(31), v.Minor())
	assert.Equal(t, beefy.MmrLeafVersion(0x5f), v)
	require.ErrorIs(t, v.Validate(), primitives.ErrMalformedMessage)

	// Minor bits do not spill into the major version.
	v = beefy.NewMmrLeafVersion(0, 0x3f)
	assert.Equal(t, uint8(0), v.Major())
	require.NoError(t, v.Validate())
}

func TestVerifyMmrRootWithProof_LeafMismatch(t *testing.T) {
	f := newBeefyFixture(t, 0)
	f.chain.ExtendTo(t, 10, f.sets[1].Set)

	update := f.chain.MmrUpdate(t, f.sets[0], util.Range(4))
	update.LatestMmrLeaf.BeefyNextAuthoritySet = f.sets[2].Set
	_, err := beefy.VerifyMmrRootWithProof(host.Default(), f.state, update)
	require.ErrorIs(t, err, beefy.ErrInvalidLeafProof)

	update = f.chain.MmrUpdate(t, f.sets[0], util.Range(4))
	update.MmrProof.LeafCount++
	_, err = beefy.VerifyMmrRootWithProof(host.Default(), f.state, update)
	require.ErrorIs(t, err, primitives.ErrMalformedMessage)
}

func TestClientState_Validate(t *testing.T) {
	f := newBeefyFixture(t, 0)
	require.NoError(t, f.state.Validate())

	bad := f.state
	bad.NextAuthorities = f.sets[2].Set
	require.ErrorIs(t, bad.Validate(), primitives.ErrMalformedMessage)

	bad = f.state
	bad.CurrentAuthorities.Len = 0
	require.ErrorIs(t, bad.Validate(), primitives.ErrMalformedMessage)
}
