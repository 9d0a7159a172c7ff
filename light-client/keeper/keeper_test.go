package keeper_test

import (
	"context"
	"testing"
	"time"

	"github.com/ComposableFi/composable-sub011/container/patricia"
	"github.com/ComposableFi/composable-sub011/crypto/hash"
	"github.com/ComposableFi/composable-sub011/db/iface"
	dbtest "github.com/ComposableFi/composable-sub011/db/testing"
	"github.com/ComposableFi/composable-sub011/light-client/client"
	"github.com/ComposableFi/composable-sub011/light-client/grandpa"
	"github.com/ComposableFi/composable-sub011/light-client/keeper"
	"github.com/ComposableFi/composable-sub011/light-client/parachain"
	"github.com/ComposableFi/composable-sub011/light-client/primitives"
	"github.com/ComposableFi/composable-sub011/testing/assert"
	"github.com/ComposableFi/composable-sub011/testing/require"
	"github.com/ComposableFi/composable-sub011/testing/util"
	logTest "github.com/sirupsen/logrus/hooks/test"
)

const testParaID = 2000

var (
	ibcKey   = []byte("ibc/clients/11-beefy-0/clientState")
	ibcValue = []byte("a counterparty client state that is long enough to be hashed")
	// 2023-07-22, the timestamp of parachain block 7.
	now = time.Unix(1_690_000_042, 0)
)

type env struct {
	db       iface.Database
	keeper   *keeper.Keeper
	voters   *util.GrandpaVoters
	chain    *util.RelayChain
	clientID string
	storage  *patricia.Trie
	upgraded *client.GrandpaClientState
	upCons   *primitives.ConsensusState
}

// newEnv creates a GRANDPA client at para height 5 and relay block 100, and
// builds relay blocks 101 (holding para block 7) and 102.
func newEnv(t *testing.T, clock func() time.Time) *env {
	ctx := context.Background()
	db := dbtest.SetupDB(t)
	k, err := keeper.New(&keeper.Config{Database: db, Clock: clock})
	require.NoError(t, err)

	voters := util.NewGrandpaVoters(0, 5)
	chain := util.NewRelayChain(t, 100)
	cs := &client.GrandpaClientState{
		ParaID:             testParaID,
		LatestParaHeight:   5,
		LatestRelayHeight:  100,
		LatestRelayHash:    chain.Hash(100),
		CurrentAuthorities: voters.Authorities,
	}
	id, err := k.CreateClient(ctx, cs, &primitives.ConsensusState{Timestamp: 1, Root: primitives.Hash{5}})
	require.NoError(t, err)

	next := util.NewGrandpaVoters(1, 4)
	upgraded := &client.GrandpaClientState{
		ParaID:             testParaID,
		LatestParaHeight:   20,
		LatestRelayHeight:  200,
		CurrentSetID:       1,
		CurrentAuthorities: next.Authorities,
	}
	upCons := &primitives.ConsensusState{Timestamp: 2_000_000_000_000_000_000, Root: primitives.Hash{20}}
	encUpgraded, err := client.EncodeClientState(upgraded)
	require.NoError(t, err)
	storage, err := patricia.Build(hash.Blake2b256, map[string][]byte{
		string(ibcKey):                           ibcValue,
		string(client.ClientStateUpgradePath):    encUpgraded,
		string(client.ConsensusStateUpgradePath): client.EncodeConsensusState(upCons),
	})
	require.NoError(t, err)

	return &env{
		db:       db,
		keeper:   k,
		voters:   voters,
		chain:    chain,
		clientID: id,
		storage:  storage,
		upgraded: upgraded,
		upCons:   upCons,
	}
}

// header finalizes relay block 102 with para block 7 stored at relay block 101.
func (e *env) header(t *testing.T) *client.GrandpaHeader {
	pb := util.NewParachainBlock(t, 7, e.storage.Root(), 1_690_000_042_000)
	rs := util.NewRelayState(t, map[uint32][]byte{testParaID: pb.Encoded})
	relayHash := e.chain.Extend(t, rs.Root())
	e.chain.Extend(t, primitives.Hash{})
	j := e.voters.Justification(1, e.chain.Vote(102), []int{0, 1, 2, 3})
	h := &client.GrandpaHeader{}
	h.FinalityProof = e.chain.FinalityProof(t, 100, 102, j)
	h.ParachainHeaders = map[primitives.Hash]*parachain.HeaderProofs{relayHash: rs.HeaderProofs(t, testParaID, pb)}
	return h
}

func (e *env) proof(t *testing.T, key []byte) []byte {
	nodes, err := e.storage.Prove(key)
	require.NoError(t, err)
	return client.EncodeStorageProof(nodes)
}

func (e *env) misbehaviour() *client.Misbehaviour {
	return &client.Misbehaviour{GrandpaEquivocations: []grandpa.Equivocation{
		e.voters.Equivocation(0, 3, 103),
		e.voters.Equivocation(4, 3, 103),
	}}
}

func fixedClock() time.Time { return now }

func TestKeeper_CreateClient(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, fixedClock)
	assert.Equal(t, "10-grandpa-0", e.clientID)

	clientType, err := e.keeper.ClientType(ctx, e.clientID)
	require.NoError(t, err)
	assert.Equal(t, client.GrandpaClientType, clientType)
	cons, err := e.keeper.ConsensusState(ctx, e.clientID, primitives.NewHeight(testParaID, 5))
	require.NoError(t, err)
	assert.Equal(t, primitives.Hash{5}, cons.Root)

	cs, err := e.keeper.ClientState(ctx, e.clientID)
	require.NoError(t, err)
	err = e.keeper.Create(ctx, e.clientID, cs, cons)
	require.ErrorIs(t, err, keeper.ErrClientExists)

	id, err := e.keeper.GenerateClientID(ctx, client.BeefyClientType)
	require.NoError(t, err)
	assert.Equal(t, "11-beefy-1", id)

	ids, err := e.keeper.ClientIDs(ctx)
	require.NoError(t, err)
	assert.DeepEqual(t, []string{"10-grandpa-0"}, ids)
}

func TestKeeper_CreateRejectsInvalidState(t *testing.T) {
	e := newEnv(t, fixedClock)
	err := e.keeper.Create(context.Background(), "10-grandpa-9", &client.GrandpaClientState{ParaID: testParaID}, &primitives.ConsensusState{})
	require.ErrorIs(t, err, primitives.ErrMalformedMessage)
}

func TestKeeper_Update(t *testing.T) {
	hook := logTest.NewGlobal()
	ctx := context.Background()
	e := newEnv(t, fixedClock)

	res, err := e.keeper.Update(ctx, e.clientID, e.header(t))
	require.NoError(t, err)
	assert.Equal(t, keeper.OutcomeUpdated, res.Outcome)
	require.Equal(t, 1, len(res.ConsensusUpdates))
	assert.Equal(t, primitives.NewHeight(testParaID, 7), res.ClientState.LatestHeight())
	require.LogsContain(t, hook, "Updated client")
	require.LogsDoNotContain(t, hook, "ahead of local clock")

	heights, err := e.keeper.ConsensusHeights(ctx, e.clientID)
	require.NoError(t, err)
	assert.DeepEqual(t, []primitives.Height{primitives.NewHeight(testParaID, 5), primitives.NewHeight(testParaID, 7)}, heights)
	cons, err := e.keeper.ConsensusState(ctx, e.clientID, primitives.NewHeight(testParaID, 7))
	require.NoError(t, err)
	assert.Equal(t, e.storage.Root(), [32]byte(cons.Root))
	assert.Equal(t, uint64(now.UnixNano()), cons.Timestamp)

	stored, err := e.db.ClientState(ctx, e.clientID)
	require.NoError(t, err)
	assert.Equal(t, primitives.NewHeight(testParaID, 7), stored.LatestHeight())
	status, err := e.keeper.Status(ctx, e.clientID)
	require.NoError(t, err)
	assert.Equal(t, client.Active, status)
}

func TestKeeper_UpdateRejected(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, fixedClock)
	header := e.header(t)
	_, err := e.keeper.Update(ctx, e.clientID, header)
	require.NoError(t, err)

	_, err = e.keeper.Update(ctx, e.clientID, header)
	require.ErrorIs(t, err, primitives.ErrStaleUpdate)
	cs, err := e.keeper.ClientState(ctx, e.clientID)
	require.NoError(t, err)
	assert.Equal(t, primitives.NewHeight(testParaID, 7), cs.LatestHeight())

	_, err = e.keeper.Update(ctx, "10-grandpa-7", header)
	require.ErrorIs(t, err, keeper.ErrClientNotFound)
}

func TestKeeper_ClockDriftWarning(t *testing.T) {
	hook := logTest.NewGlobal()
	e := newEnv(t, func() time.Time { return now.Add(-time.Hour) })
	res, err := e.keeper.Update(context.Background(), e.clientID, e.header(t))
	require.NoError(t, err)
	assert.Equal(t, 1, len(res.ConsensusUpdates))
	require.LogsContain(t, hook, "ahead of local clock")
}

func TestKeeper_Misbehaviour(t *testing.T) {
	hook := logTest.NewGlobal()
	ctx := context.Background()
	e := newEnv(t, fixedClock)
	header := e.header(t)
	_, err := e.keeper.Update(ctx, e.clientID, header)
	require.NoError(t, err)

	res, err := e.keeper.Update(ctx, e.clientID, e.misbehaviour())
	require.NoError(t, err)
	assert.Equal(t, keeper.OutcomeMisbehaviour, res.Outcome)
	require.NotNil(t, res.ClientState.FrozenHeight())
	assert.Equal(t, primitives.NewHeight(testParaID, 7), *res.ClientState.FrozenHeight())
	require.LogsContain(t, hook, "Misbehaviour detected")

	status, err := e.keeper.Status(ctx, e.clientID)
	require.NoError(t, err)
	assert.Equal(t, client.Frozen, status)
	stored, err := e.db.ClientState(ctx, e.clientID)
	require.NoError(t, err)
	assert.Equal(t, true, stored.IsFrozen())

	_, err = e.keeper.Update(ctx, e.clientID, e.misbehaviour())
	require.ErrorIs(t, err, primitives.ErrFrozen)
	err = e.keeper.VerifyMembership(ctx, e.clientID, primitives.NewHeight(testParaID, 7), nil, e.proof(t, ibcKey), ibcKey, ibcValue)
	require.ErrorIs(t, err, primitives.ErrFrozen)
}

func TestKeeper_InsufficientMisbehaviourRejected(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, fixedClock)
	msg := &client.Misbehaviour{GrandpaEquivocations: []grandpa.Equivocation{e.voters.Equivocation(0, 3, 103)}}
	_, err := e.keeper.Update(ctx, e.clientID, msg)
	require.ErrorIs(t, err, grandpa.ErrInsufficientEquivocations)
	status, err := e.keeper.Status(ctx, e.clientID)
	require.NoError(t, err)
	assert.Equal(t, client.Active, status)
}

func TestKeeper_VerifyMembership(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, fixedClock)
	_, err := e.keeper.Update(ctx, e.clientID, e.header(t))
	require.NoError(t, err)
	height := primitives.NewHeight(testParaID, 7)
	prefix := []byte("ibc/")
	path := ibcKey[len(prefix):]

	require.NoError(t, e.keeper.VerifyMembership(ctx, e.clientID, height, prefix, e.proof(t, ibcKey), path, ibcValue))
	err = e.keeper.VerifyMembership(ctx, e.clientID, height, prefix, e.proof(t, ibcKey), path, []byte("forged"))
	require.ErrorIs(t, err, primitives.ErrProofFailure)

	absent := []byte("ibc/clients/11-beefy-1/clientState")
	require.NoError(t, e.keeper.VerifyNonMembership(ctx, e.clientID, height, prefix, e.proof(t, absent), absent[len(prefix):]))

	err = e.keeper.VerifyMembership(ctx, e.clientID, primitives.NewHeight(testParaID, 6), prefix, e.proof(t, ibcKey), path, ibcValue)
	require.ErrorIs(t, err, keeper.ErrConsensusStateNotFound)
	err = e.keeper.VerifyNonMembership(ctx, e.clientID, primitives.NewHeight(testParaID, 8), prefix, e.proof(t, absent), absent[len(prefix):])
	require.ErrorIs(t, err, client.ErrInsufficientHeight)
}

func TestKeeper_Upgrade(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, fixedClock)
	_, err := e.keeper.Update(ctx, e.clientID, e.header(t))
	require.NoError(t, err)

	next, err := e.keeper.Upgrade(ctx, e.clientID, e.upgraded, e.upCons,
		e.proof(t, client.ClientStateUpgradePath), e.proof(t, client.ConsensusStateUpgradePath))
	require.NoError(t, err)
	assert.Equal(t, primitives.NewHeight(testParaID, 20), next.LatestHeight())

	cons, err := e.keeper.ConsensusState(ctx, e.clientID, primitives.NewHeight(testParaID, 20))
	require.NoError(t, err)
	assert.DeepEqual(t, e.upCons, cons)
	stored, err := e.db.ClientState(ctx, e.clientID)
	require.NoError(t, err)
	gs, ok := stored.(*client.GrandpaClientState)
	require.Equal(t, true, ok)
	assert.Equal(t, uint64(1), gs.CurrentSetID)
	assert.Equal(t, uint32(200), gs.LatestRelayHeight)
	assert.Equal(t, 4, len(gs.CurrentAuthorities))
}

func TestKeeper_UpgradeRejectsUncommittedState(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, fixedClock)
	_, err := e.keeper.Update(ctx, e.clientID, e.header(t))
	require.NoError(t, err)

	forged := *e.upgraded
	forged.LatestParaHeight = 21
	_, err = e.keeper.Upgrade(ctx, e.clientID, &forged, e.upCons,
		e.proof(t, client.ClientStateUpgradePath), e.proof(t, client.ConsensusStateUpgradePath))
	require.ErrorIs(t, err, primitives.ErrProofFailure)
	cs, err := e.keeper.ClientState(ctx, e.clientID)
	require.NoError(t, err)
	assert.Equal(t, primitives.NewHeight(testParaID, 7), cs.LatestHeight())
}
