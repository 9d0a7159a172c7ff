package grandpa_test

import (
	"testing"

	"github.com/ComposableFi/composable-sub011/light-client/grandpa"
	"github.com/ComposableFi/composable-sub011/light-client/primitives"
	"github.com/ComposableFi/composable-sub011/testing/assert"
	"github.com/ComposableFi/composable-sub011/testing/require"
	"github.com/ComposableFi/composable-sub011/testing/util"
)

func TestDecodeConsensusLog(t *testing.T) {
	next := util.NewGrandpaVoters(1, 3).Authorities

	scheduled, err := grandpa.EncodeScheduledChange(&grandpa.ScheduledChange{NextAuthorities: next, Delay: 5})
	require.NoError(t, err)
	l, err := grandpa.DecodeConsensusLog(scheduled)
	require.NoError(t, err)
	assert.Equal(t, uint8(1), l.Kind)
	assert.DeepEqual(t, next, l.Change.NextAuthorities)
	assert.Equal(t, uint32(5), l.Change.Delay)

	forced, err := grandpa.EncodeForcedChange(40, &grandpa.ScheduledChange{NextAuthorities: next})
	require.NoError(t, err)
	l, err = grandpa.DecodeConsensusLog(forced)
	require.NoError(t, err)
	assert.Equal(t, uint8(2), l.Kind)
	assert.Equal(t, uint32(40), l.Median)

	l, err = grandpa.DecodeConsensusLog([]byte{3, 2, 0, 0, 0, 0, 0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), l.Disabled)

	l, err = grandpa.DecodeConsensusLog([]byte{4, 9, 0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, uint32(9), l.Delay)

	_, err = grandpa.DecodeConsensusLog([]byte{9})
	require.ErrorIs(t, err, primitives.ErrMalformedMessage)
	_, err = grandpa.DecodeConsensusLog([]byte{5, 1})
	require.ErrorIs(t, err, primitives.ErrMalformedMessage)
	_, err = grandpa.DecodeConsensusLog(append(scheduled, 0))
	require.ErrorIs(t, err, primitives.ErrMalformedMessage)
}

func TestFindScheduledChange(t *testing.T) {
	next := util.NewGrandpaVoters(1, 3).Authorities
	forced, err := grandpa.EncodeForcedChange(40, &grandpa.ScheduledChange{NextAuthorities: next})
	require.NoError(t, err)
	header := &primitives.Header{Digest: []primitives.DigestItem{
		{Kind: primitives.DigestPreRuntime, Engine: primitives.BabeEngineID, Data: []byte{1}},
		{Kind: primitives.DigestConsensus, Engine: primitives.GrandpaEngineID, Data: forced},
	}}

	change, err := grandpa.FindScheduledChange(header)
	require.NoError(t, err)
	assert.Equal(t, (*grandpa.ScheduledChange)(nil), change)
	median, change, err := grandpa.FindForcedChange(header)
	require.NoError(t, err)
	assert.Equal(t, uint32(40), median)
	require.NotNil(t, change)
	assert.Equal(t, 3, len(change.NextAuthorities))

	header.Digest = append(header.Digest, util.ScheduledChangeDigest(t, next, 0))
	change, err = grandpa.FindScheduledChange(header)
	require.NoError(t, err)
	require.NotNil(t, change)
	assert.DeepEqual(t, next, change.NextAuthorities)

	header.Digest = []primitives.DigestItem{{Kind: primitives.DigestConsensus, Engine: primitives.GrandpaEngineID, Data: []byte{0xff}}}
	_, err = grandpa.FindScheduledChange(header)
	require.ErrorIs(t, err, primitives.ErrMalformedMessage)
}
