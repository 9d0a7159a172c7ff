package client_test

import (
	"testing"

	"github.com/ComposableFi/composable-sub011/crypto/hash"
	"github.com/ComposableFi/composable-sub011/light-client/client"
	"github.com/ComposableFi/composable-sub011/light-client/parachain"
	"github.com/ComposableFi/composable-sub011/light-client/primitives"
	"github.com/ComposableFi/composable-sub011/testing/util"
)

const testParaID = 2000

// store is an in-memory ConsensusReader.
type store map[primitives.Height]primitives.ConsensusState

func (s store) ConsensusState(height primitives.Height) (*primitives.ConsensusState, error) {
	cs, ok := s[height]
	if !ok {
		return nil, nil
	}
	return &cs, nil
}

func (s store) apply(updates []primitives.ConsensusUpdate) {
	for _, u := range updates {
		s[u.Height] = u.ConsensusState
	}
}

// beefyClient has para 2000 genesis committed at relay block 3 and para
// block 7 at relay block 5, with relay blocks up to 10 in the MMR.
type beefyClient struct {
	chain *util.BeefyChain
	sets  []*util.BeefyAuthorities
	state *client.BeefyClientState
	block *util.ParachainBlock
}

func newBeefyClient(t *testing.T) *beefyClient {
	sets := []*util.BeefyAuthorities{
		util.NewBeefyAuthorities(t, 0, 5),
		util.NewBeefyAuthorities(t, 1, 5),
	}
	chain := util.NewBeefyChain(0)
	genesis := util.NewParachainBlock(t, 0, hash.Blake2b256([]byte("P0")), 0)
	block := util.NewParachainBlock(t, 7, hash.Blake2b256([]byte("P7")), 1_690_000_000_000)
	chain.ExtendTo(t, 2, sets[1].Set)
	chain.AddBlock(t, 3, sets[1].Set, map[uint32]*util.ParachainBlock{testParaID: genesis})
	chain.AddBlock(t, 4, sets[1].Set, nil)
	chain.AddBlock(t, 5, sets[1].Set, map[uint32]*util.ParachainBlock{testParaID: block})
	chain.ExtendTo(t, 10, sets[1].Set)
	return &beefyClient{
		chain: chain,
		sets:  sets,
		state: &client.BeefyClientState{
			ParaID:             testParaID,
			CurrentAuthorities: sets[0].Set,
			NextAuthorities:    sets[1].Set,
		},
		block: block,
	}
}

// header carries the MMR update to block 10 and the para headers committed
// at the given relay blocks.
func (c *beefyClient) header(t *testing.T, relayBlocks ...uint32) *client.BeefyHeader {
	return &client.BeefyHeader{
		MmrUpdateProof:   c.chain.MmrUpdate(t, c.sets[0], util.Range(4)),
		HeadersWithProof: c.headers(t, relayBlocks...),
	}
}

func (c *beefyClient) headers(t *testing.T, relayBlocks ...uint32) *client.ParachainHeadersWithProof {
	proof := c.chain.ParachainsUpdate(t, testParaID, relayBlocks...)
	return &client.ParachainHeadersWithProof{
		Headers:   proof.ParachainHeaders,
		MmrProofs: proof.MmrProof.Items,
	}
}

// grandpaClient finalizes relay blocks on top of block 100. Relay blocks
// built with paraBlock store a parachain head.
type grandpaClient struct {
	voters *util.GrandpaVoters
	chain  *util.RelayChain
	state  *client.GrandpaClientState
	proofs map[primitives.Hash]*parachain.HeaderProofs
}

func newGrandpaClient(t *testing.T) *grandpaClient {
	voters := util.NewGrandpaVoters(0, 5)
	chain := util.NewRelayChain(t, 100)
	return &grandpaClient{
		voters: voters,
		chain:  chain,
		state: &client.GrandpaClientState{
			ParaID:             testParaID,
			LatestRelayHeight:  100,
			LatestRelayHash:    chain.Hash(100),
			CurrentAuthorities: voters.Authorities,
		},
		proofs: make(map[primitives.Hash]*parachain.HeaderProofs),
	}
}

func (c *grandpaClient) paraBlock(t *testing.T, number uint32) *util.ParachainBlock {
	pb := util.NewParachainBlock(t, number, hash.Blake2b256([]byte{byte(number)}), 1_690_000_000_000+uint64(number)*6000)
	rs := util.NewRelayState(t, map[uint32][]byte{testParaID: pb.Encoded})
	relayHash := c.chain.Extend(t, rs.Root())
	c.proofs[relayHash] = rs.HeaderProofs(t, testParaID, pb)
	return pb
}

func (c *grandpaClient) header(t *testing.T, from, to uint32) *client.GrandpaHeader {
	j := c.voters.Justification(1, c.chain.Vote(to), []int{0, 1, 2, 3})
	h := &client.GrandpaHeader{}
	h.FinalityProof = c.chain.FinalityProof(t, from, to, j)
	h.ParachainHeaders = c.proofs
	return h
}
