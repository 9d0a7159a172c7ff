package util

import (
	"crypto/ecdsa"
	"sort"
	"testing"

	"github.com/ComposableFi/composable-sub011/container/merkle"
	"github.com/ComposableFi/composable-sub011/container/mmr"
	lcecdsa "github.com/ComposableFi/composable-sub011/crypto/ecdsa"
	"github.com/ComposableFi/composable-sub011/crypto/hash"
	"github.com/ComposableFi/composable-sub011/encoding/bytesutil"
	"github.com/ComposableFi/composable-sub011/light-client/beefy"
	"github.com/ComposableFi/composable-sub011/light-client/host"
	"github.com/ComposableFi/composable-sub011/light-client/primitives"
	"github.com/ComposableFi/composable-sub011/testing/require"
)

// BeefyAuthorities is a deterministic BEEFY authority set and its keys.
type BeefyAuthorities struct {
	Keys []*ecdsa.PrivateKey
	Set  beefy.AuthoritySet
	tree *merkle.Tree
}

// NewBeefyAuthorities derives n authorities for set id. Keys differ across
// set ids.
func NewBeefyAuthorities(t testing.TB, setID uint64, n int) *BeefyAuthorities {
	h := host.Default()
	keys := make([]*ecdsa.PrivateKey, n)
	compressed := make([][33]byte, n)
	leaves := make([][32]byte, n)
	for i := 0; i < n; i++ {
		var seed [32]byte
		seed[0] = byte(setID + 1)
		seed[1] = byte(i + 1)
		seed[31] = 0x42
		priv, err := lcecdsa.KeyFromSeed(seed)
		require.NoError(t, err)
		keys[i] = priv
		compressed[i] = lcecdsa.CompressedKey(priv)
		leaf, err := beefy.AuthorityLeaf(h, compressed[i])
		require.NoError(t, err)
		leaves[i] = leaf
	}
	set, err := beefy.AuthoritySetFromKeys(h, setID, compressed)
	require.NoError(t, err)
	tree, err := merkle.NewTree(h.Keccak256, leaves)
	require.NoError(t, err)
	return &BeefyAuthorities{Keys: keys, Set: set, tree: tree}
}

// Proof returns the authority multi-proof for indices.
func (a *BeefyAuthorities) Proof(t testing.TB, indices []uint32) []primitives.Hash {
	idx := make([]uint64, len(indices))
	for i, v := range indices {
		idx[i] = uint64(v)
	}
	items, err := a.tree.MultiProof(idx)
	require.NoError(t, err)
	out := make([]primitives.Hash, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out
}

// SignVote signs c with the key of authority index.
func (a *BeefyAuthorities) SignVote(t testing.TB, c beefy.Commitment, index uint32) beefy.SignedVote {
	digest, err := beefy.CommitmentDigest(host.Default(), &c)
	require.NoError(t, err)
	sig, err := lcecdsa.Sign(a.Keys[index], digest)
	require.NoError(t, err)
	return beefy.SignedVote{Commitment: c, Signature: sig}
}

// Sign collects signatures over c from signers.
func (a *BeefyAuthorities) Sign(t testing.TB, c beefy.Commitment, signers []uint32) beefy.SignedCommitment {
	sc := beefy.SignedCommitment{Commitment: c}
	for _, idx := range signers {
		vote := a.SignVote(t, c, idx)
		sc.Signatures = append(sc.Signatures, beefy.SignatureWithAuthorityIndex{Index: idx, Signature: vote.Signature})
	}
	return sc
}

// Equivocation has authority index sign two commitments for block that
// differ in their MMR root.
func (a *BeefyAuthorities) Equivocation(t testing.TB, index uint32, block uint32) beefy.VoteEquivocation {
	first := MmrRootCommitment(hash.Keccak256([]byte("first")), block, a.Set.ID)
	second := MmrRootCommitment(hash.Keccak256([]byte("second")), block, a.Set.ID)
	return beefy.VoteEquivocation{
		AuthorityIndex: index,
		AuthorityProof: a.Proof(t, []uint32{index}),
		First:          a.SignVote(t, first, index),
		Second:         a.SignVote(t, second, index),
	}
}

// Range returns the indices 0..n-1.
func Range(n int) []uint32 {
	out := make([]uint32, n)
	for i := range out {
		out[i] = uint32(i)
	}
	return out
}

// MmrRootCommitment builds a commitment carrying root as its MMR root.
func MmrRootCommitment(root primitives.Hash, block uint32, setID uint64) beefy.Commitment {
	return beefy.Commitment{
		Payload:        []beefy.PayloadItem{{ID: beefy.MmrRootID, Data: append([]byte(nil), root[:]...)}},
		BlockNumber:    block,
		ValidatorSetID: setID,
	}
}

type beefyBlock struct {
	leaf   beefy.MmrLeaf
	heads  []beefy.ParaHead
	tree   *merkle.Tree
	blocks map[uint32]*ParachainBlock
}

// BeefyChain tracks the MMR a relay chain builds from its BEEFY leaves.
type BeefyChain struct {
	Activation uint32
	mmr        *mmr.MMR
	blocks     map[uint32]*beefyBlock
	latest     uint32
}

// NewBeefyChain starts an empty MMR for the given activation block.
func NewBeefyChain(activation uint32) *BeefyChain {
	return &BeefyChain{
		Activation: activation,
		mmr:        mmr.New(host.Default().Keccak256),
		blocks:     make(map[uint32]*beefyBlock),
	}
}

// AddBlock appends the leaf of relay block number, committing to next and
// to the heads of paras. A filler head is committed when paras is empty.
func (c *BeefyChain) AddBlock(t testing.TB, number uint32, next beefy.AuthoritySet, paras map[uint32]*ParachainBlock) {
	h := host.Default()
	idx, err := beefy.LeafIndex(c.Activation, number)
	require.NoError(t, err)
	require.Equal(t, c.mmr.LeafCount(), idx, "blocks must be added in order")

	heads := make([]beefy.ParaHead, 0, len(paras)+1)
	for id, pb := range paras {
		heads = append(heads, beefy.ParaHead{ParaID: id, Head: pb.Encoded})
	}
	if len(heads) == 0 {
		heads = append(heads, beefy.ParaHead{ParaID: 1000, Head: bytesutil.Bytes4(uint64(number))})
	}
	sort.Slice(heads, func(i, j int) bool { return heads[i].ParaID < heads[j].ParaID })
	leaves := make([][32]byte, len(heads))
	for i, head := range heads {
		leaf, err := beefy.ParaHeadLeaf(h, head.ParaID, head.Head)
		require.NoError(t, err)
		leaves[i] = leaf
	}
	tree, err := merkle.NewTree(h.Keccak256, leaves)
	require.NoError(t, err)

	leaf := beefy.MmrLeaf{
		Version:               beefy.NewMmrLeafVersion(0, 0),
		ParentNumber:          number - 1,
		ParentHash:            hash.Blake2b256(bytesutil.Bytes4(uint64(number - 1))),
		BeefyNextAuthoritySet: next,
		LeafExtra:             tree.Root(),
	}
	leafHash, err := leaf.Hash(h.Keccak256)
	require.NoError(t, err)
	c.mmr.Push(leafHash)
	c.blocks[number] = &beefyBlock{leaf: leaf, heads: heads, tree: tree, blocks: paras}
	c.latest = number
}

// ExtendTo appends filler blocks up to and including number.
func (c *BeefyChain) ExtendTo(t testing.TB, number uint32, next beefy.AuthoritySet) {
	first := c.latest + 1
	if c.mmr.LeafCount() == 0 {
		first = c.Activation
		if first == 0 {
			first = 1
		}
	}
	for b := first; b <= number; b++ {
		c.AddBlock(t, b, next, nil)
	}
}

// Root is the current MMR root.
func (c *BeefyChain) Root(t testing.TB) primitives.Hash {
	root, err := c.mmr.Root()
	require.NoError(t, err)
	return root
}

// LeafCount is the number of leaves in the MMR.
func (c *BeefyChain) LeafCount() uint64 {
	return c.mmr.LeafCount()
}

// Leaf returns the MMR leaf of relay block number.
func (c *BeefyChain) Leaf(number uint32) beefy.MmrLeaf {
	return c.blocks[number].leaf
}

// MmrUpdate builds an update to the latest block signed by signers of auth.
func (c *BeefyChain) MmrUpdate(t testing.TB, auth *BeefyAuthorities, signers []uint32) *beefy.MmrUpdateProof {
	commitment := MmrRootCommitment(c.Root(t), c.latest, auth.Set.ID)
	return c.MmrUpdateFor(t, auth, commitment, signers)
}

// MmrUpdateFor builds an update for an arbitrary commitment about the
// latest block.
func (c *BeefyChain) MmrUpdateFor(t testing.TB, auth *BeefyAuthorities, commitment beefy.Commitment, signers []uint32) *beefy.MmrUpdateProof {
	idx := c.mmr.LeafCount() - 1
	items, err := c.mmr.GenProof([]uint64{idx})
	require.NoError(t, err)
	return &beefy.MmrUpdateProof{
		SignedCommitment: auth.Sign(t, commitment, signers),
		LatestMmrLeaf:    c.blocks[c.latest].leaf,
		MmrProof: beefy.MmrProof{
			LeafIndex: idx,
			LeafCount: c.mmr.LeafCount(),
			Items:     toHashes(items),
		},
		AuthorityProof: auth.Proof(t, signers),
	}
}

// ParachainHeader proves the head of paraID committed at relay block number.
func (c *BeefyChain) ParachainHeader(t testing.TB, number uint32, paraID uint32) beefy.ParachainHeader {
	b, ok := c.blocks[number]
	require.Equal(t, true, ok, "unknown relay block")
	pb, ok := b.blocks[paraID]
	require.Equal(t, true, ok, "parachain not included")
	pos := sort.Search(len(b.heads), func(i int) bool { return b.heads[i].ParaID >= paraID })
	proof, err := b.tree.MultiProof([]uint64{uint64(pos)})
	require.NoError(t, err)
	return beefy.ParachainHeader{
		ParachainHeader: pb.Encoded,
		PartialMmrLeaf: beefy.PartialMmrLeaf{
			Version:               b.leaf.Version,
			ParentNumber:          b.leaf.ParentNumber,
			ParentHash:            b.leaf.ParentHash,
			BeefyNextAuthoritySet: b.leaf.BeefyNextAuthoritySet,
		},
		ParaID:              paraID,
		ParachainHeadsProof: toHashes(proof),
		HeadsLeafIndex:      uint32(pos),
		HeadsTotalCount:     uint32(len(b.heads)),
		ExtrinsicProof:      pb.ExtrinsicProof,
		TimestampExtrinsic:  pb.Extrinsic,
	}
}

// MmrBatchProof proves the leaves of the given relay blocks against the
// current MMR.
func (c *BeefyChain) MmrBatchProof(t testing.TB, numbers ...uint32) beefy.MmrBatchProof {
	indices := make([]uint64, len(numbers))
	for i, n := range numbers {
		idx, err := beefy.LeafIndex(c.Activation, n)
		require.NoError(t, err)
		indices[i] = idx
	}
	items, err := c.mmr.GenProof(indices)
	require.NoError(t, err)
	return beefy.MmrBatchProof{LeafIndices: indices, LeafCount: c.mmr.LeafCount(), Items: toHashes(items)}
}

// ParachainsUpdate proves the heads of paraID committed at the given relay blocks.
func (c *BeefyChain) ParachainsUpdate(t testing.TB, paraID uint32, numbers ...uint32) *beefy.ParachainsUpdateProof {
	headers := make([]beefy.ParachainHeader, len(numbers))
	for i, n := range numbers {
		headers[i] = c.ParachainHeader(t, n, paraID)
	}
	return &beefy.ParachainsUpdateProof{ParachainHeaders: headers, MmrProof: c.MmrBatchProof(t, numbers...)}
}

func toHashes(items [][32]byte) []primitives.Hash {
	out := make([]primitives.Hash, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out
}
