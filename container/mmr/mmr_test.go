package mmr

import (
	"fmt"
	"testing"

	"github.com/ComposableFi/composable-sub011/crypto/hash"
	"github.com/ComposableFi/composable-sub011/testing/assert"
	"github.com/ComposableFi/composable-sub011/testing/require"
)

func keccak(data []byte) [32]byte {
	return hash.Keccak256(data)
}

func leafHash(i uint64) [32]byte {
	return keccak([]byte(fmt.Sprintf("leaf-%d", i)))
}

func buildMmr(t *testing.T, count uint64) *MMR {
	m := New(keccak)
	for i := uint64(0); i < count; i++ {
		pos := m.Push(leafHash(i))
		require.Equal(t, LeafIndexToPos(i), pos)
	}
	require.Equal(t, MmrSizeFromLeafCount(count), m.Size())
	return m
}

func TestPositions(t *testing.T) {
	wantPos := []uint64{0, 1, 3, 4, 7, 8, 10, 11, 15}
	for i, want := range wantPos {
		assert.Equal(t, want, LeafIndexToPos(uint64(i)))
	}
	wantSize := []uint64{1, 3, 4, 7, 8, 10, 11, 15}
	for i, want := range wantSize {
		assert.Equal(t, want, MmrSizeFromLeafCount(uint64(i+1)))
	}
	assert.Equal(t, uint32(0), PosHeightInTree(0))
	assert.Equal(t, uint32(1), PosHeightInTree(2))
	assert.Equal(t, uint32(2), PosHeightInTree(6))
	assert.Equal(t, uint32(0), PosHeightInTree(7))
	assert.Equal(t, uint32(3), PosHeightInTree(14))
	assert.DeepEqual(t, []uint64{6, 9, 10}, GetPeaks(11))
	assert.DeepEqual(t, []uint64{0}, GetPeaks(1))
	assert.DeepEqual(t, []uint64{2, 3}, GetPeaks(4))
}

func TestRoot_BagsFromTheRight(t *testing.T) {
	m := buildMmr(t, 3)
	ab := merge(keccak, leafHash(0), leafHash(1))
	want := merge(keccak, leafHash(2), ab)
	root, err := m.Root()
	require.NoError(t, err)
	assert.Equal(t, want, root)

	_, err = New(keccak).Root()
	require.ErrorIs(t, err, ErrEmptyMmr)
}

func TestProof_RoundTrip(t *testing.T) {
	tests := []struct {
		count   uint64
		indices []uint64
	}{
		{count: 1, indices: []uint64{0}},
		{count: 2, indices: []uint64{1}},
		{count: 5, indices: []uint64{0}},
		{count: 7, indices: []uint64{6}},
		{count: 7, indices: []uint64{2, 5}},
		{count: 11, indices: []uint64{0, 3, 9, 10}},
		{count: 16, indices: []uint64{15}},
		{count: 19, indices: []uint64{4}},
		{count: 23, indices: []uint64{1, 2, 3, 17}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_leaves_%v", tt.count, tt.indices), func(t *testing.T) {
			m := buildMmr(t, tt.count)
			root, err := m.Root()
			require.NoError(t, err)
			items, err := m.GenProof(tt.indices)
			require.NoError(t, err)

			leaves := make([]Leaf, len(tt.indices))
			for i, idx := range tt.indices {
				leaves[i] = Leaf{Index: idx, Hash: leafHash(idx)}
			}
			ok, err := VerifyLeaves(keccak, root, leaves, tt.count, items)
			require.NoError(t, err)
			assert.Equal(t, true, ok)

			leaves[0].Hash = leafHash(1000)
			ok, err = VerifyLeaves(keccak, root, leaves, tt.count, items)
			if err == nil {
				assert.Equal(t, false, ok)
			}
		})
	}
}

func TestProof_EveryLeaf(t *testing.T) {
	for count := uint64(1); count <= 33; count++ {
		m := buildMmr(t, count)
		root, err := m.Root()
		require.NoError(t, err)
		for idx := uint64(0); idx < count; idx++ {
			items, err := m.GenProof([]uint64{idx})
			require.NoError(t, err)
			ok, err := VerifyLeaves(keccak, root, []Leaf{{Index: idx, Hash: leafHash(idx)}}, count, items)
			require.NoError(t, err, "count %d index %d", count, idx)
			require.Equal(t, true, ok, "count %d index %d", count, idx)
		}
	}
}

func TestCalculateRoot_Rejects(t *testing.T) {
	m := buildMmr(t, 7)
	items, err := m.GenProof([]uint64{3})
	require.NoError(t, err)
	leaf := Leaf{Index: 3, Hash: leafHash(3)}

	_, err = CalculateRoot(keccak, nil, 7, items)
	require.ErrorIs(t, err, ErrNoLeaves)

	_, err = CalculateRoot(keccak, []Leaf{leaf, leaf}, 7, items)
	require.ErrorContains(t, "duplicate leaf index 3", err)

	_, err = CalculateRoot(keccak, []Leaf{leaf}, 3, items)
	require.ErrorContains(t, "not below leaf count", err)

	root, err := m.Root()
	require.NoError(t, err)
	ok, err := VerifyLeaves(keccak, root, []Leaf{leaf}, 7, append(items, [32]byte{1}, [32]byte{2}))
	if err == nil {
		assert.Equal(t, false, ok)
	}

	_, err = CalculateRoot(keccak, []Leaf{leaf}, 7, append(items, [32]byte{1}, [32]byte{2}, [32]byte{3}))
	require.ErrorIs(t, err, ErrCorruptedProof)

	_, err = CalculateRoot(keccak, []Leaf{leaf}, 7, items[:1])
	require.ErrorIs(t, err, ErrCorruptedProof)

	_, err = m.GenProof([]uint64{7})
	require.ErrorContains(t, "out of range", err)
}
