// Package merkle implements the binary Merkle tree that commits to BEEFY
// authority sets and parachain heads.
//
// Leaves are supplied pre-hashed. Nodes at positions 2i and 2i+1 of a layer
// are merged into position i of the next layer with keccak256 over the pair
// in ascending byte order. An unpaired last node is promoted to the next
// layer unchanged. Multi-proofs list, layer by layer, the siblings that
// cannot be derived from the proven leaves, in ascending position order.
package merkle

import (
	"bytes"
	"sort"

	"github.com/pkg/errors"
)

// HashFn hashes an arbitrary byte string to 32 bytes.
type HashFn func(data []byte) [32]byte

var (
	// ErrNoLeaves is returned when a tree or proof covers no leaves.
	ErrNoLeaves = errors.New("no leaves provided")
	// ErrInvalidProof is returned when a proof cannot be consumed exactly.
	ErrInvalidProof = errors.New("invalid merkle proof")
)

// Tree holds every layer of a binary Merkle tree, leaves first.
type Tree struct {
	layers [][][32]byte
	hasher HashFn
}

// NewTree builds a tree over already hashed leaves.
func NewTree(hasher HashFn, leaves [][32]byte) (*Tree, error) {
	if len(leaves) == 0 {
		return nil, ErrNoLeaves
	}
	layer := make([][32]byte, len(leaves))
	copy(layer, leaves)
	layers := [][][32]byte{layer}
	for len(layer) > 1 {
		next := make([][32]byte, 0, (len(layer)+1)/2)
		for i := 0; i < len(layer); i += 2 {
			if i+1 == len(layer) {
				next = append(next, layer[i])
				continue
			}
			next = append(next, merge(hasher, layer[i], layer[i+1]))
		}
		layers = append(layers, next)
		layer = next
	}
	return &Tree{layers: layers, hasher: hasher}, nil
}

// Root of the tree.
func (t *Tree) Root() [32]byte {
	return t.layers[len(t.layers)-1][0]
}

// LeafCount is the number of leaves the tree was built from.
func (t *Tree) LeafCount() uint64 {
	return uint64(len(t.layers[0]))
}

// Leaf returns the hashed leaf at index.
func (t *Tree) Leaf(index uint64) ([32]byte, error) {
	if index >= t.LeafCount() {
		return [32]byte{}, errors.Errorf("leaf index %d out of range %d", index, t.LeafCount())
	}
	return t.layers[0][index], nil
}

// MultiProof returns the proof items for the given leaf indices.
func (t *Tree) MultiProof(indices []uint64) ([][32]byte, error) {
	known, err := initialPositions(indices, t.LeafCount())
	if err != nil {
		return nil, err
	}
	proof := make([][32]byte, 0)
	for depth := 0; depth < len(t.layers)-1; depth++ {
		layer := t.layers[depth]
		width := uint64(len(layer))
		next := make(map[uint64]struct{}, len(known))
		for _, pos := range sortedKeys(known) {
			sibling := pos ^ 1
			if sibling < width {
				if _, ok := known[sibling]; !ok {
					proof = append(proof, layer[sibling])
				}
			}
			next[pos/2] = struct{}{}
		}
		known = next
	}
	return proof, nil
}

// CalculateRoot derives the root committed to by a multi-proof over leaves at
// the given indices of a tree with total leaves.
func CalculateRoot(hasher HashFn, indices []uint64, leaves [][32]byte, total uint64, proof [][32]byte) ([32]byte, error) {
	if len(indices) != len(leaves) {
		return [32]byte{}, errors.Errorf("%d indices for %d leaves", len(indices), len(leaves))
	}
	positions, err := initialPositions(indices, total)
	if err != nil {
		return [32]byte{}, err
	}
	known := make(map[uint64][32]byte, len(positions))
	for i, idx := range indices {
		known[idx] = leaves[i]
	}
	width := total
	cursor := 0
	for width > 1 {
		next := make(map[uint64][32]byte, len(known))
		for _, pos := range sortedHashKeys(known) {
			if _, done := next[pos/2]; done {
				continue
			}
			node := known[pos]
			sibling := pos ^ 1
			switch {
			case sibling >= width:
				next[pos/2] = node
			default:
				sib, ok := known[sibling]
				if !ok {
					if cursor >= len(proof) {
						return [32]byte{}, errors.Wrap(ErrInvalidProof, "proof exhausted")
					}
					sib = proof[cursor]
					cursor++
				}
				next[pos/2] = merge(hasher, node, sib)
			}
		}
		known = next
		width = (width + 1) / 2
	}
	if cursor != len(proof) {
		return [32]byte{}, errors.Wrapf(ErrInvalidProof, "%d unused proof items", len(proof)-cursor)
	}
	return known[0], nil
}

// VerifyMultiProof reports whether the proof shows leaves at indices are part
// of the tree with the given root and leaf count.
func VerifyMultiProof(hasher HashFn, root [32]byte, indices []uint64, leaves [][32]byte, total uint64, proof [][32]byte) bool {
	calculated, err := CalculateRoot(hasher, indices, leaves, total, proof)
	if err != nil {
		return false
	}
	return calculated == root
}

func merge(hasher HashFn, a, b [32]byte) [32]byte {
	buf := make([]byte, 64)
	if bytes.Compare(a[:], b[:]) <= 0 {
		copy(buf, a[:])
		copy(buf[32:], b[:])
	} else {
		copy(buf, b[:])
		copy(buf[32:], a[:])
	}
	return hasher(buf)
}

func initialPositions(indices []uint64, total uint64) (map[uint64]struct{}, error) {
	if len(indices) == 0 {
		return nil, ErrNoLeaves
	}
	positions := make(map[uint64]struct{}, len(indices))
	for _, idx := range indices {
		if idx >= total {
			return nil, errors.Errorf("leaf index %d out of range %d", idx, total)
		}
		if _, ok := positions[idx]; ok {
			return nil, errors.Errorf("duplicate leaf index %d", idx)
		}
		positions[idx] = struct{}{}
	}
	return positions, nil
}

func sortedKeys(m map[uint64]struct{}) []uint64 {
	keys := make([]uint64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func sortedHashKeys(m map[uint64][32]byte) []uint64 {
	keys := make([]uint64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
