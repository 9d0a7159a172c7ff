// Package mmr implements the Merkle mountain range used by BEEFY to commit
// to the history of relay-chain blocks.
//
// Nodes are laid out in post-order. Parents are keccak256(left || right),
// and the root is formed by bagging the peaks from the right:
// the two right-most hashes are merged as merge(right, left) until one
// hash remains.
package mmr

import (
	"sort"

	"github.com/pkg/errors"
)

// HashFn hashes an arbitrary byte string to 32 bytes.
type HashFn func(data []byte) [32]byte

var (
	// ErrCorruptedProof is returned when proof items cannot be consumed exactly.
	ErrCorruptedProof = errors.New("corrupted mmr proof")
	// ErrEmptyMmr is returned when the range holds no leaves.
	ErrEmptyMmr = errors.New("empty mmr")
	// ErrNoLeaves is returned when a proof covers no leaves.
	ErrNoLeaves = errors.New("no leaves to prove")
)

// Leaf pairs a leaf index with its hash.
type Leaf struct {
	Index uint64
	Hash  [32]byte
}

type node struct {
	pos  uint64
	hash [32]byte
}

// MMR is an append-only in-memory mountain range.
type MMR struct {
	hasher HashFn
	nodes  [][32]byte
	leaves uint64
}

// New returns an empty mountain range.
func New(hasher HashFn) *MMR {
	return &MMR{hasher: hasher}
}

// Push appends a leaf hash and returns its position.
func (m *MMR) Push(leaf [32]byte) uint64 {
	pos := uint64(len(m.nodes))
	leafPos := pos
	m.nodes = append(m.nodes, leaf)
	height := uint32(0)
	for PosHeightInTree(pos+1) > height {
		pos++
		left := m.nodes[pos-parentOffset(height)]
		right := m.nodes[pos-1]
		m.nodes = append(m.nodes, merge(m.hasher, left, right))
		height++
	}
	m.leaves++
	return leafPos
}

// LeafCount is the number of leaves pushed.
func (m *MMR) LeafCount() uint64 {
	return m.leaves
}

// Size is the number of nodes.
func (m *MMR) Size() uint64 {
	return uint64(len(m.nodes))
}

// Root bags the current peaks.
func (m *MMR) Root() ([32]byte, error) {
	if len(m.nodes) == 0 {
		return [32]byte{}, ErrEmptyMmr
	}
	peaks := GetPeaks(m.Size())
	hashes := make([][32]byte, len(peaks))
	for i, p := range peaks {
		hashes[i] = m.nodes[p]
	}
	return bagPeaks(m.hasher, hashes)
}

// GenProof returns the proof items for the given leaf indices.
func (m *MMR) GenProof(indices []uint64) ([][32]byte, error) {
	if len(indices) == 0 {
		return nil, ErrNoLeaves
	}
	positions := make([]uint64, 0, len(indices))
	seen := make(map[uint64]bool, len(indices))
	for _, idx := range indices {
		if idx >= m.leaves {
			return nil, errors.Errorf("leaf index %d out of range %d", idx, m.leaves)
		}
		if seen[idx] {
			return nil, errors.Errorf("duplicate leaf index %d", idx)
		}
		seen[idx] = true
		positions = append(positions, LeafIndexToPos(idx))
	}
	sort.Slice(positions, func(i, j int) bool { return positions[i] < positions[j] })
	if m.Size() == 1 {
		return [][32]byte{}, nil
	}

	proof := make([][32]byte, 0)
	baggingTrack := 0
	for _, peak := range GetPeaks(m.Size()) {
		split := sort.Search(len(positions), func(i int) bool { return positions[i] > peak })
		forPeak := positions[:split]
		positions = positions[split:]
		if len(forPeak) == 0 {
			baggingTrack++
		} else {
			baggingTrack = 0
		}
		proof = m.genProofForPeak(proof, forPeak, peak)
	}
	if baggingTrack > 1 {
		rhs := make([][32]byte, baggingTrack)
		copy(rhs, proof[len(proof)-baggingTrack:])
		proof = proof[:len(proof)-baggingTrack]
		bagged, err := bagPeaks(m.hasher, rhs)
		if err != nil {
			return nil, err
		}
		proof = append(proof, bagged)
	}
	return proof, nil
}

func (m *MMR) genProofForPeak(proof [][32]byte, positions []uint64, peak uint64) [][32]byte {
	if len(positions) == 1 && positions[0] == peak {
		return proof
	}
	if len(positions) == 0 {
		return append(proof, m.nodes[peak])
	}
	queue := make([]struct {
		pos    uint64
		height uint32
	}, 0, len(positions))
	for _, p := range positions {
		queue = append(queue, struct {
			pos    uint64
			height uint32
		}{pos: p})
	}
	for len(queue) > 0 {
		head := queue[0]
		queue = queue[1:]
		if head.pos == peak {
			break
		}
		var sibling, parent uint64
		if PosHeightInTree(head.pos+1) > head.height {
			sibling = head.pos - siblingOffset(head.height)
			parent = head.pos + 1
		} else {
			sibling = head.pos + siblingOffset(head.height)
			parent = head.pos + parentOffset(head.height)
		}
		if len(queue) > 0 && queue[0].pos == sibling {
			queue = queue[1:]
		} else {
			proof = append(proof, m.nodes[sibling])
		}
		if parent < peak {
			queue = append(queue, struct {
				pos    uint64
				height uint32
			}{pos: parent, height: head.height + 1})
		}
	}
	return proof
}

// CalculateRoot recomputes the root of an MMR with leafCount leaves from the
// proven leaves and the proof items.
func CalculateRoot(hasher HashFn, leaves []Leaf, leafCount uint64, items [][32]byte) ([32]byte, error) {
	if len(leaves) == 0 {
		return [32]byte{}, ErrNoLeaves
	}
	if leafCount == 0 {
		return [32]byte{}, ErrEmptyMmr
	}
	nodes := make([]node, 0, len(leaves))
	seen := make(map[uint64]bool, len(leaves))
	for _, l := range leaves {
		if l.Index >= leafCount {
			return [32]byte{}, errors.Errorf("leaf index %d not below leaf count %d", l.Index, leafCount)
		}
		if seen[l.Index] {
			return [32]byte{}, errors.Errorf("duplicate leaf index %d", l.Index)
		}
		seen[l.Index] = true
		nodes = append(nodes, node{pos: LeafIndexToPos(l.Index), hash: l.Hash})
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].pos < nodes[j].pos })

	peaks, err := calculatePeaksHashes(hasher, nodes, MmrSizeFromLeafCount(leafCount), items)
	if err != nil {
		return [32]byte{}, err
	}
	return bagPeaks(hasher, peaks)
}

// VerifyLeaves reports whether the proof shows leaves are members of the
// MMR with the given root and leaf count.
func VerifyLeaves(hasher HashFn, root [32]byte, leaves []Leaf, leafCount uint64, items [][32]byte) (bool, error) {
	calculated, err := CalculateRoot(hasher, leaves, leafCount, items)
	if err != nil {
		return false, err
	}
	return calculated == root, nil
}

type proofIter struct {
	items [][32]byte
	next  int
}

func (p *proofIter) pop() ([32]byte, bool) {
	if p.next >= len(p.items) {
		return [32]byte{}, false
	}
	item := p.items[p.next]
	p.next++
	return item, true
}

func calculatePeaksHashes(hasher HashFn, leaves []node, mmrSize uint64, items [][32]byte) ([][32]byte, error) {
	if mmrSize == 1 && len(leaves) == 1 && leaves[0].pos == 0 {
		if len(items) != 0 {
			return nil, errors.Wrap(ErrCorruptedProof, "unexpected proof items for single leaf")
		}
		return [][32]byte{leaves[0].hash}, nil
	}
	proof := &proofIter{items: items}
	peaks := GetPeaks(mmrSize)
	hashes := make([][32]byte, 0, len(peaks)+1)
	for _, peak := range peaks {
		split := sort.Search(len(leaves), func(i int) bool { return leaves[i].pos > peak })
		forPeak := leaves[:split]
		leaves = leaves[split:]

		var root [32]byte
		if len(forPeak) == 1 && forPeak[0].pos == peak {
			root = forPeak[0].hash
		} else if len(forPeak) == 0 {
			// Peaks right of the last proven leaf may arrive bagged as one item.
			item, ok := proof.pop()
			if !ok {
				break
			}
			root = item
		} else {
			var err error
			root, err = calculatePeakRoot(hasher, forPeak, peak, proof)
			if err != nil {
				return nil, err
			}
		}
		hashes = append(hashes, root)
	}
	if len(leaves) != 0 {
		return nil, errors.Wrap(ErrCorruptedProof, "leaves beyond the last peak")
	}
	if rhs, ok := proof.pop(); ok {
		hashes = append(hashes, rhs)
	}
	if proof.next != len(proof.items) {
		return nil, errors.Wrapf(ErrCorruptedProof, "%d unused proof items", len(proof.items)-proof.next)
	}
	return hashes, nil
}

func calculatePeakRoot(hasher HashFn, leaves []node, peak uint64, proof *proofIter) ([32]byte, error) {
	type entry struct {
		pos    uint64
		hash   [32]byte
		height uint32
	}
	queue := make([]entry, 0, len(leaves))
	for _, l := range leaves {
		queue = append(queue, entry{pos: l.pos, hash: l.hash})
	}
	for len(queue) > 0 {
		head := queue[0]
		queue = queue[1:]
		if head.pos == peak {
			if len(queue) != 0 {
				return [32]byte{}, errors.Wrap(ErrCorruptedProof, "nodes left after reaching peak")
			}
			return head.hash, nil
		}
		var parentPos uint64
		var parent [32]byte
		if PosHeightInTree(head.pos+1) > head.height {
			sibling := head.pos - siblingOffset(head.height)
			parentPos = head.pos + 1
			var sib [32]byte
			if len(queue) > 0 && queue[0].pos == sibling {
				sib = queue[0].hash
				queue = queue[1:]
			} else {
				item, ok := proof.pop()
				if !ok {
					return [32]byte{}, errors.Wrap(ErrCorruptedProof, "proof exhausted")
				}
				sib = item
			}
			parent = merge(hasher, sib, head.hash)
		} else {
			sibling := head.pos + siblingOffset(head.height)
			parentPos = head.pos + parentOffset(head.height)
			var sib [32]byte
			if len(queue) > 0 && queue[0].pos == sibling {
				sib = queue[0].hash
				queue = queue[1:]
			} else {
				item, ok := proof.pop()
				if !ok {
					return [32]byte{}, errors.Wrap(ErrCorruptedProof, "proof exhausted")
				}
				sib = item
			}
			parent = merge(hasher, head.hash, sib)
		}
		if parentPos > peak {
			return [32]byte{}, errors.Wrap(ErrCorruptedProof, "parent beyond peak")
		}
		queue = append(queue, entry{pos: parentPos, hash: parent, height: head.height + 1})
	}
	return [32]byte{}, errors.Wrap(ErrCorruptedProof, "peak not reached")
}

func bagPeaks(hasher HashFn, peaks [][32]byte) ([32]byte, error) {
	if len(peaks) == 0 {
		return [32]byte{}, ErrCorruptedProof
	}
	stack := make([][32]byte, len(peaks))
	copy(stack, peaks)
	for len(stack) > 1 {
		right := stack[len(stack)-1]
		left := stack[len(stack)-2]
		stack = append(stack[:len(stack)-2], merge(hasher, right, left))
	}
	return stack[0], nil
}

func merge(hasher HashFn, left, right [32]byte) [32]byte {
	buf := make([]byte, 64)
	copy(buf, left[:])
	copy(buf[32:], right[:])
	return hasher(buf)
}
