// Package patricia implements the Substrate base-16 Patricia-Merkle trie
// (state version 0) as far as light clients need it: checking storage
// proofs against a state or extrinsics root, and building tries and proofs
// for fixtures and tooling.
//
// A proof is an unordered set of encoded trie nodes. Nodes whose encoding is
// at least 32 bytes are referenced by their BLAKE2b-256 hash. Shorter nodes
// are embedded in their parent.
package patricia

import (
	"bytes"

	"github.com/pkg/errors"
)

// HashFn hashes a node encoding.
type HashFn func(data []byte) [32]byte

var (
	// ErrBadNode is returned for node encodings that do not decode.
	ErrBadNode = errors.New("malformed trie node")
	// ErrIncompleteProof is returned when a node needed for the lookup is missing.
	ErrIncompleteProof = errors.New("incomplete trie proof")
	// ErrValueMismatch is returned when the proven value differs from the expected one.
	ErrValueMismatch = errors.New("trie value mismatch")
	// ErrTooManyNodes is returned when a proof exceeds the caller's node limit.
	ErrTooManyNodes = errors.New("trie proof has too many nodes")
)

// Proof indexes proof nodes by hash.
type Proof struct {
	hasher HashFn
	nodes  map[[32]byte][]byte
}

// NewProof indexes the given encoded nodes. maxNodes of 0 disables the limit.
func NewProof(hasher HashFn, nodes [][]byte, maxNodes int) (*Proof, error) {
	if maxNodes > 0 && len(nodes) > maxNodes {
		return nil, errors.Wrapf(ErrTooManyNodes, "%d nodes, limit %d", len(nodes), maxNodes)
	}
	p := &Proof{hasher: hasher, nodes: make(map[[32]byte][]byte, len(nodes))}
	for _, n := range nodes {
		p.nodes[hasher(n)] = n
	}
	return p, nil
}

// Read returns the value stored under key in the trie with the given root.
// A nil value with a nil error proves the key is absent.
func (p *Proof) Read(root [32]byte, key []byte) ([]byte, error) {
	enc, ok := p.nodes[root]
	if !ok {
		return nil, errors.Wrap(ErrIncompleteProof, "root node missing")
	}
	path := KeyToNibbles(key)
	for {
		n, err := decodeNode(enc)
		if err != nil {
			return nil, err
		}
		switch n.kind {
		case kindEmpty:
			return nil, nil
		case kindLeaf:
			if bytes.Equal(n.partial, path) {
				return n.value, nil
			}
			return nil, nil
		}
		if !bytes.HasPrefix(path, n.partial) {
			return nil, nil
		}
		path = path[len(n.partial):]
		if len(path) == 0 {
			if n.hasValue {
				return n.value, nil
			}
			return nil, nil
		}
		child := n.children[path[0]]
		if child == nil {
			return nil, nil
		}
		path = path[1:]
		if len(child) < hashLength {
			enc = child
			continue
		}
		var h [32]byte
		copy(h[:], child)
		next, ok := p.nodes[h]
		if !ok {
			return nil, errors.Wrapf(ErrIncompleteProof, "node %#x missing", h[:4])
		}
		enc = next
	}
}

// ReadProof is a convenience wrapper over NewProof and Read.
func ReadProof(hasher HashFn, root [32]byte, nodes [][]byte, key []byte, maxNodes int) ([]byte, error) {
	p, err := NewProof(hasher, nodes, maxNodes)
	if err != nil {
		return nil, err
	}
	return p.Read(root, key)
}

// VerifyProof checks that key maps to expected under root. A nil expected
// value requires the key to be absent.
func VerifyProof(hasher HashFn, root [32]byte, nodes [][]byte, key, expected []byte, maxNodes int) error {
	got, err := ReadProof(hasher, root, nodes, key, maxNodes)
	if err != nil {
		return err
	}
	switch {
	case expected == nil && got == nil:
		return nil
	case expected == nil:
		return errors.Wrap(ErrValueMismatch, "key present, expected absent")
	case got == nil:
		return errors.Wrap(ErrValueMismatch, "key absent")
	case !bytes.Equal(expected, got):
		return errors.Wrap(ErrValueMismatch, "value differs")
	}
	return nil
}
