package patricia

import (
	"bytes"
	"sort"

	"github.com/pkg/errors"
)

type entry struct {
	path  []byte
	value []byte
}

// Trie is an in-memory trie built from a complete key set.
type Trie struct {
	hasher HashFn
	root   [32]byte
	db     map[[32]byte][]byte
}

// Build constructs the trie holding kv.
func Build(hasher HashFn, kv map[string][]byte) (*Trie, error) {
	entries := make([]entry, 0, len(kv))
	for k, v := range kv {
		if v == nil {
			return nil, errors.Errorf("nil value for key %#x", k)
		}
		entries = append(entries, entry{path: KeyToNibbles([]byte(k)), value: v})
	}
	sort.Slice(entries, func(i, j int) bool { return bytes.Compare(entries[i].path, entries[j].path) < 0 })
	t := &Trie{hasher: hasher, db: make(map[[32]byte][]byte)}
	enc := t.build(entries, 0)
	t.root = hasher(enc)
	t.db[t.root] = enc
	return t, nil
}

// Root hash of the trie.
func (t *Trie) Root() [32]byte {
	return t.root
}

// Prove returns the nodes needed to read every key in keys, present or not.
func (t *Trie) Prove(keys ...[]byte) ([][]byte, error) {
	seen := make(map[[32]byte]bool)
	out := make([][]byte, 0)
	add := func(h [32]byte) ([]byte, error) {
		enc, ok := t.db[h]
		if !ok {
			return nil, errors.Wrapf(ErrIncompleteProof, "node %#x not in trie", h[:4])
		}
		if !seen[h] {
			seen[h] = true
			out = append(out, enc)
		}
		return enc, nil
	}
	for _, key := range keys {
		enc, err := add(t.root)
		if err != nil {
			return nil, err
		}
		path := KeyToNibbles(key)
		for {
			n, err := decodeNode(enc)
			if err != nil {
				return nil, err
			}
			if n.kind != kindBranch || !bytes.HasPrefix(path, n.partial) {
				break
			}
			path = path[len(n.partial):]
			if len(path) == 0 {
				break
			}
			child := n.children[path[0]]
			if child == nil {
				break
			}
			path = path[1:]
			if len(child) < hashLength {
				enc = child
				continue
			}
			var h [32]byte
			copy(h[:], child)
			if enc, err = add(h); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

func (t *Trie) build(entries []entry, depth int) []byte {
	switch len(entries) {
	case 0:
		return []byte{headerEmpty}
	case 1:
		return encodeLeaf(entries[0].path[depth:], entries[0].value)
	}
	prefix := commonPrefix(entries, depth)
	depth += prefix
	partial := entries[0].path[depth-prefix : depth]

	var value []byte
	hasValue := false
	if len(entries[0].path) == depth {
		// Sorted order puts the key ending at this branch first.
		value, hasValue = entries[0].value, true
		entries = entries[1:]
	}
	var children [16][]byte
	for start := 0; start < len(entries); {
		nibble := entries[start].path[depth]
		end := start
		for end < len(entries) && entries[end].path[depth] == nibble {
			end++
		}
		children[nibble] = t.reference(t.build(entries[start:end], depth+1))
		start = end
	}
	return encodeBranch(partial, value, hasValue, children)
}

func (t *Trie) reference(enc []byte) []byte {
	if len(enc) < hashLength {
		return enc
	}
	h := t.hasher(enc)
	t.db[h] = enc
	return h[:]
}

func commonPrefix(entries []entry, depth int) int {
	first := entries[0].path[depth:]
	n := len(first)
	for _, e := range entries[1:] {
		p := e.path[depth:]
		if len(p) < n {
			n = len(p)
		}
		for i := 0; i < n; i++ {
			if p[i] != first[i] {
				n = i
				break
			}
		}
	}
	return n
}
