package patricia

import (
	"github.com/ComposableFi/composable-sub011/encoding/scaleutil"
	"github.com/pkg/errors"
)

const (
	headerEmpty         = 0x00
	headerLeaf          = 0b01 << 6
	headerBranchNoValue = 0b10 << 6
	headerBranchValue   = 0b11 << 6
	headerKindMask      = 0b11 << 6

	// Two bits of the header byte are taken by the node kind.
	nibbleCountMax = 0xff >> 2

	hashLength = 32
)

type nodeKind uint8

const (
	kindEmpty nodeKind = iota
	kindLeaf
	kindBranch
)

// node is a decoded trie node. Child references are either a 32 byte hash
// or an inline node encoding shorter than a hash.
type node struct {
	kind     nodeKind
	partial  []byte
	value    []byte
	hasValue bool
	children [16][]byte
}

func encodeHeader(prefix byte, nibbles int) []byte {
	if nibbles < nibbleCountMax {
		return []byte{prefix | byte(nibbles)}
	}
	out := []byte{prefix | nibbleCountMax}
	rem := nibbles - (nibbleCountMax - 1)
	for rem > 0 {
		if rem < 256 {
			out = append(out, byte(rem-1))
			break
		}
		out = append(out, 0xff)
		rem -= 255
	}
	return out
}

func encodePartial(nibbles []byte) []byte {
	out := make([]byte, 0, (len(nibbles)+1)/2)
	i := 0
	if len(nibbles)%2 == 1 {
		out = append(out, nibbles[0])
		i = 1
	}
	for ; i < len(nibbles); i += 2 {
		out = append(out, nibbles[i]<<4|nibbles[i+1])
	}
	return out
}

func encodeLeaf(partial, value []byte) []byte {
	out := encodeHeader(headerLeaf, len(partial))
	out = append(out, encodePartial(partial)...)
	out = append(out, scaleutil.EncodeCompact(uint64(len(value)))...)
	return append(out, value...)
}

func encodeBranch(partial []byte, value []byte, hasValue bool, children [16][]byte) []byte {
	prefix := byte(headerBranchNoValue)
	if hasValue {
		prefix = headerBranchValue
	}
	out := encodeHeader(prefix, len(partial))
	out = append(out, encodePartial(partial)...)
	var bitmap uint16
	for i, c := range children {
		if c != nil {
			bitmap |= 1 << uint(i)
		}
	}
	out = append(out, byte(bitmap), byte(bitmap>>8))
	if hasValue {
		out = append(out, scaleutil.EncodeCompact(uint64(len(value)))...)
		out = append(out, value...)
	}
	for _, c := range children {
		if c == nil {
			continue
		}
		out = append(out, scaleutil.EncodeCompact(uint64(len(c)))...)
		out = append(out, c...)
	}
	return out
}

func decodeNode(data []byte) (*node, error) {
	r := scaleutil.NewReader(data)
	first, err := r.ReadByte()
	if err != nil {
		return nil, errors.Wrap(ErrBadNode, "empty node encoding")
	}
	if first == headerEmpty {
		if err := r.Done(); err != nil {
			return nil, errors.Wrap(ErrBadNode, "trailing data after empty node")
		}
		return &node{kind: kindEmpty}, nil
	}
	n := &node{}
	switch first & headerKindMask {
	case headerLeaf:
		n.kind = kindLeaf
	case headerBranchNoValue:
		n.kind = kindBranch
	case headerBranchValue:
		n.kind = kindBranch
		n.hasValue = true
	default:
		return nil, errors.Wrapf(ErrBadNode, "unsupported node header 0x%02x", first)
	}
	count, err := decodeNibbleCount(first, r)
	if err != nil {
		return nil, err
	}
	partial, err := r.ReadFixed((count + 1) / 2)
	if err != nil {
		return nil, errors.Wrap(ErrBadNode, "truncated partial key")
	}
	if count%2 == 1 && partial[0]&0xf0 != 0 {
		return nil, errors.Wrap(ErrBadNode, "bad partial key padding")
	}
	n.partial = toNibbles(partial, count%2 == 1)

	if n.kind == kindLeaf {
		v, err := r.ReadBytes()
		if err != nil {
			return nil, errors.Wrap(ErrBadNode, "bad leaf value")
		}
		n.value = v
		n.hasValue = true
		if err := r.Done(); err != nil {
			return nil, errors.Wrap(ErrBadNode, err.Error())
		}
		return n, nil
	}

	bm, err := r.ReadFixed(2)
	if err != nil {
		return nil, errors.Wrap(ErrBadNode, "truncated bitmap")
	}
	bitmap := uint16(bm[0]) | uint16(bm[1])<<8
	if bitmap == 0 {
		return nil, errors.Wrap(ErrBadNode, "branch without children")
	}
	if n.hasValue {
		v, err := r.ReadBytes()
		if err != nil {
			return nil, errors.Wrap(ErrBadNode, "bad branch value")
		}
		n.value = v
	}
	for i := 0; i < 16; i++ {
		if bitmap&(1<<uint(i)) == 0 {
			continue
		}
		c, err := r.ReadBytes()
		if err != nil {
			return nil, errors.Wrap(ErrBadNode, "bad child reference")
		}
		if len(c) > hashLength {
			return nil, errors.Wrap(ErrBadNode, "child reference longer than a hash")
		}
		n.children[i] = c
	}
	if err := r.Done(); err != nil {
		return nil, errors.Wrap(ErrBadNode, err.Error())
	}
	return n, nil
}

func decodeNibbleCount(first byte, r *scaleutil.Reader) (int, error) {
	count := int(first & nibbleCountMax)
	if count < nibbleCountMax {
		return count, nil
	}
	count--
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, errors.Wrap(ErrBadNode, "truncated nibble count")
		}
		if b < 0xff {
			return count + int(b) + 1, nil
		}
		count += 255
		if count > 1<<16 {
			return 0, errors.Wrap(ErrBadNode, "partial key too long")
		}
	}
}

func toNibbles(b []byte, skipFirst bool) []byte {
	out := make([]byte, 0, len(b)*2)
	for i, c := range b {
		if !(i == 0 && skipFirst) {
			out = append(out, c>>4)
		}
		out = append(out, c&0x0f)
	}
	return out
}

// KeyToNibbles expands a byte key into its nibble path.
func KeyToNibbles(key []byte) []byte {
	return toNibbles(key, false)
}
