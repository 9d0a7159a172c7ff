// Package scaleutil layers stream helpers over the gossamer SCALE codec.
//
// Plain structs are encoded and decoded by gossamer directly. Types that
// carry tagged enums (header digests, consensus logs, client variants) are
// walked with a Reader and Writer. Fixed width integers and compact prefixes
// are read directly off the stream; nested values whose extent is known are
// handed back to gossamer.
package scaleutil

import (
	"fmt"

	"github.com/ChainSafe/gossamer/pkg/scale"
	"github.com/pkg/errors"
)

// ErrDecode is returned for any malformed SCALE input.
var ErrDecode = errors.New("scale decode failure")

// Marshal encodes v.
func Marshal(v interface{}) ([]byte, error) {
	enc, err := scale.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "could not scale encode")
	}
	return enc, nil
}

// MustMarshal encodes v and panics on failure. Only for values whose type is
// statically known to be encodable.
func MustMarshal(v interface{}) []byte {
	return scale.MustMarshal(v)
}

// Unmarshal decodes data into dst. Length prefixes that cannot be allocated
// surface as errors rather than panics.
func Unmarshal(data []byte, dst interface{}) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrDecode, r)
		}
	}()
	if err := scale.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return nil
}

// CompactLen reports how many bytes the compact integer at the head of b
// occupies, without decoding it.
func CompactLen(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, errors.Wrap(ErrDecode, "empty compact")
	}
	var n int
	switch b[0] & 0b11 {
	case 0b00:
		n = 1
	case 0b01:
		n = 2
	case 0b10:
		n = 4
	default:
		n = int(b[0]>>2) + 5
	}
	if len(b) < n {
		return 0, errors.Wrapf(ErrDecode, "compact needs %d bytes, have %d", n, len(b))
	}
	return n, nil
}

// EncodeCompact returns the compact encoding of n.
func EncodeCompact(n uint64) []byte {
	return scale.MustMarshal(uint(n))
}
