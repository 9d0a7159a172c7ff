package scaleutil

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Reader walks a SCALE byte stream.
type Reader struct {
	data []byte
	off  int
}

// NewReader over b.
func NewReader(b []byte) *Reader {
	return &Reader{data: b}
}

// Len returns the number of unread bytes.
func (r *Reader) Len() int {
	return len(r.data) - r.off
}

// Done errors when unread bytes remain.
func (r *Reader) Done() error {
	if r.Len() != 0 {
		return errors.Wrapf(ErrDecode, "%d trailing bytes", r.Len())
	}
	return nil
}

// ReadFixed returns the next n bytes.
func (r *Reader) ReadFixed(n int) ([]byte, error) {
	if n < 0 || r.Len() < n {
		return nil, errors.Wrapf(ErrDecode, "need %d bytes, have %d", n, r.Len())
	}
	out := r.data[r.off : r.off+n]
	r.off += n
	return out, nil
}

// ReadByte returns the next byte.
func (r *Reader) ReadByte() (byte, error) {
	b, err := r.ReadFixed(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadHash reads a 32 byte array.
func (r *Reader) ReadHash() ([32]byte, error) {
	var out [32]byte
	b, err := r.ReadFixed(32)
	if err != nil {
		return out, err
	}
	copy(out[:], b)
	return out, nil
}

// ReadUint32 reads a fixed width little endian u32.
func (r *Reader) ReadUint32() (uint32, error) {
	b, err := r.ReadFixed(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadUint64 reads a fixed width little endian u64.
func (r *Reader) ReadUint64() (uint64, error) {
	b, err := r.ReadFixed(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// ReadCompact reads a compact integer that must fit in 64 bits. Encodings
// that are not the shortest form of their value are rejected.
func (r *Reader) ReadCompact() (uint64, error) {
	n, err := CompactLen(r.data[r.off:])
	if err != nil {
		return 0, err
	}
	if n > 9 {
		return 0, errors.Wrap(ErrDecode, "compact integer exceeds 64 bits")
	}
	raw, err := r.ReadFixed(n)
	if err != nil {
		return 0, err
	}
	switch raw[0] & 0b11 {
	case 0b00:
		return uint64(raw[0] >> 2), nil
	case 0b01:
		v := uint64(binary.LittleEndian.Uint16(raw) >> 2)
		if v < 1<<6 {
			return 0, errors.Wrapf(ErrDecode, "non-canonical compact %d in two byte mode", v)
		}
		return v, nil
	case 0b10:
		v := uint64(binary.LittleEndian.Uint32(raw) >> 2)
		if v < 1<<14 {
			return 0, errors.Wrapf(ErrDecode, "non-canonical compact %d in four byte mode", v)
		}
		return v, nil
	}
	body := raw[1:]
	if body[len(body)-1] == 0 {
		return 0, errors.Wrap(ErrDecode, "non-canonical compact with zero high byte")
	}
	var v uint64
	for i := len(body) - 1; i >= 0; i-- {
		v = v<<8 | uint64(body[i])
	}
	if v < 1<<30 {
		return 0, errors.Wrapf(ErrDecode, "non-canonical compact %d in big integer mode", v)
	}
	return v, nil
}

// ReadBytes reads a compact length prefixed byte vector.
func (r *Reader) ReadBytes() ([]byte, error) {
	l, err := r.ReadCompact()
	if err != nil {
		return nil, err
	}
	if l > uint64(r.Len()) {
		return nil, errors.Wrapf(ErrDecode, "vector of %d bytes exceeds remaining %d", l, r.Len())
	}
	b, err := r.ReadFixed(int(l))
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

// ReadLength reads a sequence length prefix, rejecting lengths that could not
// possibly be backed by the remaining input at minSize bytes per element.
func (r *Reader) ReadLength(minSize int) (int, error) {
	l, err := r.ReadCompact()
	if err != nil {
		return 0, err
	}
	if minSize < 1 {
		minSize = 1
	}
	if l > uint64(r.Len()/minSize) {
		return 0, errors.Wrapf(ErrDecode, "sequence of %d elements exceeds remaining input", l)
	}
	return int(l), nil
}

// Decode decodes a value of statically known size from the next n bytes.
func (r *Reader) Decode(n int, dst interface{}) error {
	b, err := r.ReadFixed(n)
	if err != nil {
		return err
	}
	return Unmarshal(b, dst)
}
