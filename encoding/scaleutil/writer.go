package scaleutil

import (
	"bytes"
)

// Writer accumulates a SCALE byte stream.
type Writer struct {
	buf bytes.Buffer
	err error
}

// Encode appends the gossamer encoding of v. The first failure sticks.
func (w *Writer) Encode(v interface{}) {
	if w.err != nil {
		return
	}
	enc, err := Marshal(v)
	if err != nil {
		w.err = err
		return
	}
	w.buf.Write(enc)
}

// WriteByte appends a single byte.
func (w *Writer) WriteByte(b byte) error {
	return w.buf.WriteByte(b)
}

// WriteRaw appends b without a length prefix.
func (w *Writer) WriteRaw(b []byte) {
	w.buf.Write(b)
}

// WriteCompact appends a compact integer.
func (w *Writer) WriteCompact(n uint64) {
	w.buf.Write(EncodeCompact(n))
}

// WriteBytes appends a compact length prefixed byte vector.
func (w *Writer) WriteBytes(b []byte) {
	w.WriteCompact(uint64(len(b)))
	w.buf.Write(b)
}

// Bytes returns the accumulated stream or the first encoding error.
func (w *Writer) Bytes() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	return w.buf.Bytes(), nil
}
