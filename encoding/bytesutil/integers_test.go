package bytesutil_test

import (
	"testing"

	"github.com/ComposableFi/composable-sub011/encoding/bytesutil"
	"github.com/ComposableFi/composable-sub011/testing/assert"
)

func TestBytes4(t *testing.T) {
	tests := []struct {
		a uint64
		b []byte
	}{
		{0, []byte{0, 0, 0, 0}},
		{256, []byte{0, 1, 0, 0}},
		{2000, []byte{0xd0, 0x07, 0, 0}},
		{16777217, []byte{1, 0, 0, 1}},
		{4294967295, []byte{255, 255, 255, 255}},
	}
	for _, tt := range tests {
		b := bytesutil.Bytes4(tt.a)
		assert.DeepEqual(t, tt.b, b)
		assert.Equal(t, tt.a, bytesutil.FromBytes4(b))
	}
}

func TestBytes8(t *testing.T) {
	tests := []struct {
		a uint64
		b []byte
	}{
		{0, []byte{0, 0, 0, 0, 0, 0, 0, 0}},
		{4294967297, []byte{1, 0, 0, 0, 1, 0, 0, 0}},
		{9223372036854775807, []byte{255, 255, 255, 255, 255, 255, 255, 127}},
	}
	for _, tt := range tests {
		b := bytesutil.Bytes8(tt.a)
		assert.DeepEqual(t, tt.b, b)
		assert.Equal(t, tt.a, bytesutil.FromBytes8(b))
	}
}

func TestUint64ToBytesBigEndian_RoundTrip(t *testing.T) {
	for _, v := range []uint64{0, 1, 7, 1 << 40} {
		b := bytesutil.Uint64ToBytesBigEndian(v)
		assert.Equal(t, v, bytesutil.BytesToUint64BigEndian(b))
	}
	assert.Equal(t, uint64(0), bytesutil.BytesToUint64BigEndian([]byte{1}))
}

func TestSafeCopyBytes(t *testing.T) {
	var empty []byte
	assert.DeepEqual(t, empty, bytesutil.SafeCopyBytes(nil))
	src := []byte{1, 2, 3}
	cp := bytesutil.SafeCopyBytes(src)
	src[0] = 9
	assert.DeepEqual(t, []byte{1, 2, 3}, cp)

	cp2 := bytesutil.SafeCopy2dBytes([][]byte{{1}, {2}})
	assert.DeepEqual(t, [][]byte{{1}, {2}}, cp2)
}
