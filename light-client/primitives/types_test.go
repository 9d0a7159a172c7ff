package primitives

import (
	"fmt"
	"testing"

	"github.com/ComposableFi/composable-sub011/testing/assert"
	"github.com/ComposableFi/composable-sub011/testing/require"
	"github.com/pkg/errors"
)

func TestHeight_Compare(t *testing.T) {
	tests := []struct {
		a, b Height
		want int
	}{
		{a: NewHeight(2000, 7), b: NewHeight(2000, 7), want: 0},
		{a: NewHeight(2000, 6), b: NewHeight(2000, 7), want: -1},
		{a: NewHeight(2001, 1), b: NewHeight(2000, 7), want: 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.a.Compare(tt.b))
	}
	assert.Equal(t, true, NewHeight(1, 1).LT(NewHeight(1, 2)))
	assert.Equal(t, true, NewHeight(1, 3).GT(NewHeight(1, 2)))
	assert.Equal(t, true, Height{}.IsZero())
}

func TestParseHeight(t *testing.T) {
	h, err := ParseHeight("2000-7")
	require.NoError(t, err)
	assert.Equal(t, NewHeight(2000, 7), h)
	assert.Equal(t, "2000-7", h.String())

	_, err = ParseHeight("seven")
	require.ErrorIs(t, err, ErrMalformedMessage)
}

func TestKind(t *testing.T) {
	wrapped := errors.Wrap(fmt.Errorf("%w: commitment 10 not above 10", ErrStaleUpdate), "update rejected")
	assert.Equal(t, ErrStaleUpdate, Kind(wrapped))
	assert.Equal(t, "stale", KindName(wrapped))
	assert.Equal(t, ErrMalformedMessage, Kind(LimitExceeded("headers", 3, 2)))
	assert.Equal(t, "other", KindName(errors.New("boom")))
	assert.Equal(t, nil, Kind(nil))
}
