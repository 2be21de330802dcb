package laik

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSpaceValidatesExtents(t *testing.T) {
	_, err := NewSpace1D(0)
	require.Error(t, err)
	assert.IsType(t, &InvalidArgumentError{}, err)

	s, err := NewSpace2D(4, 5)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Dims())
	assert.Equal(t, 20, s.TotalSize())
}

func TestRangeContainsAndIntersect(t *testing.T) {
	s, err := NewSpace1D(10)
	require.NoError(t, err)

	a, err := NewRange(s, Index{I0: 2}, Index{I0: 8})
	require.NoError(t, err)
	b, err := NewRange(s, Index{I0: 5}, Index{I0: 9})
	require.NoError(t, err)

	assert.False(t, a.Contains(b))
	inter := a.Intersect(b)
	assert.Equal(t, 5, inter.From.I0)
	assert.Equal(t, 8, inter.To.I0)
	assert.Equal(t, 3, inter.Size())

	assert.True(t, a.ContainsIndex(Index{I0: 2}))
	assert.False(t, a.ContainsIndex(Index{I0: 8}))
}

func TestRangeNextWalksLexicographically(t *testing.T) {
	s, err := NewSpace1D(5)
	require.NoError(t, err)
	r, err := NewRange(s, Index{I0: 1}, Index{I0: 4})
	require.NoError(t, err)

	ix := r.From
	var seen []int
	for {
		seen = append(seen, ix.I0)
		next, more := r.Next(ix)
		if !more {
			break
		}
		ix = next
	}
	assert.Equal(t, []int{1, 2, 3}, seen)
}

func TestRangeNextPanicsOnMultiDim(t *testing.T) {
	s, err := NewSpace2D(3, 3)
	require.NoError(t, err)
	r := s.FullRange()
	assert.Panics(t, func() { r.Next(Index{}) })
}
