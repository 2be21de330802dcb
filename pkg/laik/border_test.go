package laik

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBorderArraySortsByTaskMapNoThenFrom(t *testing.T) {
	s, err := NewSpace1D(20)
	require.NoError(t, err)

	ba := NewBorderArray()
	ba.Append(1, Range{Space: s, From: Index{I0: 0}, To: Index{I0: 5}}, 0)
	ba.Append(0, Range{Space: s, From: Index{I0: 10}, To: Index{I0: 15}}, 0)
	ba.Append(0, Range{Space: s, From: Index{I0: 0}, To: Index{I0: 5}}, 0)
	ba.validate()

	require.Equal(t, 3, ba.Count())
	assert.Equal(t, 0, ba.GetTask(0))
	assert.Equal(t, 0, ba.GetRange(0).From.I0)
	assert.Equal(t, 0, ba.GetTask(1))
	assert.Equal(t, 10, ba.GetRange(1).From.I0)
	assert.Equal(t, 1, ba.GetTask(2))
}

func TestBorderArrayIterForTaskMatchesLinearScan(t *testing.T) {
	s, err := NewSpace1D(20)
	require.NoError(t, err)

	ba := NewBorderArray()
	for t := 0; t < 4; t++ {
		ba.Append(t, Range{Space: s, From: Index{I0: t * 5}, To: Index{I0: t*5 + 5}}, 0)
	}
	ba.Append(2, Range{Space: s, From: Index{I0: 100}, To: Index{I0: 105}}, 1)
	ba.validate()

	got := ba.SlicesForTask(2)
	require.Len(t, got, 2)
	assert.Equal(t, 10, got[0].Range.From.I0)
	assert.Equal(t, 1, got[1].MapNo)
}

func TestBorderArrayAppendPanicsAfterFreeze(t *testing.T) {
	ba := NewBorderArray()
	ba.validate()
	assert.Panics(t, func() {
		ba.Append(0, Range{}, 0)
	})
}

func TestBorderArrayEqual(t *testing.T) {
	s, err := NewSpace1D(10)
	require.NoError(t, err)

	a := NewBorderArray()
	a.Append(0, Range{Space: s, From: Index{I0: 0}, To: Index{I0: 5}}, 0)
	a.validate()

	b := NewBorderArray()
	b.Append(0, Range{Space: s, From: Index{I0: 0}, To: Index{I0: 5}}, 0)
	b.validate()

	assert.True(t, a.Equal(b))

	c := NewBorderArray()
	c.validate()
	assert.False(t, a.Equal(c))
}
