package laik

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartitioningValidateIsIdempotent(t *testing.T) {
	s, err := NewSpace1D(10)
	require.NoError(t, err)

	calls := 0
	p := NewCustom("count", func(ba *BorderArray, space *Space, groupSize int, base *BorderArray) error {
		calls++
		ba.Append(0, space.FullRange(), 0)
		return nil
	})

	part := NewPartitioning("p1", nil, s, p, nil)
	assert.False(t, part.IsValid())

	ba1, err := part.borderArray()
	require.NoError(t, err)
	ba2, err := part.borderArray()
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.True(t, ba1.Equal(ba2))
	assert.True(t, part.IsValid())
}

func TestPartitioningInvalidateForcesRerun(t *testing.T) {
	s, err := NewSpace1D(10)
	require.NoError(t, err)

	calls := 0
	p := NewCustom("count", func(ba *BorderArray, space *Space, groupSize int, base *BorderArray) error {
		calls++
		ba.Append(0, space.FullRange(), 0)
		return nil
	})

	part := NewPartitioning("p1", nil, s, p, nil)
	_, err = part.borderArray()
	require.NoError(t, err)
	part.invalidate()
	assert.False(t, part.IsValid())
	_, err = part.borderArray()
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestPartitioningMySlice1DCoalesces(t *testing.T) {
	s, err := NewSpace1D(10)
	require.NoError(t, err)

	p := NewCustom("split", func(ba *BorderArray, space *Space, groupSize int, base *BorderArray) error {
		ba.Append(0, Range{Space: space, From: Index{I0: 0}, To: Index{I0: 3}}, 0)
		ba.Append(0, Range{Space: space, From: Index{I0: 3}, To: Index{I0: 5}}, 0)
		ba.Append(1, Range{Space: space, From: Index{I0: 5}, To: Index{I0: 10}}, 0)
		return nil
	})

	part := NewPartitioning("p1", nil, s, p, nil)
	_, err = part.borderArray()
	require.NoError(t, err)

	from, to, err := part.MySlice1D(0, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, from)
	assert.Equal(t, 5, to)
}

func TestPartitioningFingerprintStableAcrossValidate(t *testing.T) {
	s, err := NewSpace1D(10)
	require.NoError(t, err)
	p := NewAll()
	part := NewPartitioning("all", nil, s, p, nil)

	fp1, err := part.Fingerprint()
	require.NoError(t, err)
	fp2, err := part.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, fp1, fp2)
}
