package laik

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sliceLengths(ba *BorderArray, groupSize int) []int {
	out := make([]int, groupSize)
	for i := 0; i < ba.Count(); i++ {
		s := ba.Get(i)
		out[s.Task] += s.Range.Size()
	}
	return out
}

func TestBlockPartitionerUniformWeights(t *testing.T) {
	s, err := NewSpace1D(10)
	require.NoError(t, err)

	p := NewBlock1D(BlockPartitionerOpt{PDim: 0, Cycles: 1})
	ba := NewBorderArray()
	require.NoError(t, p.Run(ba, s, 4, nil))
	ba.validate()

	lengths := sliceLengths(ba, 4)
	total := 0
	for _, n := range lengths {
		total += n
	}
	assert.Equal(t, 10, total)
	// Every task gets a contiguous share within one of two sizes.
	for _, n := range lengths {
		assert.Contains(t, []int{2, 3}, n)
	}
}

func TestBlockPartitionerSkewedTaskWeights(t *testing.T) {
	s, err := NewSpace1D(4)
	require.NoError(t, err)

	weights := []float64{1, 1, 1, 5}
	p := NewBlock1D(BlockPartitionerOpt{
		PDim:       0,
		Cycles:     1,
		TaskWeight: func(t int) float64 { return weights[t] },
	})
	ba := NewBorderArray()
	require.NoError(t, p.Run(ba, s, 2, nil))
	ba.validate()

	require.Equal(t, 2, ba.Count())
	assert.Equal(t, 0, ba.GetTask(0))
	assert.Equal(t, 0, ba.GetRange(0).From.I0)
	assert.Equal(t, 3, ba.GetRange(0).To.I0)
	assert.Equal(t, 1, ba.GetTask(1))
	assert.Equal(t, 3, ba.GetRange(1).From.I0)
	assert.Equal(t, 4, ba.GetRange(1).To.I0)
}

func TestBlockPartitionerRejectsBadDim(t *testing.T) {
	s, err := NewSpace1D(4)
	require.NoError(t, err)
	p := NewBlock1D(BlockPartitionerOpt{PDim: 3})
	ba := NewBorderArray()
	err = p.Run(ba, s, 2, nil)
	require.Error(t, err)
	assert.IsType(t, &InvalidArgumentError{}, err)
}

func TestCopyPartitionerRequiresBase(t *testing.T) {
	s, err := NewSpace2D(4, 4)
	require.NoError(t, err)
	p := NewCopy(0, 1)
	ba := NewBorderArray()
	err = p.Run(ba, s, 2, nil)
	require.Error(t, err)
	assert.IsType(t, &PreconditionFailedError{}, err)
}

func TestCopyPartitionerDerivesFromBase(t *testing.T) {
	s, err := NewSpace2D(4, 4)
	require.NoError(t, err)

	base := NewBorderArray()
	base.Append(0, Range{Space: s, From: Index{I0: 0, I1: 0}, To: Index{I0: 2, I1: 4}}, 0)
	base.Append(1, Range{Space: s, From: Index{I0: 2, I1: 0}, To: Index{I0: 4, I1: 4}}, 0)
	base.validate()

	p := NewCopy(0, 1)
	ba := NewBorderArray()
	require.NoError(t, p.Run(ba, s, 2, base))
	ba.validate()

	require.Equal(t, 2, ba.Count())
	assert.Equal(t, 0, ba.GetTask(0))
	assert.Equal(t, 0, ba.GetRange(0).From.I1)
	assert.Equal(t, 2, ba.GetRange(0).To.I1)
}

func TestAllAndMasterPartitioners(t *testing.T) {
	s, err := NewSpace1D(6)
	require.NoError(t, err)

	all := NewAll()
	ba := NewBorderArray()
	require.NoError(t, all.Run(ba, s, 3, nil))
	ba.validate()
	assert.Equal(t, 3, ba.Count())

	master := NewMaster()
	mba := NewBorderArray()
	require.NoError(t, master.Run(mba, s, 3, nil))
	mba.validate()
	require.Equal(t, 1, mba.Count())
	assert.Equal(t, 0, mba.GetTask(0))
}
