package laik

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func oneD(s *Space, task, from, to int) TaskSlice { return slice1D(s, task, from, to) }

func bordersFrom(slices ...TaskSlice) *BorderArray {
	ba := NewBorderArray()
	for _, s := range slices {
		ba.Append(s.Task, s.Range, s.MapNo)
	}
	ba.validate()
	return ba
}

func TestPlanTransferSplitsLocalSendRecv(t *testing.T) {
	s, err := NewSpace1D(10)
	require.NoError(t, err)

	oldBA := bordersFrom(oneD(s, 0, 0, 10))
	newBA := bordersFrom(oneD(s, 0, 0, 5), oneD(s, 1, 5, 10))

	plan0, err := planTransfer(oldBA, newBA, 0)
	require.NoError(t, err)
	require.Len(t, plan0.Local, 1)
	assert.Equal(t, 0, plan0.Local[0].Range.From.I0)
	assert.Equal(t, 5, plan0.Local[0].Range.To.I0)
	require.Len(t, plan0.Sends, 1)
	assert.Equal(t, 1, plan0.Sends[0].To)
	assert.Equal(t, 5, plan0.Sends[0].Range.From.I0)
	assert.Equal(t, 10, plan0.Sends[0].Range.To.I0)
	assert.Empty(t, plan0.Recvs)

	plan1, err := planTransfer(oldBA, newBA, 1)
	require.NoError(t, err)
	assert.Empty(t, plan1.Local)
	assert.Empty(t, plan1.Sends)
	require.Len(t, plan1.Recvs, 1)
	assert.Equal(t, 0, plan1.Recvs[0].From)
	assert.Equal(t, 5, plan1.Recvs[0].Range.From.I0)
	assert.Equal(t, 10, plan1.Recvs[0].Range.To.I0)
}

func TestPlanTransferOverlappingWritersLowerTaskWins(t *testing.T) {
	s, err := NewSpace1D(10)
	require.NoError(t, err)

	// Both task 0 and task 2 claim to own [0,10) under the old
	// partitioning; task 0, the lower id, must win the whole overlap.
	oldBA := bordersFrom(oneD(s, 2, 0, 10), oneD(s, 0, 0, 10))
	newBA := bordersFrom(oneD(s, 1, 0, 10))

	plan, err := planTransfer(oldBA, newBA, 1)
	require.NoError(t, err)
	require.Len(t, plan.Recvs, 1)
	assert.Equal(t, 0, plan.Recvs[0].From)
	assert.Equal(t, 0, plan.Recvs[0].Range.From.I0)
	assert.Equal(t, 10, plan.Recvs[0].Range.To.I0)
}

func TestPlanTransferNoOpWhenPartitioningUnchanged(t *testing.T) {
	s, err := NewSpace1D(6)
	require.NoError(t, err)
	ba := bordersFrom(oneD(s, 0, 0, 3), oneD(s, 1, 3, 6))

	plan0, err := planTransfer(ba, ba, 0)
	require.NoError(t, err)
	assert.Len(t, plan0.Local, 1)
	assert.Empty(t, plan0.Sends)
	assert.Empty(t, plan0.Recvs)
}
