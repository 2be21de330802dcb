package laik

import (
	"context"
	"encoding/binary"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/laik-go/laik/pkg/backend/inmem"
)

func readDouble(buf []byte, i int) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8 : i*8+8]))
}

// TestDataSwitchToInitThenCopyIn drives two simulated workers through
// Unbound -> Bound(master, Init) -> Bound(block, CopyIn), exercising the
// transfer planner's send/recv path end to end over the in-memory
// backend.
func TestDataSwitchToInitThenCopyIn(t *testing.T) {
	const n = 2
	be := inmem.New(n)
	defer be.Finalize()

	space, err := NewSpace1D(10)
	require.NoError(t, err)

	insts := make([]*Instance, n)
	datas := make([]*Data, n)
	for i := 0; i < n; i++ {
		insts[i] = NewInstance(be)
		datas[i] = insts[i].NewData("x", be.Worker(i), space, ElementDouble)
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	ctx := context.Background()

	run := func(step func(i int) error) {
		wg.Add(n)
		for i := 0; i < n; i++ {
			i := i
			go func() {
				defer wg.Done()
				errs[i] = step(i)
			}()
		}
		wg.Wait()
		for i := 0; i < n; i++ {
			require.NoError(t, errs[i])
		}
	}

	run(func(i int) error {
		master := NewPartitioning("master", be.Worker(i), space, NewMaster(), nil)
		return datas[i].SwitchTo(ctx, master, FlowInit(7))
	})

	buf0, count0, err := datas[0].MapDefault()
	require.NoError(t, err)
	assert.Equal(t, 10, count0)
	for i := 0; i < count0; i++ {
		assert.Equal(t, 7.0, readDouble(buf0, i))
	}

	_, count1, err := datas[1].MapDefault()
	require.NoError(t, err)
	assert.Equal(t, 0, count1)

	run(func(i int) error {
		block := NewPartitioning("block", be.Worker(i), space, NewBlock1D(BlockPartitionerOpt{Cycles: 1}), nil)
		return datas[i].SwitchTo(ctx, block, FlowCopyIn())
	})

	buf0, count0, err = datas[0].MapDefault()
	require.NoError(t, err)
	assert.Equal(t, 5, count0)
	for i := 0; i < count0; i++ {
		assert.Equal(t, 7.0, readDouble(buf0, i))
	}

	buf1, count1, err := datas[1].MapDefault()
	require.NoError(t, err)
	assert.Equal(t, 5, count1)
	for i := 0; i < count1; i++ {
		assert.Equal(t, 7.0, readDouble(buf1, i))
	}
}

func TestDataSwitchToRejectsCopyInFromUnbound(t *testing.T) {
	be := inmem.New(1)
	defer be.Finalize()
	space, err := NewSpace1D(4)
	require.NoError(t, err)

	inst := NewInstance(be)
	d := inst.NewData("x", be.Worker(0), space, ElementDouble)
	part := NewPartitioning("all", be.Worker(0), space, NewAll(), nil)

	err = d.SwitchTo(context.Background(), part, FlowCopyIn())
	require.Error(t, err)
	assert.IsType(t, &PreconditionFailedError{}, err)
}

func TestDataSwitchToRejectsConcurrentTransition(t *testing.T) {
	be := inmem.New(1)
	defer be.Finalize()
	space, err := NewSpace1D(4)
	require.NoError(t, err)

	inst := NewInstance(be)
	d := inst.NewData("x", be.Worker(0), space, ElementDouble)
	d.transitioning = true

	part := NewPartitioning("all", be.Worker(0), space, NewAll(), nil)
	err = d.SwitchTo(context.Background(), part, FlowInit(0))
	assert.ErrorIs(t, err, ErrBusy)
}
