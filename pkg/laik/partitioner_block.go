package laik

// IndexWeightFunc returns the weight of index i along the partitioned
// dimension. A nil func defaults to uniform weight 1.
type IndexWeightFunc func(i int) float64

// TaskWeightFunc returns the weight of task t. A nil func defaults to
// uniform weight 1.
type TaskWeightFunc func(t int) float64

// BlockPartitionerOpt configures NewBlock1D.
type BlockPartitionerOpt struct {
	PDim       int // which axis to split
	Cycles     int // >= 1
	IdxWeight  IndexWeightFunc
	TaskWeight TaskWeightFunc
}

// blockPartitioner implements the 1-D balanced-block algorithm of spec
// §4.E: split the PDim axis into contiguous segments whose weighted
// sums balance across the group over Cycles passes.
type blockPartitioner struct {
	opt BlockPartitionerOpt
}

// NewBlock1D returns the "block" partitioner with the given options.
// Cycles defaults to 1 if less than 1.
func NewBlock1D(opt BlockPartitionerOpt) Partitioner {
	if opt.Cycles < 1 {
		opt.Cycles = 1
	}
	return &blockPartitioner{opt: opt}
}

func (p *blockPartitioner) Name() string { return "block" }

func (p *blockPartitioner) Run(ba *BorderArray, space *Space, groupSize int, _ *BorderArray) error {
	if p.opt.PDim < 0 || p.opt.PDim >= space.Dims() {
		return &InvalidArgumentError{Field: "pdim", Reason: "dimension out of range for space"}
	}
	if groupSize <= 0 {
		return &PreconditionFailedError{Op: "block", Reason: "group must have at least one task"}
	}

	idxWeight := p.opt.IdxWeight
	if idxWeight == nil {
		idxWeight = func(int) float64 { return 1 }
	}
	taskWeight := p.opt.TaskWeight
	if taskWeight == nil {
		taskWeight = func(int) float64 { return 1 }
	}

	size := space.Size(p.opt.PDim)

	totalW := 0.0
	for i := 0; i < size; i++ {
		totalW += idxWeight(i)
	}
	totalTW := 0.0
	for t := 0; t < groupSize; t++ {
		totalTW += taskWeight(t)
	}

	cycles := p.opt.Cycles
	perPart := totalW / float64(groupSize) / float64(cycles)

	taskFactor := func(t int) float64 {
		return taskWeight(t) * float64(groupSize) / totalTW
	}

	w := -0.5
	t := 0
	c := 0
	sliceFrom := 0
	lastTask := groupSize - 1
	lastCycle := cycles - 1

	emit := func(from, to, task int) {
		if to <= from {
			return
		}
		r := rangeOnDim(space, p.opt.PDim, from, to)
		ba.Append(task, r, 0)
	}

	for i := 0; i < size; i++ {
		w += idxWeight(i)
		for w >= perPart*taskFactor(t) && !(t == lastTask && c == lastCycle) {
			emit(sliceFrom, i, t)
			w -= perPart * taskFactor(t)
			t++
			if t >= groupSize {
				t = 0
				c++
			}
			sliceFrom = i
		}
	}
	emit(sliceFrom, size, t)
	return nil
}

// rangeOnDim returns the full space range restricted to [from,to) on
// dimension d.
func rangeOnDim(space *Space, d, from, to int) Range {
	full := space.FullRange()
	full.From = full.From.withDim(d, from)
	full.To = full.To.withDim(d, to)
	return full
}
