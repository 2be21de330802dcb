package laik

// copyPartitioner implements spec §4.E "copy": given a base
// partitioning's border array, for each base slice it appends a slice
// spanning the whole space but with dimension toDim replaced by the
// base slice's fromDim extent, preserving the task id. Used to derive,
// e.g., a column partitioning from a row partitioning.
type copyPartitioner struct {
	fromDim, toDim int
}

// NewCopy returns the "copy" partitioner. It requires a base
// partitioning at Run time; Run fails with PreconditionFailedError if
// base is nil.
func NewCopy(fromDim, toDim int) Partitioner {
	return &copyPartitioner{fromDim: fromDim, toDim: toDim}
}

func (p *copyPartitioner) Name() string { return "copy" }

func (p *copyPartitioner) Run(ba *BorderArray, space *Space, groupSize int, base *BorderArray) error {
	if base == nil {
		return &PreconditionFailedError{Op: "copy", Reason: "copy partitioner requires a base partitioning"}
	}
	if p.fromDim < 0 || p.fromDim >= space.Dims() || p.toDim < 0 || p.toDim >= space.Dims() {
		return &InvalidArgumentError{Field: "fromDim/toDim", Reason: "dimension out of range for space"}
	}
	for i := 0; i < base.Count(); i++ {
		slice := base.Get(i)
		from := slice.Range.From.Dim(p.fromDim)
		to := slice.Range.To.Dim(p.fromDim)
		r := rangeOnDim(space, p.toDim, from, to)
		ba.Append(slice.Task, r, 0)
	}
	return nil
}
