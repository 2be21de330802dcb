package laik

// allPartitioner assigns the full space to every task (spec §4.E
// "all").
type allPartitioner struct{}

func newAllPartitioner() Partitioner { return allPartitioner{} }

func (allPartitioner) Name() string { return "all" }

func (allPartitioner) Run(ba *BorderArray, space *Space, groupSize int, _ *BorderArray) error {
	full := space.FullRange()
	for t := 0; t < groupSize; t++ {
		ba.Append(t, full, 0)
	}
	return nil
}

// masterPartitioner assigns the full space to task 0 only (spec §4.E
// "master").
type masterPartitioner struct{}

func newMasterPartitioner() Partitioner { return masterPartitioner{} }

func (masterPartitioner) Name() string { return "master" }

func (masterPartitioner) Run(ba *BorderArray, space *Space, groupSize int, _ *BorderArray) error {
	if groupSize > 0 {
		ba.Append(0, space.FullRange(), 0)
	}
	return nil
}
