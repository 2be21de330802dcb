package laik

import "sync"

// Partitioner is a deterministic function assigning ranges of a space
// to tasks (spec §3/§4.E). Run appends TaskSlice entries to ba; base is
// non-nil only when this Partitioning was constructed with a base
// partitioning.
type Partitioner interface {
	Name() string
	Run(ba *BorderArray, space *Space, groupSize int, base *BorderArray) error
}

// partitionerFunc adapts a plain function to the Partitioner interface,
// the same lightweight wrapping style kgo uses for callback-shaped
// config fields (e.g. dialFn).
type partitionerFunc struct {
	name string
	fn   func(ba *BorderArray, space *Space, groupSize int, base *BorderArray) error
}

func (p *partitionerFunc) Name() string { return p.name }
func (p *partitionerFunc) Run(ba *BorderArray, space *Space, groupSize int, base *BorderArray) error {
	return p.fn(ba, space, groupSize, base)
}

// NewCustom wraps a user-supplied callback as a Partitioner, carrying
// opaque user data through the closure the caller builds (spec §4.E
// "user-defined").
func NewCustom(name string, fn func(ba *BorderArray, space *Space, groupSize int, base *BorderArray) error) Partitioner {
	return &partitionerFunc{name: name, fn: fn}
}

var (
	builtinOnce   sync.Once
	builtinAll    Partitioner
	builtinMaster Partitioner
)

// initBuiltinPartitioners lazily constructs the all/master singletons
// exactly once per process, per §5 ("the built-in partitioner
// singletons (all, master); initialisation is idempotent and must
// precede any partitioner use"). Called from NewInstance so tests that
// construct their own Instance stay hermetic rather than relying on a
// package-level init().
func initBuiltinPartitioners() {
	builtinOnce.Do(func() {
		builtinAll = newAllPartitioner()
		builtinMaster = newMasterPartitioner()
	})
}

// NewAll returns the builtin "all" partitioner: every task gets the
// full space.
func NewAll() Partitioner {
	initBuiltinPartitioners()
	return builtinAll
}

// NewMaster returns the builtin "master" partitioner: task 0 gets the
// full space, every other task gets nothing.
func NewMaster() Partitioner {
	initBuiltinPartitioners()
	return builtinMaster
}
