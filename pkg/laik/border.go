package laik

import (
	"fmt"
	"sort"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// TaskSlice is one entry of a BorderArray: a task owns range under a
// given mapping number.
type TaskSlice struct {
	Task   int
	Range  Range
	MapNo  int
}

// BorderArray is the sorted, append-then-freeze result of running a
// Partitioner (spec §3/§4.D). It is built by repeated calls to Append
// while a partitioner runs, then frozen by validate, which sorts it by
// (task, mapping-no, range.from lexicographic) and builds the
// by-task index used by IterForTask/GetTask.
//
// Mirrors the teacher's listOrEpochLoads: a plain slice appended to
// under a lock while "in flight", then read-only once the enclosing
// operation (here, Partitioner.Run; there, the offset-load round) is
// done.
type BorderArray struct {
	slices []TaskSlice
	frozen bool

	// taskIndex maps task -> [start, end) into slices, the sorted run
	// of entries owned by that task, built once in validate so
	// GetTask/IterForTask on a large group stay O(1) instead of a
	// linear scan.
	taskIndex map[int]taskRun
}

// taskRun is one distinct task's contiguous run of entries within the
// frozen slices slice.
type taskRun struct {
	start, end int
}

// NewBorderArray returns an empty, unfrozen BorderArray ready to be
// filled by a Partitioner.Run.
func NewBorderArray() *BorderArray {
	return &BorderArray{}
}

// Append adds one (task, range, mapping-no) entry. Valid only before
// validate is called; it is the only mutator a Partitioner may use.
func (b *BorderArray) Append(task int, r Range, mapNo int) {
	if b.frozen {
		panic("laik: Append on a frozen BorderArray")
	}
	b.slices = append(b.slices, TaskSlice{Task: task, Range: r, MapNo: mapNo})
}

// validate sorts and freezes the array, building the by-task index.
// Idempotent: calling it again on an already-frozen array is a no-op,
// matching Partitioning.validate()'s "idempotent while inputs
// unchanged" contract.
func (b *BorderArray) validate() {
	if b.frozen {
		return
	}
	sort.SliceStable(b.slices, func(i, j int) bool {
		a, c := b.slices[i], b.slices[j]
		if a.Task != c.Task {
			return a.Task < c.Task
		}
		if a.MapNo != c.MapNo {
			return a.MapNo < c.MapNo
		}
		return lexLess(a.Range.From, c.Range.From)
	})

	b.taskIndex = make(map[int]taskRun)
	i := 0
	for i < len(b.slices) {
		j := i + 1
		for j < len(b.slices) && b.slices[j].Task == b.slices[i].Task {
			j++
		}
		b.taskIndex[b.slices[i].Task] = taskRun{start: i, end: j}
		i = j
	}
	b.frozen = true
}

// Count returns the number of entries.
func (b *BorderArray) Count() int { return len(b.slices) }

// Get returns the i'th entry in sorted order.
func (b *BorderArray) Get(i int) TaskSlice { return b.slices[i] }

// GetRange returns the i'th entry's range.
func (b *BorderArray) GetRange(i int) Range { return b.slices[i].Range }

// GetTask returns the i'th entry's task.
func (b *BorderArray) GetTask(i int) int { return b.slices[i].Task }

// IterForTask calls fn for every entry owned by task, in sorted order,
// using the by-task index built at validate time.
func (b *BorderArray) IterForTask(task int, fn func(TaskSlice)) {
	if b.taskIndex == nil {
		for _, s := range b.slices {
			if s.Task == task {
				fn(s)
			}
		}
		return
	}
	run, ok := b.taskIndex[task]
	if !ok {
		return
	}
	for i := run.start; i < run.end; i++ {
		fn(b.slices[i])
	}
}

// SlicesForTask is a convenience wrapper over IterForTask that
// collects the result into a slice.
func (b *BorderArray) SlicesForTask(task int) []TaskSlice {
	var out []TaskSlice
	b.IterForTask(task, func(s TaskSlice) { out = append(out, s) })
	return out
}

// Equal reports whether two border arrays carry the same entries,
// ignoring accidental insertion-order differences that validate's
// stable sort would otherwise mask anyway. Used by Partitioning's
// idempotency check and by tests.
func (b *BorderArray) Equal(o *BorderArray) bool {
	if b == nil || o == nil {
		return b == o
	}
	return cmp.Equal(b.slices, o.slices, cmpopts.EquateEmpty())
}

// String renders a compact debug summary.
func (b *BorderArray) String() string {
	return fmt.Sprintf("BorderArray{entries=%d, frozen=%v}", len(b.slices), b.frozen)
}

func lexLess(a, c Index) bool {
	if a.I0 != c.I0 {
		return a.I0 < c.I0
	}
	if a.I1 != c.I1 {
		return a.I1 < c.I1
	}
	return a.I2 < c.I2
}
