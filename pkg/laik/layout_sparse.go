package laik

import (
	"fmt"
	"strings"

	"github.com/davecgh/go-spew/spew"
)

// sparseInterval is one locally-owned, coalesced [from, to) run.
type sparseInterval struct {
	from, to int // 1-D coordinates
}

func (iv sparseInterval) size() int { return iv.to - iv.from }

// SparseVector1D is a 1-D layout over a worker's disjoint union of
// locally-owned intervals plus an appended block of external slots
// (spec §4.C). The on-buffer picture is:
//
//	[ I0 ][ I1 ]...[ I_{m-1} ][ ext_0 ext_1 ... ext_{E-1} ]
//
// localLength = sum of interval sizes; the external block has E slots.
type SparseVector1D struct {
	intervals []sparseInterval

	localLength int
	numExternal int // E

	// externalCursor is reset at the start of every transition that
	// will consume external values (switch_to in data.go), per §9's
	// correction of the source's fragile global cursor.
	externalCursor int

	lowerBound, upperBound int // intervals[0].from, intervals[len-1].to

	// allocatedRangeCount is an upper bound on total slots ever
	// requested through this layout, used by Reuse.
	allocatedRangeCount int

	// external reports whether this layout addresses a partitioning
	// whose owned range differs from localLength (Count() != localLength);
	// an external layout does not recompute its interval map on reuse,
	// per §4.C's reuse rule.
	external bool
}

// NewSparseVector1D builds a sparse layout from the border-array
// slices owned by my_id for the target partitioning, plus a budget of
// E external slots for indices that will be received but not locally
// owned. external marks this layout as addressing an "external"
// partitioning (its Count() differs from its localLength): per §4.C,
// such a layout does not re-derive its interval map on Reuse, instead
// depending on the local layout's map.
func NewSparseVector1D(ownedSlices []TaskSlice, numExternal int, external bool) (*SparseVector1D, error) {
	l := &SparseVector1D{numExternal: numExternal, external: external}
	if err := l.calculateMapping(ownedSlices); err != nil {
		return nil, err
	}
	l.allocatedRangeCount = l.localLength + numExternal
	return l, nil
}

// calculateMapping implements §4.C's coalescing walk: open an interval
// at the first entry's from, extend it across neighbours whose from
// equals the previous entry's to, and close/reopen otherwise.
func (l *SparseVector1D) calculateMapping(ownedSlices []TaskSlice) error {
	if len(ownedSlices) == 0 {
		l.intervals = nil
		l.localLength = 0
		l.lowerBound, l.upperBound = 0, 0
		return nil
	}
	intervals := make([]sparseInterval, 0, len(ownedSlices))
	cur := sparseInterval{from: ownedSlices[0].Range.From.I0, to: ownedSlices[0].Range.To.I0}
	for _, s := range ownedSlices[1:] {
		from, to := s.Range.From.I0, s.Range.To.I0
		if cur.to == from {
			cur.to = to
			continue
		}
		intervals = append(intervals, cur)
		cur = sparseInterval{from: from, to: to}
	}
	intervals = append(intervals, cur)

	l.intervals = intervals
	l.localLength = 0
	for _, iv := range intervals {
		l.localLength += iv.size()
	}
	l.lowerBound = intervals[0].from
	l.upperBound = intervals[len(intervals)-1].to
	return nil
}

func (l *SparseVector1D) Kind() LayoutKind { return LayoutSparseVector1D }
func (l *SparseVector1D) MapCount() int    { return 1 }

// Count is the total number of slots reachable through this layout:
// the local block plus the external block.
func (l *SparseVector1D) Count() int { return l.localLength + l.numExternal }

func (l *SparseVector1D) Section(ix Index) (int, bool) {
	g := ix.I0
	if g < l.lowerBound {
		return 0, l.numExternal > 0
	}
	if g >= l.upperBound {
		return 0, l.numExternal > 0
	}
	for _, iv := range l.intervals {
		if g >= iv.from && g < iv.to {
			return 0, true
		}
	}
	// Inside [lowerBound, upperBound) but in a gap between intervals:
	// still addressable as external, matching the "strictly before a
	// future interval" branch of the offset rule.
	return 0, l.numExternal > 0
}

// Offset implements §4.C's three-way offset rule. It is the one method
// on this layout with mutating side effects (it advances
// externalCursor), so correctness depends on pack/unpack driving it in
// the same deterministic lexicographic order the spec requires.
func (l *SparseVector1D) Offset(mapNo int, ix Index) int {
	if mapNo != 0 {
		panic("laik: SparseVector1D supports exactly one mapping")
	}
	g := ix.I0
	prefix := 0
	for _, iv := range l.intervals {
		if g >= iv.from && g < iv.to {
			return prefix + (g - iv.from)
		}
		if g < iv.from {
			return l.nextExternalSlot()
		}
		prefix += iv.size()
	}
	if l.numExternal > 0 {
		return l.nextExternalSlot()
	}
	panic(&OutOfRangeError{Index: g, Dim: 0})
}

func (l *SparseVector1D) nextExternalSlot() int {
	slot := l.localLength + l.externalCursor
	l.externalCursor++
	if l.externalCursor >= l.numExternal {
		l.externalCursor = 0
	}
	return slot
}

// resetExternalCursor is called by the transition engine at the start
// of a switch_to that will consume external values, per §9.
func (l *SparseVector1D) resetExternalCursor() { l.externalCursor = 0 }

// Reuse implements §4.C's reuse rule: equal allocatedRangeCount bound
// (new <= old) and identical localLength. When the new layout is an
// "external" view (Count() != localLength) it always inherits the old
// interval map rather than recomputing it; when reuse fails only
// because of an external/non-external switch with identical
// localLength, the interval map is still adopted so the external view
// can address local values.
func (l *SparseVector1D) Reuse(old Layout) bool {
	o, ok := old.(*SparseVector1D)
	if !ok {
		return false
	}
	sameLocal := l.localLength == o.localLength
	if l.external {
		if sameLocal {
			l.adoptIntervals(o)
		}
		return sameLocal
	}
	if l.allocatedRangeCount <= o.allocatedRangeCount && sameLocal {
		l.adoptIntervals(o)
		return true
	}
	if sameLocal {
		// Reuse failed only due to the external/non-external switch;
		// still adopt the interval map per §4.C.
		l.adoptIntervals(o)
	}
	return false
}

func (l *SparseVector1D) adoptIntervals(o *SparseVector1D) {
	l.intervals = o.intervals
	l.localLength = o.localLength
	l.lowerBound = o.lowerBound
	l.upperBound = o.upperBound
}

func (l *SparseVector1D) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "SparseVector1D{localLength=%d, E=%d, intervals=%s}",
		l.localLength, l.numExternal, spew.Sdump(l.intervals))
	return strings.TrimRight(b.String(), "\n")
}

func (l *SparseVector1D) Pack(buf []byte, elemSize int, r Range, cursor Index, dst []byte) (int, Index, bool) {
	n := 0
	capacity := len(dst) / elemSize
	ix := cursor
	for {
		if n >= capacity {
			return n, ix, false
		}
		off := l.Offset(0, ix) * elemSize
		copy(dst[n*elemSize:(n+1)*elemSize], buf[off:off+elemSize])
		n++
		next, more := r.Next(ix)
		if !more {
			return n, ix, true
		}
		ix = next
	}
}

func (l *SparseVector1D) Unpack(buf []byte, elemSize int, r Range, cursor Index, src []byte) (int, Index, bool) {
	n := 0
	capacity := len(src) / elemSize
	ix := cursor
	for {
		if n >= capacity {
			return n, ix, false
		}
		off := l.Offset(0, ix) * elemSize
		copy(buf[off:off+elemSize], src[n*elemSize:(n+1)*elemSize])
		n++
		next, more := r.Next(ix)
		if !more {
			return n, ix, true
		}
		ix = next
	}
}

func (l *SparseVector1D) Copy(fromBuf []byte, to Layout, toBuf []byte, elemSize int, r Range) error {
	ts, ok := to.(*SparseVector1D)
	if !ok {
		return &LayoutMismatchError{Have: l.Kind(), Want: to.Kind()}
	}
	ix := r.From
	for {
		fromOff := l.Offset(0, ix) * elemSize
		toOff := ts.Offset(0, ix) * elemSize
		copy(toBuf[toOff:toOff+elemSize], fromBuf[fromOff:fromOff+elemSize])
		next, more := r.Next(ix)
		if !more {
			return nil
		}
		ix = next
	}
}
