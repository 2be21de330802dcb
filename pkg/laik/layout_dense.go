package laik

import (
	"fmt"

	"github.com/klauspost/cpuid/v2"
)

// DenseVector1D is a contiguous buffer indexed by the 1-D coordinate
// relative to the mapping's owned span (spec §4.B). base is the
// required range's lower bound: a worker whose owned block does not
// start at global index 0 (e.g. [5,10) of a 10-element space) still
// addresses its buffer starting at byte 0.
type DenseVector1D struct {
	base  int
	count int // logical element count, i.e. the current required.Size()

	// capacity is the element count of the real underlying buffer,
	// which Reuse may leave larger than count when a shrink is
	// reused without reallocating. Count() always reports the
	// logical size so MapDefault reflects the current partitioning,
	// not whatever buffer happens to back it; capacity is compared
	// against on the next Reuse so a later grow past it still forces
	// a real reallocation ("scenario 5" in the spec's testable
	// properties: shrink-then-grow-back reallocates, shrink alone
	// does not).
	capacity int
}

func newDenseVector1D(required Range, mapCount int) *DenseVector1D {
	if mapCount != 1 {
		panic("laik: DenseVector1D supports exactly one mapping")
	}
	count := required.Size()
	return &DenseVector1D{base: required.From.I0, count: count, capacity: count}
}

func (l *DenseVector1D) Kind() LayoutKind { return LayoutDenseVector1D }
func (l *DenseVector1D) MapCount() int    { return 1 }
func (l *DenseVector1D) Count() int       { return l.count }

// Base returns the global index that maps to local offset 0.
func (l *DenseVector1D) Base() int { return l.base }

// Section returns mapping 0 for any index at or above base. Per §9,
// the upper bound is intentionally not checked here: callers validate
// against the mapping's required range before calling Section/Offset.
func (l *DenseVector1D) Section(ix Index) (int, bool) {
	if ix.I0 < l.base {
		return 0, false
	}
	return 0, true
}

func (l *DenseVector1D) Offset(mapNo int, ix Index) int {
	if mapNo != 0 {
		panic("laik: DenseVector1D has exactly one mapping")
	}
	return ix.I0 - l.base
}

// Reuse returns true iff the candidate's logical count does not exceed
// the existing buffer's real capacity, per §4.B; on success the new
// layout inherits old's capacity (not its count) so the underlying
// buffer is not reallocated, while Count() keeps reporting the new,
// current partitioning's own size.
func (l *DenseVector1D) Reuse(old Layout) bool {
	o, ok := old.(*DenseVector1D)
	if !ok {
		return false
	}
	if l.count > o.capacity {
		return false
	}
	l.capacity = o.capacity
	return true
}

func (l *DenseVector1D) Describe() string {
	return fmt.Sprintf("DenseVector1D{count=%d}", l.count)
}

func (l *DenseVector1D) Pack(buf []byte, elemSize int, r Range, cursor Index, dst []byte) (int, Index, bool) {
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

func (l *DenseVector1D) Unpack(buf []byte, elemSize int, r Range, cursor Index, src []byte) (int, Index, bool) {
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

// Copy element-wise copies every index in r from this layout's buffer
// into to's buffer. Both layouts address index ranges linearly
// (Offset is affine in the coordinate), so a contiguous r always maps
// to a contiguous byte run in both buffers; it takes a single bulk
// copy() fast path (gated on SSE2 availability the way the codec stack
// gates its own bulk paths) instead of looping index by index.
func (l *DenseVector1D) Copy(fromBuf []byte, to Layout, toBuf []byte, elemSize int, r Range) error {
	td, ok := to.(*DenseVector1D)
	if !ok {
		return &LayoutMismatchError{Have: l.Kind(), Want: to.Kind()}
	}
	if cpuid.CPU.Supports(cpuid.SSE2) {
		fromOff := l.Offset(0, r.From) * elemSize
		toOff := td.Offset(0, r.From) * elemSize
		n := r.Size() * elemSize
		copy(toBuf[toOff:toOff+n], fromBuf[fromOff:fromOff+n])
		return nil
	}
	ix := r.From
	for {
		fromOff := l.Offset(0, ix) * elemSize
		toOff := td.Offset(0, ix) * elemSize
		copy(toBuf[toOff:toOff+elemSize], fromBuf[fromOff:fromOff+elemSize])
		next, more := r.Next(ix)
		if !more {
			return nil
		}
		ix = next
	}
}
