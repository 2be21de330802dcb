package laik

import "fmt"

// Index is a point in a 1-, 2-, or 3-D index space. Unused dimensions
// are zero.
type Index struct {
	I0, I1, I2 int
}

// Dim returns the d'th coordinate, panicking if d is out of [0,3).
func (ix Index) Dim(d int) int {
	switch d {
	case 0:
		return ix.I0
	case 1:
		return ix.I1
	case 2:
		return ix.I2
	default:
		panic(fmt.Sprintf("laik: dimension %d out of range", d))
	}
}

func (ix Index) withDim(d, v int) Index {
	switch d {
	case 0:
		ix.I0 = v
	case 1:
		ix.I1 = v
	case 2:
		ix.I2 = v
	default:
		panic(fmt.Sprintf("laik: dimension %d out of range", d))
	}
	return ix
}

// Equal reports whether two indices are identical.
func (ix Index) Equal(o Index) bool { return ix == o }

// Space is an immutable 1-, 2-, or 3-D index space: the index set is
// the cartesian product [0,Size[0]) x ... x [0,Size[dims-1]).
type Space struct {
	dims int
	size [3]int
}

// NewSpace1D constructs a 1-D space of the given size.
func NewSpace1D(n int) (*Space, error) { return newSpace(1, n, 1, 1) }

// NewSpace2D constructs a 2-D space.
func NewSpace2D(n0, n1 int) (*Space, error) { return newSpace(2, n0, n1, 1) }

// NewSpace3D constructs a 3-D space.
func NewSpace3D(n0, n1, n2 int) (*Space, error) { return newSpace(3, n0, n1, n2) }

func newSpace(dims, n0, n1, n2 int) (*Space, error) {
	if n0 <= 0 || n1 <= 0 || n2 <= 0 {
		return nil, &InvalidArgumentError{Field: "size", Reason: "space extents must be positive"}
	}
	return &Space{dims: dims, size: [3]int{n0, n1, n2}}, nil
}

// Dims returns the number of dimensions, 1 to 3.
func (s *Space) Dims() int { return s.dims }

// Size returns the extent of dimension d.
func (s *Space) Size(d int) int {
	if d < 0 || d >= s.dims {
		panic(fmt.Sprintf("laik: dimension %d out of range for a %d-D space", d, s.dims))
	}
	return s.size[d]
}

// TotalSize returns the product of every dimension's extent, i.e. the
// cardinality of the index set.
func (s *Space) TotalSize() int {
	n := 1
	for d := 0; d < s.dims; d++ {
		n *= s.size[d]
	}
	return n
}

// FullRange returns the range spanning this space's entire index set.
func (s *Space) FullRange() Range {
	var to Index
	to = to.withDim(0, s.size[0])
	if s.dims > 1 {
		to = to.withDim(1, s.size[1])
	}
	if s.dims > 2 {
		to = to.withDim(2, s.size[2])
	}
	return Range{Space: s, From: Index{}, To: to}
}

// Range is a half-open axis-aligned sub-box of a Space: To is
// exclusive per dimension.
type Range struct {
	Space *Space
	From  Index
	To    Index
}

// NewRange constructs and validates a range over s.
func NewRange(s *Space, from, to Index) (Range, error) {
	r := Range{Space: s, From: from, To: to}
	for d := 0; d < s.dims; d++ {
		if from.Dim(d) > to.Dim(d) || to.Dim(d) > s.Size(d) {
			return Range{}, &InvalidArgumentError{
				Field:  "range",
				Reason: fmt.Sprintf("dim %d: expected 0 <= %d <= %d <= %d", d, from.Dim(d), to.Dim(d), s.Size(d)),
			}
		}
	}
	return r, nil
}

// Size returns the number of indices the range covers.
func (r Range) Size() int {
	n := 1
	for d := 0; d < r.Space.Dims(); d++ {
		n *= r.To.Dim(d) - r.From.Dim(d)
	}
	return n
}

// IsEmpty reports whether the range contains no indices.
func (r Range) IsEmpty() bool { return r.Size() == 0 }

// Contains reports whether r wholly contains o (r ⊇ o). Both must be
// over the same space.
func (r Range) Contains(o Range) bool {
	if o.IsEmpty() {
		return true
	}
	for d := 0; d < r.Space.Dims(); d++ {
		if o.From.Dim(d) < r.From.Dim(d) || o.To.Dim(d) > r.To.Dim(d) {
			return false
		}
	}
	return true
}

// ContainsIndex reports whether ix lies within r.
func (r Range) ContainsIndex(ix Index) bool {
	for d := 0; d < r.Space.Dims(); d++ {
		if ix.Dim(d) < r.From.Dim(d) || ix.Dim(d) >= r.To.Dim(d) {
			return false
		}
	}
	return true
}

// Equal reports structural equality (same space pointer, same bounds).
func (r Range) Equal(o Range) bool {
	return r.Space == o.Space && r.From.Equal(o.From) && r.To.Equal(o.To)
}

// Intersect returns the overlap of r and o, which may be empty.
func (r Range) Intersect(o Range) Range {
	out := Range{Space: r.Space}
	for d := 0; d < r.Space.Dims(); d++ {
		from := max(r.From.Dim(d), o.From.Dim(d))
		to := min(r.To.Dim(d), o.To.Dim(d))
		if to < from {
			to = from
		}
		out.From = out.From.withDim(d, from)
		out.To = out.To.withDim(d, to)
	}
	return out
}

// Next returns the lexicographic successor of ix within r, and false
// if ix is the range's last index. Only defined for 1-D ranges in this
// core, per §9's note on next_idx.
func (r Range) Next(ix Index) (Index, bool) {
	if r.Space.Dims() != 1 {
		panic("laik: Range.Next is only defined for 1-D ranges")
	}
	n := ix.I0 + 1
	if n >= r.To.I0 {
		return Index{}, false
	}
	return Index{I0: n}, true
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
