package laik

// LayoutKind tags a Layout implementation. The layout interface is
// modeled as a tagged variant dispatched through this tag rather than
// through Go interface polymorphism for the hot offset/pack/unpack
// path, per §9's explicit guidance ("model as a tagged variant ...
// dispatched through a method table, not inheritance").
type LayoutKind uint8

const (
	LayoutDenseVector1D LayoutKind = iota
	LayoutSparseVector1D
)

func (k LayoutKind) String() string {
	switch k {
	case LayoutDenseVector1D:
		return "DenseVector1D"
	case LayoutSparseVector1D:
		return "SparseVector1D"
	default:
		return "Unknown"
	}
}

// ElementKind identifies the scalar type a container's elements hold.
// The spec requires at minimum Double (binary64); Byte is included so
// layouts can be exercised with raw byte payloads in tests without a
// numeric interpretation.
type ElementKind uint8

const (
	ElementDouble ElementKind = iota
	ElementByte
)

// ElementSize returns the size in bytes of one element of kind k.
func (k ElementKind) ElementSize() int {
	switch k {
	case ElementDouble:
		return 8
	case ElementByte:
		return 1
	default:
		panic("laik: unknown element kind")
	}
}

// Layout maps (mapping-no, index) pairs to buffer offsets and knows how
// to move bytes in and out of the buffer it describes. Every method
// operates on a single mapping's required range, communicated via
// buildArgs at construction time; callers (the transition engine, the
// transfer planner) are responsible for only ever asking a layout
// about indices within that required range (§9's note on the dense
// layout's upper-bound check: the layout itself does not re-validate
// this).
type Layout interface {
	// Kind reports the concrete variant, used to gate Reuse and to
	// detect LayoutMismatch in pack/unpack/copy.
	Kind() LayoutKind

	// MapCount is the number of distinct mapping-nos this layout
	// answers for. Every layout currently implemented here returns 1
	// (§9 Open Question: sparse multi-mapping support is unresolved
	// upstream and not implemented).
	MapCount() int

	// Count is the total number of element slots reachable through
	// this layout.
	Count() int

	// Section returns the mapping-no that owns ix, or false if no
	// mapping of this layout claims it.
	Section(ix Index) (mapNo int, ok bool)

	// Offset returns the buffer offset for (mapNo, ix). The caller
	// must have already established ix belongs to this layout (via
	// Section, or because it is known to be within the mapping's
	// required range).
	Offset(mapNo int, ix Index) int

	// Reuse reports whether a buffer sized/shaped for old can be
	// reused as-is for this (the "new") layout, and if so mutates the
	// receiver to inherit whatever state from old makes that reuse
	// correct (§4.B/§4.C's respective reuse rules).
	Reuse(old Layout) bool

	// Describe returns a short, human-readable summary for logging and
	// tests.
	Describe() string

	// Pack walks r in lexicographic order starting at cursor, copying
	// elements of size elemSize from the mapping's buffer into dst,
	// and returns how many elements it wrote and the index it stopped
	// at (so a caller can resume across multiple Pack calls against a
	// buffer too small to hold the whole range in one pass).
	Pack(buf []byte, elemSize int, r Range, cursor Index, dst []byte) (nElems int, next Index, done bool)

	// Unpack is Pack's mirror: it reads elements out of src into the
	// mapping's buffer.
	Unpack(buf []byte, elemSize int, r Range, cursor Index, src []byte) (nElems int, next Index, done bool)

	// Copy element-wise copies every index in r from this layout's
	// buffer (from) into another layout's buffer (to). Both layouts
	// must report compatible Kind()s, or ErrLayoutMismatch results.
	Copy(fromBuf []byte, to Layout, toBuf []byte, elemSize int, r Range) error
}

// LayoutBuildArgs is everything a LayoutFactory needs to build a
// candidate layout for one side of a switch_to transition.
type LayoutBuildArgs struct {
	// Required is the full range the mapping must be able to address.
	Required Range

	// MapCount is the number of mappings the layout must support;
	// every layout in this core supports exactly 1.
	MapCount int

	// OwnedSlices are this worker's TaskSlice entries within the
	// target partitioning's border array, already coalescing-ready
	// (i.e. in lexicographic order by From); only consulted by
	// layouts that need more than a single bounding range (the sparse
	// layout).
	OwnedSlices []TaskSlice

	// NumExternal is the external-slot budget E; only meaningful to
	// the sparse layout.
	NumExternal int

	// External marks this layout as addressing an "external"
	// partitioning view, per §4.C's reuse rule.
	External bool
}

// LayoutFactory constructs a fresh Layout for one side of a switch_to
// transition. Containers use one to build candidate layouts; the
// default is DenseVector1DFactory (spec §6: "default is dense 1-D for
// 1-D spaces").
type LayoutFactory func(args LayoutBuildArgs) Layout

// DenseVector1DFactory is the default LayoutFactory.
func DenseVector1DFactory(args LayoutBuildArgs) Layout {
	return newDenseVector1D(args.Required, args.MapCount)
}

// SparseVector1DFactory builds a SparseVector1D from the owned slices
// and external-slot budget in args.
func SparseVector1DFactory(args LayoutBuildArgs) Layout {
	l, err := NewSparseVector1D(args.OwnedSlices, args.NumExternal, args.External)
	if err != nil {
		panic(err)
	}
	return l
}

var (
	_ LayoutFactory = DenseVector1DFactory
	_ LayoutFactory = SparseVector1DFactory
)
