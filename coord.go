package fastquadtree

// Coord is the set of numeric kinds a tree may be instantiated over. It is
// fixed for the lifetime of a tree, chosen at construction through the type
// parameter of PointTree/RectTree. This is an exact union, not an
// approximation: coordTypeOf and the serialize.go wire codec switch on the
// dynamic type of a zero value, and a defined type merely sharing one of
// these underlying kinds (e.g. `type Meters int32`) would fall through
// those switches unhandled. Matches bmharper-flatbush-go's own
// `TFloat float32 | float64` constraint, which is also an exact union.
type Coord interface {
	int32 | int64 | float32 | float64
}

// CoordType tags a Coord instantiation at the serialization boundary, since
// Go generics erase the type parameter from the compiled binary and there
// is no way to recover it from a []byte blob alone.
type CoordType uint8

const (
	CoordI32 CoordType = 0
	CoordI64 CoordType = 1
	CoordF32 CoordType = 2
	CoordF64 CoordType = 3
)

func (c CoordType) String() string {
	switch c {
	case CoordI32:
		return "i32"
	case CoordI64:
		return "i64"
	case CoordF32:
		return "f32"
	case CoordF64:
		return "f64"
	default:
		return "unknown"
	}
}

// coordTypeOf reports the CoordType tag for T. It is only ever called at
// the serialization boundary, never inside a hot traversal
// loop, so the type switch it costs does not violate the "no runtime
// dispatch inside hot loops" contract of the numeric genericity design.
func coordTypeOf[T Coord]() CoordType {
	var zero T
	switch any(zero).(type) {
	case int32:
		return CoordI32
	case int64:
		return CoordI64
	case float32:
		return CoordF32
	case float64:
		return CoordF64
	default:
		panic("fastquadtree: unsupported coord type")
	}
}

// coordByteSize is the on-wire width of a single coordinate value.
func coordByteSize[T Coord]() int {
	switch coordTypeOf[T]() {
	case CoordI32, CoordF32:
		return 4
	default:
		return 8
	}
}

// toF64 promotes a coordinate to float64 for distance computation. Squared
// distances for f32 coordinates are computed in this promoted precision to
// reduce cancellation, per the numeric genericity contract.
func toF64[T Coord](v T) float64 {
	return float64(v)
}

// mid returns the midpoint used to subdivide a span [lo, hi]. For integer
// coordinate types this is a floor division, same as the reference
// implementation's split rule; callers must keep coordinates comfortably
// inside bounds; the core does not guard against overflow.
func mid[T Coord](lo, hi T) T {
	return lo + (hi-lo)/2
}

// Unbounded is the max-depth sentinel meaning "the root never stops
// splitting on overflow." It is distinct from any non-negative depth.
const Unbounded = -1

func depthAllowsSplit(depth, maxDepth int) bool {
	return maxDepth == Unbounded || depth < maxDepth
}
