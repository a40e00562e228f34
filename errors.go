package fastquadtree

import "errors"

// Construction and domain errors. These are plain sentinel values, the
// same convention bmharper-flatbush-go and peterstace-rtree use (bare
// errors.New, no wrapping framework) — nothing in the retrieved pack pulls
// in an error-annotation library for a data structure this small.
var (
	// ErrInvalidBounds is returned by New*Tree when bounds violates
	// min <= max on either axis.
	ErrInvalidBounds = errors.New("fastquadtree: invalid bounds")

	// ErrInvalidCapacity is returned by New*Tree when capacity < 1 or
	// maxDepth is negative and not Unbounded.
	ErrInvalidCapacity = errors.New("fastquadtree: invalid capacity or max depth")

	// ErrOutOfBounds is returned by Insert when the point or rect does
	// not lie within the tree's bounds.
	ErrOutOfBounds = errors.New("fastquadtree: geometry outside tree bounds")

	// ErrObjectsDisallowed is returned by FromBytesPoint/FromBytesRect
	// when the blob carries an object-map chunk but the caller used the
	// entry point that does not accept one.
	ErrObjectsDisallowed = errors.New("fastquadtree: blob carries an object map; use the WithObjects decoder")

	// ErrTooManyIDs is returned by Insert when more than one optional id
	// argument is supplied.
	ErrTooManyIDs = errors.New("fastquadtree: insert accepts at most one explicit id")

	// ErrMismatchedArrayLength is returned by InsertManyBulk when its
	// parallel coordinate arrays do not all have the same length. This is
	// an API-misuse error, distinct from ErrOutOfBounds: the arrays
	// themselves are malformed, independent of where any point or rect
	// they'd describe would actually land.
	ErrMismatchedArrayLength = errors.New("fastquadtree: parallel coordinate arrays have mismatched length")
)

// FormatErrorKind discriminates why FromBytes rejected a blob.
type FormatErrorKind int

const (
	FormatBadMagic FormatErrorKind = iota
	FormatVersionMismatch
	FormatTruncated
	FormatBadCoordType
	FormatBadBounds
	FormatBadCapacity
	FormatEntryOutOfBounds
	FormatBadChecksum
)

func (k FormatErrorKind) String() string {
	switch k {
	case FormatBadMagic:
		return "bad magic"
	case FormatVersionMismatch:
		return "version mismatch"
	case FormatTruncated:
		return "truncated"
	case FormatBadCoordType:
		return "bad coord type"
	case FormatBadBounds:
		return "bad bounds"
	case FormatBadCapacity:
		return "bad capacity or max depth"
	case FormatEntryOutOfBounds:
		return "entry outside bounds"
	case FormatBadChecksum:
		return "checksum mismatch"
	default:
		return "unknown format error"
	}
}

// FormatError is returned by FromBytesPoint/FromBytesRect for every parse
// failure, carrying a discriminant identifying which validation rule
// failed, per §7's "format errors carry a discriminant" requirement.
type FormatError struct {
	Kind FormatErrorKind
}

func (e *FormatError) Error() string {
	return "fastquadtree: bad format: " + e.Kind.String()
}

func newFormatError(kind FormatErrorKind) error {
	return &FormatError{Kind: kind}
}
