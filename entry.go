package fastquadtree

// Entry is a stored (id, point) pair as returned by PointTree.Query.
type Entry[T Coord] struct {
	ID    uint64
	Point Point[T]
}

// RectEntry is a stored (id, rect) pair as returned by RectTree.Query.
type RectEntry[T Coord] struct {
	ID   uint64
	Rect Rect[T]
}

// Neighbor is one result of a Nearest search, carrying the squared
// Euclidean distance the search ranked it by.
type Neighbor[T Coord] struct {
	ID     uint64
	Point  Point[T]
	DistSq float64
}

// RectNeighbor is Nearest's rect-tree counterpart.
type RectNeighbor[T Coord] struct {
	ID     uint64
	Rect   Rect[T]
	DistSq float64
}
