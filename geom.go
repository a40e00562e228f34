package fastquadtree

// Point is an ordered (x, y) pair in the tree's coordinate type.
type Point[T Coord] struct {
	X, Y T
}

// Rect is an axis-aligned rectangle (min_x, min_y, max_x, max_y). A well
// formed Rect satisfies min_x <= max_x && min_y <= max_y; Valid reports
// that.
type Rect[T Coord] struct {
	MinX, MinY, MaxX, MaxY T
}

// Valid reports whether the rect's invariant min <= max holds on both axes.
func (r Rect[T]) Valid() bool {
	return r.MinX <= r.MaxX && r.MinY <= r.MaxY
}

// ContainsPoint reports whether p lies in r under the half-open rule:
// closed on the min edge, open on the max edge.
func (r Rect[T]) ContainsPoint(p Point[T]) bool {
	return p.X >= r.MinX && p.X < r.MaxX && p.Y >= r.MinY && p.Y < r.MaxY
}

// Intersects reports whether r and o share any area, using the same
// half-open edge convention as ContainsPoint.
func (r Rect[T]) Intersects(o Rect[T]) bool {
	return r.MinX < o.MaxX && r.MaxX > o.MinX && r.MinY < o.MaxY && r.MaxY > o.MinY
}

// FullyContains reports whether every point of inner also satisfies r's
// containment rule. Touching r's max edge is still fully contained: a rect
// whose max edge equals r's max edge holds only points strictly less than
// that edge, same as r itself.
func (r Rect[T]) FullyContains(inner Rect[T]) bool {
	return inner.MinX >= r.MinX && inner.MaxX <= r.MaxX &&
		inner.MinY >= r.MinY && inner.MaxY <= r.MaxY
}

// Quadrant identifies one of the four children of a subdivided Rect.
type Quadrant int

const (
	QuadrantNW Quadrant = iota
	QuadrantNE
	QuadrantSW
	QuadrantSE
)

// quadrantOf assigns p to one of r's four quadrants using the half-open
// rule at the midpoint: x < midX is west, x >= midX is east; y < midY is
// south, y >= midY is north. This is the documented, self-consistent
// choice for the open question of which quadrant wins a point exactly on
// the midline (spec.md §9); callers must not depend on any other rule.
func quadrantOf[T Coord](r Rect[T], p Point[T]) Quadrant {
	midX := mid(r.MinX, r.MaxX)
	midY := mid(r.MinY, r.MaxY)
	west := p.X < midX
	south := p.Y < midY
	switch {
	case west && !south:
		return QuadrantNW
	case !west && !south:
		return QuadrantNE
	case west && south:
		return QuadrantSW
	default:
		return QuadrantSE
	}
}

// subdivide splits r into four child rects [NW, NE, SW, SE] that tile r
// exactly, with no gaps and no overlap under the half-open containment
// rule.
func subdivide[T Coord](r Rect[T]) [4]Rect[T] {
	midX := mid(r.MinX, r.MaxX)
	midY := mid(r.MinY, r.MaxY)
	return [4]Rect[T]{
		QuadrantNW: {MinX: r.MinX, MinY: midY, MaxX: midX, MaxY: r.MaxY},
		QuadrantNE: {MinX: midX, MinY: midY, MaxX: r.MaxX, MaxY: r.MaxY},
		QuadrantSW: {MinX: r.MinX, MinY: r.MinY, MaxX: midX, MaxY: midY},
		QuadrantSE: {MinX: midX, MinY: r.MinY, MaxX: r.MaxX, MaxY: midY},
	}
}
