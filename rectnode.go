package fastquadtree

// rectEntry is a stored (id, rect) pair.
type rectEntry[T Coord] struct {
	id   uint64
	rect Rect[T]
}

// rectNode generalizes pointNode for the rectangle variant: every node,
// leaf or internal, may carry a bucket. At an internal node the bucket
// holds only rects that straddle a child boundary and therefore could not
// be pushed down any further (spec.md §4.B rectangle variant).
type rectNode[T Coord] struct {
	bounds   Rect[T]
	depth    int
	bucket   []rectEntry[T]
	children *[4]*rectNode[T]
}

func newRectLeaf[T Coord](bounds Rect[T], depth int) *rectNode[T] {
	return &rectNode[T]{bounds: bounds, depth: depth}
}

// insert places r into the deepest node that still fully contains it. The
// caller has already verified r fits within the root's bounds.
func (n *rectNode[T]) insert(capacity, maxDepth int, id uint64, r Rect[T]) {
	if n.children == nil {
		n.bucket = append(n.bucket, rectEntry[T]{id: id, rect: r})
		if len(n.bucket) > capacity && depthAllowsSplit(n.depth, maxDepth) {
			n.split()
		}
		return
	}
	quads := subdivide(n.bounds)
	for i, qr := range quads {
		if qr.FullyContains(r) {
			n.children[i].insert(capacity, maxDepth, id, r)
			return
		}
	}
	// Straddles a child boundary: stays retained at this node.
	n.bucket = append(n.bucket, rectEntry[T]{id: id, rect: r})
}

// split converts a leaf into an internal node. Entries fully contained by
// a child quadrant move down into it; entries straddling a boundary remain
// in n's own retained bucket.
func (n *rectNode[T]) split() {
	quads := subdivide(n.bounds)
	var children [4]*rectNode[T]
	for i := range children {
		children[i] = newRectLeaf[T](quads[i], n.depth+1)
	}
	old := n.bucket
	n.bucket = nil
	n.children = &children
	for _, e := range old {
		placed := false
		for i, qr := range quads {
			if qr.FullyContains(e.rect) {
				children[i].bucket = append(children[i].bucket, e)
				placed = true
				break
			}
		}
		if !placed {
			n.bucket = append(n.bucket, e)
		}
	}
}

// delete removes the entry matching (id, r) exactly, checking n's own
// retained bucket first, then descending into whichever child would fully
// contain r.
func (n *rectNode[T]) delete(capacity int, id uint64, r Rect[T]) bool {
	for i, e := range n.bucket {
		if e.id == id && e.rect == r {
			n.bucket = append(n.bucket[:i], n.bucket[i+1:]...)
			return true
		}
	}
	if n.children == nil {
		return false
	}
	quads := subdivide(n.bounds)
	for i, qr := range quads {
		if qr.FullyContains(r) {
			if !n.children[i].delete(capacity, id, r) {
				return false
			}
			n.tryMerge(capacity)
			return true
		}
	}
	return false
}

func (n *rectNode[T]) tryMerge(capacity int) {
	children := n.children
	if children == nil {
		return
	}
	total := len(n.bucket)
	for _, c := range children {
		if c.children != nil {
			return
		}
		total += len(c.bucket)
	}
	if total > capacity {
		return
	}
	merged := make([]rectEntry[T], 0, total)
	merged = append(merged, n.bucket...)
	for _, c := range children {
		merged = append(merged, c.bucket...)
	}
	n.bucket = merged
	n.children = nil
}

// query appends every stored rect intersecting q to out.
func (n *rectNode[T]) query(q Rect[T], out []RectEntry[T]) []RectEntry[T] {
	if !n.bounds.Intersects(q) {
		return out
	}
	if q.FullyContains(n.bounds) {
		return n.collectAll(out)
	}
	for _, e := range n.bucket {
		if q.Intersects(e.rect) {
			out = append(out, RectEntry[T]{ID: e.id, Rect: e.rect})
		}
	}
	if n.children != nil {
		for _, c := range n.children {
			out = c.query(q, out)
		}
	}
	return out
}

func (n *rectNode[T]) collectAll(out []RectEntry[T]) []RectEntry[T] {
	for _, e := range n.bucket {
		out = append(out, RectEntry[T]{ID: e.id, Rect: e.rect})
	}
	if n.children != nil {
		for _, c := range n.children {
			out = c.collectAll(out)
		}
	}
	return out
}

func (n *rectNode[T]) count() int {
	total := len(n.bucket)
	if n.children != nil {
		for _, c := range n.children {
			total += c.count()
		}
	}
	return total
}
