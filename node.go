package fastquadtree

// pointEntry is a stored (id, point) pair inside a leaf bucket.
type pointEntry[T Coord] struct {
	id uint64
	pt Point[T]
}

// pointNode is a leaf (children == nil, points held in bucket) or an
// internal node with exactly four children. Compact by design: no parent
// back-pointer, no per-node count cache — every traversal descends from
// the root carrying whatever state it needs down the call stack, and the
// tree tracks its own aggregate size (§3 invariant 4).
type pointNode[T Coord] struct {
	bounds   Rect[T]
	depth    int
	bucket   []pointEntry[T]
	children *[4]*pointNode[T]
}

func newPointLeaf[T Coord](bounds Rect[T], depth int) *pointNode[T] {
	return &pointNode[T]{bounds: bounds, depth: depth}
}

// insert descends from n, splitting the target leaf when it overflows
// capacity and depth still allows it. The caller (PointTree.Insert) has
// already verified p lies within the root's bounds.
func (n *pointNode[T]) insert(capacity, maxDepth int, id uint64, p Point[T]) {
	if n.children == nil {
		n.bucket = append(n.bucket, pointEntry[T]{id: id, pt: p})
		if len(n.bucket) > capacity && depthAllowsSplit(n.depth, maxDepth) {
			n.split()
		}
		return
	}
	n.children[quadrantOf(n.bounds, p)].insert(capacity, maxDepth, id, p)
}

// split converts a leaf into an internal node, redistributing its bucket
// into four fresh leaf children. It never cascades: a child that overflows
// its own capacity as a result is split only on its own next insertion.
func (n *pointNode[T]) split() {
	quads := subdivide(n.bounds)
	var children [4]*pointNode[T]
	for i := range children {
		children[i] = newPointLeaf[T](quads[i], n.depth+1)
	}
	old := n.bucket
	n.bucket = nil
	n.children = &children
	for _, e := range old {
		q := quadrantOf(n.bounds, e.pt)
		children[q].bucket = append(children[q].bucket, e)
	}
}

// delete removes the entry matching (id, p) from the leaf that would hold
// it, then propagates a merge check back up the call stack. It returns
// whether an entry was actually removed.
func (n *pointNode[T]) delete(capacity int, id uint64, p Point[T]) bool {
	if n.children == nil {
		for i, e := range n.bucket {
			if e.id == id && e.pt == p {
				n.bucket = append(n.bucket[:i], n.bucket[i+1:]...)
				return true
			}
		}
		return false
	}
	child := n.children[quadrantOf(n.bounds, p)]
	if !child.delete(capacity, id, p) {
		return false
	}
	n.tryMerge(capacity)
	return true
}

// tryMerge collapses n back into a single leaf when all four children are
// themselves leaves whose combined bucket size fits within capacity.
func (n *pointNode[T]) tryMerge(capacity int) {
	children := n.children
	if children == nil {
		return
	}
	total := 0
	for _, c := range children {
		if c.children != nil {
			return
		}
		total += len(c.bucket)
	}
	if total > capacity {
		return
	}
	merged := make([]pointEntry[T], 0, total)
	for _, c := range children {
		merged = append(merged, c.bucket...)
	}
	n.bucket = merged
	n.children = nil
}

// query appends every live entry contained in q to out, pruning subtrees
// disjoint from q and short-circuiting subtrees fully contained by q.
func (n *pointNode[T]) query(q Rect[T], out []Entry[T]) []Entry[T] {
	if !n.bounds.Intersects(q) {
		return out
	}
	if q.FullyContains(n.bounds) {
		return n.collectAll(out)
	}
	if n.children == nil {
		for _, e := range n.bucket {
			if q.ContainsPoint(e.pt) {
				out = append(out, Entry[T]{ID: e.id, Point: e.pt})
			}
		}
		return out
	}
	for _, c := range n.children {
		out = c.query(q, out)
	}
	return out
}

func (n *pointNode[T]) collectAll(out []Entry[T]) []Entry[T] {
	for _, e := range n.bucket {
		out = append(out, Entry[T]{ID: e.id, Point: e.pt})
	}
	if n.children != nil {
		for _, c := range n.children {
			out = c.collectAll(out)
		}
	}
	return out
}

// count reports the number of live entries reachable from n. Used only by
// tests to cross-check size; queries and inserts never call it.
func (n *pointNode[T]) count() int {
	total := len(n.bucket)
	if n.children != nil {
		for _, c := range n.children {
			total += c.count()
		}
	}
	return total
}
