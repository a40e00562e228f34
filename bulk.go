package fastquadtree

// buildPointNode recursively partitions entries into quadrants using the
// same midpoint rule as incremental Insert, producing a tree that answers
// queries identically to one built by repeated Insert calls but without
// the per-item bounds check and descent that Insert pays. This is what
// makes InsertManyBulk and FromBytesPoint's entry-stream rebuild faster
// than InsertMany (spec.md §4.G).
//
// Grounded on peterstace-rtree's bulkInsert: partition-then-recurse rather
// than insert-one-at-a-time, generalized here to a fixed 4-way midpoint
// split instead of a longest-axis STR split, to match this tree's
// quadrant topology.
func buildPointNode[T Coord](bounds Rect[T], depth, capacity, maxDepth int, entries []pointEntry[T]) *pointNode[T] {
	n := newPointLeaf[T](bounds, depth)
	if len(entries) <= capacity || !depthAllowsSplit(depth, maxDepth) {
		n.bucket = append(n.bucket, entries...)
		return n
	}

	sortPointEntriesByHilbert(bounds, entries)
	quads := subdivide(bounds)
	var buckets [4][]pointEntry[T]
	for _, e := range entries {
		q := quadrantOf(bounds, e.pt)
		buckets[q] = append(buckets[q], e)
	}

	var children [4]*pointNode[T]
	for i := range children {
		children[i] = buildPointNode(quads[i], depth+1, capacity, maxDepth, buckets[i])
	}
	n.children = &children
	return n
}

// buildRectNode is buildPointNode's rect-tree counterpart: entries not
// fully contained by any child quadrant remain in n's retained bucket,
// same rule as incremental split (spec.md §4.B rectangle variant).
func buildRectNode[T Coord](bounds Rect[T], depth, capacity, maxDepth int, entries []rectEntry[T]) *rectNode[T] {
	n := newRectLeaf[T](bounds, depth)
	if len(entries) <= capacity || !depthAllowsSplit(depth, maxDepth) {
		n.bucket = append(n.bucket, entries...)
		return n
	}

	sortRectEntriesByHilbert(bounds, entries)
	quads := subdivide(bounds)
	var buckets [4][]rectEntry[T]
	var straddling []rectEntry[T]
	for _, e := range entries {
		placed := false
		for i, qr := range quads {
			if qr.FullyContains(e.rect) {
				buckets[i] = append(buckets[i], e)
				placed = true
				break
			}
		}
		if !placed {
			straddling = append(straddling, e)
		}
	}

	var children [4]*rectNode[T]
	for i := range children {
		children[i] = buildRectNode(quads[i], depth+1, capacity, maxDepth, buckets[i])
	}
	n.children = &children
	n.bucket = straddling
	return n
}
