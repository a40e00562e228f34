package fastquadtree

// RectTree is the rectangle-item variant of PointTree: insertion requires
// full containment within bounds, and range queries use intersection
// rather than point containment (spec.md §4.B rectangle variant).
type RectTree[T Coord] struct {
	bounds   Rect[T]
	capacity int
	maxDepth int

	root   *rectNode[T]
	nextID uint64
	size   int

	live *idFilter

	reuseIDs bool
	freeIDs  []uint64
}

// NewRectTree constructs an empty rect tree, same construction contract as
// NewPointTree.
func NewRectTree[T Coord](bounds Rect[T], capacity int, maxDepth int) (*RectTree[T], error) {
	if !bounds.Valid() {
		return nil, ErrInvalidBounds
	}
	if capacity < 1 || (maxDepth < 0 && maxDepth != Unbounded) {
		return nil, ErrInvalidCapacity
	}
	return &RectTree[T]{
		bounds:   bounds,
		capacity: capacity,
		maxDepth: maxDepth,
		root:     newRectLeaf[T](bounds, 0),
		live:     newIDFilter(),
	}, nil
}

func (t *RectTree[T]) enableFreeList() {
	t.reuseIDs = true
}

func (t *RectTree[T]) nextAutoID() uint64 {
	if t.reuseIDs && len(t.freeIDs) > 0 {
		id := t.freeIDs[len(t.freeIDs)-1]
		t.freeIDs = t.freeIDs[:len(t.freeIDs)-1]
		return id
	}
	id := t.nextID
	t.nextID++
	return id
}

// Insert adds r to the tree under full-containment insertion, returning
// its id.
func (t *RectTree[T]) Insert(r Rect[T], id ...uint64) (uint64, error) {
	if len(id) > 1 {
		return 0, ErrTooManyIDs
	}
	if !r.Valid() || !t.bounds.FullyContains(r) {
		return 0, ErrOutOfBounds
	}
	var assigned uint64
	if len(id) == 1 {
		assigned = id[0]
	} else {
		assigned = t.nextAutoID()
	}
	t.root.insert(t.capacity, t.maxDepth, assigned, r)
	t.size++
	t.live.add(assigned)
	return assigned, nil
}

// InsertMany is RectTree's counterpart to PointTree.InsertMany: stops at
// the first rect outside bounds, reporting how many succeeded first.
func (t *RectTree[T]) InsertMany(rects []Rect[T]) (int, error) {
	for i, r := range rects {
		if _, err := t.Insert(r); err != nil {
			return i, err
		}
	}
	return len(rects), nil
}

// InsertManyAtomic validates every rect before inserting any of them.
func (t *RectTree[T]) InsertManyAtomic(rects []Rect[T]) (int, error) {
	for _, r := range rects {
		if !r.Valid() || !t.bounds.FullyContains(r) {
			return 0, ErrOutOfBounds
		}
	}
	return t.InsertMany(rects)
}

// InsertManyBulk is the dense-array fast path for rects: minXs/minYs/maxXs/
// maxYs are parallel arrays. Same empty-tree bulk-partition optimization
// as PointTree.InsertManyBulk.
func (t *RectTree[T]) InsertManyBulk(minXs, minYs, maxXs, maxYs []T) (int, error) {
	n := len(minXs)
	if len(minYs) != n || len(maxXs) != n || len(maxYs) != n {
		return 0, ErrMismatchedArrayLength
	}
	rects := make([]Rect[T], n)
	for i := range rects {
		rects[i] = Rect[T]{MinX: minXs[i], MinY: minYs[i], MaxX: maxXs[i], MaxY: maxYs[i]}
		if !rects[i].Valid() || !t.bounds.FullyContains(rects[i]) {
			return i, ErrOutOfBounds
		}
	}
	if t.size == 0 {
		entries := make([]rectEntry[T], n)
		for i, r := range rects {
			id := t.nextAutoID()
			entries[i] = rectEntry[T]{id: id, rect: r}
			t.live.add(id)
		}
		t.root = buildRectNode(t.bounds, 0, t.capacity, t.maxDepth, entries)
		t.size = n
		return n, nil
	}
	for i, r := range rects {
		if _, err := t.Insert(r); err != nil {
			return i, err
		}
	}
	return n, nil
}

// Delete removes the entry matching id and the exact stored bounds.
func (t *RectTree[T]) Delete(id uint64, r Rect[T]) bool {
	if !t.live.maybeIssued(id) {
		return false
	}
	if !t.bounds.FullyContains(r) {
		return false
	}
	if !t.root.delete(t.capacity, id, r) {
		return false
	}
	t.size--
	if t.reuseIDs {
		t.freeIDs = append(t.freeIDs, id)
	}
	return true
}

// Query returns every stored rect intersecting r.
func (t *RectTree[T]) Query(r Rect[T]) []RectEntry[T] {
	return t.root.query(r, nil)
}

func (t *RectTree[T]) Size() int       { return t.size }
func (t *RectTree[T]) Bounds() Rect[T] { return t.bounds }
func (t *RectTree[T]) Capacity() int   { return t.capacity }
func (t *RectTree[T]) MaxDepth() int   { return t.maxDepth }
