package fastquadtree

// PointTree is a bounded-region quadtree over point items. It is
// single-writer: mutating methods must not run concurrently with each
// other or with reads (spec.md §5).
type PointTree[T Coord] struct {
	bounds   Rect[T]
	capacity int
	maxDepth int

	root   *pointNode[T]
	nextID uint64
	size   int

	live *idFilter

	reuseIDs bool
	freeIDs  []uint64
}

// NewPointTree constructs an empty tree over bounds with the given leaf
// capacity and max subdivision depth (Unbounded for "never stop
// splitting"). capacity must be >= 1 and maxDepth must be >= 0 or
// Unbounded.
func NewPointTree[T Coord](bounds Rect[T], capacity int, maxDepth int) (*PointTree[T], error) {
	if !bounds.Valid() {
		return nil, ErrInvalidBounds
	}
	if capacity < 1 || (maxDepth < 0 && maxDepth != Unbounded) {
		return nil, ErrInvalidCapacity
	}
	return &PointTree[T]{
		bounds:   bounds,
		capacity: capacity,
		maxDepth: maxDepth,
		root:     newPointLeaf[T](bounds, 0),
		live:     newIDFilter(),
	}, nil
}

func (t *PointTree[T]) enableFreeList() {
	t.reuseIDs = true
}

func (t *PointTree[T]) nextAutoID() uint64 {
	if t.reuseIDs && len(t.freeIDs) > 0 {
		id := t.freeIDs[len(t.freeIDs)-1]
		t.freeIDs = t.freeIDs[:len(t.freeIDs)-1]
		return id
	}
	id := t.nextID
	t.nextID++
	return id
}

// Insert adds p to the tree, returning the id it was stored under. If id
// is supplied, it is used verbatim (uniqueness is not enforced by the
// core, per spec.md §3); otherwise one is auto-assigned.
func (t *PointTree[T]) Insert(p Point[T], id ...uint64) (uint64, error) {
	if len(id) > 1 {
		return 0, ErrTooManyIDs
	}
	if !t.bounds.ContainsPoint(p) {
		return 0, ErrOutOfBounds
	}
	var assigned uint64
	if len(id) == 1 {
		assigned = id[0]
	} else {
		assigned = t.nextAutoID()
	}
	t.root.insert(t.capacity, t.maxDepth, assigned, p)
	t.size++
	t.live.add(assigned)
	return assigned, nil
}

// InsertMany inserts points in order, stopping at the first one outside
// bounds. It returns the number of points successfully inserted before
// that failure (or len(points) on full success) and the first error, if
// any — spec.md §9's resolution of the "is insert_many atomic" open
// question.
func (t *PointTree[T]) InsertMany(points []Point[T]) (int, error) {
	for i, p := range points {
		if _, err := t.Insert(p); err != nil {
			return i, err
		}
	}
	return len(points), nil
}

// InsertManyAtomic validates every point against bounds before inserting
// any of them, so a failure leaves the tree completely unchanged. This is
// the named all-or-nothing variant spec.md §9 allows alongside the default
// first-failure-and-stop InsertMany.
func (t *PointTree[T]) InsertManyAtomic(points []Point[T]) (int, error) {
	for _, p := range points {
		if !t.bounds.ContainsPoint(p) {
			return 0, ErrOutOfBounds
		}
	}
	return t.InsertMany(points)
}

// InsertManyBulk is the array-interchange fast path: xs and ys are
// parallel dense coordinate arrays supplied by the host, bypassing the
// per-item call overhead InsertMany pays. If the tree is currently empty
// its root is rebuilt in one bulk quadrant partition (see bulk.go);
// otherwise it falls back to sequential inserts, since bulk partitioning
// can only replace a whole subtree, not merge into one that already holds
// entries.
func (t *PointTree[T]) InsertManyBulk(xs, ys []T) (int, error) {
	if len(xs) != len(ys) {
		return 0, ErrMismatchedArrayLength
	}
	for i := range xs {
		if !t.bounds.ContainsPoint(Point[T]{X: xs[i], Y: ys[i]}) {
			return i, ErrOutOfBounds
		}
	}
	if t.size == 0 {
		entries := make([]pointEntry[T], len(xs))
		for i := range xs {
			id := t.nextAutoID()
			entries[i] = pointEntry[T]{id: id, pt: Point[T]{X: xs[i], Y: ys[i]}}
			t.live.add(id)
		}
		t.root = buildPointNode(t.bounds, 0, t.capacity, t.maxDepth, entries)
		t.size = len(entries)
		return len(entries), nil
	}
	for i := range xs {
		if _, err := t.Insert(Point[T]{X: xs[i], Y: ys[i]}); err != nil {
			return i, err
		}
	}
	return len(xs), nil
}

// Delete removes the entry with the given id and exact coordinates,
// merging ancestor nodes back into leaves where they now fit. It reports
// whether an entry was actually removed; a miss is not an error.
func (t *PointTree[T]) Delete(id uint64, p Point[T]) bool {
	if !t.live.maybeIssued(id) {
		return false
	}
	if !t.bounds.ContainsPoint(p) {
		return false
	}
	if !t.root.delete(t.capacity, id, p) {
		return false
	}
	t.size--
	if t.reuseIDs {
		t.freeIDs = append(t.freeIDs, id)
	}
	return true
}

// Query returns every live entry contained in r under the half-open rule,
// each exactly once, in traversal order.
func (t *PointTree[T]) Query(r Rect[T]) []Entry[T] {
	return t.root.query(r, nil)
}

// Size reports the number of live entries.
func (t *PointTree[T]) Size() int { return t.size }

// Bounds reports the tree's fixed universe.
func (t *PointTree[T]) Bounds() Rect[T] { return t.bounds }

// Capacity reports the leaf capacity.
func (t *PointTree[T]) Capacity() int { return t.capacity }

// MaxDepth reports the maximum subdivision depth (Unbounded if unlimited).
func (t *PointTree[T]) MaxDepth() int { return t.maxDepth }
