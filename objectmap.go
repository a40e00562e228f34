package fastquadtree

import "sort"

// ObjectMap is a bidirectional side-table associating tree entry ids with
// host-supplied external handles (spec.md §3 ObjectMap, §4.E). It never
// affects query correctness of the underlying tree — it only records the
// association.
//
// H must be comparable. That's the Go equivalent of the identity hashing
// the design notes ask for (spec.md §9: "should not require handles to be
// hashable by value — identity hashing... is sufficient"): a pointer type,
// an integer id, or a string key all satisfy it and compare by identity or
// value as appropriate; H is never required to implement any interface.
//
// Grounded on original_source/src/obj_store.rs's ObjStore, in particular
// its reverse identity map and its "a handle can back more than one id"
// support (ids_for_obj_sorted / pop_by_object_all), generalized from
// obj_store's raw-pointer identity key to Go's native comparable equality.
type ObjectMap[H comparable] struct {
	forward map[uint64]H
	reverse map[H][]uint64
}

func newObjectMap[H comparable]() *ObjectMap[H] {
	return &ObjectMap[H]{
		forward: make(map[uint64]H),
		reverse: make(map[H][]uint64),
	}
}

func (m *ObjectMap[H]) track(id uint64, h H) {
	m.forward[id] = h
	ids := m.reverse[h]
	for _, x := range ids {
		if x == id {
			return
		}
	}
	m.reverse[h] = append(ids, id)
}

func (m *ObjectMap[H]) untrack(id uint64) {
	h, ok := m.forward[id]
	if !ok {
		return
	}
	delete(m.forward, id)
	ids := m.reverse[h]
	for i, x := range ids {
		if x == id {
			ids = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(ids) == 0 {
		delete(m.reverse, h)
	} else {
		m.reverse[h] = ids
	}
}

// HandleFor returns the handle tracked for id, if any.
func (m *ObjectMap[H]) HandleFor(id uint64) (H, bool) {
	h, ok := m.forward[id]
	return h, ok
}

// IDFor returns the deterministic "first" id for a handle identity: the
// smallest id currently associated with it, matching obj_store.rs's
// min_id_for_obj. Most callers attach one handle to one id, in which case
// this is simply that id.
func (m *ObjectMap[H]) IDFor(h H) (uint64, bool) {
	ids := m.reverse[h]
	if len(ids) == 0 {
		return 0, false
	}
	min := ids[0]
	for _, x := range ids[1:] {
		if x < min {
			min = x
		}
	}
	return min, true
}

// IDsForHandle returns every id currently associated with h, sorted
// ascending.
func (m *ObjectMap[H]) IDsForHandle(h H) []uint64 {
	ids := append([]uint64(nil), m.reverse[h]...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Len reports the number of tracked ids.
func (m *ObjectMap[H]) Len() int { return len(m.forward) }

// ObjectEntry is Entry with the tracked handle attached, returned by the
// object-aware query variants.
type ObjectEntry[T Coord, H comparable] struct {
	ID     uint64
	Point  Point[T]
	Handle H
}

// RectObjectEntry is RectEntry with the tracked handle attached.
type RectObjectEntry[T Coord, H comparable] struct {
	ID     uint64
	Rect   Rect[T]
	Handle H
}

// PointTreeObjects layers an ObjectMap over a PointTree, tracking each
// entry's point alongside its handle so DeleteByHandle can recover the
// coordinates a plain ObjectMap doesn't store, per spec.md §4.E's
// "delete_by_handle performs an O(1) reverse lookup to recover (id,
// point), then calls delete."
type PointTreeObjects[T Coord, H comparable] struct {
	*PointTree[T]
	objects *ObjectMap[H]
	points  map[uint64]Point[T]
}

// NewPointTreeWithObjects constructs an object-tracking point tree. Unlike
// a plain PointTree, deleted ids are recycled by future auto-assignment
// (original_source/src/obj_store.rs's LIFO free-list), since object-
// tracked trees are the ones expected to churn under long-running
// add/remove/re-add cycles.
func NewPointTreeWithObjects[T Coord, H comparable](bounds Rect[T], capacity, maxDepth int) (*PointTreeObjects[T, H], error) {
	t, err := NewPointTree[T](bounds, capacity, maxDepth)
	if err != nil {
		return nil, err
	}
	t.enableFreeList()
	return &PointTreeObjects[T, H]{
		PointTree: t,
		objects:   newObjectMap[H](),
		points:    make(map[uint64]Point[T]),
	}, nil
}

// InsertObject inserts p and tracks handle against the returned id.
func (t *PointTreeObjects[T, H]) InsertObject(p Point[T], handle H, id ...uint64) (uint64, error) {
	assigned, err := t.PointTree.Insert(p, id...)
	if err != nil {
		return 0, err
	}
	t.objects.track(assigned, handle)
	t.points[assigned] = p
	return assigned, nil
}

// DeleteByHandle recovers the id and point for handle via the reverse map
// and deletes it in O(1) + descent, without the caller needing to know the
// coordinates.
func (t *PointTreeObjects[T, H]) DeleteByHandle(handle H) bool {
	id, ok := t.objects.IDFor(handle)
	if !ok {
		return false
	}
	return t.deleteTracked(id)
}

// DeleteByID deletes by id alone, looking up its point from the tracked
// side table.
func (t *PointTreeObjects[T, H]) DeleteByID(id uint64) bool {
	return t.deleteTracked(id)
}

func (t *PointTreeObjects[T, H]) deleteTracked(id uint64) bool {
	p, ok := t.points[id]
	if !ok {
		return false
	}
	if !t.PointTree.Delete(id, p) {
		return false
	}
	t.objects.untrack(id)
	delete(t.points, id)
	return true
}

// DeleteAllByHandle deletes every id currently tracked against handle,
// smallest first, matching obj_store.rs's pop_by_object_all. It returns how
// many were actually removed.
func (t *PointTreeObjects[T, H]) DeleteAllByHandle(handle H) int {
	ids := t.objects.IDsForHandle(handle)
	n := 0
	for _, id := range ids {
		if t.deleteTracked(id) {
			n++
		}
	}
	return n
}

// Objects exposes the underlying ObjectMap for direct handle lookups.
func (t *PointTreeObjects[T, H]) Objects() *ObjectMap[H] { return t.objects }

// QueryObjects is Query with each result's tracked handle attached.
func (t *PointTreeObjects[T, H]) QueryObjects(r Rect[T]) []ObjectEntry[T, H] {
	entries := t.PointTree.Query(r)
	out := make([]ObjectEntry[T, H], len(entries))
	for i, e := range entries {
		h, _ := t.objects.HandleFor(e.ID)
		out[i] = ObjectEntry[T, H]{ID: e.ID, Point: e.Point, Handle: h}
	}
	return out
}

// RectTreeObjects is RectTree's counterpart to PointTreeObjects.
type RectTreeObjects[T Coord, H comparable] struct {
	*RectTree[T]
	objects *ObjectMap[H]
	rects   map[uint64]Rect[T]
}

// NewRectTreeWithObjects constructs an object-tracking rect tree.
func NewRectTreeWithObjects[T Coord, H comparable](bounds Rect[T], capacity, maxDepth int) (*RectTreeObjects[T, H], error) {
	t, err := NewRectTree[T](bounds, capacity, maxDepth)
	if err != nil {
		return nil, err
	}
	t.enableFreeList()
	return &RectTreeObjects[T, H]{
		RectTree: t,
		objects:  newObjectMap[H](),
		rects:    make(map[uint64]Rect[T]),
	}, nil
}

func (t *RectTreeObjects[T, H]) InsertObject(r Rect[T], handle H, id ...uint64) (uint64, error) {
	assigned, err := t.RectTree.Insert(r, id...)
	if err != nil {
		return 0, err
	}
	t.objects.track(assigned, handle)
	t.rects[assigned] = r
	return assigned, nil
}

func (t *RectTreeObjects[T, H]) DeleteByHandle(handle H) bool {
	id, ok := t.objects.IDFor(handle)
	if !ok {
		return false
	}
	return t.deleteTracked(id)
}

func (t *RectTreeObjects[T, H]) DeleteByID(id uint64) bool {
	return t.deleteTracked(id)
}

func (t *RectTreeObjects[T, H]) deleteTracked(id uint64) bool {
	r, ok := t.rects[id]
	if !ok {
		return false
	}
	if !t.RectTree.Delete(id, r) {
		return false
	}
	t.objects.untrack(id)
	delete(t.rects, id)
	return true
}

// DeleteAllByHandle is RectTreeObjects's counterpart to
// PointTreeObjects.DeleteAllByHandle.
func (t *RectTreeObjects[T, H]) DeleteAllByHandle(handle H) int {
	ids := t.objects.IDsForHandle(handle)
	n := 0
	for _, id := range ids {
		if t.deleteTracked(id) {
			n++
		}
	}
	return n
}

func (t *RectTreeObjects[T, H]) Objects() *ObjectMap[H] { return t.objects }

func (t *RectTreeObjects[T, H]) QueryObjects(r Rect[T]) []RectObjectEntry[T, H] {
	entries := t.RectTree.Query(r)
	out := make([]RectObjectEntry[T, H], len(entries))
	for i, e := range entries {
		h, _ := t.objects.HandleFor(e.ID)
		out[i] = RectObjectEntry[T, H]{ID: e.ID, Rect: e.Rect, Handle: h}
	}
	return out
}
