package fastquadtree

import "container/heap"

// distSqPointPoint is the exact squared Euclidean distance between two
// points, computed in float64 regardless of T to stabilize f32 ties per
// the numeric genericity contract.
func distSqPointPoint[T Coord](a, b Point[T]) float64 {
	dx := toF64(a.X) - toF64(b.X)
	dy := toF64(a.Y) - toF64(b.Y)
	return dx*dx + dy*dy
}

// distSqPointRect is the squared distance from p to the nearest point of
// r: zero if p is inside r, else the distance to the nearest edge. It
// doubles as both the lower bound used to prioritize an unopened subtree
// and the exact distance to a rect entry.
func distSqPointRect[T Coord](p Point[T], r Rect[T]) float64 {
	px, py := toF64(p.X), toF64(p.Y)
	minX, minY, maxX, maxY := toF64(r.MinX), toF64(r.MinY), toF64(r.MaxX), toF64(r.MaxY)

	var dx, dy float64
	switch {
	case px < minX:
		dx = minX - px
	case px > maxX:
		dx = px - maxX
	}
	switch {
	case py < minY:
		dy = minY - py
	case py > maxY:
		dy = py - maxY
	}
	return dx*dx + dy*dy
}

// pointCandidateHeap is the best-first traversal queue, a min-heap keyed on
// lower-bound squared distance. Grounded on missinglink-simplefeatures's
// container/heap PrioritySearch, generalized with an isEntry marker in
// place of its hasChild bool.
type pointCandidate[T Coord] struct {
	distSq  float64
	isEntry bool
	entry   pointEntry[T]
	node    *pointNode[T]
}

type pointCandidateHeap[T Coord] []pointCandidate[T]

func (h pointCandidateHeap[T]) Len() int            { return len(h) }
func (h pointCandidateHeap[T]) Less(i, j int) bool  { return h[i].distSq < h[j].distSq }
func (h pointCandidateHeap[T]) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *pointCandidateHeap[T]) Push(x interface{}) { *h = append(*h, x.(pointCandidate[T])) }
func (h *pointCandidateHeap[T]) Pop() interface{} {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]
	return it
}

// pointResultHeap is a bounded max-heap of the best k candidates seen so far,
// so the current worst kept result sits at the root for O(1) comparison.
// Ties break toward the smaller id, matching spec.md §4.F's "tie-break
// among equidistant entries is by insertion order (id)".
type pointResult[T Coord] struct {
	id     uint64
	pt     Point[T]
	distSq float64
}

type pointResultHeap[T Coord] []pointResult[T]

func (h pointResultHeap[T]) Len() int { return len(h) }
func (h pointResultHeap[T]) Less(i, j int) bool {
	if h[i].distSq != h[j].distSq {
		return h[i].distSq > h[j].distSq
	}
	return h[i].id > h[j].id
}
func (h pointResultHeap[T]) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *pointResultHeap[T]) Push(x interface{}) { *h = append(*h, x.(pointResult[T])) }
func (h *pointResultHeap[T]) Pop() interface{} {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]
	return it
}

// Nearest returns the k entries closest to query by Euclidean distance,
// sorted ascending, ties broken by id. If maxDist is supplied, candidates
// farther than it are excluded even if fewer than k remain. Result length
// is min(k, Size()).
func (t *PointTree[T]) Nearest(query Point[T], k int, maxDist ...T) []Neighbor[T] {
	if k < 1 || t.size == 0 {
		return nil
	}
	hasMax := len(maxDist) == 1
	var maxDistSq float64
	if hasMax {
		d := toF64(maxDist[0])
		maxDistSq = d * d
	}

	queue := &pointCandidateHeap[T]{}
	heap.Push(queue, pointCandidate[T]{distSq: distSqPointRect(query, t.root.bounds), node: t.root})

	results := &pointResultHeap[T]{}

	for queue.Len() > 0 {
		c := heap.Pop(queue).(pointCandidate[T])
		if hasMax && c.distSq > maxDistSq {
			break
		}
		if results.Len() == k && c.distSq > (*results)[0].distSq {
			break
		}

		if c.isEntry {
			if results.Len() < k {
				heap.Push(results, pointResult[T]{id: c.entry.id, pt: c.entry.pt, distSq: c.distSq})
			} else if worse := (*results)[0]; c.distSq < worse.distSq ||
				(c.distSq == worse.distSq && c.entry.id < worse.id) {
				heap.Pop(results)
				heap.Push(results, pointResult[T]{id: c.entry.id, pt: c.entry.pt, distSq: c.distSq})
			}
			continue
		}

		n := c.node
		if n.children == nil {
			for _, e := range n.bucket {
				d := distSqPointPoint(query, e.pt)
				if hasMax && d > maxDistSq {
					continue
				}
				heap.Push(queue, pointCandidate[T]{distSq: d, isEntry: true, entry: e})
			}
			continue
		}
		for _, child := range n.children {
			d := distSqPointRect(query, child.bounds)
			if hasMax && d > maxDistSq {
				continue
			}
			heap.Push(queue, pointCandidate[T]{distSq: d, node: child})
		}
	}

	out := make([]Neighbor[T], results.Len())
	for i := len(out) - 1; i >= 0; i-- {
		it := heap.Pop(results).(pointResult[T])
		out[i] = Neighbor[T]{ID: it.id, Point: it.pt, DistSq: it.distSq}
	}
	return out
}

// --- rect-tree variant ---

type rectCandidate[T Coord] struct {
	distSq  float64
	isEntry bool
	entry   rectEntry[T]
	node    *rectNode[T]
}

type rectCandidateHeap[T Coord] []rectCandidate[T]

func (h rectCandidateHeap[T]) Len() int            { return len(h) }
func (h rectCandidateHeap[T]) Less(i, j int) bool  { return h[i].distSq < h[j].distSq }
func (h rectCandidateHeap[T]) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *rectCandidateHeap[T]) Push(x interface{}) { *h = append(*h, x.(rectCandidate[T])) }
func (h *rectCandidateHeap[T]) Pop() interface{} {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]
	return it
}

type rectResult[T Coord] struct {
	id     uint64
	rect   Rect[T]
	distSq float64
}

type rectResultHeap[T Coord] []rectResult[T]

func (h rectResultHeap[T]) Len() int { return len(h) }
func (h rectResultHeap[T]) Less(i, j int) bool {
	if h[i].distSq != h[j].distSq {
		return h[i].distSq > h[j].distSq
	}
	return h[i].id > h[j].id
}
func (h rectResultHeap[T]) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *rectResultHeap[T]) Push(x interface{}) { *h = append(*h, x.(rectResult[T])) }
func (h *rectResultHeap[T]) Pop() interface{} {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]
	return it
}

// Nearest is RectTree's k-NN search: distance to a rect entry is the
// distance to its nearest point (zero if the query point lies inside it).
func (t *RectTree[T]) Nearest(query Point[T], k int, maxDist ...T) []RectNeighbor[T] {
	if k < 1 || t.size == 0 {
		return nil
	}
	hasMax := len(maxDist) == 1
	var maxDistSq float64
	if hasMax {
		d := toF64(maxDist[0])
		maxDistSq = d * d
	}

	queue := &rectCandidateHeap[T]{}
	heap.Push(queue, rectCandidate[T]{distSq: distSqPointRect(query, t.root.bounds), node: t.root})

	results := &rectResultHeap[T]{}

	for queue.Len() > 0 {
		c := heap.Pop(queue).(rectCandidate[T])
		if hasMax && c.distSq > maxDistSq {
			break
		}
		if results.Len() == k && c.distSq > (*results)[0].distSq {
			break
		}

		if c.isEntry {
			if results.Len() < k {
				heap.Push(results, rectResult[T]{id: c.entry.id, rect: c.entry.rect, distSq: c.distSq})
			} else if worse := (*results)[0]; c.distSq < worse.distSq ||
				(c.distSq == worse.distSq && c.entry.id < worse.id) {
				heap.Pop(results)
				heap.Push(results, rectResult[T]{id: c.entry.id, rect: c.entry.rect, distSq: c.distSq})
			}
			continue
		}

		n := c.node
		for _, e := range n.bucket {
			d := distSqPointRect(query, e.rect)
			if hasMax && d > maxDistSq {
				continue
			}
			heap.Push(queue, rectCandidate[T]{distSq: d, isEntry: true, entry: e})
		}
		if n.children != nil {
			for _, child := range n.children {
				d := distSqPointRect(query, child.bounds)
				if hasMax && d > maxDistSq {
					continue
				}
				heap.Push(queue, rectCandidate[T]{distSq: d, node: child})
			}
		}
	}

	out := make([]RectNeighbor[T], results.Len())
	for i := len(out) - 1; i >= 0; i-- {
		it := heap.Pop(results).(rectResult[T])
		out[i] = RectNeighbor[T]{ID: it.id, Rect: it.rect, DistSq: it.distSq}
	}
	return out
}
