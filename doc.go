// Package fastquadtree implements an in-memory, bounded-region point and
// rectangle quadtree for high-throughput 2-D spatial queries: range search,
// k-nearest-neighbor, and containment, over up to millions of items inside
// a fixed rectangular universe.
//
// The tree is generic over four coordinate kinds (int32, int64, float32,
// float64) via the Coord constraint and is monomorphized per instantiation
// — there is no runtime type dispatch inside the traversal hot loops.
// Containment is closed on the minimum edge and open on the maximum edge of
// a rectangle (see Rect.ContainsPoint).
//
// The core performs no internal locking and no I/O. Mutating methods
// (Insert*, Delete*) require exclusive
// access from the caller; read-only methods (Query, Nearest, ToBytes,
// accessors) may run concurrently against an immutable tree.
package fastquadtree
