package fastquadtree

import "sort"

// Hilbert-curve ordering used by the bulk build path (bulk.go) to sort
// entries before quadrant partitioning, so that sibling leaf buckets keep
// items that are near each other in space near each other in the resulting
// entry stream — the same locality goal a Hilbert-packed flat spatial index
// gets from sorting items by Hilbert value before packing them into
// fixed-size nodes. Here it only orders items within a bulk build; the tree
// itself stays a recursive quadrant subdivision, not a flat packed array.
//
// hilbertXYToIndex/interleave are adapted from a Hilbert-curve flat spatial
// index's index-build step (originally https://github.com/rawrunprotected/hilbert_curves,
// public domain), generalized from that index's native uint32 coordinates
// to this package's four coordinate kinds via hilbertGridCoord, which maps
// a coordinate to a fixed 16-bit grid cell relative to a node's own bounds.
const hilbertBits = 16
const hilbertGridMax = (1 << hilbertBits) - 1

func hilbertGridCoord[T Coord](lo, hi, v T) uint32 {
	span := toF64(hi) - toF64(lo)
	if span <= 0 {
		return 0
	}
	frac := (toF64(v) - toF64(lo)) / span
	switch {
	case frac < 0:
		frac = 0
	case frac > 1:
		frac = 1
	}
	return uint32(frac * float64(hilbertGridMax))
}

func hilbertIndexOfPoint[T Coord](bounds Rect[T], p Point[T]) uint32 {
	gx := hilbertGridCoord(bounds.MinX, bounds.MaxX, p.X)
	gy := hilbertGridCoord(bounds.MinY, bounds.MaxY, p.Y)
	return hilbertXYToIndex(hilbertBits, gx, gy)
}

// hilbertIndexOfRect orders a rect by its center point.
func hilbertIndexOfRect[T Coord](bounds Rect[T], r Rect[T]) uint32 {
	center := Point[T]{X: mid(r.MinX, r.MaxX), Y: mid(r.MinY, r.MaxY)}
	return hilbertIndexOfPoint(bounds, center)
}

func sortPointEntriesByHilbert[T Coord](bounds Rect[T], entries []pointEntry[T]) {
	sort.Slice(entries, func(i, j int) bool {
		return hilbertIndexOfPoint(bounds, entries[i].pt) < hilbertIndexOfPoint(bounds, entries[j].pt)
	})
}

func sortRectEntriesByHilbert[T Coord](bounds Rect[T], entries []rectEntry[T]) {
	sort.Slice(entries, func(i, j int) bool {
		return hilbertIndexOfRect(bounds, entries[i].rect) < hilbertIndexOfRect(bounds, entries[j].rect)
	})
}

func hilbertXYToIndex(n uint32, x uint32, y uint32) uint32 {
	x = x << (16 - n)
	y = y << (16 - n)

	var A, B, C, D uint32

	{
		a := x ^ y
		b := 0xFFFF ^ a
		c := 0xFFFF ^ (x | y)
		d := x & (y ^ 0xFFFF)

		A = a | (b >> 1)
		B = (a >> 1) ^ a

		C = ((c >> 1) ^ (b & (d >> 1))) ^ c
		D = ((a & (c >> 1)) ^ (d >> 1)) ^ d
	}

	{
		a, b, c, d := A, B, C, D

		A = (a & (a >> 2)) ^ (b & (b >> 2))
		B = (a & (b >> 2)) ^ (b & ((a ^ b) >> 2))

		C ^= (a & (c >> 2)) ^ (b & (d >> 2))
		D ^= (b & (c >> 2)) ^ ((a ^ b) & (d >> 2))
	}

	{
		a, b, c, d := A, B, C, D

		A = (a & (a >> 4)) ^ (b & (b >> 4))
		B = (a & (b >> 4)) ^ (b & ((a ^ b) >> 4))

		C ^= (a & (c >> 4)) ^ (b & (d >> 4))
		D ^= (b & (c >> 4)) ^ ((a ^ b) & (d >> 4))
	}

	{
		a, b, c, d := A, B, C, D

		C ^= (a & (c >> 8)) ^ (b & (d >> 8))
		D ^= (b & (c >> 8)) ^ ((a ^ b) & (d >> 8))
	}

	a := C ^ (C >> 1)
	b := D ^ (D >> 1)

	i0 := x ^ y
	i1 := b | (0xFFFF ^ (i0 | a))

	return ((interleave(i1) << 1) | interleave(i0)) >> (32 - 2*n)
}

func interleave(x uint32) uint32 {
	x = (x | (x << 8)) & 0x00FF00FF
	x = (x | (x << 4)) & 0x0F0F0F0F
	x = (x | (x << 2)) & 0x33333333
	x = (x | (x << 1)) & 0x55555555
	return x
}
