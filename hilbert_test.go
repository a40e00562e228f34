package fastquadtree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHilbertIndexIsWithinRange(t *testing.T) {
	bounds := Rect[float64]{MinX: 0, MinY: 0, MaxX: 100, MaxY: 100}
	for x := 0.0; x < 100; x += 13 {
		for y := 0.0; y < 100; y += 17 {
			idx := hilbertIndexOfPoint(bounds, Point[float64]{X: x, Y: y})
			require.Less(t, uint64(idx), uint64(1)<<(2*hilbertBits))
		}
	}
}

func TestSortPointEntriesByHilbertIsSpatiallyCoherent(t *testing.T) {
	bounds := Rect[float64]{MinX: 0, MinY: 0, MaxX: 100, MaxY: 100}
	entries := []pointEntry[float64]{
		{id: 1, pt: Point[float64]{X: 99, Y: 99}},
		{id: 2, pt: Point[float64]{X: 0, Y: 0}},
		{id: 3, pt: Point[float64]{X: 1, Y: 1}},
		{id: 4, pt: Point[float64]{X: 50, Y: 50}},
	}
	sortPointEntriesByHilbert(bounds, entries)

	// Adjacent-in-space points 2 and 3 should land next to each other in
	// Hilbert order.
	posOf := func(id uint64) int {
		for i, e := range entries {
			if e.id == id {
				return i
			}
		}
		return -1
	}
	require.Equal(t, 1, absDiff(posOf(2), posOf(3)))
}

func absDiff(a, b int) int {
	if a < b {
		return b - a
	}
	return a - b
}
