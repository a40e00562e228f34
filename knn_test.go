package fastquadtree

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPointTreeNearestMatchesBruteForce(t *testing.T) {
	// S3: 10,000 uniformly random points, seed 42, k=5 against (500,500).
	bounds := Rect[float32]{MinX: 0, MinY: 0, MaxX: 1000, MaxY: 1000}
	tr, err := NewPointTree(bounds, 64, Unbounded)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(42))
	type stored struct {
		id uint64
		pt Point[float32]
	}
	all := make([]stored, 0, 10000)
	for i := 0; i < 10000; i++ {
		p := Point[float32]{X: float32(rng.Float64() * 999), Y: float32(rng.Float64() * 999)}
		id, err := tr.Insert(p)
		require.NoError(t, err)
		all = append(all, stored{id, p})
	}

	query := Point[float32]{X: 500, Y: 500}
	neighbors := tr.Nearest(query, 5)
	require.Len(t, neighbors, 5)

	sort.Slice(all, func(i, j int) bool {
		return distSqPointPoint(query, all[i].pt) < distSqPointPoint(query, all[j].pt)
	})

	for i, n := range neighbors {
		want := distSqPointPoint(query, all[i].pt)
		require.InDelta(t, want, n.DistSq, 1e-6*math.Max(1, want))
	}

	for i := 1; i < len(neighbors); i++ {
		require.LessOrEqual(t, neighbors[i-1].DistSq, neighbors[i].DistSq)
	}
}

func TestPointTreeNearestKGreaterThanSize(t *testing.T) {
	// B4: k > size returns all entries sorted.
	bounds := Rect[float64]{MinX: 0, MinY: 0, MaxX: 100, MaxY: 100}
	tr, err := NewPointTree(bounds, 4, Unbounded)
	require.NoError(t, err)

	pts := []Point[float64]{{X: 1, Y: 1}, {X: 5, Y: 5}, {X: 9, Y: 9}}
	for _, p := range pts {
		_, err := tr.Insert(p)
		require.NoError(t, err)
	}

	got := tr.Nearest(Point[float64]{X: 0, Y: 0}, 10)
	require.Len(t, got, 3)
	for i := 1; i < len(got); i++ {
		require.LessOrEqual(t, got[i-1].DistSq, got[i].DistSq)
	}
}

func TestPointTreeNearestEmptyTree(t *testing.T) {
	bounds := Rect[float64]{MinX: 0, MinY: 0, MaxX: 100, MaxY: 100}
	tr, err := NewPointTree(bounds, 4, Unbounded)
	require.NoError(t, err)

	require.Nil(t, tr.Nearest(Point[float64]{X: 0, Y: 0}, 5))
}

func TestPointTreeNearestTieBreaksByID(t *testing.T) {
	// Both equidistant from origin; only one fits in k=1, and it must be
	// the smaller id.
	bounds := Rect[float64]{MinX: -100, MinY: -100, MaxX: 100, MaxY: 100}
	tr, err := NewPointTree(bounds, 4, Unbounded)
	require.NoError(t, err)

	a, err := tr.Insert(Point[float64]{X: 10, Y: 0})
	require.NoError(t, err)
	b, err := tr.Insert(Point[float64]{X: -10, Y: 0})
	require.NoError(t, err)
	smaller := a
	if b < smaller {
		smaller = b
	}

	got := tr.Nearest(Point[float64]{X: 0, Y: 0}, 1)
	require.Len(t, got, 1)
	require.Equal(t, smaller, got[0].ID)
}

func TestPointTreeNearestMaxDist(t *testing.T) {
	bounds := Rect[float64]{MinX: 0, MinY: 0, MaxX: 100, MaxY: 100}
	tr, err := NewPointTree(bounds, 4, Unbounded)
	require.NoError(t, err)

	near, err := tr.Insert(Point[float64]{X: 1, Y: 0})
	require.NoError(t, err)
	_, err = tr.Insert(Point[float64]{X: 50, Y: 0})
	require.NoError(t, err)

	got := tr.Nearest(Point[float64]{X: 0, Y: 0}, 5, 10)
	require.Len(t, got, 1)
	require.Equal(t, near, got[0].ID)
}

func TestRectTreeNearestZeroInsideRect(t *testing.T) {
	bounds := Rect[float64]{MinX: 0, MinY: 0, MaxX: 100, MaxY: 100}
	tr, err := NewRectTree(bounds, 4, Unbounded)
	require.NoError(t, err)

	id, err := tr.Insert(Rect[float64]{MinX: 10, MinY: 10, MaxX: 20, MaxY: 20})
	require.NoError(t, err)

	got := tr.Nearest(Point[float64]{X: 15, Y: 15}, 1)
	require.Len(t, got, 1)
	require.Equal(t, id, got[0].ID)
	require.Equal(t, 0.0, got[0].DistSq)
}
