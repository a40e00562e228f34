package fastquadtree

import (
	"math/rand"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPointTreeSplitAndQuery(t *testing.T) {
	// S1: bounds (0,0,100,100), capacity 2, max_depth 4, coord f32.
	bounds := Rect[float32]{MinX: 0, MinY: 0, MaxX: 100, MaxY: 100}
	tr, err := NewPointTree(bounds, 2, 4)
	require.NoError(t, err)

	id1, err := tr.Insert(Point[float32]{X: 10, Y: 10})
	require.NoError(t, err)
	id2, err := tr.Insert(Point[float32]{X: 20, Y: 20})
	require.NoError(t, err)
	id3, err := tr.Insert(Point[float32]{X: 30, Y: 30})
	require.NoError(t, err)

	require.NotNil(t, tr.root.children, "root should have split after the third insert")

	got := tr.Query(Rect[float32]{MinX: 0, MinY: 0, MaxX: 25, MaxY: 25})
	gotIDs := idsOf(got)
	sort.Slice(gotIDs, func(i, j int) bool { return gotIDs[i] < gotIDs[j] })
	require.Equal(t, []uint64{id1, id2}, gotIDs)

	// S2: delete the third point, root should merge back to a single leaf.
	ok := tr.Delete(id3, Point[float32]{X: 30, Y: 30})
	require.True(t, ok)
	require.Equal(t, 2, tr.Size())
	require.Nil(t, tr.root.children, "root should merge back into a single leaf")
}

func idsOf(entries []Entry[float32]) []uint64 {
	out := make([]uint64, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func TestPointTreeMaxEdgeRejected(t *testing.T) {
	// S6 / B1: max edge is open.
	bounds := Rect[float64]{MinX: 0, MinY: 0, MaxX: 100, MaxY: 100}
	tr, err := NewPointTree(bounds, 4, Unbounded)
	require.NoError(t, err)

	_, err = tr.Insert(Point[float64]{X: 100, Y: 50})
	require.ErrorIs(t, err, ErrOutOfBounds)

	_, err = tr.Insert(Point[float64]{X: 0, Y: 0})
	require.NoError(t, err, "min edge is closed")
}

func TestPointTreeDuplicatesAtMaxDepthAccumulate(t *testing.T) {
	// B2: duplicate points at max_depth accumulate without split.
	bounds := Rect[int32]{MinX: 0, MinY: 0, MaxX: 16, MaxY: 16}
	tr, err := NewPointTree(bounds, 1, 2)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		_, err := tr.Insert(Point[int32]{X: 8, Y: 8})
		require.NoError(t, err)
	}
	require.Equal(t, 20, tr.Size())

	got := tr.Query(bounds)
	require.Len(t, got, 20)
}

func TestPointTreeInvalidConstruction(t *testing.T) {
	_, err := NewPointTree(Rect[float64]{MinX: 10, MinY: 0, MaxX: 0, MaxY: 10}, 4, Unbounded)
	require.ErrorIs(t, err, ErrInvalidBounds)

	_, err = NewPointTree(Rect[float64]{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10}, 0, Unbounded)
	require.ErrorIs(t, err, ErrInvalidCapacity)

	_, err = NewPointTree(Rect[float64]{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10}, 4, -2)
	require.ErrorIs(t, err, ErrInvalidCapacity)
}

func TestPointTreeDeleteMiss(t *testing.T) {
	bounds := Rect[float64]{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10}
	tr, err := NewPointTree(bounds, 4, Unbounded)
	require.NoError(t, err)

	id, err := tr.Insert(Point[float64]{X: 1, Y: 1})
	require.NoError(t, err)

	require.False(t, tr.Delete(id+1, Point[float64]{X: 1, Y: 1}), "unknown id")
	require.False(t, tr.Delete(id, Point[float64]{X: 2, Y: 2}), "wrong coordinates")
	require.True(t, tr.Delete(id, Point[float64]{X: 1, Y: 1}))
	require.False(t, tr.Delete(id, Point[float64]{X: 1, Y: 1}), "already gone")
}

func TestPointTreeExplicitIDAndTooMany(t *testing.T) {
	bounds := Rect[float64]{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10}
	tr, err := NewPointTree(bounds, 4, Unbounded)
	require.NoError(t, err)

	got, err := tr.Insert(Point[float64]{X: 1, Y: 1}, 42)
	require.NoError(t, err)
	require.Equal(t, uint64(42), got)

	_, err = tr.Insert(Point[float64]{X: 1, Y: 1}, 1, 2)
	require.ErrorIs(t, err, ErrTooManyIDs)
}

func TestPointTreeInsertManyStopsAtFirstFailure(t *testing.T) {
	bounds := Rect[float64]{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10}
	tr, err := NewPointTree(bounds, 4, Unbounded)
	require.NoError(t, err)

	n, err := tr.InsertMany([]Point[float64]{{X: 1, Y: 1}, {X: 2, Y: 2}, {X: 20, Y: 20}, {X: 3, Y: 3}})
	require.ErrorIs(t, err, ErrOutOfBounds)
	require.Equal(t, 2, n)
	require.Equal(t, 2, tr.Size())
}

func TestPointTreeInsertManyAtomicLeavesTreeUnchanged(t *testing.T) {
	bounds := Rect[float64]{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10}
	tr, err := NewPointTree(bounds, 4, Unbounded)
	require.NoError(t, err)

	_, err = tr.InsertManyAtomic([]Point[float64]{{X: 1, Y: 1}, {X: 20, Y: 20}})
	require.ErrorIs(t, err, ErrOutOfBounds)
	require.Equal(t, 0, tr.Size())
}

func TestPointTreeInsertManyBulkOnEmptyTree(t *testing.T) {
	bounds := Rect[float64]{MinX: 0, MinY: 0, MaxX: 100, MaxY: 100}
	tr, err := NewPointTree(bounds, 4, Unbounded)
	require.NoError(t, err)

	xs := make([]float64, 200)
	ys := make([]float64, 200)
	rng := rand.New(rand.NewSource(7))
	for i := range xs {
		xs[i] = rng.Float64() * 99
		ys[i] = rng.Float64() * 99
	}

	n, err := tr.InsertManyBulk(xs, ys)
	require.NoError(t, err)
	require.Equal(t, 200, n)
	require.Equal(t, 200, tr.Size())
	require.Equal(t, 200, tr.root.count())

	full := tr.Query(bounds)
	require.Len(t, full, 200)
}

func TestPointTreeQueryMatchesBruteForce(t *testing.T) {
	// S3-flavored: cross-check query results against a brute-force scan.
	bounds := Rect[float64]{MinX: 0, MinY: 0, MaxX: 1000, MaxY: 1000}
	tr, err := NewPointTree(bounds, 8, Unbounded)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(42))
	type stored struct {
		id uint64
		pt Point[float64]
	}
	var all []stored
	for i := 0; i < 2000; i++ {
		p := Point[float64]{X: rng.Float64() * 1000, Y: rng.Float64() * 1000}
		id, err := tr.Insert(p)
		require.NoError(t, err)
		all = append(all, stored{id, p})
	}

	query := Rect[float64]{MinX: 200, MinY: 200, MaxX: 400, MaxY: 400}
	var want []uint64
	for _, s := range all {
		if query.ContainsPoint(s.pt) {
			want = append(want, s.id)
		}
	}
	sort.Slice(want, func(i, j int) bool { return want[i] < want[j] })

	got := idsOf64(tr.Query(query))
	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
	require.Equal(t, want, got)
}

func idsOf64(entries []Entry[float64]) []uint64 {
	out := make([]uint64, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func TestPointTreeInsertManyBulkMismatchedLength(t *testing.T) {
	bounds := Rect[float64]{MinX: 0, MinY: 0, MaxX: 100, MaxY: 100}
	tr, err := NewPointTree(bounds, 4, Unbounded)
	require.NoError(t, err)

	_, err = tr.InsertManyBulk([]float64{1, 2, 3}, []float64{1, 2})
	require.ErrorIs(t, err, ErrMismatchedArrayLength)
	require.NotErrorIs(t, err, ErrOutOfBounds)
}

// TestPointTreeAllCoordKinds runs construction, insert, query, delete and
// wire round-trip against every Coord kind the tree can be instantiated
// over, generalizing bmharper-flatbush-go's
// testBasic[TFloat float32 | float64] to the full int32|int64|float32|float64
// union — int64 in particular has its own hand-written branch in coord.go
// and serialize.go that no other test in this package instantiates.
func TestPointTreeAllCoordKinds(t *testing.T) {
	t.Run("int32", func(t *testing.T) { testPointTreeCoordKind[int32](t) })
	t.Run("int64", func(t *testing.T) { testPointTreeCoordKind[int64](t) })
	t.Run("float32", func(t *testing.T) { testPointTreeCoordKind[float32](t) })
	t.Run("float64", func(t *testing.T) { testPointTreeCoordKind[float64](t) })
}

func testPointTreeCoordKind[T Coord](t *testing.T) {
	bounds := Rect[T]{MinX: 0, MinY: 0, MaxX: 100, MaxY: 100}
	tr, err := NewPointTree[T](bounds, 4, Unbounded)
	require.NoError(t, err)

	ids := make([]uint64, 20)
	for i := 0; i < 20; i++ {
		id, err := tr.Insert(Point[T]{X: T(i), Y: T(i)})
		require.NoError(t, err)
		ids[i] = id
	}
	require.Equal(t, 20, tr.Size())

	got := tr.Query(Rect[T]{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10})
	require.Len(t, got, 10, "half-open query should see ids 0..9")

	blob, err := tr.ToBytes()
	require.NoError(t, err)
	back, err := FromBytesPoint[T](blob)
	require.NoError(t, err)
	require.Equal(t, tr.Size(), back.Size())
	require.Equal(t, tr.Bounds(), back.Bounds())
	require.Len(t, back.Query(bounds), 20)

	require.True(t, tr.Delete(ids[0], Point[T]{X: 0, Y: 0}))
	require.Equal(t, 19, tr.Size())
}

func BenchmarkPointTreeInsertFloat64(b *testing.B) { benchmarkPointTreeInsert[float64](b) }
func BenchmarkPointTreeInsertInt32(b *testing.B)   { benchmarkPointTreeInsert[int32](b) }

func benchmarkPointTreeInsert[T Coord](b *testing.B) {
	bounds := Rect[T]{MinX: 0, MinY: 0, MaxX: 100000, MaxY: 100000}
	dim := 1000
	start := time.Now()
	tr, err := NewPointTree[T](bounds, 16, Unbounded)
	if err != nil {
		b.Fatal(err)
	}
	for x := 0; x < dim; x++ {
		if _, err := tr.Insert(Point[T]{X: T(x), Y: T(x)}); err != nil {
			b.Fatal(err)
		}
	}
	b.Logf("Time to insert %v elements: %.0f milliseconds", dim, time.Since(start).Seconds()*1000)
}

func BenchmarkPointTreeQueryFloat64(b *testing.B) { benchmarkPointTreeQuery[float64](b) }
func BenchmarkPointTreeQueryInt32(b *testing.B)   { benchmarkPointTreeQuery[int32](b) }

func benchmarkPointTreeQuery[T Coord](b *testing.B) {
	bounds := Rect[T]{MinX: 0, MinY: 0, MaxX: 100000, MaxY: 100000}
	tr, err := NewPointTree[T](bounds, 16, Unbounded)
	if err != nil {
		b.Fatal(err)
	}
	for x := 0; x < 10000; x++ {
		if _, err := tr.Insert(Point[T]{X: T(x), Y: T(x)}); err != nil {
			b.Fatal(err)
		}
	}
	nquery := 100000
	q := Rect[T]{MinX: 0, MinY: 0, MaxX: 5000, MaxY: 5000}
	start := time.Now()
	found := 0
	for i := 0; i < nquery; i++ {
		found += len(tr.Query(q))
	}
	b.Logf("Time for %v queries (%v hits each): %.0f milliseconds", nquery, found/nquery, time.Since(start).Seconds()*1000)
}
