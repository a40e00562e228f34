package fastquadtree

import "github.com/RoaringBitmap/roaring/v2"

// idFilter is a monotonic, low-32-bit presence pre-filter over the tree's
// 64-bit id space, backed by a compressed bitmap. It answers "was this id
// ever issued by this tree" so Delete can short-circuit an id
// that was never assigned — a typo, or an id meant for a different tree —
// without a descent.
//
// Grounded on hupe1980-vecgo's metadata.LocalBitmap, which wraps the same
// github.com/RoaringBitmap/roaring/v2 bitmap for a 32-bit id space. This
// tree's Id is 64-bit (spec.md §3), and wrapping the bitmap around the raw
// id would silently misbehave once an id exceeded 2^32-1, so idFilter only
// ever indexes the low 32 bits and is never treated as a source of truth:
// bits are added on insert and never cleared on delete, so a collision
// between two ids sharing the same low 32 bits can only produce a false
// positive (an unnecessary descent), never a false negative (a wrongly
// skipped descent). The bucket scan inside pointNode.delete /
// rectNode.delete remains the sole authority on whether an id is live.
type idFilter struct {
	rb *roaring.Bitmap
}

func newIDFilter() *idFilter {
	return &idFilter{rb: roaring.New()}
}

func (f *idFilter) add(id uint64) {
	f.rb.Add(uint32(id))
}

// maybeIssued reports whether id might have been issued by this tree.
// false is authoritative ("definitely never issued"); true only means
// "check the tree."
func (f *idFilter) maybeIssued(id uint64) bool {
	return f.rb.Contains(uint32(id))
}
