package fastquadtree

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"io"
	"sort"
)

// Wire format, little-endian throughout (spec.md §6):
//
//	magic          8 bytes  = "FQT\0FMT\0"
//	version        u16      = 1
//	flags          u16      (bit0 = has_object_map, bit1 = rect_tree)
//	coord_type     u8       (0=i32, 1=i64, 2=f32, 3=f64)
//	reserved       3 bytes  = 0
//	capacity       u32
//	max_depth      u32      (0xFFFFFFFF = unlimited)
//	bounds         4 x coord
//	next_id        u64
//	entry_count    u64
//	entries        entry_count x (id:u64, geom)
//	[if has_object_map:]
//	  object_count u64
//	  object_ids   object_count x u64
//	  object_bytes u64, then that many opaque payload bytes
//	crc32c         u32, over everything preceding
var wireMagic = [8]byte{'F', 'Q', 'T', 0, 'F', 'M', 'T', 0}

const wireVersion uint16 = 1

const (
	flagHasObjectMap uint16 = 1 << 0
	flagRectTree     uint16 = 1 << 1
)

const unlimitedDepthWire uint32 = 0xFFFFFFFF

var castagnoliTable = crc32.MakeTable(crc32.Castagnoli)

// HandleEncoder packs a set of tracked handles, in id order, into a single
// opaque byte run. The core never interprets the bytes; it only sizes and
// stores the run, per spec.md §6's "the core treats it as an opaque byte
// run."
type HandleEncoder[H any] func(handles []H) ([]byte, error)

// HandleDecoder is the encoder's inverse: given the same opaque byte run
// and the number of handles it holds, it must return them in the same
// order they were encoded.
type HandleDecoder[H any] func(payload []byte, count int) ([]H, error)

func writeCoord[T Coord](buf *bytes.Buffer, v T) error {
	switch x := any(v).(type) {
	case int32:
		return binary.Write(buf, binary.LittleEndian, x)
	case int64:
		return binary.Write(buf, binary.LittleEndian, x)
	case float32:
		return binary.Write(buf, binary.LittleEndian, x)
	case float64:
		return binary.Write(buf, binary.LittleEndian, x)
	default:
		return errors.New("fastquadtree: unsupported coord type")
	}
}

func readCoord[T Coord](r io.Reader) (T, error) {
	var zero T
	switch any(zero).(type) {
	case int32:
		var v int32
		if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
			return zero, err
		}
		return any(v).(T), nil
	case int64:
		var v int64
		if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
			return zero, err
		}
		return any(v).(T), nil
	case float32:
		var v float32
		if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
			return zero, err
		}
		return any(v).(T), nil
	case float64:
		var v float64
		if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
			return zero, err
		}
		return any(v).(T), nil
	default:
		return zero, errors.New("fastquadtree: unsupported coord type")
	}
}

func writeRect[T Coord](buf *bytes.Buffer, r Rect[T]) error {
	for _, v := range [4]T{r.MinX, r.MinY, r.MaxX, r.MaxY} {
		if err := writeCoord(buf, v); err != nil {
			return err
		}
	}
	return nil
}

func readRect[T Coord](r io.Reader) (Rect[T], error) {
	var out Rect[T]
	vals := make([]T, 4)
	for i := range vals {
		v, err := readCoord[T](r)
		if err != nil {
			return out, err
		}
		vals[i] = v
	}
	out.MinX, out.MinY, out.MaxX, out.MaxY = vals[0], vals[1], vals[2], vals[3]
	return out, nil
}

func maxDepthToWire(maxDepth int) uint32 {
	if maxDepth == Unbounded {
		return unlimitedDepthWire
	}
	return uint32(maxDepth)
}

func maxDepthFromWire(wire uint32) int {
	if wire == unlimitedDepthWire {
		return Unbounded
	}
	return int(wire)
}

// blobHeader holds the fixed header fields of a blob (flags, coord type,
// capacity, max depth) plus the trailing crc32c, which is always the last
// four bytes. Bounds, next_id and the entry stream are read afterwards by
// decodePointEntries/decodeRectEntries, which also fill objectIDs and
// objectBytes with the raw object-map chunk whenever the blob carries one,
// regardless of whether the caller asked for objects.
type blobHeader struct {
	coordType    CoordType
	rectTree     bool
	capacity     int
	maxDepth     int
	nextID       uint64
	entryCount   uint64
	hasObjects   bool
	objectIDs    []uint64
	objectBytes  []byte
	bodyForCRC   []byte // everything before the crc32c field
	trailingCRC  uint32
}

func parseBlobHeader(buf []byte) (*blobHeader, []byte, error) {
	if len(buf) < 4 {
		return nil, nil, newFormatError(FormatTruncated)
	}
	crcOffset := len(buf) - 4
	body := buf[:crcOffset]
	trailingCRC := binary.LittleEndian.Uint32(buf[crcOffset:])

	got := crc32.Checksum(body, castagnoliTable)
	if got != trailingCRC {
		return nil, nil, newFormatError(FormatBadChecksum)
	}

	r := bytes.NewReader(body)

	var magic [8]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, nil, newFormatError(FormatTruncated)
	}
	if magic != wireMagic {
		return nil, nil, newFormatError(FormatBadMagic)
	}

	var version uint16
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, nil, newFormatError(FormatTruncated)
	}
	if version != wireVersion {
		return nil, nil, newFormatError(FormatVersionMismatch)
	}

	var flags uint16
	if err := binary.Read(r, binary.LittleEndian, &flags); err != nil {
		return nil, nil, newFormatError(FormatTruncated)
	}

	var coordTypeByte uint8
	if err := binary.Read(r, binary.LittleEndian, &coordTypeByte); err != nil {
		return nil, nil, newFormatError(FormatTruncated)
	}
	if coordTypeByte > uint8(CoordF64) {
		return nil, nil, newFormatError(FormatBadCoordType)
	}

	var reserved [3]byte
	if _, err := io.ReadFull(r, reserved[:]); err != nil {
		return nil, nil, newFormatError(FormatTruncated)
	}

	var capacity32, maxDepth32 uint32
	if err := binary.Read(r, binary.LittleEndian, &capacity32); err != nil {
		return nil, nil, newFormatError(FormatTruncated)
	}
	if err := binary.Read(r, binary.LittleEndian, &maxDepth32); err != nil {
		return nil, nil, newFormatError(FormatTruncated)
	}
	if capacity32 < 1 {
		return nil, nil, newFormatError(FormatBadCapacity)
	}

	h := &blobHeader{
		coordType: CoordType(coordTypeByte),
		rectTree:  flags&flagRectTree != 0,
		capacity:  int(capacity32),
		maxDepth:  maxDepthFromWire(maxDepth32),
	}
	h.hasObjects = flags&flagHasObjectMap != 0
	h.bodyForCRC = body
	h.trailingCRC = trailingCRC

	return h, remainder(r), nil
}

func remainder(r *bytes.Reader) []byte {
	rest := make([]byte, r.Len())
	_, _ = r.Read(rest)
	return rest
}

// decodePointEntries reads bounds, next_id, entry_count, the entry stream,
// and (if present) the raw object-map chunk from rest, validating every
// point against bounds.
func decodePointEntries[T Coord](h *blobHeader, rest []byte) (Rect[T], []pointEntry[T], uint64, error) {
	r := bytes.NewReader(rest)
	bounds, err := readRect[T](r)
	if err != nil {
		return bounds, nil, 0, newFormatError(FormatTruncated)
	}
	if !bounds.Valid() {
		return bounds, nil, 0, newFormatError(FormatBadBounds)
	}

	var nextID, entryCount uint64
	if err := binary.Read(r, binary.LittleEndian, &nextID); err != nil {
		return bounds, nil, 0, newFormatError(FormatTruncated)
	}
	if err := binary.Read(r, binary.LittleEndian, &entryCount); err != nil {
		return bounds, nil, 0, newFormatError(FormatTruncated)
	}

	entries := make([]pointEntry[T], 0, entryCount)
	for i := uint64(0); i < entryCount; i++ {
		var id uint64
		if err := binary.Read(r, binary.LittleEndian, &id); err != nil {
			return bounds, nil, 0, newFormatError(FormatTruncated)
		}
		pt, err := readPoint[T](r)
		if err != nil {
			return bounds, nil, 0, newFormatError(FormatTruncated)
		}
		if !bounds.ContainsPoint(pt) {
			return bounds, nil, 0, newFormatError(FormatEntryOutOfBounds)
		}
		entries = append(entries, pointEntry[T]{id: id, pt: pt})
	}

	if h.hasObjects {
		ids, payload, err := decodeObjectChunk(r)
		if err != nil {
			return bounds, nil, 0, err
		}
		h.objectIDs = ids
		h.objectBytes = payload
	}

	return bounds, entries, nextID, nil
}

func decodeRectEntries[T Coord](h *blobHeader, rest []byte) (Rect[T], []rectEntry[T], uint64, error) {
	r := bytes.NewReader(rest)
	bounds, err := readRect[T](r)
	if err != nil {
		return bounds, nil, 0, newFormatError(FormatTruncated)
	}
	if !bounds.Valid() {
		return bounds, nil, 0, newFormatError(FormatBadBounds)
	}

	var nextID, entryCount uint64
	if err := binary.Read(r, binary.LittleEndian, &nextID); err != nil {
		return bounds, nil, 0, newFormatError(FormatTruncated)
	}
	if err := binary.Read(r, binary.LittleEndian, &entryCount); err != nil {
		return bounds, nil, 0, newFormatError(FormatTruncated)
	}

	entries := make([]rectEntry[T], 0, entryCount)
	for i := uint64(0); i < entryCount; i++ {
		var id uint64
		if err := binary.Read(r, binary.LittleEndian, &id); err != nil {
			return bounds, nil, 0, newFormatError(FormatTruncated)
		}
		rect, err := readRect[T](r)
		if err != nil {
			return bounds, nil, 0, newFormatError(FormatTruncated)
		}
		if !rect.Valid() || !bounds.FullyContains(rect) {
			return bounds, nil, 0, newFormatError(FormatEntryOutOfBounds)
		}
		entries = append(entries, rectEntry[T]{id: id, rect: rect})
	}

	if h.hasObjects {
		ids, payload, err := decodeObjectChunk(r)
		if err != nil {
			return bounds, nil, 0, err
		}
		h.objectIDs = ids
		h.objectBytes = payload
	}

	return bounds, entries, nextID, nil
}

func readPoint[T Coord](r io.Reader) (Point[T], error) {
	x, err := readCoord[T](r)
	if err != nil {
		return Point[T]{}, err
	}
	y, err := readCoord[T](r)
	if err != nil {
		return Point[T]{}, err
	}
	return Point[T]{X: x, Y: y}, nil
}

func writePoint[T Coord](buf *bytes.Buffer, p Point[T]) error {
	if err := writeCoord(buf, p.X); err != nil {
		return err
	}
	return writeCoord(buf, p.Y)
}

func decodeObjectChunk(r *bytes.Reader) ([]uint64, []byte, error) {
	var objectCount uint64
	if err := binary.Read(r, binary.LittleEndian, &objectCount); err != nil {
		return nil, nil, newFormatError(FormatTruncated)
	}
	ids := make([]uint64, objectCount)
	for i := range ids {
		if err := binary.Read(r, binary.LittleEndian, &ids[i]); err != nil {
			return nil, nil, newFormatError(FormatTruncated)
		}
	}
	var objectBytes uint64
	if err := binary.Read(r, binary.LittleEndian, &objectBytes); err != nil {
		return nil, nil, newFormatError(FormatTruncated)
	}
	payload := make([]byte, objectBytes)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, nil, newFormatError(FormatTruncated)
	}
	return ids, payload, nil
}

// --- PointTree ---

// ToBytes encodes the tree without an object-map chunk. Use
// PointTreeObjects.ToBytes to include one.
func (t *PointTree[T]) ToBytes() ([]byte, error) {
	return encodePointTree(t.bounds, t.capacity, t.maxDepth, t.nextID, t.root, nil, nil)
}

func encodePointTree[T Coord](bounds Rect[T], capacity, maxDepth int, nextID uint64, root *pointNode[T], objectIDs []uint64, objectPayload []byte) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(wireMagic[:])
	binary.Write(&buf, binary.LittleEndian, wireVersion)

	var flags uint16
	if objectIDs != nil {
		flags |= flagHasObjectMap
	}
	binary.Write(&buf, binary.LittleEndian, flags)
	buf.WriteByte(byte(coordTypeOf[T]()))
	buf.Write([]byte{0, 0, 0})
	binary.Write(&buf, binary.LittleEndian, uint32(capacity))
	binary.Write(&buf, binary.LittleEndian, maxDepthToWire(maxDepth))
	if err := writeRect(&buf, bounds); err != nil {
		return nil, err
	}
	binary.Write(&buf, binary.LittleEndian, nextID)

	entries := root.collectAll(nil)
	binary.Write(&buf, binary.LittleEndian, uint64(len(entries)))
	for _, e := range entries {
		binary.Write(&buf, binary.LittleEndian, e.ID)
		if err := writePoint(&buf, e.Point); err != nil {
			return nil, err
		}
	}

	if objectIDs != nil {
		binary.Write(&buf, binary.LittleEndian, uint64(len(objectIDs)))
		for _, id := range objectIDs {
			binary.Write(&buf, binary.LittleEndian, id)
		}
		binary.Write(&buf, binary.LittleEndian, uint64(len(objectPayload)))
		buf.Write(objectPayload)
	}

	sum := crc32.Checksum(buf.Bytes(), castagnoliTable)
	binary.Write(&buf, binary.LittleEndian, sum)
	return buf.Bytes(), nil
}

// FromBytesPoint decodes a blob produced by PointTree.ToBytes (or by
// PointTreeObjects.ToBytes with includeObjects=false). It returns
// ErrObjectsDisallowed if the blob carries an object-map chunk — use
// FromBytesPointWithObjects for those.
func FromBytesPoint[T Coord](buf []byte) (*PointTree[T], error) {
	h, rest, err := parseBlobHeader(buf)
	if err != nil {
		return nil, err
	}
	if h.rectTree {
		return nil, newFormatError(FormatBadCoordType)
	}
	if h.coordType != coordTypeOf[T]() {
		return nil, newFormatError(FormatBadCoordType)
	}
	bounds, entries, nextID, err := decodePointEntries[T](h, rest)
	if err != nil {
		return nil, err
	}
	if h.hasObjects {
		return nil, ErrObjectsDisallowed
	}
	return buildTreeFromEntries(bounds, h.capacity, h.maxDepth, nextID, entries), nil
}

func buildTreeFromEntries[T Coord](bounds Rect[T], capacity, maxDepth int, nextID uint64, entries []pointEntry[T]) *PointTree[T] {
	t := &PointTree[T]{
		bounds:   bounds,
		capacity: capacity,
		maxDepth: maxDepth,
		nextID:   nextID,
		size:     len(entries),
		live:     newIDFilter(),
	}
	t.root = buildPointNode(bounds, 0, capacity, maxDepth, entries)
	for _, e := range entries {
		t.live.add(e.id)
	}
	return t
}

// ToBytes encodes the tree, including the object-map chunk when
// includeObjects is true. encode is required (and must be non-nil) exactly
// when includeObjects is true.
func (t *PointTreeObjects[T, H]) ToBytes(includeObjects bool, encode HandleEncoder[H]) ([]byte, error) {
	if !includeObjects {
		return t.PointTree.ToBytes()
	}
	if encode == nil {
		return nil, errors.New("fastquadtree: includeObjects requires a HandleEncoder")
	}
	ids := make([]uint64, 0, t.objects.Len())
	for id := range t.objects.forward {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	handles := make([]H, len(ids))
	for i, id := range ids {
		handles[i] = t.objects.forward[id]
	}
	payload, err := encode(handles)
	if err != nil {
		return nil, err
	}
	return encodePointTree(t.bounds, t.capacity, t.maxDepth, t.nextID, t.root, ids, payload)
}

// FromBytesPointWithObjects decodes a blob into an object-tracking tree.
// If the blob carries no object-map chunk, the result simply has an empty
// ObjectMap; decode is only invoked when a chunk is present.
func FromBytesPointWithObjects[T Coord, H comparable](buf []byte, decode HandleDecoder[H]) (*PointTreeObjects[T, H], error) {
	h, rest, err := parseBlobHeader(buf)
	if err != nil {
		return nil, err
	}
	if h.rectTree {
		return nil, newFormatError(FormatBadCoordType)
	}
	if h.coordType != coordTypeOf[T]() {
		return nil, newFormatError(FormatBadCoordType)
	}
	bounds, entries, nextID, err := decodePointEntries[T](h, rest)
	if err != nil {
		return nil, err
	}
	base := buildTreeFromEntries(bounds, h.capacity, h.maxDepth, nextID, entries)
	base.enableFreeList()
	out := &PointTreeObjects[T, H]{
		PointTree: base,
		objects:   newObjectMap[H](),
		points:    make(map[uint64]Point[T]),
	}
	for _, e := range entries {
		out.points[e.id] = e.pt
	}
	if h.hasObjects && len(h.objectIDs) > 0 {
		if decode == nil {
			return nil, errors.New("fastquadtree: blob has an object-map chunk but no HandleDecoder was supplied")
		}
		handles, err := decode(h.objectBytes, len(h.objectIDs))
		if err != nil {
			return nil, err
		}
		if len(handles) != len(h.objectIDs) {
			return nil, newFormatError(FormatTruncated)
		}
		for i, id := range h.objectIDs {
			out.objects.track(id, handles[i])
		}
	}
	return out, nil
}

// --- RectTree ---

func (t *RectTree[T]) ToBytes() ([]byte, error) {
	return encodeRectTree(t.bounds, t.capacity, t.maxDepth, t.nextID, t.root, nil, nil)
}

func encodeRectTree[T Coord](bounds Rect[T], capacity, maxDepth int, nextID uint64, root *rectNode[T], objectIDs []uint64, objectPayload []byte) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(wireMagic[:])
	binary.Write(&buf, binary.LittleEndian, wireVersion)

	flags := flagRectTree
	if objectIDs != nil {
		flags |= flagHasObjectMap
	}
	binary.Write(&buf, binary.LittleEndian, flags)
	buf.WriteByte(byte(coordTypeOf[T]()))
	buf.Write([]byte{0, 0, 0})
	binary.Write(&buf, binary.LittleEndian, uint32(capacity))
	binary.Write(&buf, binary.LittleEndian, maxDepthToWire(maxDepth))
	if err := writeRect(&buf, bounds); err != nil {
		return nil, err
	}
	binary.Write(&buf, binary.LittleEndian, nextID)

	entries := root.collectAll(nil)
	binary.Write(&buf, binary.LittleEndian, uint64(len(entries)))
	for _, e := range entries {
		binary.Write(&buf, binary.LittleEndian, e.ID)
		if err := writeRect(&buf, e.Rect); err != nil {
			return nil, err
		}
	}

	if objectIDs != nil {
		binary.Write(&buf, binary.LittleEndian, uint64(len(objectIDs)))
		for _, id := range objectIDs {
			binary.Write(&buf, binary.LittleEndian, id)
		}
		binary.Write(&buf, binary.LittleEndian, uint64(len(objectPayload)))
		buf.Write(objectPayload)
	}

	sum := crc32.Checksum(buf.Bytes(), castagnoliTable)
	binary.Write(&buf, binary.LittleEndian, sum)
	return buf.Bytes(), nil
}

func FromBytesRect[T Coord](buf []byte) (*RectTree[T], error) {
	h, rest, err := parseBlobHeader(buf)
	if err != nil {
		return nil, err
	}
	if !h.rectTree {
		return nil, newFormatError(FormatBadCoordType)
	}
	if h.coordType != coordTypeOf[T]() {
		return nil, newFormatError(FormatBadCoordType)
	}
	bounds, entries, nextID, err := decodeRectEntries[T](h, rest)
	if err != nil {
		return nil, err
	}
	if h.hasObjects {
		return nil, ErrObjectsDisallowed
	}
	return buildRectTreeFromEntries(bounds, h.capacity, h.maxDepth, nextID, entries), nil
}

func buildRectTreeFromEntries[T Coord](bounds Rect[T], capacity, maxDepth int, nextID uint64, entries []rectEntry[T]) *RectTree[T] {
	t := &RectTree[T]{
		bounds:   bounds,
		capacity: capacity,
		maxDepth: maxDepth,
		nextID:   nextID,
		size:     len(entries),
		live:     newIDFilter(),
	}
	t.root = buildRectNode(bounds, 0, capacity, maxDepth, entries)
	for _, e := range entries {
		t.live.add(e.id)
	}
	return t
}

func (t *RectTreeObjects[T, H]) ToBytes(includeObjects bool, encode HandleEncoder[H]) ([]byte, error) {
	if !includeObjects {
		return t.RectTree.ToBytes()
	}
	if encode == nil {
		return nil, errors.New("fastquadtree: includeObjects requires a HandleEncoder")
	}
	ids := make([]uint64, 0, t.objects.Len())
	for id := range t.objects.forward {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	handles := make([]H, len(ids))
	for i, id := range ids {
		handles[i] = t.objects.forward[id]
	}
	payload, err := encode(handles)
	if err != nil {
		return nil, err
	}
	return encodeRectTree(t.bounds, t.capacity, t.maxDepth, t.nextID, t.root, ids, payload)
}

func FromBytesRectWithObjects[T Coord, H comparable](buf []byte, decode HandleDecoder[H]) (*RectTreeObjects[T, H], error) {
	h, rest, err := parseBlobHeader(buf)
	if err != nil {
		return nil, err
	}
	if !h.rectTree {
		return nil, newFormatError(FormatBadCoordType)
	}
	if h.coordType != coordTypeOf[T]() {
		return nil, newFormatError(FormatBadCoordType)
	}
	bounds, entries, nextID, err := decodeRectEntries[T](h, rest)
	if err != nil {
		return nil, err
	}
	base := buildRectTreeFromEntries(bounds, h.capacity, h.maxDepth, nextID, entries)
	base.enableFreeList()
	out := &RectTreeObjects[T, H]{
		RectTree: base,
		objects:  newObjectMap[H](),
		rects:    make(map[uint64]Rect[T]),
	}
	for _, e := range entries {
		out.rects[e.id] = e.rect
	}
	if h.hasObjects && len(h.objectIDs) > 0 {
		if decode == nil {
			return nil, errors.New("fastquadtree: blob has an object-map chunk but no HandleDecoder was supplied")
		}
		handles, err := decode(h.objectBytes, len(h.objectIDs))
		if err != nil {
			return nil, err
		}
		if len(handles) != len(h.objectIDs) {
			return nil, newFormatError(FormatTruncated)
		}
		for i, id := range h.objectIDs {
			out.objects.track(id, handles[i])
		}
	}
	return out, nil
}
