package mesh

// Orientation distinguishes the two ways a trixel's three vertices wind;
// it determines both the edge order used for point-in-triangle containment
// tests and which child inherits which orientation on subdivision.
type Orientation int

const (
	// Up trixels test containment via edge order a->b->c.
	Up Orientation = iota
	// Down trixels test containment via edge order a->c->b.
	Down
)

// MaxDepth is the largest depth the wire-compatible 32-bit trixel id can
// address: 24 position bits at two bits per level.
const MaxDepth = 12

// Trixel is one spherical triangle of the mesh: an orientation, three
// vertex-arena indices, a parent-arena index (-1 for roots), and four
// child-arena indices (-1 before subdivision / for the deepest level).
//
// Trixel carries no catalog payload — it is shared across every table
// opened against the same (library, depth) mesh. pkg/htm.Table attaches
// its own per-trixel (objects-head, count) slice, indexed in parallel with
// Mesh.Trixels.
type Trixel struct {
	ID uint32

	Hemisphere int // 0 = N, 1 = S
	Quadrant   int // 0-3
	Depth      int // 0-MaxDepth
	Position   uint32

	Orientation Orientation
	Vertices    [3]int32 // a, b, c
	Parent      int32    // -1 for roots
	Children    [4]int32
}

// PackTrixelID encodes (hemisphere, quadrant, depth, position) into the
// wire-compatible 32-bit layout: bit 31 valid, bit 30 hemisphere, bits
// 29-28 quadrant, bits 27-24 depth, bits 23-0 position.
func PackTrixelID(hemisphere, quadrant, depth int, position uint32) uint32 {
	id := uint32(1) << 31
	id |= uint32(hemisphere&1) << 30
	id |= uint32(quadrant&3) << 28
	id |= uint32(depth&0xF) << 24
	id |= position & 0x00FFFFFF
	return id
}

// ValidTrixelID reports whether bit 31 is set.
func ValidTrixelID(id uint32) bool { return id&(1<<31) != 0 }

// HemisphereOf extracts bit 30: 0 for north, 1 for south.
func HemisphereOf(id uint32) int { return int((id >> 30) & 1) }

// QuadrantOf extracts bits 29-28.
func QuadrantOf(id uint32) int { return int((id >> 28) & 3) }

// DepthOf extracts bits 27-24.
func DepthOf(id uint32) int { return int((id >> 24) & 0xF) }

// PositionOf extracts bits 23-0, the full position field.
func PositionOf(id uint32) uint32 { return id & 0x00FFFFFF }

// PositionAt extracts the 2-bit child-index chosen at the given level
// (1-indexed: level 1 is the first subdivision below the root). Level 0
// has no position bits; roots answer nothing meaningful for level 0.
func PositionAt(id uint32, level int) uint32 {
	if level <= 0 {
		return 0
	}
	pos := PositionOf(id)
	shift := uint((level - 1) * 2)
	return (pos >> shift) & 3
}

// childPosition appends a 2-bit child index to a parent's position field at
// the given child depth (the depth of the child being created, 1-indexed
// from the root at depth 0).
func childPosition(parentPosition uint32, childDepth int, childIndex int) uint32 {
	shift := uint((childDepth - 1) * 2)
	return parentPosition | (uint32(childIndex&3) << shift)
}
