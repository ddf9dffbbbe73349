// Package mesh holds the low-level Hierarchical Triangular Mesh arena: the
// shared vertex/trixel structure built once per (library, HTM depth) and
// reused by every table opened against it. It is purely geometric — no
// catalog object ever appears here; pkg/htm attaches per-table object-head
// payloads to this mesh's trixels by index.
//
// Modeled as index-linked arenas rather than a pointer graph (spec's design
// note: cross-references are indices, not raw pointers), the same idiom
// pkg/kdtree uses for its node arena.
package mesh

import "github.com/trixelcat/trixel/pkg/geometry"

// slotsPerDepth is the number of back-reference slots a vertex carries per
// depth level: at most six trixels meet at one vertex at any depth (an edge
// midpoint has three on each side of its edge at its creation depth, and
// six again at every deeper level; an octahedron vertex has four).
const slotsPerDepth = 6

// emptySlots is six unset (-1) trixel-arena indices.
var emptySlots = [slotsPerDepth]int32{-1, -1, -1, -1, -1, -1}

// Vertex is a point on the unit sphere, stored both as (ra, dec) and as the
// octahedron-folded Cartesian position used by containment tests.
type Vertex struct {
	RA, Dec float64
	Pos     geometry.Cart

	// byDepth maps a depth level to the (up to six) trixel-arena indices
	// that share this vertex at that depth. Populated lazily: a vertex only
	// gets an entry for depths at which it is actually touched.
	byDepth map[int][slotsPerDepth]int32
}

// addTrixel records that trixel idx touches this vertex at the given depth,
// appending to the first free slot. A trixel already recorded at that depth
// is not duplicated.
func (v *Vertex) addTrixel(depth int, idx int32) {
	if v.byDepth == nil {
		v.byDepth = make(map[int][slotsPerDepth]int32)
	}
	slots, ok := v.byDepth[depth]
	if !ok {
		slots = emptySlots
	}
	for i := 0; i < slotsPerDepth; i++ {
		if slots[i] == idx {
			return
		}
		if slots[i] == -1 {
			slots[i] = idx
			v.byDepth[depth] = slots
			return
		}
	}
	// All six slots occupied: more than six trixels claim this vertex at one
	// depth, which cannot happen under HTM subdivision. Silently drop rather
	// than corrupt an unrelated slot.
}

// TrixelsAtDepth returns the (up to six) trixel-arena indices sharing this
// vertex at the given depth, or nil if the vertex was never touched there.
func (v *Vertex) TrixelsAtDepth(depth int) []int32 {
	slots, ok := v.byDepth[depth]
	if !ok {
		return nil
	}
	out := make([]int32, 0, slotsPerDepth)
	for _, idx := range slots {
		if idx != -1 {
			out = append(out, idx)
		}
	}
	return out
}
