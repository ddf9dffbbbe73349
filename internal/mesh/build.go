package mesh

import (
	"fmt"
	"math"

	"github.com/trixelcat/trixel/pkg/geometry"
)

// htmFloor is the numerical containment floor from spec §4.2/§6: a target
// is inside an edge's half-space if the triple product is >= htmFloor
// (a small negative tolerance, -1e-5).
const htmFloor = -1e-5

// Mesh is the shared, immutable geometric Hierarchical Triangular Mesh: an
// arena of vertices and an arena of trixels, built once to MaxDepth and
// reused by every table opened against the owning database (spec §5:
// read-only after build, safe for concurrent query access).
type Mesh struct {
	MaxDepth int
	Vertices []Vertex
	Trixels  []Trixel

	// Roots holds the eight root trixel-arena indices, ordered
	// hemisphere*4+quadrant (hemisphere 0=N,1=S; quadrant 0-3).
	Roots [8]int32

	strips *stripTable
	byID   map[uint32]int32
}

// IndexOf returns the arena index of the trixel with the given packed id.
func (m *Mesh) IndexOf(id uint32) (int32, bool) {
	idx, ok := m.byID[id]
	return idx, ok
}

// eqAxis returns the four equatorial octahedron vertices in quadrant order:
// (1,0,0), (0,1,0), (-1,0,0), (0,-1,0).
func eqAxis(q int) geometry.Cart {
	switch q & 3 {
	case 0:
		return geometry.Cart{X: 1, Y: 0, Z: 0}
	case 1:
		return geometry.Cart{X: 0, Y: 1, Z: 0}
	case 2:
		return geometry.Cart{X: -1, Y: 0, Z: 0}
	default:
		return geometry.Cart{X: 0, Y: -1, Z: 0}
	}
}

// Build constructs a full mesh down to maxDepth (0 <= maxDepth <= MaxDepth).
// Practical catalogs use modest depths (a depth-8 trixel spans roughly 21
// arcminutes);
// the mesh is built eagerly in full per spec §4.2's construction recipe,
// not lazily on first query.
func Build(maxDepth int) (*Mesh, error) {
	if maxDepth < 0 || maxDepth > MaxDepth {
		return nil, fmt.Errorf("mesh: depth %d out of range [0, %d]", maxDepth, MaxDepth)
	}

	m := &Mesh{
		MaxDepth: maxDepth,
		strips:   newStripTable(maxDepth),
		byID:     make(map[uint32]int32),
	}

	northPole := geometry.Cart{X: 0, Y: 0, Z: 1}
	southPole := geometry.Cart{X: 0, Y: 0, Z: -1}

	for q := 0; q < 4; q++ {
		b, c := eqAxis(q), eqAxis(q+1)

		nIdx := m.newRoot(0, q, Up, northPole, b, c)
		// South roots are DOWN, per spec ("Northern roots are UP, southern
		// are DOWN"); with b/c in the same order as the north root, the
		// a->c->b DOWN edge order walks the south triangle counter-clockwise
		// as seen from outside, so every edge test is >= 0 inside it.
		sIdx := m.newRoot(1, q, Down, southPole, b, c)

		m.Roots[0*4+q] = nIdx
		m.Roots[1*4+q] = sIdx
	}

	for _, idx := range m.Roots {
		if err := m.subdivide(idx, maxDepth); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (m *Mesh) newRoot(hemisphere, quadrant int, o Orientation, a, b, c geometry.Cart) int32 {
	av := m.lookupOrCreate(sphericalRA(a), sphericalDec(a), a)
	bv := m.lookupOrCreate(sphericalRA(b), sphericalDec(b), b)
	cv := m.lookupOrCreate(sphericalRA(c), sphericalDec(c), c)

	idx := int32(len(m.Trixels))
	id := PackTrixelID(hemisphere, quadrant, 0, 0)
	t := Trixel{
		ID:          id,
		Hemisphere:  hemisphere,
		Quadrant:    quadrant,
		Depth:       0,
		Position:    0,
		Orientation: o,
		Vertices:    [3]int32{av, bv, cv},
		Parent:      -1,
		Children:    [4]int32{-1, -1, -1, -1},
	}
	m.Trixels = append(m.Trixels, t)
	m.byID[id] = idx

	m.Vertices[av].addTrixel(0, idx)
	m.Vertices[bv].addTrixel(0, idx)
	m.Vertices[cv].addTrixel(0, idx)

	return idx
}

// sphericalRA/Dec convert an already-folded root vertex (the basis
// octahedron's axis points are their own fold) to (ra, dec) for storage.
func sphericalRA(v geometry.Cart) float64 { ra, _ := geometry.SphericalFromOctahedron(v); return ra }
func sphericalDec(v geometry.Cart) float64 {
	_, dec := geometry.SphericalFromOctahedron(v)
	return dec
}

// subdivide recursively splits trixel idx down to maxDepth, materializing
// edge midpoints through the declination-strip hash so that the two
// trixels sharing an edge always share its midpoint vertex.
func (m *Mesh) subdivide(idx int32, maxDepth int) error {
	t := m.Trixels[idx]
	if t.Depth >= maxDepth {
		return nil
	}

	a := m.Vertices[t.Vertices[0]].Pos
	b := m.Vertices[t.Vertices[1]].Pos
	c := m.Vertices[t.Vertices[2]].Pos

	mab := geometry.Midpoint(a, b)
	mbc := geometry.Midpoint(b, c)
	mca := geometry.Midpoint(c, a)

	childDepth := t.Depth + 1
	vab := m.materializeMidpoint(mab, childDepth, idx)
	vbc := m.materializeMidpoint(mbc, childDepth, idx)
	vca := m.materializeMidpoint(mca, childDepth, idx)

	var childVerts [4][3]int32
	var childOrient [4]Orientation
	if t.Orientation == Up {
		childVerts = [4][3]int32{
			{vab, vca, vbc},             // 0: central, flips to Down
			{t.Vertices[0], vab, vca},    // 1: corner a, stays Up
			{vab, t.Vertices[1], vbc},    // 2: corner b, stays Up
			{vca, vbc, t.Vertices[2]},    // 3: corner c, stays Up
		}
		childOrient = [4]Orientation{Down, Up, Up, Up}
	} else {
		childVerts = [4][3]int32{
			{vab, vca, vbc},             // 0: central, flips to Up
			{t.Vertices[0], vab, vca},    // 1: corner a, stays Down
			{vab, t.Vertices[1], vbc},    // 2: corner b, stays Down
			{vca, vbc, t.Vertices[2]},    // 3: corner c, stays Down
		}
		childOrient = [4]Orientation{Up, Down, Down, Down}
	}

	for ci := 0; ci < 4; ci++ {
		childPos := childPosition(t.Position, childDepth, ci)
		id := PackTrixelID(t.Hemisphere, t.Quadrant, childDepth, childPos)
		cidx := int32(len(m.Trixels))
		child := Trixel{
			ID:          id,
			Hemisphere:  t.Hemisphere,
			Quadrant:    t.Quadrant,
			Depth:       childDepth,
			Position:    childPos,
			Orientation: childOrient[ci],
			Vertices:    childVerts[ci],
			Parent:      idx,
			Children:    [4]int32{-1, -1, -1, -1},
		}
		m.Trixels = append(m.Trixels, child)
		m.byID[id] = cidx
		for _, vi := range childVerts[ci] {
			m.Vertices[vi].addTrixel(childDepth, cidx)
		}
		// m.Trixels may have grown since t was copied by value; re-fetch
		// the parent to record the new child index.
		m.Trixels[idx].Children[ci] = cidx
	}

	for _, cidx := range m.Trixels[idx].Children {
		if err := m.subdivide(cidx, maxDepth); err != nil {
			return err
		}
	}
	return nil
}

func (m *Mesh) materializeMidpoint(mid geometry.Cart, depth int, parentIdx int32) int32 {
	folded := foldMidpoint(mid)
	ra, dec := geometry.SphericalFromOctahedron(folded)
	return m.lookupOrCreate(ra, dec, folded)
}

// foldMidpoint renormalizes an un-normalized octahedron-space midpoint back
// onto the folded unit surface by rescaling in spherical space: convert to
// (ra, dec) via the unfolded direction, then re-fold. Direction, not
// magnitude, is what matters for containment and child construction.
func foldMidpoint(mid geometry.Cart) geometry.Cart {
	unfold := func(s float64) float64 {
		if s < 0 {
			return -sqrtAbs(s)
		}
		return sqrtAbs(s)
	}
	x, y, z := unfold(mid.X), unfold(mid.Y), unfold(mid.Z)
	n := sqrtAbs(x*x + y*y + z*z)
	if n == 0 {
		return mid
	}
	x, y, z = x/n, y/n, z/n
	return geometry.Cart{
		X: x * absf(x),
		Y: y * absf(y),
		Z: z * absf(z),
	}
}

func sqrtAbs(v float64) float64 {
	if v < 0 {
		v = -v
	}
	return math.Sqrt(v)
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// Contains reports whether the folded point p lies within trixel idx, via
// the cross-product edge test with the spec's -1e-5 numerical floor.
// Up trixels walk edges a->b->c; Down trixels walk a->c->b.
func (m *Mesh) Contains(idx int32, p geometry.Cart) bool {
	t := &m.Trixels[idx]
	a := m.Vertices[t.Vertices[0]].Pos
	b := m.Vertices[t.Vertices[1]].Pos
	c := m.Vertices[t.Vertices[2]].Pos

	var e1, e2, e3 geometry.Cart
	if t.Orientation == Up {
		e1, e2, e3 = a, b, c
	} else {
		e1, e2, e3 = a, c, b
	}

	return edgeTest(e1, e2, p) && edgeTest(e2, e3, p) && edgeTest(e3, e1, p)
}

func edgeTest(from, to, p geometry.Cart) bool {
	n := geometry.Cross(from, to)
	return geometry.Dot(n, p) >= htmFloor
}
