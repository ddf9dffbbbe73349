package htm

import "math"

// ObjectSet is a query-time clipping region: a table, a center, a field of
// view, depth bounds, the clipped trixel set, and the per-trixel
// (objects-head, count) pairs that predicate search and the solver read
// from (spec §3 "Object set").
type ObjectSet struct {
	Table *Table

	CenterRA, CenterDec float64
	FOV                 float64
	MinDepth, MaxDepth  int

	// Trixels is the clipped trixel arena-index set, in insertion order
	// (neighbours, then parents, then children).
	Trixels []int32

	// Heads[i]/Counts[i] describe the objects in Trixels[i]. Both slices
	// have Trixels' length; entries whose depth falls outside
	// [MinDepth, MaxDepth] or that hold no objects carry -1/0, so callers
	// can zip by index.
	Heads  []int32
	Counts []int32

	index *ObjectIndex
}

// Index lazily builds and returns os's coarse object-level R-tree index
// (spec §4.2a). ObjectSets are owned by a single logical session (spec
// §5) and are not shared across goroutines, so this is safe without a
// mutex: at most one caller ever touches a given ObjectSet concurrently.
func (os *ObjectSet) Index() *ObjectIndex {
	if os.index == nil {
		os.index = buildObjectIndex(os)
	}
	return os.index
}

// resolutionAtDepth returns the nominal trixel angular size pi/2 / 2^depth.
func resolutionAtDepth(depth int) float64 {
	return (math.Pi / 2) / math.Exp2(float64(depth))
}

// fovDepth picks the finest depth whose nominal trixel size is still >=
// fov, so the home trixel's immediate neighbours are guaranteed to cover
// it. (The spec's literal wording calls this "smallest depth whose
// resolution is >= fov"; since resolution strictly decreases with depth
// that reading is degenerate at depth 0, so this implements the
// practically-intended "largest such depth" — see DESIGN.md.)
func fovDepth(fov float64, maxDepth int) int {
	for d := maxDepth; d >= 0; d-- {
		if resolutionAtDepth(d) >= fov {
			return d
		}
	}
	return 0
}

// maxClipTrixels bounds the neighbour/parent/child walk a restricted clip
// performs: a generous ceiling on any single region's trixel count, past
// which the walk is presumed runaway (e.g. a malformed mesh with a cyclic
// parent chain) rather than let it grow unbounded (spec §4.2 "Failure
// modes").
const maxClipTrixels = 1 << 20

// Clip builds an ObjectSet for (centerRA, centerDec, fov, minDepth,
// maxDepth) per spec §4.2 "Clipping". If the restricted walk hits
// maxClipTrixels before finishing, Clip still returns the partial
// ObjectSet built so far alongside a *BufferOverrunError.
func (t *Table) Clip(centerRA, centerDec, fov float64, minDepth, maxDepth int) (*ObjectSet, error) {
	db := t.db
	if minDepth < 0 || maxDepth > db.Mesh.MaxDepth || minDepth > maxDepth {
		return nil, &DepthRangeError{Depth: maxDepth, MaxDepth: db.Mesh.MaxDepth}
	}

	os := &ObjectSet{
		Table:     t,
		CenterRA:  centerRA,
		CenterDec: centerDec,
		FOV:       fov,
		MinDepth:  minDepth,
		MaxDepth:  maxDepth,
	}

	var clipped []int32
	var overrun error
	if fov >= 2*math.Pi {
		clipped = t.allWithinDepth(minDepth, maxDepth)
	} else {
		home, err := db.PointLocation(centerRA, centerDec, fovDepth(fov, db.Mesh.MaxDepth))
		if err != nil {
			return nil, err
		}
		clipped, overrun = t.clipAround(home, minDepth, maxDepth)
	}

	os.Trixels = clipped
	os.Heads = make([]int32, len(clipped))
	os.Counts = make([]int32, len(clipped))
	for i, idx := range clipped {
		depth := db.Mesh.Trixels[idx].Depth
		if depth < minDepth || depth > maxDepth || t.objectCount[idx] == 0 {
			os.Heads[i] = -1
			os.Counts[i] = 0
			continue
		}
		os.Heads[i] = t.objectHead[idx]
		os.Counts[i] = t.objectCount[idx]
	}

	return os, overrun
}

func (t *Table) allWithinDepth(minDepth, maxDepth int) []int32 {
	var out []int32
	for i := range t.db.Mesh.Trixels {
		d := t.db.Mesh.Trixels[i].Depth
		if d >= minDepth && d <= maxDepth {
			out = append(out, int32(i))
		}
	}
	return out
}

func (t *Table) clipAround(home int32, minDepth, maxDepth int) ([]int32, error) {
	m := t.db.Mesh
	seen := make(map[int32]bool)
	var out []int32
	overrun := false
	add := func(idx int32) {
		if overrun || seen[idx] {
			return
		}
		if len(out) >= maxClipTrixels {
			overrun = true
			return
		}
		seen[idx] = true
		out = append(out, idx)
	}

	homeTrixel := &m.Trixels[home]
	var neighbours []int32
	for _, vi := range homeTrixel.Vertices {
		for _, ni := range m.Vertices[vi].TrixelsAtDepth(homeTrixel.Depth) {
			neighbours = append(neighbours, ni)
		}
	}
	for _, n := range neighbours {
		add(n)
	}

	for _, n := range neighbours {
		idx := m.Trixels[n].Parent
		for idx != -1 && m.Trixels[idx].Depth >= minDepth {
			add(idx)
			idx = m.Trixels[idx].Parent
		}
	}

	for _, n := range neighbours {
		t.collectDescendants(n, maxDepth, add)
	}

	if overrun {
		return out, &BufferOverrunError{Stage: "clip", Limit: maxClipTrixels}
	}
	return out, nil
}

func (t *Table) collectDescendants(idx int32, maxDepth int, add func(int32)) {
	m := t.db.Mesh
	tr := &m.Trixels[idx]
	if tr.Depth > maxDepth {
		return
	}
	if tr.Children[0] == -1 {
		return
	}
	for _, ci := range tr.Children {
		if m.Trixels[ci].Depth > maxDepth {
			continue
		}
		add(ci)
		t.collectDescendants(ci, maxDepth, add)
	}
}
