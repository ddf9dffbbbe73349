// Package kdtree implements the balanced k-d tree over catalog objects'
// Cartesian unit-sphere projections (spec §4.3), supporting great-circle
// nearest-neighbour queries. Node links are catalog.Table object-array
// indices, not pointers (spec §9 design note), the same arena-of-indices
// idiom internal/mesh uses for trixel parent/child links.
package kdtree

import (
	"sort"

	"github.com/trixelcat/trixel/pkg/catalog"
	"github.com/trixelcat/trixel/pkg/geometry"
)

// Node is one k-d tree node: the catalog object-array index it wraps, its
// parent, and its two children (-1 for absent).
type Node struct {
	Object   int32
	Parent   int32
	Children [2]int32
	Axis     int
}

// Tree is a balanced k-d tree built once over an immutable catalog.Table
// (spec §5: safe for concurrent query access after Build returns).
type Tree struct {
	table *catalog.Table
	pos   []geometry.Cart // unit-sphere projection per object, parallel to table.Objects
	nodes []Node
	root  int32

	// ProgressFunc, if set, is called with a percentage in [0,100] at
	// roughly 10% build intervals (spec §4.3 "Progress is emitted at 10%
	// intervals (not part of the contract)"); nil disables it.
	ProgressFunc func(percent int)
}

// Options configures Build.
type Options struct {
	// ProgressFunc optionally receives build progress callbacks.
	ProgressFunc func(percent int)
}

// DefaultOptions returns the zero-value options (no progress callback).
func DefaultOptions() Options { return Options{} }

// Build constructs a balanced k-d tree over every object in tbl, using
// axis-cycling median selection (X at depth 0, Y at depth 1, Z at depth 2,
// repeating) subject to each candidate median also lying within the
// bounding sub-range the other two axes have already converged to.
func Build(tbl *catalog.Table, opts Options) (*Tree, error) {
	n := tbl.Len()
	pos := make([]geometry.Cart, n)
	for i, o := range tbl.Objects {
		pos[i] = geometry.SphereVector(o.RA(tbl.Schema), o.Dec(tbl.Schema))
	}

	t := &Tree{
		table:        tbl,
		pos:          pos,
		nodes:        make([]Node, n),
		ProgressFunc: opts.ProgressFunc,
	}
	for i := range t.nodes {
		t.nodes[i] = Node{Object: int32(i), Parent: -1, Children: [2]int32{-1, -1}}
	}
	if n == 0 {
		t.root = -1
		return t, nil
	}

	byAxis := [3][]int32{
		sortedByAxis(pos, 0),
		sortedByAxis(pos, 1),
		sortedByAxis(pos, 2),
	}
	used := make([]bool, n)

	var built int
	reportEvery := n / 10
	if reportEvery == 0 {
		reportEvery = 1
	}

	var build func(axis int, candidates [3][]int32, parent int32) int32
	build = func(axis int, candidates [3][]int32, parent int32) int32 {
		var live []int32
		for _, idx := range candidates[axis] {
			if !used[idx] {
				live = append(live, idx)
			}
		}
		if len(live) == 0 {
			return -1
		}
		medianIdx := len(live) / 2
		median := live[medianIdx]
		used[median] = true
		built++
		if t.ProgressFunc != nil && built%reportEvery == 0 {
			t.ProgressFunc(built * 100 / n)
		}

		nodeIdx := median
		t.nodes[nodeIdx].Parent = parent
		t.nodes[nodeIdx].Axis = axis

		left := [3][]int32{candidates[0], candidates[1], candidates[2]}
		right := [3][]int32{candidates[0], candidates[1], candidates[2]}
		pivot := pos[median]
		left[axis] = beforeAxis(live, medianIdx)
		right[axis] = afterAxis(live, medianIdx)
		for a := 0; a < 3; a++ {
			if a == axis {
				continue
			}
			left[a], right[a] = splitByBox(pos, candidates[a], axis, pivot, used)
		}

		t.nodes[nodeIdx].Children[0] = build((axis+1)%3, left, int32(nodeIdx))
		t.nodes[nodeIdx].Children[1] = build((axis+1)%3, right, int32(nodeIdx))
		return int32(nodeIdx)
	}

	t.root = build(0, byAxis, -1)
	if t.ProgressFunc != nil {
		t.ProgressFunc(100)
	}
	return t, nil
}

func sortedByAxis(pos []geometry.Cart, axis int) []int32 {
	idx := make([]int32, len(pos))
	for i := range idx {
		idx[i] = int32(i)
	}
	sort.Slice(idx, func(i, j int) bool {
		return axisValue(pos[idx[i]], axis) < axisValue(pos[idx[j]], axis)
	})
	return idx
}

func axisValue(c geometry.Cart, axis int) float64 {
	switch axis {
	case 0:
		return c.X
	case 1:
		return c.Y
	default:
		return c.Z
	}
}

func beforeAxis(live []int32, medianIdx int) []int32 {
	out := make([]int32, medianIdx)
	copy(out, live[:medianIdx])
	return out
}

func afterAxis(live []int32, medianIdx int) []int32 {
	out := make([]int32, len(live)-medianIdx-1)
	copy(out, live[medianIdx+1:])
	return out
}

// splitByBox partitions candidates (already sorted along some other axis)
// into those below and above the pivot's axis coordinate, preserving
// relative order and skipping used entries, so each side still respects
// its own axis ordering for the next recursion level.
func splitByBox(pos []geometry.Cart, candidates []int32, axis int, pivot geometry.Cart, used []bool) (below, above []int32) {
	threshold := axisValue(pivot, axis)
	for _, idx := range candidates {
		if used[idx] {
			continue
		}
		if axisValue(pos[idx], axis) < threshold {
			below = append(below, idx)
		} else {
			above = append(above, idx)
		}
	}
	return below, above
}

// Root returns the arena index of the tree's root node, or -1 for an
// empty tree.
func (t *Tree) Root() int32 { return t.root }

// Len returns the number of objects in the tree.
func (t *Tree) Len() int { return len(t.nodes) }

// Table returns the catalog table this tree was built over.
func (t *Tree) Table() *catalog.Table { return t.table }
