package htm

import (
	"math"

	"github.com/dhconnelly/rtreego"

	"github.com/trixelcat/trixel/internal/mesh"
)

// TrixelIndex accelerates point-location at the mesh's deepest level with
// an R-tree over each leaf trixel's (ra, dec) bounding rectangle, the same
// "build once, SearchIntersect per query" shape as pkg/s57's ChartIndex.
// LocateLeafViaIndex treats the index strictly as a candidate pre-filter:
// every candidate is still confirmed with an exact mesh.Contains test, and
// when no candidate is confirmed it falls back to PointLocation's full
// recursive descent from the eight roots — mirroring pkg/s57's rtree-then-linear-scan fallback.
type TrixelIndex struct {
	rtree   *rtreego.Rtree
	entries []leafEntry
}

type leafEntry struct {
	idx                          int32
	minRA, maxRA, minDec, maxDec float64
}

// Bounds implements rtreego.Spatial.
func (e leafEntry) Bounds() rtreego.Rect {
	width := e.maxRA - e.minRA
	height := e.maxDec - e.minDec
	if width <= 0 {
		width = 1e-9
	}
	if height <= 0 {
		height = 1e-9
	}
	rect, _ := rtreego.NewRect(rtreego.Point{e.minRA, e.minDec}, []float64{width, height})
	return rect
}

// newTrixelIndex builds an index over every leaf (deepest-level) trixel in
// m. Min/max children tuned small (4/9) since typical leaf counts at
// catalog-scale depths (D<=8, 8*4^8 ~ 524288) are modest compared to
// pkg/s57's chart-count scale.
func newTrixelIndex(m *mesh.Mesh) *TrixelIndex {
	rtree := rtreego.NewTree(2, 4, 9)
	var entries []leafEntry

	for i := range m.Trixels {
		t := &m.Trixels[i]
		if t.Depth != m.MaxDepth {
			continue
		}
		minRA, maxRA := 1e9, -1e9
		minDec, maxDec := 1e9, -1e9
		for _, vi := range t.Vertices {
			v := &m.Vertices[vi]
			if v.RA < minRA {
				minRA = v.RA
			}
			if v.RA > maxRA {
				maxRA = v.RA
			}
			if v.Dec < minDec {
				minDec = v.Dec
			}
			if v.Dec > maxDec {
				maxDec = v.Dec
			}
		}
		e := leafEntry{idx: int32(i), minRA: minRA, maxRA: maxRA, minDec: minDec, maxDec: maxDec}
		entries = append(entries, e)
		rtree.Insert(e)
	}

	return &TrixelIndex{rtree: rtree, entries: entries}
}

// candidatesNear returns leaf trixel indices whose bounding rectangle
// contains (ra, dec). A trixel straddling the ra=0/2pi seam is queried
// twice, once at ra and once at ra-2pi, so seam-crossing leaves are not
// silently missed by the R-tree's non-wrapping rectangles.
func (x *TrixelIndex) candidatesNear(ra, dec float64) []int32 {
	var out []int32
	for _, shift := range [2]float64{0, -2 * math.Pi} {
		point := rtreego.Point{ra + shift, dec}
		rect, err := rtreego.NewRect(point, []float64{1e-9, 1e-9})
		if err != nil {
			continue
		}
		for _, sp := range x.rtree.SearchIntersect(rect) {
			out = append(out, sp.(leafEntry).idx)
		}
	}
	return out
}
