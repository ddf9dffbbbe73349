package htm

import "github.com/dhconnelly/rtreego"

// ObjectIndex is an ObjectSet's optional coarse spatial pre-filter: an
// R-tree over the (ra, dec) of every object the clip actually covers,
// built lazily on first use and queried by Near. Grounded on the same
// "build once, SearchIntersect per query" shape as TrixelIndex, here over
// individual catalog objects instead of leaf trixels.
type ObjectIndex struct {
	rtree   *rtreego.Rtree
	entries []objectEntry
}

type objectEntry struct {
	objIdx  int32
	ra, dec float64
}

// Bounds implements rtreego.Spatial as a degenerate (point) rectangle.
func (e objectEntry) Bounds() rtreego.Rect {
	rect, _ := rtreego.NewRect(rtreego.Point{e.ra, e.dec}, []float64{1e-9, 1e-9})
	return rect
}

// buildObjectIndex collects every object named by os's (Heads, Counts)
// pairs and indexes it by (ra, dec).
func buildObjectIndex(os *ObjectSet) *ObjectIndex {
	schema := os.Table.catalog.Schema
	objects := os.Table.catalog.Objects

	rtree := rtreego.NewTree(2, 4, 9)
	var entries []objectEntry

	for i := range os.Heads {
		head, count := os.Heads[i], os.Counts[i]
		if head < 0 || count == 0 {
			continue
		}
		for j := int32(0); j < count; j++ {
			objIdx := head + j
			o := objects[objIdx]
			e := objectEntry{objIdx: objIdx, ra: o.RA(schema), dec: o.Dec(schema)}
			entries = append(entries, e)
			rtree.Insert(e)
		}
	}

	return &ObjectIndex{rtree: rtree, entries: entries}
}

// Near returns the arena indices (into the table's catalog.Objects) of
// every indexed object within the axis-aligned box of half-width radius
// centered on (ra, dec). This is a coarse pre-filter: callers that need
// an exact angular cutoff must re-test each candidate themselves.
func (x *ObjectIndex) Near(ra, dec, radius float64) []int32 {
	if x == nil || len(x.entries) == 0 {
		return nil
	}
	point := rtreego.Point{ra - radius, dec - radius}
	rect, err := rtreego.NewRect(point, []float64{2 * radius, 2 * radius})
	if err != nil {
		return nil
	}
	var out []int32
	for _, sp := range x.rtree.SearchIntersect(rect) {
		out = append(out, sp.(objectEntry).objIdx)
	}
	return out
}
