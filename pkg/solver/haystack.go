package solver

import (
	"math"
	"sort"

	"github.com/trixelcat/trixel/pkg/catalog"
	"github.com/trixelcat/trixel/pkg/htm"
)

// haystackObject is one catalog candidate prepared for matching: its
// position and magnitude pulled out of the schema once, up front, so the
// per-needle stages never touch ObjectRecord again.
type haystackObject struct {
	objIdx int32
	ra, dec float64
	mag     float64
}

// haystack is the catalog side of the search: every surviving clipped
// object, sorted ascending by magnitude so the magnitude stage can binary
// search it (spec §4.5.2 "haystack preparation").
type haystack struct {
	objects []haystackObject
}

// allClippedObjects enumerates every object named by os's (Heads, Counts)
// pairs directly, with no spatial pre-filter. Used for full-sphere clips,
// where a coarse R-tree pass buys nothing.
func allClippedObjects(os *htm.ObjectSet) []int32 {
	var out []int32
	for i := range os.Heads {
		head, count := os.Heads[i], os.Counts[i]
		for j := int32(0); j < count; j++ {
			out = append(out, head+j)
		}
	}
	return out
}

// coarseCandidates returns the set of object indices worth examining for
// os: the full clipped enumeration for a full-sphere clip (spec §4.2a's
// hash index buys nothing when FOV already covers the sky), otherwise a
// box query against os's lazily-built R-tree index (pkg/htm.ObjectIndex),
// centered on os's clip center with a half-width of os.FOV/2. This is the
// solver's haystack-preparation entry point into the hash index promised
// by SPEC_FULL.md §1/§4.2a.
func coarseCandidates(os *htm.ObjectSet) []int32 {
	if os.FOV >= 2*math.Pi {
		return allClippedObjects(os)
	}
	candidates := os.Index().Near(os.CenterRA, os.CenterDec, os.FOV/2)
	if len(candidates) == 0 {
		return allClippedObjects(os)
	}
	return candidates
}

// prepareHaystack builds a haystack from os: it drops objects whose
// position/magnitude are all zero (the catalog's "no data" sentinel) and
// objects outside the mag constraint, then sorts the remainder ascending
// by magnitude (spec §4.5.2). Candidates are drawn from coarseCandidates,
// which narrows via os's R-tree hash index for FOV-restricted clips.
func prepareHaystack(os *htm.ObjectSet, constraints map[Constraint]Range, diag *Diagnostics) (*haystack, error) {
	if os == nil || os.Table == nil {
		return nil, &catalog.BadInputError{Reason: "nil object set"}
	}
	schema := os.Table.Catalog().Schema
	objects := os.Table.Catalog().Objects

	magRange, hasMagConstraint := constraints[ConstraintMag]

	h := &haystack{}
	dropped := 0
	for _, objIdx := range coarseCandidates(os) {
		o := objects[objIdx]
		ra := o.RA(schema)
		dec := o.Dec(schema)
		mag := o.SortKey(schema)

		if ra == 0 && dec == 0 && mag == 0 {
			dropped++
			continue
		}
		if hasMagConstraint && (mag < magRange.Min || mag > magRange.Max) {
			dropped++
			continue
		}
		h.objects = append(h.objects, haystackObject{objIdx: objIdx, ra: ra, dec: dec, mag: mag})
	}

	sort.Slice(h.objects, func(i, j int) bool { return h.objects[i].mag < h.objects[j].mag })

	if diag != nil && dropped > 0 {
		diag.recordHaystackDropped(dropped)
	}

	return h, nil
}

// magRange returns the slice of haystack objects whose magnitude falls in
// [min, max], located by binary search over the magnitude-sorted array
// (spec §4.5.3 "magnitude stage").
func (h *haystack) magRange(min, max float64) []haystackObject {
	lo := sort.Search(len(h.objects), func(i int) bool { return h.objects[i].mag >= min })
	hi := sort.Search(len(h.objects), func(i int) bool { return h.objects[i].mag > max })
	if hi <= lo {
		return nil
	}
	return h.objects[lo:hi]
}
