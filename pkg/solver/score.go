package solver

import (
	"sort"
	"sync"

	"github.com/trixelcat/trixel/pkg/geometry"
)

// divergence scores how well a matched triple fits its pattern (spec
// §4.5.4–§4.5.6): the distance term is the maximum per-secondary deviation
// between the catalog distance (converted to pixels via radPerPix) and the
// needle's plate distance; the position-angle term is the maximum per-
// needle deviation between the catalog turning angle and the needle's
// delta; the magnitude term is the mean, over the three secondaries, of
// plate magnitude difference minus catalog magnitude difference. Total
// divergence is the weighted sum mag=0.5, dist=1.0, pa=1.0 (spec §6).
// Lower is better; a perfect match scores 0.
func divergence(t matchTriple, pat *pattern, tol Tolerances) float64 {
	var magSum, distMax, paMax float64

	var paActual [3]float64
	for i := 0; i < 3; i++ {
		s := t.secondary[i]
		n := pat.secondaries[i]

		d := geometry.EquDistance(t.primary.ra, t.primary.dec, s.ra, s.dec)
		if dev := abs(d/t.radPerPix - n.distActual); dev > distMax {
			distMax = dev
		}

		catalogMagDiff := s.mag - t.primary.mag
		magSum += n.magActual - catalogMagDiff

		paActual[i] = geometry.EquPA(t.primary.ra, t.primary.dec, s.ra, s.dec)
	}

	for i := 0; i < 3; i++ {
		next := (i + 1) % 3
		delta := geometry.QuadrantNormalize(paActual[i] - paActual[next])
		want := pat.pa[i].delta
		if t.flip {
			want = geometry.QuadrantNormalize(-want)
		}
		if dev := abs(delta - want); dev > paMax {
			paMax = dev
		}
	}

	magErr := magSum / 3
	return weightMag*magErr + weightDist*distMax + weightPA*paMax
}

// solutionTable accumulates matched solutions across every window and
// candidate primary examined concurrently, deduplicating by catalog
// object quadruple and keeping at most MaxRTSolutions entries (spec §6).
// Guarded by one mutex per spec §5 ("a single mutex on a global solutions
// table"), grounded on LoadCellsParallel's results-channel-plus-map
// collection shape.
type solutionTable struct {
	mu      sync.Mutex
	limit   int
	byKey   map[[4]int32]*Solution
	order   []*Solution
}

func newSolutionTable(limit int) *solutionTable {
	return &solutionTable{limit: limit, byKey: make(map[[4]int32]*Solution)}
}

func quadrupleKey(catalogObjs [4]int32) [4]int32 {
	sorted := catalogObjs
	sort.Slice(sorted[:], func(i, j int) bool { return sorted[i] < sorted[j] })
	return sorted
}

// insert adds a candidate solution, replacing any existing entry for the
// same catalog-object quadruple if the new divergence is better, and
// evicting the current worst entry once the table is at capacity.
func (st *solutionTable) insert(sol *Solution) {
	st.mu.Lock()
	defer st.mu.Unlock()

	key := quadrupleKey(sol.CatalogObjects)
	if existing, ok := st.byKey[key]; ok {
		if sol.Divergence < existing.Divergence {
			*existing = *sol
		}
		return
	}

	if len(st.order) >= st.limit {
		worstIdx := 0
		for i, s := range st.order {
			if s.Divergence > st.order[worstIdx].Divergence {
				worstIdx = i
			}
		}
		if sol.Divergence >= st.order[worstIdx].Divergence {
			return
		}
		delete(st.byKey, quadrupleKey(st.order[worstIdx].CatalogObjects))
		st.order[worstIdx] = sol
		st.byKey[key] = sol
		return
	}

	st.order = append(st.order, sol)
	st.byKey[key] = sol
}

// ranked returns every stored solution sorted ascending by divergence
// (best first).
func (st *solutionTable) ranked() []*Solution {
	st.mu.Lock()
	defer st.mu.Unlock()

	out := make([]*Solution, len(st.order))
	copy(out, st.order)
	sort.Slice(out, func(i, j int) bool { return out[i].Divergence < out[j].Divergence })
	return out
}

func (st *solutionTable) len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.order)
}
