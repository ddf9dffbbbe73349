package solver

import "github.com/trixelcat/trixel/pkg/geometry"

// matchTriple is one (primary, secondary0, secondary1, secondary2)
// assignment that survived the magnitude, distance, and position-angle
// stages for a given window's pattern.
type matchTriple struct {
	primary    haystackObject
	secondary  [3]haystackObject
	radPerPix  float64
	flip       bool
}

// magnitudeStage finds, for candidate primary p, the three per-needle
// catalog slices whose magnitude lies in [p.mag+needle.magMin,
// p.mag+needle.magMax] (spec §4.5.3). Catalog magnitudes are absolute, so
// the needle's differential interval is translated to an absolute one
// anchored at the candidate primary before the haystack's binary search is
// used. Returns ok=false if any of the three intervals comes back empty.
func magnitudeStage(p haystackObject, pat *pattern, hay *haystack, diag *Diagnostics) (candidates [3][]haystackObject, ok bool) {
	for i := 0; i < 3; i++ {
		n := pat.secondaries[i]
		lo := p.mag + n.magMin
		hi := p.mag + n.magMax
		c := hay.magRange(lo, hi)
		if len(c) == 0 {
			return candidates, false
		}
		candidates[i] = c
	}
	if diag != nil {
		diag.recordMagSurvivor()
	}
	return candidates, true
}

// distanceStage walks the cross product of the three magnitude-stage
// candidate slices, deriving a plate scale (radians per pixel) from the
// first secondary's catalog/plate distance ratio and requiring the other
// two secondaries' catalog distances to agree with that scale within
// tolerance (spec §4.5.4 "distance stage", "rad_per_pix scale
// derivation"). The combinatorial walk is capped at MaxPotentialMatches
// candidate tries (one per second- and per third-secondary candidate
// examined), per spec §6, and at MaxActualMatches accepted triples; once
// either cap is hit the stage returns whatever triples it already found
// rather than erroring.
func distanceStage(p haystackObject, pat *pattern, candidates [3][]haystackObject, tol Tolerances, diag *Diagnostics) (out []matchTriple) {
	if diag != nil {
		defer func() { diag.recordDistSurvivors(len(out)) }()
	}
	examined := 0

	for _, c0 := range candidates[0] {
		if c0.objIdx == p.objIdx {
			continue
		}
		d0 := geometry.EquDistance(p.ra, p.dec, c0.ra, c0.dec)
		if pat.secondaries[0].distActual == 0 {
			continue
		}
		radPerPix := d0 / pat.secondaries[0].distActual
		distTol := tol.Dist * radPerPix

		for _, c1 := range candidates[1] {
			if examined >= MaxPotentialMatches {
				return out
			}
			examined++
			if c1.objIdx == p.objIdx || c1.objIdx == c0.objIdx {
				continue
			}
			d1 := geometry.EquDistance(p.ra, p.dec, c1.ra, c1.dec)
			expected1 := pat.secondaries[1].distActual * radPerPix
			if abs(d1-expected1) > distTol {
				continue
			}

			for _, c2 := range candidates[2] {
				if examined >= MaxPotentialMatches {
					return out
				}
				examined++
				if c2.objIdx == p.objIdx || c2.objIdx == c0.objIdx || c2.objIdx == c1.objIdx {
					continue
				}
				d2 := geometry.EquDistance(p.ra, p.dec, c2.ra, c2.dec)
				expected2 := pat.secondaries[2].distActual * radPerPix
				if abs(d2-expected2) > distTol {
					continue
				}

				out = append(out, matchTriple{
					primary:   p,
					secondary: [3]haystackObject{c0, c1, c2},
					radPerPix: radPerPix,
				})
				if len(out) >= MaxActualMatches {
					return out
				}
			}
		}
	}
	return out
}

// positionAngleStage measures the catalog turning angles between
// consecutive secondaries as seen from the primary and tests them against
// the pattern's needles (spec §4.5.5): needle 0 alone decides the flip
// orientation (normal first, then flipped), and needles 1 and 2 are then
// tested only in whichever orientation needle 0 committed to — a survivor
// that matches needle 0 normal but needle 1 only flipped is rejected
// rather than accepted ("mixed-flip rejection" is about committing once,
// not OR-ing the two orientations across all three needles).
func positionAngleStage(t matchTriple, pat *pattern, tol Tolerances, diag *Diagnostics) (flip bool, ok bool) {
	var paActual [3]float64
	for i := 0; i < 3; i++ {
		s := t.secondary[i]
		paActual[i] = geometry.EquPA(t.primary.ra, t.primary.dec, s.ra, s.dec)
	}

	var delta [3]float64
	for i := 0; i < 3; i++ {
		next := (i + 1) % 3
		delta[i] = geometry.QuadrantNormalize(paActual[i] - paActual[next])
	}

	n0 := pat.pa[0]
	var committedFlip bool
	switch {
	case delta[0] >= n0.min && delta[0] <= n0.max:
		committedFlip = false
	case delta[0] >= n0.flipMin && delta[0] <= n0.flipMax:
		committedFlip = true
	default:
		return false, false
	}

	for i := 1; i < 3; i++ {
		n := pat.pa[i]
		lo, hi := n.min, n.max
		if committedFlip {
			lo, hi = n.flipMin, n.flipMax
		}
		if delta[i] < lo || delta[i] > hi {
			return false, false
		}
	}

	if diag != nil {
		diag.recordPASurvivor()
	}
	return committedFlip, true
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
