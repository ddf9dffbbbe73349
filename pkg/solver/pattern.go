package solver

import (
	"math"
	"sort"

	"github.com/trixelcat/trixel/pkg/geometry"
)

// indexedPlateObject keeps a PlateObject's original position in the plate
// array after it has been re-sorted by intensity, so Solution.PlateIndices
// still refers to the caller's own numbering.
type indexedPlateObject struct {
	PlateObject
	origIndex int
}

// sortPlateObjectsByIntensity returns a copy of objs sorted descending by
// ADU (spec §4.5.1 "the sliding window walks the plate detections sorted
// brightest-first").
func sortPlateObjectsByIntensity(objs []PlateObject) []indexedPlateObject {
	out := make([]indexedPlateObject, len(objs))
	for i, o := range objs {
		out[i] = indexedPlateObject{PlateObject: o, origIndex: i}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ADU > out[j].ADU })
	return out
}

// secondaryNeedle is one window secondary's distance/magnitude descriptor
// relative to the window's primary.
type secondaryNeedle struct {
	obj indexedPlateObject

	distActual     float64
	distMin, distMax float64

	magActual     float64
	magMin, magMax float64
}

// paNeedle is one position-angle descriptor: the turning angle between a
// pair of consecutive secondaries as seen from the primary (spec §4.5.1
// "position-angle min/max are differences between consecutive secondaries'
// pa.plate_actual"). Using the angle BETWEEN secondaries rather than each
// secondary's absolute bearing from the primary makes the descriptor
// invariant to an overall plate rotation (spec invariant 13), while the
// flipped twin admits a mirror-image plate (spec invariant 14).
type paNeedle struct {
	delta          float64
	min, max       float64
	flipMin, flipMax float64
}

// pattern is the compiled needle for one (primary, 3-secondary) window.
type pattern struct {
	primary     indexedPlateObject
	secondaries [3]secondaryNeedle
	pa          [3]paNeedle
}

// buildPattern compiles the needle for a 4-element window, window[0] being
// the primary and window[1:4] the three secondaries, per spec §4.5.1.
func buildPattern(window [4]indexedPlateObject, tol Tolerances) *pattern {
	p := &pattern{primary: window[0]}
	primaryPt := geometry.PlatePoint{X: window[0].X, Y: window[0].Y}

	var paActual [3]float64
	for i := 1; i <= 3; i++ {
		sec := window[i]
		secPt := geometry.PlatePoint{X: sec.X, Y: sec.Y}

		dist := plateDistanceEuclid(primaryPt, secPt)
		adu := sec.ADU
		if adu == 0 {
			adu = 1
		}
		primaryADU := window[0].ADU
		if primaryADU == 0 {
			primaryADU = 1
		}
		mag := magnitudeDelta(primaryADU, adu)

		p.secondaries[i-1] = secondaryNeedle{
			obj:        sec,
			distActual: dist,
			distMin:    dist - tol.Dist,
			distMax:    dist + tol.Dist,
			magActual:  mag,
			magMin:     mag - tol.Mag,
			magMax:     mag + tol.Mag,
		}
		// Bearing from primary to secondary: atan2(sec.y-primary.y, sec.x-primary.x).
		paActual[i-1] = geometry.PlatePA(secPt, primaryPt)
	}

	for i := 0; i < 3; i++ {
		next := (i + 1) % 3
		delta := geometry.QuadrantNormalize(paActual[i] - paActual[next])
		flipDelta := geometry.QuadrantNormalize(-delta)
		p.pa[i] = paNeedle{
			delta:   delta,
			min:     delta - tol.PA,
			max:     delta + tol.PA,
			flipMin: flipDelta - tol.PA,
			flipMax: flipDelta + tol.PA,
		}
	}

	return p
}

func plateDistanceEuclid(p1, p2 geometry.PlatePoint) float64 {
	return math.Sqrt(geometry.PlateDistance(p1, p2))
}

// magnitudeDelta computes the instrumental magnitude difference between a
// secondary and the primary (spec §4.5.1 "mag.plate_actual = -2.5 *
// log10(secondary.adu / primary.adu), zero-adu coerced to 1").
func magnitudeDelta(primaryADU, secondaryADU float64) float64 {
	if primaryADU == 0 {
		primaryADU = 1
	}
	if secondaryADU == 0 {
		secondaryADU = 1
	}
	return -2.5 * math.Log10(secondaryADU/primaryADU)
}
