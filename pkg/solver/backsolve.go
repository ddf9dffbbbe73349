package solver

import (
	"math"

	"github.com/trixelcat/trixel/pkg/catalog"
	"github.com/trixelcat/trixel/pkg/geometry"
	"github.com/trixelcat/trixel/pkg/htm"
	"github.com/trixelcat/trixel/pkg/kdtree"
)

const (
	maxSigmaClipRounds = 10
	clipSigmaFactor    = 3.0
	refGrowMatchRadius = 3.0 // multiples of the fitted plate scale (radians per pixel)
)

// affineFit is a similarity transform from plate pixels to the tangent
// plane anchored at (centerRA, centerDec): rotate by theta (mirrored if
// flip), scale by radPerPix, then translate by the plate centroid.
type affineFit struct {
	centerRA, centerDec float64
	plateCX, plateCY    float64
	theta               float64
	scale               float64
	flip                bool
}

// PrepareSolution runs the reference-object back-solve for sol (spec
// §4.5.8): it grows the reference set beyond the matched quadruple with
// any other plate detections that land on a catalog object under the
// quadruple's provisional transform, iteratively sigma-clips the grown
// set, fits the final plate-to-sky transform from whatever survives, and
// populates sol.References and sol.PlateSolutions for every detection on
// the plate. With exactly MIN_PLATE_OBJECTS detections on the whole
// plate there is nothing to grow the set with, so clipping is skipped
// ("fast" variant, spec §9).
func PrepareSolution(sol *Solution, plateObjects []PlateObject, os *htm.ObjectSet, diag *Diagnostics) error {
	if os == nil || os.Table == nil {
		return &catalog.BadInputError{Reason: "nil object set"}
	}
	table := os.Table
	schema := table.Catalog().Schema
	objects := table.Catalog().Objects

	refs := make([]ReferenceObject, 4)
	for i := 0; i < 4; i++ {
		refs[i] = ReferenceObject{
			CatalogObject: sol.CatalogObjects[i],
			PlateIndex:    sol.PlateIndices[i],
		}
	}

	skipClipping := len(plateObjects) <= MinPlateObjects
	if !skipClipping {
		refs = growReferences(refs, plateObjects, os, sol.Flip)
		clipReferences(refs, plateObjects, objects, schema, sol.Flip, diag)
	}

	active := activeIndices(refs)
	if len(active) < 2 {
		return &catalog.BadInputError{Reason: "fewer than 2 unclipped references after back-solve"}
	}

	fit := fitTransform(refs, active, plateObjects, objects, schema, sol.Flip)
	sol.References = refs

	zeroPoint := magnitudeZeroPoint(refs, active, plateObjects, objects, schema)

	sol.PlateSolutions = make([]PlatePosition, len(plateObjects))
	for i, po := range plateObjects {
		ra, dec := fit.plateToEqu(po.X, po.Y)
		sol.PlateSolutions[i] = PlatePosition{
			PlateIndex: i,
			RA:         ra,
			Dec:        dec,
			Mag:        instrumentalMag(po.ADU) + zeroPoint,
		}
	}
	return nil
}

// growReferences extends the matched quadruple with any other plate
// detection that, under the quadruple's provisional transform, predicts a
// sky position within refGrowMatchRadius*radPerPix of some catalog
// object's nearest neighbour (spec §4.5.8 "additional plate detections
// promoted to references"). A kd-tree over the table is built once for
// the nearest-catalog lookup; the search itself is narrowed to os's
// coarse R-tree candidates via kdtree.NearestInRegion when that set is
// usable, falling back to a full-table NearestOnPos otherwise.
func growReferences(refs []ReferenceObject, plateObjects []PlateObject, os *htm.ObjectSet, flip bool) []ReferenceObject {
	table := os.Table
	schema := table.Catalog().Schema
	objects := table.Catalog().Objects

	all := make([]int, len(refs))
	for i := range refs {
		all[i] = i
	}
	fit := fitTransform(refs, all, plateObjects, objects, schema, flip)

	tree, err := kdtree.Build(table.Catalog(), kdtree.DefaultOptions())
	if err != nil {
		return refs
	}
	candidates := coarseCandidates(os)

	used := make(map[int]bool, len(refs))
	for _, r := range refs {
		used[r.PlateIndex] = true
	}

	matchRadius := refGrowMatchRadius * fit.scale
	for i, po := range plateObjects {
		if used[i] {
			continue
		}
		ra, dec := fit.plateToEqu(po.X, po.Y)

		nearest, ok := tree.NearestInRegion(ra, dec, candidates)
		if !ok {
			nearest, ok = tree.NearestOnPos(ra, dec)
			if !ok {
				continue
			}
		}
		o := objects[nearest]
		if geometry.EquDistance(ra, dec, o.RA(schema), o.Dec(schema)) > matchRadius {
			continue
		}
		refs = append(refs, ReferenceObject{CatalogObject: nearest, PlateIndex: i})
	}
	return refs
}

func activeIndices(refs []ReferenceObject) []int {
	var idx []int
	for i, r := range refs {
		if !r.Clipped {
			idx = append(idx, i)
		}
	}
	return idx
}

// clipReferences runs up to maxSigmaClipRounds rounds of leave-one-out
// sigma clipping: each active reference's residual is measured against a
// transform fit from every OTHER active, non-clipped reference, never
// against a transform that includes itself (spec §9's "for all
// references != target, not clipped" resolution). A round that clips
// nothing ends the loop early.
func clipReferences(refs []ReferenceObject, plateObjects []PlateObject, objects []catalog.ObjectRecord, schema *catalog.Schema, flip bool, diag *Diagnostics) {
	for round := 0; round < maxSigmaClipRounds; round++ {
		active := activeIndices(refs)
		if len(active) < 3 {
			return
		}
		if diag != nil {
			diag.recordSigmaRound()
		}

		residuals := make([]float64, len(active))
		magResiduals := make([]float64, len(active))
		for k, target := range active {
			others := otherThan(active, target)
			if len(others) < 2 {
				continue
			}
			fit := fitTransform(refs, others, plateObjects, objects, schema, flip)
			residuals[k] = fit.positionResidual(refs[target], plateObjects[refs[target].PlateIndex], objects, schema)
			zp := magnitudeZeroPoint(refs, others, plateObjects, objects, schema)
			catalogMag := objects[refs[target].CatalogObject].SortKey(schema)
			plateMag := instrumentalMag(plateObjects[refs[target].PlateIndex].ADU) + zp
			magResiduals[k] = catalogMag - plateMag
		}

		mean, sigma := meanStdDev(residuals)
		magMean, magSigma := meanStdDev(magResiduals)
		clippedAny := false
		for k, target := range active {
			refs[target].PosMean, refs[target].PosSigma = mean, sigma
			refs[target].MagMean, refs[target].MagSigma = magMean, magSigma
			posOut := sigma != 0 && math.Abs(residuals[k]-mean) > clipSigmaFactor*sigma
			magOut := magSigma != 0 && math.Abs(magResiduals[k]-magMean) > clipSigmaFactor*magSigma
			if posOut || magOut {
				refs[target].Clipped = true
				clippedAny = true
			}
		}
		if !clippedAny {
			return
		}
	}
}

func otherThan(active []int, target int) []int {
	out := make([]int, 0, len(active)-1)
	for _, i := range active {
		if i != target {
			out = append(out, i)
		}
	}
	return out
}

func meanStdDev(v []float64) (mean, sigma float64) {
	if len(v) == 0 {
		return 0, 0
	}
	for _, x := range v {
		mean += x
	}
	mean /= float64(len(v))
	var ss float64
	for _, x := range v {
		d := x - mean
		ss += d * d
	}
	sigma = math.Sqrt(ss / float64(len(v)))
	return mean, sigma
}

// fitTransform derives the plate-to-tangent-plane similarity transform
// (rotation and scale) by averaging over every pair of the given
// reference indices (spec §4.5.8 "two-anchor-pair averaging"), anchored
// at the centroid of the references' catalog and plate positions.
func fitTransform(refs []ReferenceObject, active []int, plateObjects []PlateObject, objects []catalog.ObjectRecord, schema *catalog.Schema, flip bool) affineFit {
	var centerRA, centerDec, plateCX, plateCY float64
	for _, i := range active {
		o := objects[refs[i].CatalogObject]
		centerRA += o.RA(schema)
		centerDec += o.Dec(schema)
		p := plateObjects[refs[i].PlateIndex]
		plateCX += p.X
		plateCY += p.Y
	}
	n := float64(len(active))
	centerRA /= n
	centerDec /= n
	plateCX /= n
	plateCY /= n

	flipSign := 1.0
	if flip {
		flipSign = -1.0
	}

	var sumTheta, sumScale float64
	pairs := 0
	for a := 0; a < len(active); a++ {
		for b := a + 1; b < len(active); b++ {
			ri, rj := refs[active[a]], refs[active[b]]
			oi, oj := objects[ri.CatalogObject], objects[rj.CatalogObject]
			xi, yi := geometry.Gnomonic(centerRA, centerDec, oi.RA(schema), oi.Dec(schema))
			xj, yj := geometry.Gnomonic(centerRA, centerDec, oj.RA(schema), oj.Dec(schema))
			skyDX, skyDY := xj-xi, yj-yi
			skyLen := math.Hypot(skyDX, skyDY)
			if skyLen == 0 {
				continue
			}

			pi, pj := plateObjects[ri.PlateIndex], plateObjects[rj.PlateIndex]
			plateDX, plateDY := pj.X-pi.X, flipSign*(pj.Y-pi.Y)
			plateLen := math.Hypot(plateDX, plateDY)
			if plateLen == 0 {
				continue
			}

			sumScale += skyLen / plateLen
			sumTheta += math.Atan2(skyDY, skyDX) - math.Atan2(plateDY, plateDX)
			pairs++
		}
	}

	var theta, scale float64
	if pairs > 0 {
		theta = sumTheta / float64(pairs)
		scale = sumScale / float64(pairs)
	}

	return affineFit{
		centerRA: centerRA, centerDec: centerDec,
		plateCX: plateCX, plateCY: plateCY,
		theta: theta, scale: scale, flip: flip,
	}
}

// plateToEqu maps a plate pixel coordinate to (ra, dec) through the fit.
func (f affineFit) plateToEqu(px, py float64) (ra, dec float64) {
	flipSign := 1.0
	if f.flip {
		flipSign = -1.0
	}
	dx := px - f.plateCX
	dy := flipSign * (py - f.plateCY)

	st, ct := math.Sin(f.theta), math.Cos(f.theta)
	x := f.scale * (ct*dx - st*dy)
	y := f.scale * (st*dx + ct*dy)

	return geometry.InverseGnomonic(f.centerRA, f.centerDec, x, y)
}

// equToPlate maps a sky coordinate to its plate pixel coordinate under
// this fit: the inverse of plateToEqu (spec §4.5.8 "equatorial-to-plate
// maps the catalog's target onto pixel coordinates by averaging the
// inverse transform over all reference pairs"). It projects through
// geometry.Gnomonic rather than plateToEqu's InverseGnomonic, then undoes
// the same rotate/scale/flip/translate chain in reverse order.
func (f affineFit) equToPlate(ra, dec float64) (px, py float64) {
	x, y := geometry.Gnomonic(f.centerRA, f.centerDec, ra, dec)

	st, ct := math.Sin(f.theta), math.Cos(f.theta)
	var dx, dy float64
	if f.scale != 0 {
		xs, ys := x/f.scale, y/f.scale
		dx = ct*xs + st*ys
		dy = -st*xs + ct*ys
	}

	flipSign := 1.0
	if f.flip {
		flipSign = -1.0
	}

	px = f.plateCX + dx
	py = f.plateCY + flipSign*dy
	return px, py
}

// positionResidual returns the angular distance in radians between a
// reference's catalog position and the (ra, dec) its own plate pixel
// maps to under this fit.
func (f affineFit) positionResidual(ref ReferenceObject, plate PlateObject, objects []catalog.ObjectRecord, schema *catalog.Schema) float64 {
	ra, dec := f.plateToEqu(plate.X, plate.Y)
	o := objects[ref.CatalogObject]
	return geometry.EquDistance(ra, dec, o.RA(schema), o.Dec(schema))
}

func instrumentalMag(adu float64) float64 {
	if adu <= 0 {
		adu = 1
	}
	return -2.5 * math.Log10(adu)
}

// magnitudeZeroPoint estimates the offset between instrumental and
// catalog magnitudes as the mean difference over the active references
// (spec §4.5.9 "plate magnitude extrapolation").
func magnitudeZeroPoint(refs []ReferenceObject, active []int, plateObjects []PlateObject, objects []catalog.ObjectRecord, schema *catalog.Schema) float64 {
	if len(active) == 0 {
		return 0
	}
	var sum float64
	for _, i := range active {
		r := refs[i]
		catalogMag := objects[r.CatalogObject].SortKey(schema)
		plateMag := instrumentalMag(plateObjects[r.PlateIndex].ADU)
		sum += catalogMag - plateMag
	}
	return sum / float64(len(active))
}
