// Package solver implements the asterism-based plate solver (spec §4.5):
// pattern construction over a sliding window of plate detections,
// magnitude/distance/position-angle filtering against a clipped catalog
// region, divergence scoring, and the reference-object back-solve that
// assigns RA/Dec to every plate detection.
package solver

import (
	"github.com/trixelcat/trixel/pkg/catalog"
	"github.com/trixelcat/trixel/pkg/htm"
)

// Numeric constants from spec §6 "Numeric constants".
const (
	MinPlateObjects     = 4
	MaxPotentialMatches = 256
	MaxActualMatches    = 16
	MaxRTSolutions      = 32

	weightMag  = 0.5
	weightDist = 1.0
	weightPA   = 1.0
)

// PlateObject is one detection on the plate: pixel coordinates, held as
// float64 and not rounded to whole pixels, and
// an intensity (spec §3 "Plate object").
type PlateObject struct {
	X, Y float64
	ADU  float64
}

// Constraint names one of the solver's seven tunable search ranges.
type Constraint int

const (
	ConstraintMag Constraint = iota
	ConstraintFOV
	ConstraintRA
	ConstraintDec
	ConstraintArea
	ConstraintJD
	ConstraintPObjects
)

// Range is a [min, max] constraint bound.
type Range struct{ Min, Max float64 }

// Tolerances are the three tunable matching tolerances (spec §4.5.1).
type Tolerances struct {
	Dist float64 // pixels
	Mag  float64 // magnitudes
	PA   float64 // radians
}

// FindMode selects exhaustive or first-match solving (spec §4.5.7).
type FindMode int

const (
	FindAll FindMode = iota
	FindFirst
)

// Solver matches a sliding window of plate detections against a catalog
// table clipped to a region of interest. A Solver is owned by a single
// logical session and is not safe to share across goroutines (spec §5);
// internally, Solve parallelizes across sliding windows and funnels
// results through one mutex-guarded table (see parallel.go).
type Solver struct {
	table *htm.Table

	plateObjects []PlateObject
	constraints  map[Constraint]Range
	tol          Tolerances

	Diagnostics *Diagnostics
}

// NewSolver creates a solver bound to table.
func NewSolver(table *htm.Table) *Solver {
	return &Solver{
		table:       table,
		constraints: make(map[Constraint]Range),
		Diagnostics: NewDiagnostics(),
	}
}

// AddPlateObject appends one detection to the plate.
func (s *Solver) AddPlateObject(x, y, adu float64) {
	s.plateObjects = append(s.plateObjects, PlateObject{X: x, Y: y, ADU: adu})
}

// SetConstraint sets the [min, max] bound for one constraint kind.
func (s *Solver) SetConstraint(c Constraint, min, max float64) {
	s.constraints[c] = Range{Min: min, Max: max}
}

// SetTolerance sets the three matching tolerances.
func (s *Solver) SetTolerance(tol Tolerances) {
	s.tol = tol
}

// Solution is four matched (catalog object, plate detection) pairs plus
// derived scale/orientation and, after PrepareSolution, the full
// back-solved plate-to-sky mapping (spec §3 "Solver solution").
type Solution struct {
	CatalogObjects [4]int32
	PlateIndices   [4]int
	RadPerPix      float64
	Flip           bool
	Divergence     float64

	References     []ReferenceObject
	PlateSolutions []PlatePosition
}

// ReferenceObject is one catalog<->plate anchor pair used by the
// back-solve, carrying its sigma-clipping statistics (spec §4.5.8).
type ReferenceObject struct {
	CatalogObject int32
	PlateIndex    int
	MagMean       float64
	MagSigma      float64
	PosMean       float64
	PosSigma      float64
	Clipped       bool
}

// PlatePosition is a plate detection's solved sky position and estimated
// magnitude (spec §3 "... an array of per-plate-detection RA/Dec/
// estimated-magnitude records").
type PlatePosition struct {
	PlateIndex int
	RA, Dec    float64
	Mag        float64
}

// Solve runs the sliding-window search over os and returns the solutions
// table: dedup'd by catalog-object quadruple, capped at MaxRTSolutions,
// sorted ascending by divergence (best first). Solve does not run the
// back-solve (spec §4.5.8) on the results; call PrepareSolution on
// whichever solution the caller selects to populate its References and
// PlateSolutions.
func (s *Solver) Solve(os *htm.ObjectSet, mode FindMode) ([]*Solution, error) {
	if len(s.plateObjects) < MinPlateObjects {
		return nil, &catalog.BadInputError{Reason: "fewer than MIN_PLATE_OBJECTS plate detections"}
	}

	sorted := sortPlateObjectsByIntensity(s.plateObjects)

	haystack, err := prepareHaystack(os, s.constraints, s.Diagnostics)
	if err != nil {
		return nil, err
	}
	if len(haystack.objects) == 0 {
		return nil, nil
	}

	table := newSolutionTable(MaxRTSolutions)
	runWindows(sorted, haystack, s.tol, table, mode, s.Diagnostics)

	return table.ranked(), nil
}
