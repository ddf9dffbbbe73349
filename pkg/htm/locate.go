package htm

import (
	"math"

	"github.com/trixelcat/trixel/pkg/geometry"
)

// PointLocation returns the arena index of the trixel of the given depth
// containing (ra, dec), via recursive descent from the eight roots (spec
// §4.2 "Point location"): fold to octahedron space, test each root for
// containment, and on a hit recurse into children until depth is reached.
//
// Exactly one root contains any valid point off the root boundaries; a
// point on a boundary lies in two or more roots (a pole in four) and the
// first hit (lowest root index) wins, which is the documented tie-break.
func (db *Database) PointLocation(ra, dec float64, depth int) (int32, error) {
	if depth < 0 || depth > db.Mesh.MaxDepth {
		return -1, &DepthRangeError{Depth: depth, MaxDepth: db.Mesh.MaxDepth}
	}
	if ra < 0 || ra >= 2*math.Pi || dec < -math.Pi/2 || dec > math.Pi/2 {
		return -1, &InvalidCoordinateError{RA: ra, Dec: dec}
	}

	p := geometry.UnitVector(ra, dec)

	for _, rootIdx := range db.Mesh.Roots {
		if db.Mesh.Contains(rootIdx, p) {
			return db.descend(rootIdx, p, depth), nil
		}
	}
	return -1, &InvalidCoordinateError{RA: ra, Dec: dec}
}

func (db *Database) descend(idx int32, p geometry.Cart, depth int) int32 {
	t := &db.Mesh.Trixels[idx]
	if t.Depth >= depth {
		return idx
	}
	if t.Children[0] == -1 {
		// Mesh was built shallower than the requested depth; the deepest
		// available trixel is the best answer.
		return idx
	}
	for _, ci := range t.Children {
		if db.Mesh.Contains(ci, p) {
			return db.descend(ci, p, depth)
		}
	}
	// Numerical floor let every child test fail by a hair; stay at the
	// parent rather than report no match.
	return idx
}

// LocateLeafViaIndex finds the deepest-level trixel containing (ra, dec)
// using the R-tree pre-filter, confirming every candidate with an exact
// containment test and falling back to full recursive descent if the
// index yields nothing.
func (db *Database) LocateLeafViaIndex(ra, dec float64) (int32, error) {
	if ra < 0 || ra >= 2*math.Pi || dec < -math.Pi/2 || dec > math.Pi/2 {
		return -1, &InvalidCoordinateError{RA: ra, Dec: dec}
	}
	p := geometry.UnitVector(ra, dec)

	for _, cand := range db.index.candidatesNear(ra, dec) {
		if db.Mesh.Contains(cand, p) {
			return cand, nil
		}
	}
	return db.PointLocation(ra, dec, db.Mesh.MaxDepth)
}

// InvalidCoordinateError reports an (ra, dec) pair outside its valid
// domain, or a point that fails to match any root (which should not occur
// for a valid coordinate, but is reported rather than panicking).
type InvalidCoordinateError struct {
	RA, Dec float64
}

func (e *InvalidCoordinateError) Error() string {
	return "htm: invalid coordinate or unlocatable point"
}
