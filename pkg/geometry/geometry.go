// Package geometry implements the spherical/Cartesian utilities shared by
// the HTM index, the k-d tree, and the plate solver (spec §4.1). All
// operations are deterministic and side-effect-free.
package geometry

import "math"

// Cart is a three-component Cartesian vector. Unlike digest2's coord.Cart
// (which this is grounded on in shape — see DESIGN.md) it carries no
// rotation helpers of its own; those live where they are used (htm folding
// here, solar/ecliptic rotation has no place in this spec).
type Cart struct {
	X, Y, Z float64
}

// Add returns a+b.
func Add(a, b Cart) Cart { return Cart{a.X + b.X, a.Y + b.Y, a.Z + b.Z} }

// Sub returns a-b.
func Sub(a, b Cart) Cart { return Cart{a.X - b.X, a.Y - b.Y, a.Z - b.Z} }

// Scale returns v*k.
func Scale(v Cart, k float64) Cart { return Cart{v.X * k, v.Y * k, v.Z * k} }

// Dot returns the dot product of a and b.
func Dot(a, b Cart) float64 { return a.X*b.X + a.Y*b.Y + a.Z*b.Z }

// Cross returns the cross product a x b.
func Cross(a, b Cart) Cart {
	return Cart{
		X: a.Y*b.Z - a.Z*b.Y,
		Y: a.Z*b.X - a.X*b.Z,
		Z: a.X*b.Y - a.Y*b.X,
	}
}

// Norm returns the Euclidean length of v.
func Norm(v Cart) float64 { return math.Sqrt(Dot(v, v)) }

// UnitVector converts (ra, dec) in radians to a Cartesian unit vector, then
// folds it onto the basis octahedron by squaring each coordinate while
// preserving its sign (s -> s*|s|). HTM containment tests operate in this
// folded space, where the mesh's faces are planar rather than spherical.
func UnitVector(ra, dec float64) Cart {
	cd := math.Cos(dec)
	v := Cart{
		X: math.Cos(ra) * cd,
		Y: math.Sin(ra) * cd,
		Z: math.Sin(dec),
	}
	return foldOctahedron(v)
}

func foldOctahedron(v Cart) Cart {
	return Cart{
		X: v.X * math.Abs(v.X),
		Y: v.Y * math.Abs(v.Y),
		Z: v.Z * math.Abs(v.Z),
	}
}

// SphericalFromOctahedron inverts UnitVector's folding and returns (ra, dec)
// in radians, with ra normalized to [0, 2pi).
func SphericalFromOctahedron(v Cart) (ra, dec float64) {
	unfold := func(s float64) float64 {
		if s < 0 {
			return -math.Sqrt(-s)
		}
		return math.Sqrt(s)
	}
	x, y, z := unfold(v.X), unfold(v.Y), unfold(v.Z)
	n := math.Sqrt(x*x + y*y + z*z)
	if n == 0 {
		return 0, 0
	}
	dec = math.Asin(z / n)
	ra = QuadrantNormalize(math.Atan2(y, x))
	return ra, dec
}

// Midpoint returns the arithmetic midpoint of a and b in octahedron space.
// The result is not renormalized to the unit sphere; callers needing a
// position must renormalize or, for HTM vertex creation, re-derive (ra,
// dec) via SphericalFromOctahedron which normalizes direction, not length.
func Midpoint(a, b Cart) Cart {
	return Cart{
		X: (a.X + b.X) * 0.5,
		Y: (a.Y + b.Y) * 0.5,
		Z: (a.Z + b.Z) * 0.5,
	}
}

// EquDistance returns the great-circle distance in radians between two
// equatorial positions, via atan2(|cross|, dot) on their unrotated unit
// vectors (the standard numerically-stable haversine-equivalent form).
func EquDistance(ra1, dec1, ra2, dec2 float64) float64 {
	v1 := SphereVector(ra1, dec1)
	v2 := SphereVector(ra2, dec2)
	return AngularDistance(v1, v2)
}

// AngularDistance returns the great-circle distance in radians between two
// plain (non-HTM-folded) unit vectors.
func AngularDistance(v1, v2 Cart) float64 {
	n := Cross(v1, v2)
	return math.Atan2(Norm(n), Dot(v1, v2))
}

// SphereVector is the plain (non-HTM-folded) Cartesian unit vector for
// (ra, dec), used by the k-d tree and the solver's catalog-side distance
// math, which operate on the true sphere rather than HTM's octahedron.
func SphereVector(ra, dec float64) Cart {
	cd := math.Cos(dec)
	return Cart{
		X: math.Cos(ra) * cd,
		Y: math.Sin(ra) * cd,
		Z: math.Sin(dec),
	}
}

// EquPA returns the bearing in radians from o1 to o2, via a gnomonic
// projection of o2 onto the tangent plane at o1 and atan2(y, x) on that
// plane, where x points north and y points east in the local frame.
func EquPA(ra1, dec1, ra2, dec2 float64) float64 {
	dra := ra2 - ra1
	sdra, cdra := math.Sin(dra), math.Cos(dra)
	sd1, cd1 := math.Sin(dec1), math.Cos(dec1)
	sd2, cd2 := math.Sin(dec2), math.Cos(dec2)

	// Gnomonic projection of o2 onto the tangent plane at o1.
	cosC := sd1*sd2 + cd1*cd2*cdra
	if cosC == 0 {
		cosC = 1e-12
	}
	x := (cd1*sd2 - sd1*cd2*cdra) / cosC
	y := (cd2 * sdra) / cosC

	return QuadrantNormalize(math.Atan2(y, x))
}

// Gnomonic projects (ra2, dec2) onto the tangent plane at (ra1, dec1),
// returning (x, y) in radians with x north and y east in the local frame —
// the same projection EquPA derives a bearing from, exposed here with its
// magnitude intact for the solver's back-solve (spec §4.5.8).
func Gnomonic(ra1, dec1, ra2, dec2 float64) (x, y float64) {
	dra := ra2 - ra1
	sdra, cdra := math.Sin(dra), math.Cos(dra)
	sd1, cd1 := math.Sin(dec1), math.Cos(dec1)
	sd2, cd2 := math.Sin(dec2), math.Cos(dec2)

	cosC := sd1*sd2 + cd1*cd2*cdra
	if cosC == 0 {
		cosC = 1e-12
	}
	x = (cd1*sd2 - sd1*cd2*cdra) / cosC
	y = (cd2 * sdra) / cosC
	return x, y
}

// InverseGnomonic inverts Gnomonic: given a tangent-plane offset (x, y) in
// radians from the plane anchored at (ra1, dec1), returns the (ra, dec) it
// projects from.
func InverseGnomonic(ra1, dec1, x, y float64) (ra, dec float64) {
	rho := math.Sqrt(x*x + y*y)
	if rho == 0 {
		return ra1, dec1
	}
	c := math.Atan(rho)
	sc, cc := math.Sin(c), math.Cos(c)
	sd1, cd1 := math.Sin(dec1), math.Cos(dec1)

	decOut := math.Asin(cc*sd1 + (x*sc*cd1)/rho)
	raOut := ra1 + math.Atan2(y*sc, rho*cd1*cc-x*sd1*sc)
	return QuadrantNormalize(raOut), decOut
}

// PlatePoint is a 2-D pixel coordinate pair, shared by PlateDistance,
// PlatePA, and pkg/solver.
type PlatePoint struct {
	X, Y float64
}

// PlateDistance returns the squared Euclidean pixel distance between two
// plate points. The solver consistently uses the squared form; callers
// must not mix this with a square-rooted metric.
func PlateDistance(p1, p2 PlatePoint) float64 {
	dx := p1.X - p2.X
	dy := p1.Y - p2.Y
	return dx*dx + dy*dy
}

// PlatePA returns atan2(y1-y2, x1-x2), the plate-space bearing from p2 to
// p1 used by the solver's needle construction.
func PlatePA(p1, p2 PlatePoint) float64 {
	return math.Atan2(p1.Y-p2.Y, p1.X-p2.X)
}

// QuadrantNormalize wraps theta to [0, 2pi).
func QuadrantNormalize(theta float64) float64 {
	const twoPi = 2 * math.Pi
	theta = math.Mod(theta, twoPi)
	if theta < 0 {
		theta += twoPi
	}
	return theta
}
