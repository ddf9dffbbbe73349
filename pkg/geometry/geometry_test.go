package geometry

import (
	"math"
	"testing"
)

func almostEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func TestUnitVectorFoldRoundTrip(t *testing.T) {
	cases := []struct {
		name     string
		ra, dec  float64
	}{
		{"origin", 0, 0},
		{"quadrant2", math.Pi / 2, 0.3},
		{"south", 4.2, -0.9},
		{"pole", 1.0, math.Pi/2 - 1e-9},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			v := UnitVector(c.ra, c.dec)
			ra, dec := SphericalFromOctahedron(v)
			if !almostEqual(ra, c.ra, 1e-6) && !almostEqual(ra, QuadrantNormalize(c.ra), 1e-6) {
				t.Errorf("ra round trip: got %v want %v", ra, c.ra)
			}
			if !almostEqual(dec, c.dec, 1e-6) {
				t.Errorf("dec round trip: got %v want %v", dec, c.dec)
			}
		})
	}
}

func TestEquDistanceZero(t *testing.T) {
	d := EquDistance(1.2, 0.5, 1.2, 0.5)
	if !almostEqual(d, 0, 1e-12) {
		t.Errorf("distance to self: got %v want 0", d)
	}
}

func TestEquDistanceAntipodal(t *testing.T) {
	d := EquDistance(0, 0, math.Pi, 0)
	if !almostEqual(d, math.Pi, 1e-9) {
		t.Errorf("antipodal distance: got %v want pi", d)
	}
}

func TestEquDistanceQuarterCircle(t *testing.T) {
	d := EquDistance(0, 0, math.Pi/2, 0)
	if !almostEqual(d, math.Pi/2, 1e-9) {
		t.Errorf("quarter circle distance: got %v want pi/2", d)
	}
}

func TestQuadrantNormalize(t *testing.T) {
	cases := map[float64]float64{
		0:             0,
		math.Pi:       math.Pi,
		-0.1:          2*math.Pi - 0.1,
		2*math.Pi + 1: 1,
	}
	for in, want := range cases {
		got := QuadrantNormalize(in)
		if !almostEqual(got, want, 1e-9) {
			t.Errorf("QuadrantNormalize(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestPlateDistanceAndPA(t *testing.T) {
	p1 := PlatePoint{X: 3, Y: 4}
	p2 := PlatePoint{X: 0, Y: 0}
	if got := PlateDistance(p1, p2); got != 25 {
		t.Errorf("PlateDistance = %v, want 25", got)
	}
	pa := PlatePA(p1, p2)
	want := math.Atan2(4, 3)
	if !almostEqual(pa, want, 1e-12) {
		t.Errorf("PlatePA = %v, want %v", pa, want)
	}
}

func TestDotCross(t *testing.T) {
	a := Cart{1, 0, 0}
	b := Cart{0, 1, 0}
	if Dot(a, b) != 0 {
		t.Errorf("Dot = %v, want 0", Dot(a, b))
	}
	c := Cross(a, b)
	if c.Z != 1 || c.X != 0 || c.Y != 0 {
		t.Errorf("Cross = %+v, want {0 0 1}", c)
	}
}

func TestMidpoint(t *testing.T) {
	a := Cart{0, 0, 0}
	b := Cart{2, 4, 6}
	m := Midpoint(a, b)
	if m.X != 1 || m.Y != 2 || m.Z != 3 {
		t.Errorf("Midpoint = %+v, want {1 2 3}", m)
	}
}

func TestEquPACardinalDirections(t *testing.T) {
	// due east: same dec, increasing ra
	pa := EquPA(0, 0, 0.01, 0)
	if !almostEqual(pa, math.Pi/2, 1e-3) {
		t.Errorf("PA due east = %v, want ~pi/2", pa)
	}
}
