package kdtree

import (
	"encoding/binary"
	"math"
	"math/rand"
	"testing"

	"github.com/trixelcat/trixel/pkg/catalog"
)

func testSchema() *catalog.Schema {
	fields := []catalog.Field{
		{Name: "ra", Offset: 0, Size: 8, CType: catalog.CTypeDouble},
		{Name: "dec", Offset: 8, Size: 8, CType: catalog.CTypeDouble},
		{Name: "mag", Offset: 16, Size: 4, CType: catalog.CTypeFloat},
	}
	return catalog.NewSchema(fields, "", 0, 8, 16, 20)
}

func makeRecord(ra, dec float64, mag float32) catalog.ObjectRecord {
	buf := make([]byte, 20)
	binary.LittleEndian.PutUint64(buf[0:8], math.Float64bits(ra))
	binary.LittleEndian.PutUint64(buf[8:16], math.Float64bits(dec))
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(mag))
	return catalog.ObjectRecord(buf)
}

func buildTestTree(t *testing.T, n int, seed int64) (*Tree, *catalog.Table) {
	t.Helper()
	r := rand.New(rand.NewSource(seed))
	s := testSchema()
	objs := make([]catalog.ObjectRecord, n)
	for i := 0; i < n; i++ {
		ra := r.Float64() * 2 * math.Pi
		dec := (r.Float64() - 0.5) * math.Pi
		objs[i] = makeRecord(ra, dec, float32(r.Float64()*10))
	}
	tbl := catalog.NewTable("stars", "star", 1, s, objs)
	tree, err := Build(tbl, DefaultOptions())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return tree, tbl
}

func TestNearestOnPosRoundTrip(t *testing.T) {
	tree, tbl := buildTestTree(t, 200, 1)
	for i := 0; i < tbl.Len(); i++ {
		ra := tbl.Objects[i].RA(tbl.Schema)
		dec := tbl.Objects[i].Dec(tbl.Schema)
		got, found := tree.NearestOnPos(ra, dec)
		if !found {
			t.Fatalf("object %d: not found", i)
		}
		if got != int32(i) {
			gotRA := tbl.Objects[got].RA(tbl.Schema)
			gotDec := tbl.Objects[got].Dec(tbl.Schema)
			if ra != gotRA || dec != gotDec {
				t.Errorf("object %d: nearest_on_pos returned %d (different position)", i, got)
			}
		}
	}
}

func TestNearestOnObjectExcludesSelf(t *testing.T) {
	tree, _ := buildTestTree(t, 50, 2)
	for i := 0; i < tree.Len(); i++ {
		got, found := tree.NearestOnObject(int32(i))
		if !found {
			t.Fatalf("object %d: not found", i)
		}
		if got == int32(i) {
			t.Errorf("object %d: nearest_on_object returned itself", i)
		}
	}
}

func TestNearestMatchesLinearOracle(t *testing.T) {
	tree, _ := buildTestTree(t, 500, 3)
	r := rand.New(rand.NewSource(42))
	for trial := 0; trial < 50; trial++ {
		ra := r.Float64() * 2 * math.Pi
		dec := (r.Float64() - 0.5) * math.Pi
		got, _ := tree.NearestOnPos(ra, dec)
		want, _ := tree.NearestLinearAll(ra, dec)
		if got != want {
			t.Errorf("trial %d (ra=%v dec=%v): kdtree=%d linear=%d", trial, ra, dec, got, want)
		}
	}
}

func TestScenarioCNearest(t *testing.T) {
	s := testSchema()
	objs := []catalog.ObjectRecord{
		makeRecord(0, 0, 5),
		makeRecord(0.001, 0, 5),
		makeRecord(0, 0.001, 5),
	}
	tbl := catalog.NewTable("t", "star", 1, s, objs)
	tree, err := Build(tbl, DefaultOptions())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	got, found := tree.NearestOnPos(0.0004, 0.0004)
	if !found {
		t.Fatal("expected a result")
	}
	// (0.0004, 0.0004) is ~0.000566 rad from object 0 and ~0.000721 rad
	// from objects 1 and 2, so object 0 is the nearest.
	if got != 0 {
		t.Errorf("nearest = %d, want 0", got)
	}
}

func TestEmptyTreeQuery(t *testing.T) {
	s := testSchema()
	tbl := catalog.NewTable("empty", "star", 1, s, nil)
	tree, err := Build(tbl, DefaultOptions())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, found := tree.NearestOnPos(0, 0); found {
		t.Error("expected no result for empty tree")
	}
}
