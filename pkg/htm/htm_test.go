package htm

import (
	"math"
	"testing"

	"github.com/trixelcat/trixel/pkg/catalog"
)

func testSchema() *catalog.Schema {
	fields := []catalog.Field{
		{Name: "designation", Offset: 0, Size: 8, CType: catalog.CTypeString},
		{Name: "ra", Offset: 8, Size: 8, CType: catalog.CTypeDouble},
		{Name: "dec", Offset: 16, Size: 8, CType: catalog.CTypeDouble},
		{Name: "mag", Offset: 24, Size: 8, CType: catalog.CTypeDouble},
	}
	return catalog.NewSchema(fields, "designation", 8, 16, 24, 32)
}

func makeRecord(ra, dec float64, mag float32) catalog.ObjectRecord {
	buf := make([]byte, 32)
	putF64(buf[8:16], ra)
	putF64(buf[16:24], dec)
	putF64(buf[24:32], float64(mag))
	return catalog.ObjectRecord(buf)
}

func putF64(b []byte, v float64) {
	bits := math.Float64bits(v)
	for i := 0; i < 8; i++ {
		b[i] = byte(bits >> (8 * uint(i)))
	}
}

func putF32(b []byte, v float32) {
	bits := math.Float32bits(v)
	for i := 0; i < 4; i++ {
		b[i] = byte(bits >> (8 * uint(i)))
	}
}

// buildOneObjectTable opens a table with a single object at (ra, dec, mag)
// and returns the database + table + its assigned trixel id at depth D.
func buildOneObjectTable(t *testing.T, depth int, ra, dec float64, mag float32) (*Database, *Table) {
	t.Helper()
	db, err := NewDatabase(depth, DefaultDatabaseOptions())
	if err != nil {
		t.Fatalf("NewDatabase: %v", err)
	}
	idx, err := db.PointLocation(ra, dec, depth)
	if err != nil {
		t.Fatalf("PointLocation: %v", err)
	}
	id := db.Mesh.Trixels[idx].ID

	s := testSchema()
	rec := makeRecord(ra, dec, mag)
	tbl := catalog.NewTable("test", "star", 1, s, []catalog.ObjectRecord{rec})

	ht, err := db.OpenTable("test", "star", 1, tbl, []uint32{id})
	if err != nil {
		t.Fatalf("OpenTable: %v", err)
	}
	return db, ht
}

func TestScenarioATrivialClipping(t *testing.T) {
	db, ht := buildOneObjectTable(t, 3, 0.1, 0.1, 5)
	_ = db

	os, err := ht.Clip(0, 0, math.Pi/2, 0, 3)
	if err != nil {
		t.Fatalf("Clip: %v", err)
	}

	found := false
	for i := range os.Trixels {
		if os.Counts[i] > 0 {
			found = true
		}
	}
	if !found {
		t.Error("expected at least one non-empty (head, count) pair")
	}
}

func TestPointLocationDepthInvariant(t *testing.T) {
	db, err := NewDatabase(4, DefaultDatabaseOptions())
	if err != nil {
		t.Fatalf("NewDatabase: %v", err)
	}
	ra, dec := 1.234, -0.4
	for d := 0; d <= 4; d++ {
		idx, err := db.PointLocation(ra, dec, d)
		if err != nil {
			t.Fatalf("PointLocation depth %d: %v", d, err)
		}
		if db.Mesh.Trixels[idx].Depth != d {
			t.Errorf("depth %d: got trixel depth %d", d, db.Mesh.Trixels[idx].Depth)
		}
	}
}

func TestPointLocationAncestorChain(t *testing.T) {
	db, err := NewDatabase(4, DefaultDatabaseOptions())
	if err != nil {
		t.Fatalf("NewDatabase: %v", err)
	}
	ra, dec := 2.1, 0.3
	for d := 1; d <= 4; d++ {
		cur, err := db.PointLocation(ra, dec, d)
		if err != nil {
			t.Fatalf("PointLocation depth %d: %v", d, err)
		}
		prev, err := db.PointLocation(ra, dec, d-1)
		if err != nil {
			t.Fatalf("PointLocation depth %d: %v", d-1, err)
		}
		if db.Mesh.Trixels[cur].Parent != prev {
			t.Errorf("depth %d: parent index %d != point_location(d-1) index %d",
				d, db.Mesh.Trixels[cur].Parent, prev)
		}
	}
}

func TestClipFullSphereReturnsAllPopulated(t *testing.T) {
	db, ht := buildOneObjectTable(t, 2, 1.0, 0.5, 5)
	_ = db

	os, err := ht.Clip(0, 0, 2*math.Pi, 0, 2)
	if err != nil {
		t.Fatalf("Clip: %v", err)
	}

	total := 0
	for _, c := range os.Counts {
		total += int(c)
	}
	if total != 1 {
		t.Errorf("full-sphere clip found %d objects, want 1", total)
	}
}

func TestInvalidCoordinateRejected(t *testing.T) {
	db, err := NewDatabase(2, DefaultDatabaseOptions())
	if err != nil {
		t.Fatalf("NewDatabase: %v", err)
	}
	if _, err := db.PointLocation(-1, 0, 2); err == nil {
		t.Error("expected error for negative ra")
	}
	if _, err := db.PointLocation(0, 2, 2); err == nil {
		t.Error("expected error for out-of-range dec")
	}
}

func TestObjectSetForCachesRepeatedClips(t *testing.T) {
	db, ht := buildOneObjectTable(t, 2, 1.0, 0.5, 5)

	first, err := db.ObjectSetFor(ht, 0, 0, 2*math.Pi, 0, 2)
	if err != nil {
		t.Fatalf("ObjectSetFor: %v", err)
	}
	second, err := db.ObjectSetFor(ht, 0, 0, 2*math.Pi, 0, 2)
	if err != nil {
		t.Fatalf("ObjectSetFor: %v", err)
	}
	if first != second {
		t.Error("expected the second ObjectSetFor call to return the same cached *ObjectSet")
	}

	stats := ht.ClipCacheStats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("ClipCacheStats = %+v, want 1 hit and 1 miss", stats)
	}

	if _, err := db.ObjectSetFor(ht, 0, 0, math.Pi/2, 0, 2); err != nil {
		t.Fatalf("ObjectSetFor: %v", err)
	}
	if stats := ht.ClipCacheStats(); stats.Entries != 2 {
		t.Errorf("ClipCacheStats.Entries = %d, want 2 distinct clip regions cached", stats.Entries)
	}
}
