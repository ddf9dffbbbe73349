package search

import (
	"math"
	"testing"

	"github.com/trixelcat/trixel/pkg/catalog"
	"github.com/trixelcat/trixel/pkg/htm"
)

func searchTestSchema() *catalog.Schema {
	fields := []catalog.Field{
		{Name: "ra", Offset: 0, Size: 8, CType: catalog.CTypeDouble},
		{Name: "dec", Offset: 8, Size: 8, CType: catalog.CTypeDouble},
		{Name: "mag", Offset: 16, Size: 8, CType: catalog.CTypeDouble},
		{Name: "DEdeg", Offset: 8, Size: 8, CType: catalog.CTypeDoubleDegrees},
		{Name: "name", Offset: 24, Size: 8, CType: catalog.CTypeString},
	}
	return catalog.NewSchema(fields, "name", 0, 8, 16, 32)
}

func putF64(b []byte, v float64) {
	bits := math.Float64bits(v)
	for i := 0; i < 8; i++ {
		b[i] = byte(bits >> (8 * uint(i)))
	}
}

func makeRecord(ra, decRadians float64, mag float32, name string) catalog.ObjectRecord {
	buf := make([]byte, 32)
	putF64(buf[0:8], ra)
	putF64(buf[8:16], decRadians)
	putF64(buf[16:24], float64(mag))
	copy(buf[24:32], name)
	return catalog.ObjectRecord(buf)
}

// buildPopulatedSet creates a depth-3 database with objects scattered
// across a range of declinations, and clips the whole sphere into one
// ObjectSet.
func buildPopulatedSet(t *testing.T) *htm.ObjectSet {
	t.Helper()
	const depth = 3
	db, err := htm.NewDatabase(depth, htm.DefaultDatabaseOptions())
	if err != nil {
		t.Fatalf("NewDatabase: %v", err)
	}

	decDegrees := []float64{50, 57.8, 58.0, 58.3, 59, 10, -20}
	var objs []catalog.ObjectRecord
	var ids []uint32
	for i, dd := range decDegrees {
		ra := float64(i) * 0.3
		dec := dd * math.Pi / 180
		idx, err := db.PointLocation(ra, dec, depth)
		if err != nil {
			t.Fatalf("PointLocation: %v", err)
		}
		ids = append(ids, db.Mesh.Trixels[idx].ID)
		objs = append(objs, makeRecord(ra, dec, 6, "obj"))
	}

	// group contiguous runs by trixel id, as OpenTable requires.
	pairs := make([]idPair, len(objs))
	for i := range objs {
		pairs[i] = idPair{ids[i], objs[i]}
	}
	sortPairs(pairs)
	sortedObjs := make([]catalog.ObjectRecord, len(pairs))
	sortedIDs := make([]uint32, len(pairs))
	for i, p := range pairs {
		sortedObjs[i] = p.obj
		sortedIDs[i] = p.id
	}

	s := searchTestSchema()
	tbl := catalog.NewTable("stars", "star", 1, s, sortedObjs)
	ht, err := db.OpenTable("stars", "star", 1, tbl, sortedIDs)
	if err != nil {
		t.Fatalf("OpenTable: %v", err)
	}

	os, err := ht.Clip(0, 0, 2*math.Pi, 0, depth)
	if err != nil {
		t.Fatalf("Clip: %v", err)
	}
	return os
}

type idPair struct {
	id  uint32
	obj catalog.ObjectRecord
}

func sortPairs(p []idPair) {
	for i := 1; i < len(p); i++ {
		for j := i; j > 0 && p[j-1].id > p[j].id; j-- {
			p[j-1], p[j] = p[j], p[j-1]
		}
	}
}

func TestScenarioBSearch(t *testing.T) {
	os := buildPopulatedSet(t)
	schema := os.Table.Catalog().Schema

	c := NewCompiler(schema)
	if err := c.PushComparator("DEdeg", LT, "58.434773"); err != nil {
		t.Fatalf("PushComparator LT: %v", err)
	}
	if err := c.PushComparator("DEdeg", GT, "57.678541"); err != nil {
		t.Fatalf("PushComparator GT: %v", err)
	}
	if err := c.PushOperator(AND); err != nil {
		t.Fatalf("PushOperator: %v", err)
	}
	expr, err := c.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}

	result := expr.Execute(os)
	if len(result.Hits) == 0 {
		t.Fatal("expected at least one hit")
	}
	for _, idx := range result.Hits {
		dec := os.Table.Catalog().Objects[idx].Dec(schema)
		degrees := dec * 180 / math.Pi
		if !(degrees > 57.678541 && degrees < 58.434773) {
			t.Errorf("hit %d: dec=%v outside expected range", idx, degrees)
		}
	}
}

func TestDeMorganSizeInvariant(t *testing.T) {
	os := buildPopulatedSet(t)
	schema := os.Table.Catalog().Schema

	and := NewCompiler(schema)
	and.PushComparator("DEdeg", GT, "0")
	and.PushComparator("DEdeg", LT, "60")
	and.PushOperator(AND)
	andExpr, err := and.Finish()
	if err != nil {
		t.Fatalf("Finish AND: %v", err)
	}

	or := NewCompiler(schema)
	or.PushComparator("DEdeg", GT, "0")
	or.PushComparator("DEdeg", LT, "60")
	or.PushOperator(OR)
	orExpr, err := or.Finish()
	if err != nil {
		t.Fatalf("Finish OR: %v", err)
	}

	andResult := andExpr.Execute(os)
	orResult := orExpr.Execute(os)

	total := os.Table.Catalog().Len()
	a := countMatching(os, schema, func(dec float64) bool { return dec*180/math.Pi > 0 })
	b := countMatching(os, schema, func(dec float64) bool { return dec*180/math.Pi < 60 })
	union := countMatching(os, schema, func(dec float64) bool {
		deg := dec * 180 / math.Pi
		return deg > 0 || deg < 60
	})
	intersect := countMatching(os, schema, func(dec float64) bool {
		deg := dec * 180 / math.Pi
		return deg > 0 && deg < 60
	})
	_ = total
	_ = a
	_ = b

	if len(orResult.Hits) != union {
		t.Errorf("OR hits = %d, want |union| = %d", len(orResult.Hits), union)
	}
	if len(andResult.Hits) != intersect {
		t.Errorf("AND hits = %d, want |intersect| = %d", len(andResult.Hits), intersect)
	}
}

func countMatching(os *htm.ObjectSet, schema *catalog.Schema, pred func(dec float64) bool) int {
	n := 0
	for _, o := range os.Table.Catalog().Objects {
		if pred(o.Dec(schema)) {
			n++
		}
	}
	return n
}

func TestUnknownFieldRejected(t *testing.T) {
	s := searchTestSchema()
	c := NewCompiler(s)
	err := c.PushComparator("bogus", EQ, "x")
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestRequireHitsReturnsEmptyResultError(t *testing.T) {
	os := buildPopulatedSet(t)
	s := searchTestSchema()
	c := NewCompiler(s)
	c.PushComparator("mag", GT, "100") // no object has mag > 100
	expr, err := c.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}

	result := expr.Execute(os)
	if err := result.RequireHits("mag-range search"); err == nil {
		t.Fatal("expected RequireHits to return an error for a zero-hit result")
	}

	c2 := NewCompiler(s)
	c2.PushComparator("mag", LT, "100")
	expr2, err := c2.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if err := expr2.Execute(os).RequireHits("mag-range search"); err != nil {
		t.Errorf("RequireHits on a non-empty result returned %v, want nil", err)
	}
}

func TestUnbalancedExpressionRejected(t *testing.T) {
	s := searchTestSchema()
	c := NewCompiler(s)
	c.PushComparator("mag", LT, "5")
	c.PushComparator("mag", GT, "1")
	_, err := c.Finish()
	if err == nil {
		t.Error("expected error: two pending comparators never combined by an operator")
	}
}
