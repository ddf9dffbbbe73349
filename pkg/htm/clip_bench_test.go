package htm

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/trixelcat/trixel/pkg/catalog"
)

// buildBenchTable opens a table over n objects scattered uniformly across
// the sphere, at the given mesh depth.
func buildBenchTable(n, depth int) (*Database, *Table) {
	db, err := NewDatabase(depth, DefaultDatabaseOptions())
	if err != nil {
		panic(err)
	}

	r := rand.New(rand.NewSource(1))
	type idRec struct {
		id  uint32
		rec catalog.ObjectRecord
	}
	pairs := make([]idRec, n)
	for i := 0; i < n; i++ {
		ra := r.Float64() * 2 * math.Pi
		dec := (r.Float64() - 0.5) * math.Pi
		idx, err := db.PointLocation(ra, dec, depth)
		if err != nil {
			panic(err)
		}
		pairs[i] = idRec{db.Mesh.Trixels[idx].ID, makeRecord(ra, dec, float32(r.Float64()*10))}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].id < pairs[j].id })

	objs := make([]catalog.ObjectRecord, n)
	ids := make([]uint32, n)
	for i, p := range pairs {
		objs[i] = p.rec
		ids[i] = p.id
	}

	s := testSchema()
	tbl := catalog.NewTable("bench", "star", 1, s, objs)
	ht, err := db.OpenTable("bench", "star", 1, tbl, ids)
	if err != nil {
		panic(err)
	}
	return db, ht
}

// BenchmarkClip_Restricted benchmarks a small field-of-view clip against a
// 10,000-object catalog.
func BenchmarkClip_Restricted(b *testing.B) {
	_, ht := buildBenchTable(10000, 6)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = ht.Clip(1.0, 0.2, 0.02, 0, 6)
	}
}

// BenchmarkClip_FullSphere benchmarks a whole-sky clip against the same
// catalog, for comparison against the restricted case.
func BenchmarkClip_FullSphere(b *testing.B) {
	_, ht := buildBenchTable(10000, 6)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = ht.Clip(0, 0, 2*math.Pi, 0, 6)
	}
}
