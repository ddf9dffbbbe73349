package mesh

import (
	"math"

	"github.com/trixelcat/trixel/pkg/geometry"
)

// stripEpsilon is the positional tolerance used to recognize "the same
// vertex" within a declination strip bucket. Two midpoints computed from
// opposite subdivision directions land on bit-identical floats in practice,
// but the tolerance guards against accumulated rounding at deep levels.
const stripEpsilon = 1e-9

// declStrip is one latitude band of the declination-strip hash: a
// pre-sized array of buckets, each a short list of vertex-arena indices
// whose (ra, dec) hashed into that bucket.
type declStrip struct {
	buckets [][]int32
}

// stripTable is the deduplicating spatial hash consulted during
// subdivision: every new edge midpoint is looked up here before a fresh
// Vertex is allocated, so the two trixels sharing an edge share the same
// vertex (spec §4.2 construction step 3).
type stripTable struct {
	strips []declStrip
}

// newStripTable allocates (1<<(maxDepth+1))+1 strips, each sized smaller
// near the poles (where a degree of RA covers little arc) and larger near
// the equator, tapering by cos(dec).
func newStripTable(maxDepth int) *stripTable {
	n := (1 << uint(maxDepth+1)) + 1
	strips := make([]declStrip, n)
	for i := range strips {
		dec := -math.Pi/2 + float64(i)/float64(n-1)*math.Pi
		size := stripBucketCount(dec, n)
		strips[i] = declStrip{buckets: make([][]int32, size)}
	}
	return &stripTable{strips: strips}
}

func stripBucketCount(dec float64, n int) int {
	size := int(float64(n) * math.Cos(dec))
	if size < 1 {
		size = 1
	}
	return size
}

func (st *stripTable) stripIndex(dec float64) int {
	n := len(st.strips)
	i := int((dec + math.Pi/2) / math.Pi * float64(n-1))
	if i < 0 {
		i = 0
	}
	if i >= n {
		i = n - 1
	}
	return i
}

func (s *declStrip) bucketIndex(ra float64) int {
	n := len(s.buckets)
	i := int(ra / (2 * math.Pi) * float64(n))
	if i < 0 {
		i = 0
	}
	if i >= n {
		i = n - 1
	}
	return i
}

// lookupOrCreate returns the arena index of the vertex at (ra, dec, pos),
// reusing an existing vertex within stripEpsilon if one is already hashed
// into that bucket, or else appending a new Vertex to m.Vertices.
func (m *Mesh) lookupOrCreate(ra, dec float64, pos geometry.Cart) int32 {
	si := m.strips.stripIndex(dec)
	strip := &m.strips.strips[si]
	bi := strip.bucketIndex(ra)
	bucket := strip.buckets[bi]

	for _, idx := range bucket {
		v := &m.Vertices[idx]
		if math.Abs(v.Pos.X-pos.X) < stripEpsilon &&
			math.Abs(v.Pos.Y-pos.Y) < stripEpsilon &&
			math.Abs(v.Pos.Z-pos.Z) < stripEpsilon {
			return idx
		}
	}

	idx := int32(len(m.Vertices))
	m.Vertices = append(m.Vertices, Vertex{RA: ra, Dec: dec, Pos: pos})
	strip.buckets[bi] = append(bucket, idx)
	return idx
}
