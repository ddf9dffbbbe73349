// Package htm implements the Hierarchical Triangular Mesh spatial index:
// database/table lifecycle, point location, and field-of-view clipping
// over a mesh built by internal/mesh.
package htm

import (
	"fmt"

	"github.com/trixelcat/trixel/internal/mesh"
	"github.com/trixelcat/trixel/pkg/catalog"
)

// DatabaseOptions configures a Database at creation.
type DatabaseOptions struct {
	// MaxTables bounds how many tables may be open concurrently.
	MaxTables int
}

// DefaultDatabaseOptions returns the options used when none are given.
func DefaultDatabaseOptions() DatabaseOptions {
	return DatabaseOptions{MaxTables: 16}
}

// Database owns one shared mesh (built once to a fixed depth) and the
// tables opened against it. Per spec §5, the mesh is read-only and safe
// for concurrent query access once built; Database itself is not safe for
// concurrent OpenTable/CloseTable calls from multiple goroutines.
type Database struct {
	Mesh *mesh.Mesh
	opts DatabaseOptions

	tables []*Table
	index  *TrixelIndex
}

// NewDatabase builds a mesh at the given HTM depth and returns a Database
// ready to have tables opened against it.
func NewDatabase(depth int, opts DatabaseOptions) (*Database, error) {
	if opts.MaxTables <= 0 {
		opts = DefaultDatabaseOptions()
	}
	m, err := mesh.Build(depth)
	if err != nil {
		return nil, err
	}
	return &Database{
		Mesh: m,
		opts: opts,
		index: newTrixelIndex(m),
	}, nil
}

// Table is a catalog table opened against a Database's mesh: the catalog
// records plus a per-trixel (objects-head, count) slice parallel to
// Mesh.Trixels (spec §9: "head + count replaces list traversal").
type Table struct {
	Name  string
	Class string
	ID    int

	db      *Database
	catalog *catalog.Table

	// objectHead[i]/objectCount[i] describe the objects belonging to
	// db.Mesh.Trixels[i], as a contiguous run within catalog.Objects.
	// count == 0 means the trixel is empty.
	objectHead  []int32
	objectCount []int32

	clipCache *ClipCache
}

// Catalog returns the underlying populated catalog table.
func (t *Table) Catalog() *catalog.Table { return t.catalog }

// OpenTable opens a table against db, assigning each object to the trixel
// named by its corresponding entry in trixelIDs (spec §4.2 "Insertion":
// object-to-trixel assignment is an input, not computed here). objects
// must already be grouped into contiguous per-trixel runs, in the
// importer's monotone sort-key order; OpenTable does not sort.
func (db *Database) OpenTable(name, class string, id int, tbl *catalog.Table, trixelIDs []uint32) (*Table, error) {
	if len(db.tables) >= db.opts.MaxTables {
		return nil, &TableLimitError{Limit: db.opts.MaxTables}
	}
	if len(trixelIDs) != tbl.Len() {
		return nil, fmt.Errorf("htm: trixelIDs length %d does not match table length %d", len(trixelIDs), tbl.Len())
	}

	head := make([]int32, len(db.Mesh.Trixels))
	count := make([]int32, len(db.Mesh.Trixels))
	for i := range head {
		head[i] = -1
	}

	seen := make(map[int32]bool)
	i := 0
	for i < len(trixelIDs) {
		arenaIdx, ok := db.Mesh.IndexOf(trixelIDs[i])
		if !ok {
			return nil, &InvalidTrixelIDError{ID: trixelIDs[i]}
		}
		if seen[arenaIdx] {
			return nil, fmt.Errorf("htm: objects for trixel %#08x are not contiguous", trixelIDs[i])
		}
		seen[arenaIdx] = true

		j := i
		for j < len(trixelIDs) && trixelIDs[j] == trixelIDs[i] {
			j++
		}
		head[arenaIdx] = int32(i)
		count[arenaIdx] = int32(j - i)
		i = j
	}

	t := &Table{
		Name:        name,
		Class:       class,
		ID:          id,
		db:          db,
		catalog:     tbl,
		objectHead:  head,
		objectCount: count,
		clipCache:   NewClipCache(64),
	}
	db.tables = append(db.tables, t)
	return t, nil
}

// ObjectSetFor returns an ObjectSet for (centerRA, centerDec, fov,
// minDepth, maxDepth) against t, served from t's ClipCache when the same
// region has been clipped before (spec §4.2a). db is accepted to mirror
// Clip's receiver shape even though the cache itself lives on t; callers
// that already hold a *Table can call t.ObjectSetFor directly too.
func (db *Database) ObjectSetFor(t *Table, centerRA, centerDec, fov float64, minDepth, maxDepth int) (*ObjectSet, error) {
	return t.ObjectSetFor(centerRA, centerDec, fov, minDepth, maxDepth)
}

// ObjectSetFor returns a cached ObjectSet for the given clip parameters,
// building and caching one via t.Clip on a miss (spec §4.2a).
func (t *Table) ObjectSetFor(centerRA, centerDec, fov float64, minDepth, maxDepth int) (*ObjectSet, error) {
	return t.clipCache.Get(t, centerRA, centerDec, fov, minDepth, maxDepth)
}

// ClipCacheStats returns t's clip cache's current hit/miss/entry counts.
func (t *Table) ClipCacheStats() ClipCacheStats {
	return t.clipCache.Stats()
}

// CloseTable removes t from db's open-table list. The underlying catalog
// data is not freed; the caller owns that lifecycle.
func (db *Database) CloseTable(t *Table) {
	for i, tbl := range db.tables {
		if tbl == t {
			db.tables = append(db.tables[:i], db.tables[i+1:]...)
			return
		}
	}
}

// Close frees the database's table list. The mesh itself, being
// immutable shared structure, has no explicit free step in Go.
func (db *Database) Close() {
	db.tables = nil
}
