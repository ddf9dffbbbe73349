package search

import (
	"github.com/trixelcat/trixel/pkg/catalog"
	"github.com/trixelcat/trixel/pkg/htm"
)

// ExecResult is the outcome of evaluating an Expr over an ObjectSet:
// matching object indices (into the table's catalog.Table.Objects), plus
// diagnostic counters (spec §4.4 "records the number of tests performed
// ... and the number of hits").
type ExecResult struct {
	Hits           []int32
	TestsPerformed int
}

// HitCount returns the number of matching objects.
func (r *ExecResult) HitCount() int { return len(r.Hits) }

// RequireHits returns a *catalog.EmptyResultError naming stage if r has no
// hits, for callers that want to treat "this search matched nothing" as a
// failure rather than silently continuing with a zero-count result.
// Execute itself never returns this error, per its own contract.
func (r *ExecResult) RequireHits(stage string) error {
	if len(r.Hits) == 0 {
		return &catalog.EmptyResultError{Stage: stage}
	}
	return nil
}

// Execute runs e over every object in os's clipped trixels, in clipping
// emission order (spec §4.4 "Execution"). An ObjectSet with no clipped
// trixels yields a zero-count result, not an error.
func (e *Expr) Execute(os *htm.ObjectSet) *ExecResult {
	result := &ExecResult{}
	objects := os.Table.Catalog().Objects

	for i := range os.Heads {
		head, count := os.Heads[i], os.Counts[i]
		if count == 0 {
			continue
		}
		for j := int32(0); j < count; j++ {
			objIdx := head + j
			result.TestsPerformed++
			if e.root.eval(objects[objIdx]) {
				result.Hits = append(result.Hits, objIdx)
			}
		}
	}

	return result
}
