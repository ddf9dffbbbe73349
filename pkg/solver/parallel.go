package solver

import (
	"runtime"
	"sync"
)

// runWindows walks every 4-element sliding window over sorted (spec
// §4.5.1 "window slides across the full brightness-sorted plate array")
// through a worker pool, trying each haystack object in turn as the
// window's catalog primary. Results are funneled into table, which is
// safe for concurrent insertion. In FindFirst mode, once any worker
// commits a solution every other worker stops as soon as it next checks
// done, rather than mid-instruction cancellation (spec §4.5.7).
//
// Grounded on pkg/v1/parallel.go's LoadCellsParallel: a bounded worker
// pool draining a jobs channel, here windows instead of chart paths.
func runWindows(sorted []indexedPlateObject, hay *haystack, tol Tolerances, table *solutionTable, mode FindMode, diag *Diagnostics) {
	n := len(sorted)
	if n < 4 {
		return
	}
	windowCount := n - 3

	workers := runtime.NumCPU()
	if workers > windowCount {
		workers = windowCount
	}
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan int, windowCount)
	done := make(chan struct{})
	var once sync.Once
	var wg sync.WaitGroup

	signalDone := func() {
		if mode == FindFirst {
			once.Do(func() { close(done) })
		}
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for windowStart := range jobs {
				select {
				case <-done:
					return
				default:
				}
				solveWindow(sorted, windowStart, hay, tol, table, mode, done, signalDone, diag)
			}
		}()
	}

	for i := 0; i < windowCount; i++ {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
}

func solveWindow(sorted []indexedPlateObject, windowStart int, hay *haystack, tol Tolerances, table *solutionTable, mode FindMode, done chan struct{}, signalDone func(), diag *Diagnostics) {
	var window [4]indexedPlateObject
	copy(window[:], sorted[windowStart:windowStart+4])
	pat := buildPattern(window, tol)

	if diag != nil {
		defer diag.recordWindowElapsed()
	}

	for _, p := range hay.objects {
		select {
		case <-done:
			return
		default:
		}

		if diag != nil {
			diag.recordPrimaryTried()
		}

		magCandidates, ok := magnitudeStage(p, pat, hay, diag)
		if !ok {
			continue
		}
		triples := distanceStage(p, pat, magCandidates, tol, diag)
		for _, t := range triples {
			flip, ok := positionAngleStage(t, pat, tol, diag)
			if !ok {
				continue
			}
			t.flip = flip

			sol := &Solution{
				CatalogObjects: [4]int32{p.objIdx, t.secondary[0].objIdx, t.secondary[1].objIdx, t.secondary[2].objIdx},
				PlateIndices: [4]int{
					pat.primary.origIndex,
					pat.secondaries[0].obj.origIndex,
					pat.secondaries[1].obj.origIndex,
					pat.secondaries[2].obj.origIndex,
				},
				RadPerPix:  t.radPerPix,
				Flip:       flip,
				Divergence: divergence(t, pat, tol),
			}
			table.insert(sol)

			if mode == FindFirst {
				signalDone()
				return
			}
		}
	}
}
