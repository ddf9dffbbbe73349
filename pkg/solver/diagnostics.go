package solver

import (
	"fmt"
	"io"
	"sync"
)

// Diagnostics accumulates solver run counters and, if Log is set,
// receives a line of text each time haystack objects are dropped;
// sigma-clipping rounds during back-solve are counted but not logged.
// Grounded on
// LoadOptions.ErrorLog / Progress from pkg/v1/parallel.go: an optional
// io.Writer sink rather than a logging framework dependency, since the
// solver has no logger of its own to wire in.
type Diagnostics struct {
	Log io.Writer

	mu              sync.Mutex
	haystackDropped int
	sigmaRounds     int

	primariesTried int
	magSurvivors   int
	distSurvivors  int
	paSurvivors    int
	windowsElapsed int
}

// NewDiagnostics returns a Diagnostics with no log sink (silent) and
// zeroed counters.
func NewDiagnostics() *Diagnostics {
	return &Diagnostics{}
}

func (d *Diagnostics) recordHaystackDropped(n int) {
	d.mu.Lock()
	d.haystackDropped += n
	d.mu.Unlock()
	d.writef("haystack: dropped %d objects (zeroed or out of magnitude range)", n)
}

func (d *Diagnostics) recordSigmaRound() {
	d.mu.Lock()
	d.sigmaRounds++
	d.mu.Unlock()
}

func (d *Diagnostics) recordPrimaryTried() {
	d.mu.Lock()
	d.primariesTried++
	d.mu.Unlock()
}

func (d *Diagnostics) recordMagSurvivor() {
	d.mu.Lock()
	d.magSurvivors++
	d.mu.Unlock()
}

func (d *Diagnostics) recordDistSurvivors(n int) {
	if n == 0 {
		return
	}
	d.mu.Lock()
	d.distSurvivors += n
	d.mu.Unlock()
}

func (d *Diagnostics) recordPASurvivor() {
	d.mu.Lock()
	d.paSurvivors++
	d.mu.Unlock()
}

func (d *Diagnostics) recordWindowElapsed() {
	d.mu.Lock()
	d.windowsElapsed++
	d.mu.Unlock()
}

func (d *Diagnostics) writef(format string, args ...interface{}) {
	if d == nil || d.Log == nil {
		return
	}
	fmt.Fprintf(d.Log, format+"\n", args...)
}

// HaystackDropped returns the number of candidate objects prepareHaystack
// discarded across the run.
func (d *Diagnostics) HaystackDropped() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.haystackDropped
}

// SigmaClipRounds returns the total number of sigma-clipping rounds
// performed by every back-solve recorded against this Diagnostics.
func (d *Diagnostics) SigmaClipRounds() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sigmaRounds
}

// SolveStats reports per-stage survivor counts and iteration totals for a
// solver run, mirroring the teacher's plain-struct-returned-by-Stats()
// shape (LoaderStats, ChartManagerStats).
type SolveStats struct {
	PrimariesTried int
	MagSurvivors   int
	DistSurvivors  int
	PASurvivors    int
	WindowsElapsed int
}

// Stats returns the accumulated per-stage counters for the run.
func (d *Diagnostics) Stats() SolveStats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return SolveStats{
		PrimariesTried: d.primariesTried,
		MagSurvivors:   d.magSurvivors,
		DistSurvivors:  d.distSurvivors,
		PASurvivors:    d.paSurvivors,
		WindowsElapsed: d.windowsElapsed,
	}
}
