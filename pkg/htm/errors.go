package htm

import "fmt"

// InvalidTrixelIDError reports a packed 32-bit id that fails to decode to a
// real trixel in the mesh (spec §4.2 "Invalid trixel id -> hard fail").
type InvalidTrixelIDError struct {
	ID uint32
}

func (e *InvalidTrixelIDError) Error() string {
	return fmt.Sprintf("htm: invalid trixel id %#08x", e.ID)
}

// DepthRangeError reports a depth outside [0, mesh.MaxDepth] or a
// min_depth > max_depth clipping request.
type DepthRangeError struct {
	Depth, MaxDepth int
}

func (e *DepthRangeError) Error() string {
	return fmt.Sprintf("htm: depth %d out of range [0, %d]", e.Depth, e.MaxDepth)
}

// BufferOverrunError reports that a neighbour/parent/child walk hit its
// internal capacity before finishing; the partial result is still returned
// to the caller alongside this error (spec §4.2 "Failure modes").
type BufferOverrunError struct {
	Stage string
	Limit int
}

func (e *BufferOverrunError) Error() string {
	return fmt.Sprintf("htm: buffer overrun during %s (limit %d)", e.Stage, e.Limit)
}

// TableLimitError reports that a database already has its configured
// maximum number of open tables.
type TableLimitError struct {
	Limit int
}

func (e *TableLimitError) Error() string {
	return fmt.Sprintf("htm: database already has %d open tables", e.Limit)
}
