package catalog

import "fmt"

// BadInputError indicates a caller supplied malformed or out-of-range input:
// a coordinate outside its valid range, an unknown field name, a trixel id
// that fails to decode, or an expression that does not parse.
type BadInputError struct {
	Reason string
}

func (e *BadInputError) Error() string {
	return fmt.Sprintf("bad input: %s", e.Reason)
}

// ResourceExhaustedError indicates an internal table or buffer filled up
// during a query. The catalog itself is left intact; only the current
// query is aborted.
type ResourceExhaustedError struct {
	Resource string
	Limit    int
}

func (e *ResourceExhaustedError) Error() string {
	return fmt.Sprintf("resource exhausted: %s (limit %d)", e.Resource, e.Limit)
}

// EmptyResultError is returned by callers that want to distinguish "found
// nothing" from a hard failure, even though an empty result is not itself
// an error condition per the package's contract (callers may ignore it and
// use the zero-count result instead).
type EmptyResultError struct {
	Stage string
}

func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("empty result: %s", e.Stage)
}

// BadCoordinate reports an (ra, dec) pair outside its valid domain.
type BadCoordinate struct {
	RA, Dec float64
}

func (e *BadCoordinate) Error() string {
	return fmt.Sprintf("invalid coordinate: ra=%f dec=%f (0<=ra<2pi, -pi/2<=dec<=pi/2)",
		e.RA, e.Dec)
}

// UnknownFieldError reports a schema field name the caller asked for that
// does not exist in the table's schema.
type UnknownFieldError struct {
	Name string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown field: %q", e.Name)
}

// UnsupportedCTypeError reports a ctype that cannot back the requested
// comparator (compound angle pieces and the minor-planet-centre date type
// reject comparators at compile time per spec §4.4).
type UnsupportedCTypeError struct {
	Field string
	CType CType
}

func (e *UnsupportedCTypeError) Error() string {
	return fmt.Sprintf("field %q has unsupported ctype %v for comparator", e.Field, e.CType)
}
