// Package catalog holds the immutable data model shared by the HTM index,
// k-d tree, predicate search evaluator, and plate solver: a fixed-size
// catalog object record, a schema describing its fields, and the table
// that ties the two together.
//
// The catalog is populated once, externally, and treated as immutable
// afterward (spec §1 Non-goals: no dynamic catalog mutation after build).
// This package does not read files or talk to any remote service; it
// consumes an already-built table (spec §6).
package catalog

import "fmt"

// CType names the primitive type a schema field is stored as, consulted by
// the predicate evaluator (pkg/search) to pick a typed comparator.
type CType int

const (
	// CTypeInt is a signed integer field.
	CTypeInt CType = iota
	// CTypeShort is a 16-bit signed integer field.
	CTypeShort
	// CTypeFloat is a 32-bit float field.
	CTypeFloat
	// CTypeDouble is a 64-bit float field.
	CTypeDouble
	// CTypeDoubleDegrees is a 64-bit float field whose string literal is in
	// degrees; comparator values are converted to radians at compile time.
	CTypeDoubleDegrees
	// CTypeString is a fixed-width ASCII string field.
	CTypeString
	// CTypeAnglePiece marks a field that was one piece of a compound angle
	// group (e.g. hours/minutes/seconds) during import. Once imported each
	// field is a single value; comparators against the raw piece type are
	// rejected at compile time (spec §4.4).
	CTypeAnglePiece
	// CTypeMPCDate is the minor-planet-centre packed date encoding.
	// Comparators against it are rejected at compile time (spec §4.4).
	CTypeMPCDate
)

// String renders a ctype name for diagnostics.
func (c CType) String() string {
	switch c {
	case CTypeInt:
		return "int"
	case CTypeShort:
		return "short"
	case CTypeFloat:
		return "float"
	case CTypeDouble:
		return "double"
	case CTypeDoubleDegrees:
		return "double-degrees"
	case CTypeString:
		return "string"
	case CTypeAnglePiece:
		return "angle-piece"
	case CTypeMPCDate:
		return "mpc-date"
	default:
		return fmt.Sprintf("ctype(%d)", int(c))
	}
}

// Comparable reports whether the predicate evaluator may build a comparator
// against a field of this ctype. Compound angle pieces and the MPC date
// type are import-time-only representations and reject comparators.
func (c CType) Comparable() bool {
	switch c {
	case CTypeAnglePiece, CTypeMPCDate:
		return false
	default:
		return true
	}
}

// Field describes one schema field: its name, its short display symbol,
// its byte offset and size within an ObjectRecord, its ctype, and its
// units (metadata only — not consulted by the predicate evaluator beyond
// the degrees-to-radians conversion CTypeDoubleDegrees already encodes).
type Field struct {
	Name   string
	Symbol string
	Offset int
	Size   int
	CType  CType
	Units  string
	// Group names the compound-angle group this field belonged to during
	// import (e.g. "RA" for hours/minutes/seconds pieces), or "" if the
	// field stands alone. Purely informational once imported.
	Group string
}

// Schema maps field names to their descriptors and knows the three
// required fields every catalog table carries: designation (or numeric
// id), equatorial position, and sort key.
type Schema struct {
	Fields []Field

	byName map[string]*Field

	// Required field names / offsets.
	DesignationField string
	RAOffset         int
	DecOffset        int
	SortKeyOffset    int
	RecordSize       int
}

// NewSchema builds a Schema from a field list, indexing by name. Required
// offsets (ra, dec, sort key) must be supplied by the caller; they are not
// inferred from field names since a table may name them anything.
func NewSchema(fields []Field, designationField string, raOffset, decOffset, sortKeyOffset, recordSize int) *Schema {
	s := &Schema{
		Fields:           fields,
		byName:           make(map[string]*Field, len(fields)),
		DesignationField: designationField,
		RAOffset:         raOffset,
		DecOffset:        decOffset,
		SortKeyOffset:    sortKeyOffset,
		RecordSize:       recordSize,
	}
	for i := range fields {
		f := &s.Fields[i]
		s.byName[f.Name] = f
	}
	return s
}

// Field looks up a field descriptor by name.
func (s *Schema) Field(name string) (*Field, error) {
	f, ok := s.byName[name]
	if !ok {
		return nil, &UnknownFieldError{Name: name}
	}
	return f, nil
}

// Has reports whether the schema has a field with the given name.
func (s *Schema) Has(name string) bool {
	_, ok := s.byName[name]
	return ok
}
