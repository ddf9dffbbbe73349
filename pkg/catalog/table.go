package catalog

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// ObjectRecord is one fixed-size catalog record: a contiguous byte buffer
// whose fields are read out at the offsets the table's Schema describes.
// Required attributes (ra, dec, sort key, designation/id) have dedicated
// accessors; everything else is read generically via Schema.Field.
type ObjectRecord []byte

// RA returns the object's right ascension in radians, read as a double at
// the schema's RAOffset.
func (o ObjectRecord) RA(s *Schema) float64 {
	return o.Double(s.RAOffset)
}

// Dec returns the object's declination in radians, read as a double at the
// schema's DecOffset.
func (o ObjectRecord) Dec(s *Schema) float64 {
	return o.Double(s.DecOffset)
}

// SortKey returns the object's brightness/size key (smaller = brighter),
// read as a double at the schema's SortKeyOffset.
func (o ObjectRecord) SortKey(s *Schema) float64 {
	return o.Double(s.SortKeyOffset)
}

// Double reads a float64 at the given byte offset.
func (o ObjectRecord) Double(offset int) float64 {
	bits := binary.LittleEndian.Uint64(o[offset : offset+8])
	return math.Float64frombits(bits)
}

// Float reads a float32 at the given byte offset.
func (o ObjectRecord) Float(offset int) float32 {
	bits := binary.LittleEndian.Uint32(o[offset : offset+4])
	return math.Float32frombits(bits)
}

// Int reads a signed 32-bit integer at the given byte offset.
func (o ObjectRecord) Int(offset int) int32 {
	return int32(binary.LittleEndian.Uint32(o[offset : offset+4]))
}

// Short reads a signed 16-bit integer at the given byte offset.
func (o ObjectRecord) Short(offset int) int16 {
	return int16(binary.LittleEndian.Uint16(o[offset : offset+2]))
}

// String reads a fixed-width, NUL-padded ASCII string of the given size at
// the given byte offset.
func (o ObjectRecord) String(offset, size int) string {
	raw := o[offset : offset+size]
	if i := strings.IndexByte(string(raw), 0); i >= 0 {
		return string(raw[:i])
	}
	return string(raw)
}

// Field reads the value of a named schema field as an interface{}, boxed
// per its ctype. Used by the predicate evaluator and by diagnostics; the
// solver and geometry code use the dedicated RA/Dec/SortKey accessors
// instead to avoid the boxing allocation in the hot path.
func (o ObjectRecord) Field(f *Field) interface{} {
	switch f.CType {
	case CTypeInt:
		return o.Int(f.Offset)
	case CTypeShort:
		return o.Short(f.Offset)
	case CTypeFloat:
		return o.Float(f.Offset)
	case CTypeDouble, CTypeDoubleDegrees:
		return o.Double(f.Offset)
	case CTypeString:
		return o.String(f.Offset, f.Size)
	default:
		return nil
	}
}

// Table is a populated, immutable catalog: a contiguous array of
// fixed-size object records plus the schema describing their layout.
//
// Objects are assigned to HTM trixels at import time (spec §4.2
// "Insertion"); Table does not itself know about trixels — pkg/htm.Database
// owns that mapping, indexing into this same Objects slice by
// (head, count) so that "all objects in a trixel occupy consecutive
// positions in the array" (spec §9 Design notes).
type Table struct {
	Name   string
	Class  string
	ID     int
	Schema *Schema
	Objects []ObjectRecord
}

// NewTable builds a Table from a schema and a slice of already-populated
// records. The caller is responsible for having assigned records to HTM
// trixels in the monotone sort-key order the importer used (spec §4.2);
// Table itself does not sort.
func NewTable(name, class string, id int, schema *Schema, objects []ObjectRecord) *Table {
	return &Table{
		Name:    name,
		Class:   class,
		ID:      id,
		Schema:  schema,
		Objects: objects,
	}
}

// Len returns the number of objects in the table.
func (t *Table) Len() int {
	return len(t.Objects)
}

// Validate checks the required-attribute invariants from spec §3 for
// every record: 0 <= ra < 2pi, -pi/2 <= dec <= +pi/2, sort key finite.
// Returns the first violation found, or nil.
func (t *Table) Validate() error {
	for i, o := range t.Objects {
		ra := o.RA(t.Schema)
		dec := o.Dec(t.Schema)
		if ra < 0 || ra >= 2*math.Pi || dec < -math.Pi/2 || dec > math.Pi/2 {
			return &BadCoordinate{RA: ra, Dec: dec}
		}
		if sk := o.SortKey(t.Schema); math.IsNaN(sk) || math.IsInf(sk, 0) {
			return &BadInputError{Reason: fmt.Sprintf("object %d: sort key not finite", i)}
		}
	}
	return nil
}
