package search

import (
	"math"
	"strconv"
	"strings"

	"github.com/trixelcat/trixel/pkg/catalog"
)

// comparatorNode is a leaf: a byte offset, a compiled comparator function
// closing over the offset and the (already-typed) comparison value.
type comparatorNode struct {
	offset int
	test   func(o catalog.ObjectRecord) bool
}

func (n *comparatorNode) eval(o catalog.ObjectRecord) bool { return n.test(o) }

// buildComparator compiles (field, op, value) per the field's ctype,
// converting value from its string form once at compile time (degrees to
// radians for CTypeDoubleDegrees) rather than on every evaluation.
func buildComparator(f *catalog.Field, op Op, value string) (node, error) {
	switch f.CType {
	case catalog.CTypeInt:
		v, err := strconv.ParseInt(value, 10, 32)
		if err != nil {
			return nil, &catalog.BadInputError{Reason: "int comparator value: " + err.Error()}
		}
		want := int32(v)
		offset := f.Offset
		return &comparatorNode{offset: offset, test: func(o catalog.ObjectRecord) bool {
			return compareInt64(int64(o.Int(offset)), int64(want), op)
		}}, nil

	case catalog.CTypeShort:
		v, err := strconv.ParseInt(value, 10, 16)
		if err != nil {
			return nil, &catalog.BadInputError{Reason: "short comparator value: " + err.Error()}
		}
		want := int16(v)
		offset := f.Offset
		return &comparatorNode{offset: offset, test: func(o catalog.ObjectRecord) bool {
			return compareInt64(int64(o.Short(offset)), int64(want), op)
		}}, nil

	case catalog.CTypeFloat:
		v, err := strconv.ParseFloat(value, 32)
		if err != nil {
			return nil, &catalog.BadInputError{Reason: "float comparator value: " + err.Error()}
		}
		want := float32(v)
		offset := f.Offset
		return &comparatorNode{offset: offset, test: func(o catalog.ObjectRecord) bool {
			return compareFloat64(float64(o.Float(offset)), float64(want), op)
		}}, nil

	case catalog.CTypeDouble:
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, &catalog.BadInputError{Reason: "double comparator value: " + err.Error()}
		}
		offset := f.Offset
		return &comparatorNode{offset: offset, test: func(o catalog.ObjectRecord) bool {
			return compareFloat64(o.Double(offset), v, op)
		}}, nil

	case catalog.CTypeDoubleDegrees:
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, &catalog.BadInputError{Reason: "degrees comparator value: " + err.Error()}
		}
		radians := v * math.Pi / 180
		offset := f.Offset
		return &comparatorNode{offset: offset, test: func(o catalog.ObjectRecord) bool {
			return compareFloat64(o.Double(offset), radians, op)
		}}, nil

	case catalog.CTypeString:
		return buildStringComparator(f, op, value)

	default:
		return nil, &catalog.UnsupportedCTypeError{Field: f.Name, CType: f.CType}
	}
}

func compareInt64(a, b int64, op Op) bool {
	switch op {
	case LT:
		return a < b
	case GT:
		return a > b
	case EQ:
		return a == b
	case NE:
		return a != b
	default:
		return false
	}
}

func compareFloat64(a, b float64, op Op) bool {
	switch op {
	case LT:
		return a < b
	case GT:
		return a > b
	case EQ:
		return a == b
	case NE:
		return a != b
	default:
		return false
	}
}

// buildStringComparator implements strcmp-derived semantics for LT/GT/EQ/
// NE, switching to a prefix-wildcard comparator when value contains '*'
// (spec §4.4, §9 "only prefix-wildcard support ... ends at the first '*',
// matches as prefix"). Wildcards are only meaningful for equality tests.
func buildStringComparator(f *catalog.Field, op Op, value string) (node, error) {
	offset, size := f.Offset, f.Size

	if i := strings.IndexByte(value, '*'); i >= 0 {
		if op != EQ && op != NE {
			return nil, &catalog.BadInputError{Reason: "wildcard string value only supports EQ/NE"}
		}
		prefix := value[:i]
		match := op == EQ
		return &comparatorNode{offset: offset, test: func(o catalog.ObjectRecord) bool {
			return strings.HasPrefix(o.String(offset, size), prefix) == match
		}}, nil
	}

	return &comparatorNode{offset: offset, test: func(o catalog.ObjectRecord) bool {
		got := o.String(offset, size)
		c := strings.Compare(got, value)
		switch op {
		case LT:
			return c < 0
		case GT:
			return c > 0
		case EQ:
			return c == 0
		case NE:
			return c != 0
		default:
			return false
		}
	}}, nil
}
