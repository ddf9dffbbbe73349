// Package search implements the reverse-Polish predicate evaluator over a
// clipped htm.ObjectSet (spec §4.4): push comparators and operators,
// compile to a tree, then execute over a region's objects.
package search

import (
	"fmt"

	"github.com/trixelcat/trixel/pkg/catalog"
)

// Op names a comparator or boolean operator.
type Op int

const (
	LT Op = iota
	GT
	EQ
	NE
	AND
	OR
)

func (o Op) String() string {
	switch o {
	case LT:
		return "LT"
	case GT:
		return "GT"
	case EQ:
		return "EQ"
	case NE:
		return "NE"
	case AND:
		return "AND"
	case OR:
		return "OR"
	default:
		return fmt.Sprintf("Op(%d)", int(o))
	}
}

// node is a compiled expression node: a leaf comparator or an AND/OR
// combinator over children.
type node interface {
	eval(o catalog.ObjectRecord) bool
}

type boolNode struct {
	op       Op // AND or OR
	children []node
}

func (n *boolNode) eval(o catalog.ObjectRecord) bool {
	switch n.op {
	case AND:
		for _, c := range n.children {
			if !c.eval(o) {
				return false
			}
		}
		return true
	case OR:
		for _, c := range n.children {
			if c.eval(o) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// Expr is a compiled, ready-to-execute predicate.
type Expr struct {
	root node
}

// pendingEntry is one unattached node on the compiler's stack, tagged with
// whether it is a bare comparator (spec's "comparator-parent" trigger) or
// an already-combined operator subtree ("operator-parent" trigger).
type pendingEntry struct {
	node         node
	isComparator bool
}

// Compiler builds an Expr from a push-comparator/push-operator sequence,
// matching the RPN compilation contract of spec §4.4 and §6.
type Compiler struct {
	schema  *catalog.Schema
	pending []pendingEntry
}

// NewCompiler starts a new expression compilation against schema.
func NewCompiler(schema *catalog.Schema) *Compiler {
	return &Compiler{schema: schema}
}

// PushComparator compiles (field, op, value) into a comparator node and
// pushes it onto the pending stack. op must be one of LT, GT, EQ, NE.
func (c *Compiler) PushComparator(field string, op Op, value string) error {
	if op != LT && op != GT && op != EQ && op != NE {
		return &catalog.BadInputError{Reason: fmt.Sprintf("%v is not a comparator operator", op)}
	}
	f, err := c.schema.Field(field)
	if err != nil {
		return err
	}
	if !f.CType.Comparable() {
		return &catalog.UnsupportedCTypeError{Field: field, CType: f.CType}
	}
	cmp, err := buildComparator(f, op, value)
	if err != nil {
		return err
	}
	c.pending = append(c.pending, pendingEntry{node: cmp, isComparator: true})
	return nil
}

// PushOperator combines the pending stack with AND or OR. If any bare
// comparator is pending, the new node is a "comparator-parent" and
// consumes exactly the pending comparators; otherwise it is an
// "operator-parent" and consumes every pending subtree.
func (c *Compiler) PushOperator(op Op) error {
	if op != AND && op != OR {
		return &catalog.BadInputError{Reason: fmt.Sprintf("%v is not a boolean operator", op)}
	}
	if len(c.pending) == 0 {
		return &catalog.BadInputError{Reason: "operator with no pending operands"}
	}

	hasComparator := false
	for _, e := range c.pending {
		if e.isComparator {
			hasComparator = true
			break
		}
	}

	var children []node
	if hasComparator {
		var remaining []pendingEntry
		for _, e := range c.pending {
			if e.isComparator {
				children = append(children, e.node)
			} else {
				remaining = append(remaining, e)
			}
		}
		c.pending = remaining
	} else {
		for _, e := range c.pending {
			children = append(children, e.node)
		}
		c.pending = nil
	}

	c.pending = append(c.pending, pendingEntry{node: &boolNode{op: op, children: children}})
	return nil
}

// Finish checks well-formedness (exactly one pending root, no dangling
// comparators) and returns the compiled Expr.
func (c *Compiler) Finish() (*Expr, error) {
	if len(c.pending) != 1 {
		return nil, &catalog.BadInputError{Reason: fmt.Sprintf("unbalanced expression: %d pending roots", len(c.pending))}
	}
	return &Expr{root: c.pending[0].node}, nil
}
