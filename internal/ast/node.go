package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// Node is a GCLQL syntax tree node.
//
// This is a sealed interface - only types in this package implement it.
// String renders a stable S-expression used by the CLI and in tests.
type Node interface {
	astNode() // Marker method - seals interface to this package
	String() string
}

// Operator is a comparison operator.
type Operator string

const (
	OpEq          Operator = "="
	OpNe          Operator = "!="
	OpGt          Operator = ">"
	OpLt          Operator = "<"
	OpGe          Operator = ">="
	OpLe          Operator = "<="
	OpContains    Operator = ":"
	OpNotContains Operator = "!:"
	OpMatch       Operator = "=~"
	OpNotMatch    Operator = "!~"
	OpFuzzy       Operator = "#"
)

var operators = map[string]Operator{
	"=": OpEq, "!=": OpNe, ">": OpGt, "<": OpLt, ">=": OpGe, "<=": OpLe,
	":": OpContains, "!:": OpNotContains, "=~": OpMatch, "!~": OpNotMatch,
	"#": OpFuzzy,
}

// LookupOperator returns the Operator spelled s.
func LookupOperator(s string) (Operator, bool) {
	op, ok := operators[s]
	return op, ok
}

// IsOrdering reports whether op is one of > < >= <=.
func (op Operator) IsOrdering() bool {
	switch op {
	case OpGt, OpLt, OpGe, OpLe:
		return true
	}
	return false
}

// IsValueComparison reports whether op compares against a scalar value:
// = != > < >= <= and :. Numeric metadata values are cast for these.
func (op Operator) IsValueComparison() bool {
	switch op {
	case OpEq, OpNe, OpContains:
		return true
	}
	return op.IsOrdering()
}

// Comparison is field op value. Value is nil when omitted, as in
// "last_edited_at:".
type Comparison struct {
	Field Field
	Op    Operator
	Value Value
}

func (Comparison) astNode() {}

func (c Comparison) String() string {
	if c.Value == nil {
		return fmt.Sprintf("(%s %s)", c.Field, c.Op)
	}
	return fmt.Sprintf("(%s %s %s)", c.Field, c.Op, c.Value)
}

// GlobalSearch is a bare term searched across the dynamic search fields.
type GlobalSearch struct {
	Text   string
	Quoted bool
}

func (GlobalSearch) astNode() {}

func (g GlobalSearch) String() string {
	if g.Quoted {
		return "(search " + strconv.Quote(g.Text) + ")"
	}
	return "(search " + g.Text + ")"
}

// And is the conjunction of two nodes.
type And struct {
	Left, Right Node
}

func (And) astNode() {}

func (a And) String() string {
	return fmt.Sprintf("(and %s %s)", a.Left, a.Right)
}

// Or is the disjunction of two nodes.
type Or struct {
	Left, Right Node
}

func (Or) astNode() {}

func (o Or) String() string {
	return fmt.Sprintf("(or %s %s)", o.Left, o.Right)
}

// Not negates its inner node.
type Not struct {
	Inner Node
}

func (Not) astNode() {}

func (n Not) String() string {
	return fmt.Sprintf("(not %s)", n.Inner)
}

// FirstSearch returns the first non-blank GlobalSearch in a left-to-right
// walk, or false when the tree has none.
func FirstSearch(n Node) (GlobalSearch, bool) {
	switch node := n.(type) {
	case GlobalSearch:
		return node, strings.TrimSpace(node.Text) != ""
	case And:
		if gs, ok := FirstSearch(node.Left); ok {
			return gs, true
		}
		return FirstSearch(node.Right)
	case Or:
		if gs, ok := FirstSearch(node.Left); ok {
			return gs, true
		}
		return FirstSearch(node.Right)
	case Not:
		return FirstSearch(node.Inner)
	default:
		return GlobalSearch{}, false
	}
}
