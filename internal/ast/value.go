package ast

import (
	"strconv"
)

// Value is a literal on the right-hand side of a comparison.
//
// This is a sealed interface. Value types:
//   - String: quoted or bare identifier text
//   - UUID: an 8-4-4-4-12 hex literal
//   - Int, Float: signed numbers
//   - Wildcard: the literal *
//
// Quoting is preserved on String because it changes translation
// semantics downstream.
type Value interface {
	valueNode()

	// Literal returns the Go value bound as a SQL parameter.
	Literal() any

	String() string
}

// String is a text literal.
type String struct {
	Text   string
	Quoted bool
}

func (String) valueNode() {}

// Literal returns the unquoted text.
func (s String) Literal() any { return s.Text }

func (s String) String() string {
	if s.Quoted {
		return strconv.Quote(s.Text)
	}
	return s.Text
}

// UUID is a UUID-shaped literal. It translates as text.
type UUID string

func (UUID) valueNode() {}
func (u UUID) Literal() any { return string(u) }
func (u UUID) String() string { return string(u) }

// Int is an integral number literal.
type Int int64

func (Int) valueNode() {}
func (i Int) Literal() any { return int64(i) }
func (i Int) String() string { return strconv.FormatInt(int64(i), 10) }

// Float is a number literal with a fractional part or exponent.
type Float float64

func (Float) valueNode() {}
func (f Float) Literal() any { return float64(f) }
func (f Float) String() string { return strconv.FormatFloat(float64(f), 'g', -1, 64) }

// Wildcard is the literal *. With : and !: it means "field is present".
type Wildcard struct{}

func (Wildcard) valueNode() {}
func (Wildcard) Literal() any { return "*" }
func (Wildcard) String() string { return "*" }

// IsNumeric reports whether v is an Int or Float.
func IsNumeric(v Value) bool {
	switch v.(type) {
	case Int, Float:
		return true
	default:
		return false
	}
}

// IsText reports whether v binds as a string parameter.
func IsText(v Value) bool {
	switch v.(type) {
	case String, UUID, Wildcard:
		return true
	default:
		return false
	}
}

// IsWildcard reports whether v is the presence marker. A quoted "*"
// counts as well, matching how the value binds.
func IsWildcard(v Value) bool {
	switch val := v.(type) {
	case Wildcard:
		return true
	case String:
		return val.Text == "*"
	default:
		return false
	}
}
