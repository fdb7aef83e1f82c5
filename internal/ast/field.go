package ast

import "strings"

// Field is a dotted identifier path such as "status" or "detector.layer".
//
// Field is comparable: two fields are equal when their segment sequences
// are equal. Segments never contain '.', so the joined path is an
// unambiguous encoding of the sequence.
type Field struct {
	path string
}

// NewField builds a Field from its segments. It panics on an empty
// segment list; the parser never produces one.
func NewField(parts ...string) Field {
	if len(parts) == 0 {
		panic("ast: field requires at least one segment")
	}
	return Field{path: strings.Join(parts, ".")}
}

// ParseField splits a dotted path into a Field.
func ParseField(path string) Field {
	return Field{path: path}
}

// Parts returns a copy of the field's segments.
func (f Field) Parts() []string {
	return strings.Split(f.path, ".")
}

// Base returns the first segment.
func (f Field) Base() string {
	base, _, _ := strings.Cut(f.path, ".")
	return base
}

// Len returns the number of segments.
func (f Field) Len() int {
	return strings.Count(f.path, ".") + 1
}

// IsZero reports whether f is the zero Field.
func (f Field) IsZero() bool {
	return f.path == ""
}

// String returns the dotted path.
func (f Field) String() string {
	return f.path
}
