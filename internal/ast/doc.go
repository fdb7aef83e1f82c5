// Package ast defines the typed syntax tree for GCLQL queries.
//
// A parsed query is a tree of five node kinds:
//
//	Comparison    field op value?     status=active, size>100, tag:*
//	GlobalSearch  bare or quoted term "hello world", foo
//	And           left AND right
//	Or            left OR right
//	Not           NOT inner
//
// SEALED INTERFACES:
//
// Node and Value are sealed interfaces using the marker method pattern.
// Only types in this package implement them, so type switches in the
// translator can be exhaustive.
//
// All nodes are immutable values. A tree is built once per query by the
// parser and discarded after translation.
package ast
