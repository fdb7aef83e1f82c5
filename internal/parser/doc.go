// Package parser turns GCLQL query text into an ast.Node.
//
// Grammar (precedence low to high):
//
//	expr       := term (OR term)*
//	term       := factor (AND factor)*
//	factor     := NOT? item
//	item       := "(" expr ")" | comparison | value
//	comparison := field op value?
//	field      := ident ("." ident)*
//	op         := "=" | "!=" | ">" | "<" | ">=" | "<=" | ":" | "!:" | "=~" | "!~" | "#"
//	value      := quoted | uuid | number | ident | "*"
//
// The keywords AND, OR and NOT are uppercase whole words and take priority
// over identifiers, so a field literally named AND cannot be written.
// Whitespace is insignificant outside quoted strings. Quoted strings use
// either '"' or '\'' and have no escape sequences.
//
// The parser does no recovery. Any malformed input yields a *SyntaxError;
// falling back to text search is the caller's decision.
package parser
