// Package schema holds the setup-time description of the searchable table.
//
// A discovery collaborator (Postgres introspection, a snapshot file, or the
// snapshot store) reports a Discovery: the main table's columns, its
// navigation tables, the JSON metadata keys seen in the data, and optional
// column mappings and classifications. Build freezes a Discovery into an
// immutable *Context that the translator reads.
//
// CONCURRENCY:
//
// A Context is never mutated after Build returns. Provider publishes
// Contexts through an atomic pointer, so a translation sees either the old
// or the new snapshot in full. A failed refresh leaves the previous
// snapshot in place.
//
// ALIASES:
//
// Navigation tables are joined under short aliases derived from their
// entity key ("category" joins as "cat"). Aliases are assigned in
// navigation order, avoid a fixed list of SQL reserved words, and never
// collide with each other or the main table alias.
package schema
