// Package querysql compiles GCLQL ASTs into parameterized PostgreSQL.
//
// A Resolver maps dotted field paths to SQL expressions and validates the
// operator and value against the field's kind. A Translator walks an AST
// and emits one boolean expression with $n placeholders. A Planner ties
// parsing, recovery from syntax errors, and statement assembly together:
//
//	planner := querysql.NewPlanner(provider)
//	plan, err := planner.ParseQuery(`status=active AND "beam test"`, "name", "asc")
//	// plan.CountSQL, plan.SearchSQL, plan.Params
//
// CRITICAL: Values are never interpolated into SQL. Every literal from the
// query becomes a positional parameter, numbered from $1 in the order it
// was appended.
package querysql
