package querysql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/gclql/internal/ast"
	"github.com/roach88/gclql/internal/schema"
)

// DefaultSimilarityThreshold is the trigram similarity a "#" comparison
// must exceed.
const DefaultSimilarityThreshold = 0.7

// Translator compiles one AST into a WHERE expression.
//
// A Translator accumulates parameters and must not be shared between
// concurrent translations. Create one per call.
type Translator struct {
	sc           *schema.Context
	resolver     *Resolver
	searchFields []string
	similarity   float64
	params       []any
}

// NewTranslator creates a Translator. searchFields are the expressions
// global search terms are matched against; see SearchFields.
func NewTranslator(sc *schema.Context, searchFields []string) *Translator {
	return &Translator{
		sc:           sc,
		resolver:     NewResolver(sc),
		searchFields: searchFields,
		similarity:   DefaultSimilarityThreshold,
	}
}

// SetSimilarityThreshold changes the "#" threshold.
func (t *Translator) SetSimilarityThreshold(th float64) {
	t.similarity = th
}

// Translate is a convenience for callers holding an AST: it picks search
// fields from the first search term and returns the expression with its
// parameters.
func Translate(sc *schema.Context, n ast.Node) (string, []any, error) {
	term := ""
	if gs, ok := ast.FirstSearch(n); ok {
		term = gs.Text
	}
	t := NewTranslator(sc, SearchFields(sc, term))
	where, err := t.Translate(n)
	if err != nil {
		return "", nil, err
	}
	return where, t.Params(), nil
}

// Params returns the parameters bound so far, in placeholder order.
func (t *Translator) Params() []any {
	return append([]any{}, t.params...)
}

// Translate converts n to SQL. Parameters are appended to the
// Translator's list; placeholders continue from the current length.
//
// MANDATORY: All values are parameterized (never interpolated).
func (t *Translator) Translate(n ast.Node) (string, error) {
	switch node := n.(type) {
	case ast.Comparison:
		return t.translateComparison(node)
	case ast.GlobalSearch:
		return t.translateSearch(node.Text, node.Quoted), nil
	case ast.And:
		return t.translateBinary(node.Left, node.Right, "AND")
	case ast.Or:
		return t.translateBinary(node.Left, node.Right, "OR")
	case ast.Not:
		inner, err := t.Translate(node.Inner)
		if err != nil {
			return "", err
		}
		return "NOT (" + inner + ")", nil
	default:
		return "", fmt.Errorf("unsupported node type: %T", n)
	}
}

func (t *Translator) translateBinary(l, r ast.Node, op string) (string, error) {
	left, err := t.Translate(l)
	if err != nil {
		return "", err
	}
	right, err := t.Translate(r)
	if err != nil {
		return "", err
	}
	return "(" + left + " " + op + " " + right + ")", nil
}

// bind appends v and returns its placeholder.
func (t *Translator) bind(v any) string {
	t.params = append(t.params, v)
	return "$" + strconv.Itoa(len(t.params))
}

// translateSearch emits a global search over the search fields. Blank and
// "*" terms match everything and bind nothing.
func (t *Translator) translateSearch(text string, quoted bool) string {
	term := strings.TrimSpace(text)
	if isMatchAll(term) || len(t.searchFields) == 0 {
		return "TRUE"
	}
	return searchClause(t.searchFields, t.bind(term), quoted)
}

// sqlOp is the SQL form chosen for a comparison.
type sqlOp string

const (
	opILike     sqlOp = "ILIKE"
	opNotILike  sqlOp = "NOT ILIKE"
	opSimilar   sqlOp = "SIMILARITY"
	opRegex     sqlOp = "~*"
	opNotRegex  sqlOp = "!~*"
	opEquals    sqlOp = "="
	opNotEquals sqlOp = "!="
)

func (t *Translator) translateComparison(c ast.Comparison) (string, error) {
	res, err := t.resolver.Resolve(c.Field, c.Op, c.Value)
	if err != nil {
		return "", err
	}
	f := res.SQL

	if c.Value != nil && ast.IsWildcard(c.Value) {
		switch c.Op {
		case ast.OpContains:
			return t.exists(res, false), nil
		case ast.OpNotContains:
			return t.exists(res, true), nil
		}
	}

	lastEdited := t.isLastEdited(c.Field, f)
	timestamp := lastEdited || (res.Kind == KindColumn && t.sc.IsTimestampField(res.Base))

	// A missing value binds NULL, so "status=" matches no rows instead of
	// failing the query.
	if c.Value == nil && c.Op == ast.OpContains && lastEdited {
		return f + " IS NOT NULL", nil
	}

	var param any
	if c.Value != nil {
		param = c.Value.Literal()
		if t.resolver.isIDField(res.Base) && isScalarComparison(c.Op) {
			if n, ok := coerceInt(c.Value); ok {
				if _, isString := c.Value.(ast.String); isString {
					param = n
				}
			}
		}
	}
	// UUID literals compare exactly so uuid columns keep their type.
	_, text := param.(string)
	if _, isUUID := c.Value.(ast.UUID); isUUID {
		text = false
	}

	var op sqlOp
	switch c.Op {
	case ast.OpContains:
		op, param = opILike, contains(param)
	case ast.OpNotContains:
		op, param = opNotILike, contains(param)
	case ast.OpEq:
		op = opEquals
		if text && !timestamp {
			op = opILike
		}
	case ast.OpNe:
		op = opNotEquals
		if text && !timestamp {
			op = opNotILike
		}
	case ast.OpMatch:
		op = opRegex
	case ast.OpNotMatch:
		op = opNotRegex
	case ast.OpFuzzy:
		op = opSimilar
	default:
		op = sqlOp(c.Op)
	}

	if s, ok := param.(string); ok && timestamp && isScalarComparison(c.Op) {
		if tm, ok := parseDate(s); ok {
			param = tm
		}
	}

	ph := t.bind(param)
	var expr string
	switch op {
	case opNotILike:
		expr = "NOT (" + f + " ILIKE " + ph + ")"
	case opSimilar:
		expr = "similarity(" + ph + ", " + f + ") > " + strconv.FormatFloat(t.similarity, 'f', -1, 64)
	default:
		expr = f + " " + string(op) + " " + ph
	}

	if lastEdited && needsNullGuard(c.Op) {
		return "(" + f + " IS NOT NULL AND " + expr + ")", nil
	}
	return expr, nil
}

// isLastEdited reports whether the comparison targets the designated
// last-edited timestamp, by name or by its mapped expression.
func (t *Translator) isLastEdited(f ast.Field, expr string) bool {
	name := t.sc.Options().LastEditedField
	return f.Base() == name || strings.HasSuffix(expr, name)
}

// needsNullGuard lists the operators whose result on a NULL last-edited
// value would otherwise depend on three-valued logic.
func needsNullGuard(op ast.Operator) bool {
	switch op {
	case ast.OpNe, ast.OpNotContains, ast.OpNotMatch, ast.OpFuzzy:
		return true
	}
	return op.IsOrdering()
}

// exists emits the presence test for "f:*", or its negation for "f!:*".
func (t *Translator) exists(res Resolution, negate bool) string {
	if res.Kind == KindMetadata {
		col := t.sc.MetadataColumn()
		if len(res.Path) == 1 {
			ph := t.bind(res.Path[0])
			if negate {
				return "NOT (" + col + " ? " + ph + ")"
			}
			return col + " ? " + ph
		}
		ph := t.bind(jsonPathQuery(res.Path))
		if negate {
			return "NOT jsonb_path_exists(" + col + ", " + ph + ")"
		}
		return "jsonb_path_exists(" + col + ", " + ph + ")"
	}
	if negate {
		return res.SQL + " IS NULL"
	}
	return res.SQL + " IS NOT NULL"
}

// jsonPathQuery renders keys as a SQL/JSON path such as $.detector.layer.
// Keys that are not plain identifiers are double-quoted.
func jsonPathQuery(keys []string) string {
	var b strings.Builder
	b.WriteString("$")
	for _, k := range keys {
		b.WriteString(".")
		if isPlainKey(k) {
			b.WriteString(k)
		} else {
			b.WriteString(strconv.Quote(k))
		}
	}
	return b.String()
}

func isPlainKey(k string) bool {
	if k == "" {
		return false
	}
	for i, r := range k {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// contains wraps a value for substring ILIKE matching.
func contains(v any) string {
	if v == nil {
		return "%%"
	}
	return "%" + fmt.Sprint(v) + "%"
}
