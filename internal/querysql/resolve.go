package querysql

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/roach88/gclql/internal/ast"
	"github.com/roach88/gclql/internal/schema"
)

// FieldKind says what a resolved field refers to.
type FieldKind int

const (
	// KindColumn is a mapped column or SQL expression.
	KindColumn FieldKind = iota

	// KindEntity is a navigation entity compared through its foreign key.
	KindEntity

	// KindMetadata is a key path inside the JSON metadata column.
	KindMetadata
)

// Resolution is the SQL form of a field.
type Resolution struct {
	SQL  string
	Kind FieldKind

	// Base is the first segment after "_name" stripping.
	Base string

	// Path holds the metadata keys for KindMetadata.
	Path []string
}

// Resolver maps fields to SQL expressions against one schema snapshot.
type Resolver struct {
	sc *schema.Context
}

// NewResolver creates a Resolver for sc.
func NewResolver(sc *schema.Context) *Resolver {
	return &Resolver{sc: sc}
}

// Resolve maps f to SQL. When op and v are set, the operator and value are
// validated against the field's kind first. Pass a zero op and nil v to
// resolve without validation, as ORDER BY does.
//
// Lookup order: mapped column (with explicit "metadata.k" paths), entity
// key, auto-detected metadata key.
func (r *Resolver) Resolve(f ast.Field, op ast.Operator, v ast.Value) (Resolution, error) {
	parts := f.Parts()
	base := r.baseName(parts)

	if err := r.validate(base, op, v); err != nil {
		return Resolution{}, err
	}

	metaField := r.sc.Options().MetadataField
	if expr, ok := r.sc.ColumnSQL(base); ok {
		if base == metaField && len(parts) > 1 {
			path := parts[1:]
			return Resolution{
				SQL:  castNumeric(jsonPath(expr, path), op, v),
				Kind: KindMetadata,
				Base: base,
				Path: path,
			}, nil
		}
		return Resolution{SQL: expr, Kind: KindColumn, Base: base}, nil
	}

	if r.sc.IsEntityField(base) {
		return Resolution{
			SQL:  r.sc.MainAlias() + "." + base + "_id",
			Kind: KindEntity,
			Base: base,
		}, nil
	}

	if r.sc.IsMetadataField(base) || r.sc.IsMetadataField(f.String()) {
		slog.Debug("auto-detected metadata field", "field", f.String())
		return Resolution{
			SQL:  castNumeric(jsonPath(r.sc.MetadataColumn(), parts), op, v),
			Kind: KindMetadata,
			Base: base,
			Path: parts,
		}, nil
	}

	return Resolution{}, fieldError(f.String(), r.sc.FieldNames())
}

// baseName strips a trailing "_name" from the first segment so that
// "category_name" and "category" resolve alike. Names that are columns or
// metadata keys in their own right are kept as written.
func (r *Resolver) baseName(parts []string) string {
	base := parts[0]
	stripped, ok := strings.CutSuffix(base, "_name")
	if !ok || stripped == "" {
		return base
	}
	if _, mapped := r.sc.ColumnSQL(base); mapped {
		return base
	}
	if r.sc.IsMetadataField(base) || r.sc.IsMetadataField(strings.Join(parts, ".")) {
		return base
	}
	return stripped
}

// isMetadata reports whether base addresses the metadata column.
func (r *Resolver) isMetadata(base string) bool {
	return r.sc.IsMetadataField(base) || base == r.sc.Options().MetadataField
}

func (r *Resolver) isIDField(base string) bool {
	return r.sc.IsIDField(base) || strings.HasSuffix(base, "_id")
}

// validate checks op and v against the kind of base. Nothing is checked
// without both an operator and a value.
func (r *Resolver) validate(base string, op ast.Operator, v ast.Value) error {
	if op == "" || v == nil {
		return nil
	}
	isMeta := r.isMetadata(base)

	if r.sc.IsStringField(base) && !isMeta && op.IsOrdering() {
		if ast.IsNumeric(v) {
			return operationError(base, string(op),
				fmt.Sprintf("Cannot use numeric comparison operator '%s' with string field '%s'", op, base),
				fmt.Sprintf("The field '%s' contains text values and cannot be compared using '%s'. Use '=' for exact match, ':' for contains, or '=~' for pattern matching.", base, op))
		}
		return operationError(base, string(op),
			fmt.Sprintf("String comparison operator '%s' is not supported for field '%s'", op, base),
			fmt.Sprintf("Cannot compare text values in '%s' using '%s'. Use '=' for exact match, ':' for contains, or '=~' for pattern matching.", base, op))
	}

	if r.isIDField(base) && isScalarComparison(op) {
		if _, ok := coerceInt(v); !ok {
			return operationError(base, string(op),
				fmt.Sprintf("Field '%s' expects integer values, got '%s' (%s)", base, literalText(v), valueKind(v)),
				fmt.Sprintf("The field '%s' expects numeric ID values. Please provide an integer value instead of '%s'.", base, literalText(v)))
		}
	}

	if isMeta && op.IsOrdering() && ast.IsText(v) {
		return operationError(base, string(op),
			fmt.Sprintf("String comparison with operator '%s' is not supported for metadata field '%s'", op, base),
			fmt.Sprintf("Cannot use '%s' to compare text values in field '%s'. Use '=' for exact match, ':' for contains, or '=~' for regex patterns.", op, base))
	}
	return nil
}

// isScalarComparison reports whether op is one of = != > < >= <=.
func isScalarComparison(op ast.Operator) bool {
	return op != ast.OpContains && op.IsValueComparison()
}

// coerceInt converts v to an integer id when it is one: integers, floats
// (truncated), and strings holding a base-10 integer.
func coerceInt(v ast.Value) (int64, bool) {
	switch val := v.(type) {
	case ast.Int:
		return int64(val), true
	case ast.Float:
		return int64(val), true
	case ast.String:
		n, err := strconv.ParseInt(strings.TrimSpace(val.Text), 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

func literalText(v ast.Value) string {
	return fmt.Sprint(v.Literal())
}

func valueKind(v ast.Value) string {
	switch v.(type) {
	case ast.Int:
		return "int"
	case ast.Float:
		return "float"
	default:
		return "string"
	}
}

// jsonPath builds col->'k1'->...->>'kn'. Keys are quoted as SQL string
// literals.
func jsonPath(col string, keys []string) string {
	var b strings.Builder
	b.WriteString(col)
	for i, k := range keys {
		if i == len(keys)-1 {
			b.WriteString("->>")
		} else {
			b.WriteString("->")
		}
		b.WriteString(quoteLiteral(k))
	}
	return b.String()
}

// castNumeric wraps a text-valued JSON extraction in a numeric cast when a
// number is compared with = != > < >= <=. Substring operators stay on text
// since numeric has no ILIKE.
func castNumeric(expr string, op ast.Operator, v ast.Value) string {
	if v != nil && ast.IsNumeric(v) && isScalarComparison(op) {
		return "(" + expr + ")::numeric"
	}
	return expr
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
