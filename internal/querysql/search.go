package querysql

import (
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/roach88/gclql/internal/schema"
)

// IsUUID reports whether s is a UUID in canonical 8-4-4-4-12 form.
func IsUUID(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

// SearchFields returns the expressions a free-text term is matched
// against, in order: the row name, the metadata values flattened to text,
// the UUID column (only when term is UUID-shaped), then the name column of
// every navigation table.
func SearchFields(sc *schema.Context, term string) []string {
	opts := sc.Options()
	fields := []string{
		columnOr(sc, opts.NameField),
		metadataText(sc),
	}
	if IsUUID(term) {
		slog.Debug("including uuid in search fields", "term", term)
		fields = append(fields, columnOr(sc, opts.UUIDField))
	}
	for _, n := range sc.Navigation() {
		fields = append(fields, n.Alias+"."+n.NameColumn)
	}
	return fields
}

func columnOr(sc *schema.Context, name string) string {
	if expr, ok := sc.ColumnSQL(name); ok {
		return expr
	}
	return sc.MainAlias() + "." + name
}

func metadataText(sc *schema.Context) string {
	if expr, ok := sc.ColumnSQL("metadata_text"); ok {
		return expr
	}
	return "jsonb_values_to_text(" + sc.MetadataColumn() + ")"
}

// searchClause ORs one predicate per field, all sharing placeholder ph.
// Quoted terms match as case-insensitive regexes, unquoted terms as
// substrings. UUID columns are cast to text.
func searchClause(fields []string, ph string, quoted bool) string {
	conds := make([]string, 0, len(fields))
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), "uuid") {
			f += "::text"
		}
		if quoted {
			conds = append(conds, f+" ~* "+ph)
		} else {
			conds = append(conds, f+" ILIKE '%' || "+ph+" || '%'")
		}
	}
	return "(" + strings.Join(conds, " OR ") + ")"
}

// isMatchAll reports whether a search term matches every row.
func isMatchAll(term string) bool {
	term = strings.TrimSpace(term)
	return term == "" || term == "*"
}
