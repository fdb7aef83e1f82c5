package querysql

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/roach88/gclql/internal/ast"
	"github.com/roach88/gclql/internal/parser"
	"github.com/roach88/gclql/internal/schema"
)

var (
	// andSplit is deliberately shallow: an AND inside parentheses or
	// quotes still splits.
	andSplit     = regexp.MustCompile(`(?i)\s+AND\s+`)
	quotedPhrase = regexp.MustCompile(`["']([^"']+)["']`)
	keywords     = regexp.MustCompile(`(?i)\b(AND|OR|NOT)\b`)
	assignments  = regexp.MustCompile(`\w+\s*=\s*["'][^"']*["']`)
	spaces       = regexp.MustCompile(`\s+`)
)

// recovery holds the outcome of degrading an unparseable query.
type recovery struct {
	where  string
	params []any
}

// recoverHybrid splits query on AND, translates every segment that
// parses, and turns the rest into one free-text search. Field and
// operation errors from parsed segments are returned as is.
func recoverHybrid(sc *schema.Context, query string, similarity float64) (recovery, error) {
	var (
		nodes  []ast.Node
		failed []string
	)
	for _, part := range andSplit.Split(query, -1) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := parser.Parse(part)
		if err != nil {
			slog.Debug("segment kept as text", "segment", part, "error", err)
			failed = append(failed, part)
			continue
		}
		nodes = append(nodes, n)
	}

	phrase, quoted := fallbackPhrase(strings.Join(failed, " "))
	term := phrase
	if term == "" {
		for _, n := range nodes {
			if gs, ok := ast.FirstSearch(n); ok {
				term = gs.Text
				break
			}
		}
	}

	t := NewTranslator(sc, SearchFields(sc, term))
	t.SetSimilarityThreshold(similarity)

	var clauses []string
	for _, n := range nodes {
		sql, err := t.Translate(n)
		if err != nil {
			return recovery{}, err
		}
		clauses = append(clauses, sql)
	}
	if len(failed) > 0 {
		if clause := t.translateSearch(phrase, quoted); clause != "TRUE" {
			clauses = append(clauses, clause)
		}
	}

	if len(clauses) == 0 {
		return recovery{where: "TRUE", params: t.Params()}, nil
	}
	return recovery{
		where:  "(" + strings.Join(clauses, " AND ") + ")",
		params: t.Params(),
	}, nil
}

// fallbackPhrase picks the search phrase for text that did not parse. A
// complete quoted substring wins and keeps regex semantics; otherwise the
// whole text is used with stray quote characters trimmed.
func fallbackPhrase(text string) (string, bool) {
	if m := quotedPhrase.FindStringSubmatch(text); m != nil {
		if p := strings.TrimSpace(m[1]); p != "" {
			return p, true
		}
	}
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(text), `"'`)), false
}

// recoverFuzzy treats the whole query as one free-text term. It is the
// last resort when hybrid recovery fails for reasons other than
// validation.
func recoverFuzzy(sc *schema.Context, query string) recovery {
	term, quoted := fuzzyTerm(query)
	t := NewTranslator(sc, SearchFields(sc, term))
	return recovery{where: t.translateSearch(term, quoted), params: t.Params()}
}

// fuzzyTerm extracts a search term from free text: the first quoted
// substring if any, otherwise the text without boolean keywords and
// field="value" pairs.
func fuzzyTerm(query string) (string, bool) {
	if m := quotedPhrase.FindStringSubmatch(query); m != nil {
		if p := strings.TrimSpace(m[1]); p != "" {
			return p, true
		}
	}
	cleaned := keywords.ReplaceAllString(query, " ")
	cleaned = assignments.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(spaces.ReplaceAllString(cleaned, " "))
	if cleaned == "" {
		cleaned = strings.TrimSpace(query)
	}
	return cleaned, false
}
