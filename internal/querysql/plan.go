package querysql

import (
	"fmt"
	"log/slog"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/roach88/gclql/internal/ast"
	"github.com/roach88/gclql/internal/parser"
	"github.com/roach88/gclql/internal/schema"
)

// Plan is the output of ParseQuery: a count statement, a search statement
// without pagination, and the parameters both share.
type Plan struct {
	CountSQL  string
	SearchSQL string
	Params    []any

	// Where is the bare predicate, "" for an empty query.
	Where string

	// Recovered is set when the query did not parse and was degraded to
	// free-text search, in whole or in part.
	Recovered bool

	// Snapshot is the fingerprint of the schema the plan was built with.
	Snapshot string
}

// Page returns the search statement with LIMIT and OFFSET bound as the
// next two parameters.
func (p *Plan) Page(limit, offset uint64) (string, []any) {
	n := len(p.Params)
	sql := fmt.Sprintf("%s LIMIT $%d OFFSET $%d", p.SearchSQL, n+1, n+2)
	params := make([]any, 0, n+2)
	params = append(params, p.Params...)
	params = append(params, limit, offset)
	return sql, params
}

// Planner turns query strings into Plans against the provider's current
// schema snapshot. A Planner is safe for concurrent use: every call reads
// one snapshot and uses its own Translator.
type Planner struct {
	provider         *schema.Provider
	defaultSortBy    string
	defaultSortOrder string
	similarity       float64
}

// Option configures a Planner.
type Option func(*Planner)

// WithDefaultSort sets the sort used when ParseQuery gets empty sort
// arguments.
func WithDefaultSort(sortBy, sortOrder string) Option {
	return func(p *Planner) {
		p.defaultSortBy = sortBy
		p.defaultSortOrder = sortOrder
	}
}

// WithSimilarityThreshold sets the "#" operator threshold.
func WithSimilarityThreshold(th float64) Option {
	return func(p *Planner) {
		p.similarity = th
	}
}

// NewPlanner creates a Planner reading snapshots from provider.
func NewPlanner(provider *schema.Provider, opts ...Option) *Planner {
	p := &Planner{
		provider:         provider,
		defaultSortBy:    "last_edited_at",
		defaultSortOrder: "desc",
		similarity:       DefaultSimilarityThreshold,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SortableFields lists the field names accepted as sort_by.
func (p *Planner) SortableFields() ([]string, error) {
	sc := p.provider.Current()
	if sc == nil {
		return nil, ErrNotReady
	}
	return sc.SortableFields(), nil
}

// ParseQuery compiles query into count and search statements ordered by
// sortBy in sortOrder ("asc" or "desc", any case).
//
// Syntax errors are not returned: the query is recovered into free-text
// search and the Plan is marked Recovered. Unknown fields and operator
// misuse are returned as *Error.
//
// MANDATORY: The search statement always ends its ORDER BY with the
// primary key so that pagination is stable across ties.
func (p *Planner) ParseQuery(query, sortBy, sortOrder string) (*Plan, error) {
	sc := p.provider.Current()
	if sc == nil {
		return nil, ErrNotReady
	}

	if sortBy == "" {
		sortBy = p.defaultSortBy
	}
	if sortOrder == "" {
		sortOrder = p.defaultSortOrder
	}
	dir, err := direction(sortOrder)
	if err != nil {
		return nil, err
	}
	orderBy, err := orderByClause(sc, sortBy, dir)
	if err != nil {
		return nil, err
	}

	plan := &Plan{Params: []any{}, Snapshot: sc.Fingerprint()}

	if strings.TrimSpace(query) == "" {
		plan.CountSQL, _, err = sq.Select("COUNT(*)").From(sc.MainTable()).ToSql()
		if err != nil {
			return nil, fmt.Errorf("build count query: %w", err)
		}
		plan.SearchSQL, _, err = searchQuery(sc).OrderBy(orderBy...).ToSql()
		if err != nil {
			return nil, fmt.Errorf("build search query: %w", err)
		}
		return plan, nil
	}

	where, params, recovered, err := p.translate(sc, query)
	if err != nil {
		return nil, err
	}
	plan.Where = where
	plan.Params = params
	plan.Recovered = recovered

	plan.CountSQL, _, err = joined(sc, sq.Select("COUNT(*)")).Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build count query: %w", err)
	}
	plan.SearchSQL, _, err = searchQuery(sc).Where(where).OrderBy(orderBy...).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build search query: %w", err)
	}
	return plan, nil
}

// translate parses and translates query, recovering from syntax errors.
func (p *Planner) translate(sc *schema.Context, query string) (string, []any, bool, error) {
	node, err := parser.Parse(query)
	if err == nil {
		term := ""
		if gs, ok := ast.FirstSearch(node); ok {
			term = gs.Text
		}
		t := NewTranslator(sc, SearchFields(sc, term))
		t.SetSimilarityThreshold(p.similarity)
		where, err := t.Translate(node)
		if err != nil {
			return "", nil, false, err
		}
		return where, t.Params(), false, nil
	}
	if !parser.IsSyntaxError(err) {
		return "", nil, false, &Error{
			Type:        ErrTypeInvalidQuery,
			Message:     err.Error(),
			UserMessage: "The search query could not be understood.",
		}
	}

	slog.Warn("query did not parse, recovering", "query", query, "error", err)
	rec, err := recoverHybrid(sc, query, p.similarity)
	if err != nil {
		if IsValidationError(err) {
			return "", nil, false, err
		}
		slog.Warn("hybrid recovery failed, using free-text search", "query", query, "error", err)
		rec = recoverFuzzy(sc, query)
	}
	return rec.where, rec.params, true, nil
}

// direction validates a sort order.
func direction(order string) (string, error) {
	switch strings.ToLower(order) {
	case "asc":
		return "ASC", nil
	case "desc":
		return "DESC", nil
	default:
		return "", fmt.Errorf("%w: got %q", ErrInvalidSortOrder, order)
	}
}

// orderByClause resolves sortBy and appends the primary key tiebreaker.
// "metadata.a.b" sorts on the JSON path; anything else goes through the
// Resolver without operator validation.
func orderByClause(sc *schema.Context, sortBy, dir string) ([]string, error) {
	tiebreak := sc.MainAlias() + "." + sc.PrimaryKey() + " " + dir
	if sortBy == "" {
		return []string{tiebreak}, nil
	}

	var expr string
	prefix := sc.Options().MetadataField + "."
	if keys, ok := strings.CutPrefix(sortBy, prefix); ok {
		expr = jsonPath(sc.MetadataColumn(), strings.Split(keys, "."))
	} else {
		res, err := NewResolver(sc).Resolve(ast.ParseField(sortBy), "", nil)
		if err != nil {
			return nil, err
		}
		expr = res.SQL
	}
	return []string{expr + " " + dir, tiebreak}, nil
}

// searchQuery selects every main-table column plus each navigation
// table's name column as "<key>_name".
func searchQuery(sc *schema.Context) sq.SelectBuilder {
	alias := sc.MainAlias()
	var cols []string
	for _, c := range sc.Columns() {
		cols = append(cols, alias+"."+c.Name)
	}
	for _, n := range sc.Navigation() {
		cols = append(cols, fmt.Sprintf("%s.%s AS %s_name", n.Alias, n.NameColumn, n.Key))
	}
	return joined(sc, sq.Select(cols...))
}

// joined adds FROM and one LEFT JOIN per navigation table.
func joined(sc *schema.Context, b sq.SelectBuilder) sq.SelectBuilder {
	alias := sc.MainAlias()
	b = b.From(sc.MainTable() + " " + alias)
	for _, n := range sc.Navigation() {
		b = b.LeftJoin(fmt.Sprintf("%s %s ON %s.%s_id = %s.%s",
			n.TableName, n.Alias, alias, n.Key, n.Alias, n.PrimaryKey))
	}
	return b
}
