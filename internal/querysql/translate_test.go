package querysql

import (
	"regexp"
	"sort"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gclql/internal/parser"
	"github.com/roach88/gclql/internal/testutil"
)

// Search clauses over the fixture schema with the term bound to $1.
const (
	unquotedSearch = `(d.name ILIKE '%' || $1 || '%' OR jsonb_values_to_text(d.metadata) ILIKE '%' || $1 || '%' OR cat.name ILIKE '%' || $1 || '%' OR typ.type_name ILIKE '%' || $1 || '%' OR cata.title ILIKE '%' || $1 || '%')`
	quotedSearch   = `(d.name ~* $1 OR jsonb_values_to_text(d.metadata) ~* $1 OR cat.name ~* $1 OR typ.type_name ~* $1 OR cata.title ~* $1)`
)

func translate(t *testing.T, query string) (string, []any, error) {
	t.Helper()
	node, err := parser.Parse(query)
	require.NoError(t, err, "query %q must parse", query)
	return Translate(testutil.FixtureContext(t), node)
}

func TestTranslate_Operators(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		where  string
		params []any
	}{
		{"string equals", `status=active`, `d.status ILIKE $1`, []any{"active"}},
		{"numeric greater", `size>100`, `d.size > $1`, []any{int64(100)}},
		{"numeric equals", `size=5`, `d.size = $1`, []any{int64(5)}},
		{"numeric not equals", `size!=5`, `d.size != $1`, []any{int64(5)}},
		{"numeric less or equal", `size<=5`, `d.size <= $1`, []any{int64(5)}},
		{"contains", `status:act`, `d.status ILIKE $1`, []any{"%act%"}},
		{"not contains", `status!:act`, `NOT (d.status ILIKE $1)`, []any{"%act%"}},
		{"string not equals", `status!=active`, `NOT (d.status ILIKE $1)`, []any{"active"}},
		{"regex", `name=~"^beam"`, `d.name ~* $1`, []any{"^beam"}},
		{"not regex", `name!~"^beam"`, `d.name !~* $1`, []any{"^beam"}},
		{"fuzzy", `name#"beem"`, `similarity($1, d.name) > 0.7`, []any{"beem"}},
		{"quoted equals", `name="Beam Test"`, `d.name ILIKE $1`, []any{"Beam Test"}},
		{"contains number", `name:42`, `d.name ILIKE $1`, []any{"%42%"}},
		{"uuid equals", `uuid=` + testutil.FixtureUUID, `d.uuid = $1`, []any{testutil.FixtureUUID}},
		{"entity by name", `category=Physics`, `cat.name ILIKE $1`, []any{"Physics"}},
		{"entity with _name suffix", `category_name=Physics`, `cat.name ILIKE $1`, []any{"Physics"}},
		{"column ending in _name", `edited_by_name=alice`, `d.edited_by_name ILIKE $1`, []any{"alice"}},
		{"foreign key", `category_id=5`, `d.category_id = $1`, []any{int64(5)}},
		{"foreign key from quoted digits", `category_id="7"`, `d.category_id = $1`, []any{int64(7)}},
		{"metadata auto-detected", `tag=calib`, `d.metadata->>'tag' ILIKE $1`, []any{"calib"}},
		{"metadata nested", `detector.layer=inner`, `d.metadata->'detector'->>'layer' ILIKE $1`, []any{"inner"}},
		{"metadata explicit", `metadata.tag:cal`, `d.metadata->>'tag' ILIKE $1`, []any{"%cal%"}},
		{"metadata numeric cast", `energy>5`, `(d.metadata->>'energy')::numeric > $1`, []any{int64(5)}},
		{"metadata explicit numeric cast", `metadata.energy>=1.5`, `(d.metadata->>'energy')::numeric >= $1`, []any{1.5}},
		{"metadata contains number stays text", `energy:5`, `d.metadata->>'energy' ILIKE $1`, []any{"%5%"}},
		{"metadata not contains number stays text", `energy!:5`, `NOT (d.metadata->>'energy' ILIKE $1)`, []any{"%5%"}},
		{"metadata regex has no cast", `tag=~"^cal"`, `d.metadata->>'tag' ~* $1`, []any{"^cal"}},
		{"timestamp keeps non-date string", `created_at="yesterday"`, `d.created_at = $1`, []any{"yesterday"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, params, err := translate(t, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.where, where)
			assert.Equal(t, tt.params, params)
		})
	}
}

func TestTranslate_MissingValue(t *testing.T) {
	tests := []struct {
		query  string
		where  string
		params []any
	}{
		{`status=`, `d.status = $1`, []any{nil}},
		{`status!=`, `d.status != $1`, []any{nil}},
		{`size>`, `d.size > $1`, []any{nil}},
		{`energy<=`, `d.metadata->>'energy' <= $1`, []any{nil}},
		{`status:`, `d.status ILIKE $1`, []any{"%%"}},
		{`last_edited_at:`, `d.last_edited_at IS NOT NULL`, []any{}},
		{`last_edited_at>`, `(d.last_edited_at IS NOT NULL AND d.last_edited_at > $1)`, []any{nil}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			where, params, err := translate(t, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.where, where)
			assert.Equal(t, tt.params, params)
		})
	}
}

func TestTranslate_WildcardWithValueOperators(t *testing.T) {
	// Only : and !: give "*" its presence meaning; elsewhere it is text.
	tests := []struct {
		query string
		where string
	}{
		{`status=*`, `d.status ILIKE $1`},
		{`status!=*`, `NOT (d.status ILIKE $1)`},
		{`name#*`, `similarity($1, d.name) > 0.7`},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			where, params, err := translate(t, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.where, where)
			assert.Equal(t, []any{"*"}, params)
		})
	}
}

func TestTranslate_Existence(t *testing.T) {
	tests := []struct {
		query  string
		where  string
		params []any
	}{
		{`tag:*`, `d.metadata ? $1`, []any{"tag"}},
		{`tag!:*`, `NOT (d.metadata ? $1)`, []any{"tag"}},
		{`tag:"*"`, `d.metadata ? $1`, []any{"tag"}},
		{`detector.layer:*`, `jsonb_path_exists(d.metadata, $1)`, []any{"$.detector.layer"}},
		{`detector.layer!:*`, `NOT jsonb_path_exists(d.metadata, $1)`, []any{"$.detector.layer"}},
		{`metadata.detector.layer:*`, `jsonb_path_exists(d.metadata, $1)`, []any{"$.detector.layer"}},
		{`metadata.detector.cross-section:*`, `jsonb_path_exists(d.metadata, $1)`, []any{`$.detector."cross-section"`}},
		{`status:*`, `d.status IS NOT NULL`, []any{}},
		{`status!:*`, `d.status IS NULL`, []any{}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			where, params, err := translate(t, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.where, where)
			assert.Equal(t, tt.params, params)
		})
	}
}

func TestTranslate_ExistenceDuality(t *testing.T) {
	for _, field := range []string{"tag", "detector.layer", "status"} {
		t.Run(field, func(t *testing.T) {
			present, pp, err := translate(t, field+":*")
			require.NoError(t, err)
			absent, ap, err := translate(t, field+"!:*")
			require.NoError(t, err)

			assert.Equal(t, pp, ap)
			switch {
			case absent == "NOT ("+present+")", absent == "NOT "+present:
			case present == "d.status IS NOT NULL" && absent == "d.status IS NULL":
			default:
				t.Errorf("%q and %q are not complementary", present, absent)
			}
		})
	}
}

func TestTranslate_LastEdited(t *testing.T) {
	july := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		query  string
		where  string
		params []any
	}{
		{`last_edited_at:`, `d.last_edited_at IS NOT NULL`, []any{}},
		{`last_edited_at>"2025-07-01"`, `(d.last_edited_at IS NOT NULL AND d.last_edited_at > $1)`, []any{july}},
		{`last_edited_at<="2025-07-01"`, `(d.last_edited_at IS NOT NULL AND d.last_edited_at <= $1)`, []any{july}},
		{`last_edited_at!="2025-07-01"`, `(d.last_edited_at IS NOT NULL AND d.last_edited_at != $1)`, []any{july}},
		{`last_edited_at="2025-07-01"`, `d.last_edited_at = $1`, []any{july}},
		{`last_edited_at!:2025`, `(d.last_edited_at IS NOT NULL AND NOT (d.last_edited_at ILIKE $1))`, []any{"%2025%"}},
		{`last_edited_at:*`, `d.last_edited_at IS NOT NULL`, []any{}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			where, params, err := translate(t, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.where, where)
			require.Len(t, params, len(tt.params))
			for i := range params {
				if want, ok := tt.params[i].(time.Time); ok {
					got, ok := params[i].(time.Time)
					require.True(t, ok, "param %d is %T", i, params[i])
					assert.True(t, want.Equal(got), "param %d: want %s, got %s", i, want, got)
					continue
				}
				assert.Equal(t, tt.params[i], params[i])
			}
		})
	}
}

func TestTranslate_TimestampDates(t *testing.T) {
	where, params, err := translate(t, `created_at>="2025-07-20T10:30:00Z"`)
	require.NoError(t, err)
	assert.Equal(t, `d.created_at >= $1`, where)
	require.Len(t, params, 1)
	got, ok := params[0].(time.Time)
	require.True(t, ok)
	assert.True(t, got.Equal(time.Date(2025, 7, 20, 10, 30, 0, 0, time.UTC)))
}

func TestTranslate_BooleanStructure(t *testing.T) {
	tests := []struct {
		query  string
		where  string
		params []any
	}{
		{`status=active AND size>100`, `(d.status ILIKE $1 AND d.size > $2)`, []any{"active", int64(100)}},
		{`status=a OR status=b`, `(d.status ILIKE $1 OR d.status ILIKE $2)`, []any{"a", "b"}},
		{`NOT status=active`, `NOT (d.status ILIKE $1)`, []any{"active"}},
		{
			`status=a OR status=b AND size>1`,
			`(d.status ILIKE $1 OR (d.status ILIKE $2 AND d.size > $3))`,
			[]any{"a", "b", int64(1)},
		},
		{
			`(status=a OR status=b) AND NOT tag:*`,
			`((d.status ILIKE $1 OR d.status ILIKE $2) AND NOT (d.metadata ? $3))`,
			[]any{"a", "b", "tag"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			where, params, err := translate(t, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.where, where)
			assert.Equal(t, tt.params, params)
		})
	}
}

func TestTranslate_GlobalSearch(t *testing.T) {
	t.Run("unquoted", func(t *testing.T) {
		where, params, err := translate(t, `beam`)
		require.NoError(t, err)
		assert.Equal(t, unquotedSearch, where)
		assert.Equal(t, []any{"beam"}, params)
	})

	t.Run("quoted", func(t *testing.T) {
		where, params, err := translate(t, `"hello world"`)
		require.NoError(t, err)
		assert.Equal(t, quotedSearch, where)
		assert.Equal(t, []any{"hello world"}, params)
	})

	t.Run("uuid term searches uuid column", func(t *testing.T) {
		where, params, err := translate(t, testutil.FixtureUUID)
		require.NoError(t, err)
		assert.Contains(t, where, `d.uuid::text ILIKE '%' || $1 || '%'`)
		assert.Equal(t, []any{testutil.FixtureUUID}, params)
	})

	t.Run("plain term skips uuid column", func(t *testing.T) {
		where, _, err := translate(t, `beam`)
		require.NoError(t, err)
		assert.NotContains(t, where, "uuid")
	})

	t.Run("match-all", func(t *testing.T) {
		for _, q := range []string{`*`, `"*"`, `" "`} {
			where, params, err := translate(t, q)
			require.NoError(t, err)
			assert.Equal(t, "TRUE", where, q)
			assert.Empty(t, params, q)
		}
	})

	t.Run("mixed with comparison", func(t *testing.T) {
		where, params, err := translate(t, `status=active AND "beam test"`)
		require.NoError(t, err)
		assert.Equal(t, `(d.status ILIKE $1 AND (d.name ~* $2 OR jsonb_values_to_text(d.metadata) ~* $2 OR cat.name ~* $2 OR typ.type_name ~* $2 OR cata.title ~* $2))`, where)
		assert.Equal(t, []any{"active", "beam test"}, params)
	})
}

func TestTranslate_SimilarityThreshold(t *testing.T) {
	sc := testutil.FixtureContext(t)
	node, err := parser.Parse(`name#beam`)
	require.NoError(t, err)

	tr := NewTranslator(sc, SearchFields(sc, ""))
	tr.SetSimilarityThreshold(0.35)
	where, err := tr.Translate(node)
	require.NoError(t, err)
	assert.Equal(t, `similarity($1, d.name) > 0.35`, where)
}

func TestTranslate_ValidationErrors(t *testing.T) {
	tests := []struct {
		query string
		kind  ErrorType
		field string
	}{
		{`nonexistent_field=1`, ErrTypeInvalidField, "nonexistent_field"},
		{`categori=Physics`, ErrTypeInvalidField, "categori"},
		{`status>5`, ErrTypeInvalidOperation, "status"},
		{`status<abc`, ErrTypeInvalidOperation, "status"},
		{`category>=Physics`, ErrTypeInvalidOperation, "category"},
		{`category_id=abc`, ErrTypeInvalidOperation, "category_id"},
		{`dataset_id!=` + testutil.FixtureUUID, ErrTypeInvalidOperation, "dataset_id"},
		{`tag>abc`, ErrTypeInvalidOperation, "tag"},
		{`metadata.tag<"x"`, ErrTypeInvalidOperation, "metadata"},
		{`size>`, ErrTypeInvalidOperation, "size"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			where, _, err := translate(t, tt.query)
			require.Error(t, err)
			assert.Empty(t, where)

			qe, ok := AsError(err)
			require.True(t, ok, "want *Error, got %T", err)
			assert.Equal(t, tt.kind, qe.Type)
			assert.Equal(t, tt.field, qe.FieldName)
			assert.NotEmpty(t, qe.Message)
			assert.NotEmpty(t, qe.UserMessage)
			assert.NotEqual(t, qe.Message, qe.UserMessage)
		})
	}
}

func TestTranslate_IDRangeAllowsIntegers(t *testing.T) {
	where, params, err := translate(t, `dataset_id>=10 AND dataset_id<20`)
	require.NoError(t, err)
	assert.Equal(t, `(d.dataset_id >= $1 AND d.dataset_id < $2)`, where)
	assert.Equal(t, []any{int64(10), int64(20)}, params)
}

var placeholder = regexp.MustCompile(`\$(\d+)`)

// placeholders returns the distinct placeholder numbers in sql, sorted.
func placeholders(t *testing.T, sql string) []int {
	t.Helper()
	seen := map[int]bool{}
	for _, m := range placeholder.FindAllStringSubmatch(sql, -1) {
		n, err := strconv.Atoi(m[1])
		require.NoError(t, err)
		seen[n] = true
	}
	out := make([]int, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

func TestTranslate_PlaceholdersMatchParams(t *testing.T) {
	queries := []string{
		`status=active`,
		`beam`,
		`"beam test" AND status=a AND size>3`,
		`tag:* OR detector.layer!:* OR last_edited_at:`,
		`NOT (category=Physics OR type:sim) AND energy>=2.5`,
		`last_edited_at>"2025-01-01" AND ` + testutil.FixtureUUID,
	}
	for _, q := range queries {
		t.Run(q, func(t *testing.T) {
			where, params, err := translate(t, q)
			require.NoError(t, err)
			got := placeholders(t, where)
			require.Len(t, got, len(params))
			for i, n := range got {
				assert.Equal(t, i+1, n)
			}
		})
	}
}

func TestTranslate_Deterministic(t *testing.T) {
	sc := testutil.FixtureContext(t)
	node, err := parser.Parse(`(status=a OR tag:*) AND NOT "beam" AND energy>1`)
	require.NoError(t, err)

	w1, p1, err := Translate(sc, node)
	require.NoError(t, err)
	w2, p2, err := Translate(sc, node)
	require.NoError(t, err)

	assert.Equal(t, w1, w2)
	assert.Equal(t, p1, p2)
}
