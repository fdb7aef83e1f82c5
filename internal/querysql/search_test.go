package querysql

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/gclql/internal/testutil"
)

func TestIsUUID(t *testing.T) {
	assert.True(t, IsUUID(testutil.FixtureUUID))
	assert.True(t, IsUUID(" "+testutil.FixtureUUID+" "))
	assert.True(t, IsUUID("550E8400-E29B-41D4-A716-446655440000"))

	assert.False(t, IsUUID("550e8400e29b41d4a716446655440000"))
	assert.False(t, IsUUID("{550e8400-e29b-41d4-a716-446655440000}"))
	assert.False(t, IsUUID("550e8400-e29b-41d4-a716-44665544000g"))
	assert.False(t, IsUUID("beam test"))
	assert.False(t, IsUUID(""))
}

func TestSearchFields(t *testing.T) {
	sc := testutil.FixtureContext(t)

	assert.Equal(t, []string{
		"d.name",
		"jsonb_values_to_text(d.metadata)",
		"cat.name",
		"typ.type_name",
		"cata.title",
	}, SearchFields(sc, "beam"))

	assert.Equal(t, []string{
		"d.name",
		"jsonb_values_to_text(d.metadata)",
		"d.uuid",
		"cat.name",
		"typ.type_name",
		"cata.title",
	}, SearchFields(sc, testutil.FixtureUUID))
}

func TestSearchClause(t *testing.T) {
	fields := []string{"d.name", "d.uuid"}
	assert.Equal(t, `(d.name ~* $3 OR d.uuid::text ~* $3)`, searchClause(fields, "$3", true))
	assert.Equal(t, `(d.name ILIKE '%' || $1 || '%' OR d.uuid::text ILIKE '%' || $1 || '%')`, searchClause(fields, "$1", false))
}

func TestParseDate(t *testing.T) {
	got, ok := parseDate("2025-07-20")
	assert.True(t, ok)
	assert.True(t, got.Equal(time.Date(2025, 7, 20, 0, 0, 0, 0, time.UTC)))

	got, ok = parseDate("2025-07-20 08:15:00")
	assert.True(t, ok)
	assert.True(t, got.Equal(time.Date(2025, 7, 20, 8, 15, 0, 0, time.UTC)))

	for _, s := range []string{"yesterday", "July 20", "20-07-2025", ""} {
		_, ok := parseDate(s)
		assert.False(t, ok, s)
	}
}
