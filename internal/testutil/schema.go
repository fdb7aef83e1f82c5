package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/gclql/internal/schema"
)

// FixtureUUID is a well-formed UUID for search tests.
const FixtureUUID = "550e8400-e29b-41d4-a716-446655440000"

// FixtureDiscovery returns the schema of a "datasets" table used across
// tests.
//
// Navigation tables and their aliases:
//
//	category -> categories  cat   name
//	type     -> types       typ   type_name
//	catalog  -> catalogs    cata  title
//
// Metadata keys: cross-section, detector, detector.layer, energy, tag.
// Two lock markers are included and must be dropped by schema.Build.
func FixtureDiscovery() schema.Discovery {
	return schema.Discovery{
		MetadataFields: []string{
			"tag",
			"energy",
			"detector",
			"detector.layer",
			"cross-section",
			"__status__lock__",
			"detector.__layer__lock__",
		},
		Navigation: schema.Navigation{
			MainTable: "datasets",
			Tables: []schema.NavigationTable{
				{Key: "category", TableName: "categories", PrimaryKey: "category_id", NameColumn: "name"},
				{Key: "type", TableName: "types", PrimaryKey: "type_id", NameColumn: "type_name"},
				{Key: "catalog", TableName: "catalogs", PrimaryKey: "catalog_id", NameColumn: "title"},
			},
			MainTableSchema: schema.MainTableSchema{
				PrimaryKey: "dataset_id",
				Columns: []schema.Column{
					{Name: "dataset_id", DataType: "integer"},
					{Name: "uuid", DataType: "uuid"},
					{Name: "name", DataType: "text"},
					{Name: "status", DataType: "character varying(32)"},
					{Name: "size", DataType: "integer"},
					{Name: "metadata", DataType: "jsonb"},
					{Name: "category_id", DataType: "integer", IsForeignKey: true},
					{Name: "type_id", DataType: "integer", IsForeignKey: true},
					{Name: "catalog_id", DataType: "integer", IsForeignKey: true},
					{Name: "created_at", DataType: "timestamp with time zone"},
					{Name: "last_edited_at", DataType: "timestamp with time zone"},
					{Name: "edited_by_name", DataType: "text"},
				},
			},
		},
	}
}

// FixtureContext builds FixtureDiscovery with default options.
func FixtureContext(t testing.TB) *schema.Context {
	t.Helper()
	c, err := schema.Build(FixtureDiscovery(), schema.DefaultOptions())
	require.NoError(t, err)
	return c
}

// FixtureProvider returns a Provider with FixtureContext published.
func FixtureProvider(t testing.TB) *schema.Provider {
	t.Helper()
	p := schema.NewProvider(schema.DefaultOptions())
	p.Publish(FixtureContext(t))
	return p
}
