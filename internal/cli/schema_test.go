package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gclql/internal/config"
)

func TestSchemaShow_Text(t *testing.T) {
	schemaPath := writeFixtureSchema(t, t.TempDir())

	out, err := execute(t, NewSchemaCommand(&RootOptions{Format: "text"}), "show", "--schema", schemaPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Table:       datasets d (primary key dataset_id)")
	assert.Contains(t, out, "Source:      file:"+schemaPath)
	assert.Contains(t, out, "cata.title")
	assert.Contains(t, out, "Metadata fields: ")
	assert.NotContains(t, out, "__lock__")
}

func TestSchemaShow_JSON(t *testing.T) {
	schemaPath := writeFixtureSchema(t, t.TempDir())

	out, err := execute(t, NewSchemaCommand(&RootOptions{Format: "json"}), "show", "--schema", schemaPath)
	require.NoError(t, err)

	var resp struct {
		Data ShowOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "datasets", resp.Data.MainTable)
	assert.Equal(t, "dataset_id", resp.Data.PrimaryKey)
	require.Len(t, resp.Data.Navigation, 3)
	assert.Equal(t, ShowJoin{Key: "category", Table: "categories", Alias: "cat", NameColumn: "name"}, resp.Data.Navigation[0])
	assert.Contains(t, resp.Data.MetadataFields, "tag")
	assert.Contains(t, resp.Data.MetadataFields, "detector.layer")
	assert.NotContains(t, resp.Data.MetadataFields, "__status__lock__")
	assert.NotEmpty(t, resp.Data.SortableFields)
	assert.Contains(t, resp.Data.Columns, ShowColumn{Name: "status", Type: "character varying(32)", SQL: "d.status"})
}

func storeOptions(t *testing.T, format string) *RootOptions {
	t.Helper()
	cfg := config.Defaults()
	cfg.MainTable = "datasets"
	cfg.Store.Path = filepath.Join(t.TempDir(), "snapshots.db")
	return &RootOptions{Format: format, Config: cfg}
}

func TestSchemaSaveAndHistory(t *testing.T) {
	schemaPath := writeFixtureSchema(t, t.TempDir())
	opts := storeOptions(t, "text")

	out, err := execute(t, NewSchemaCommand(opts), "save", schemaPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Saved snapshot ")

	out, err = execute(t, NewSchemaCommand(opts), "save", schemaPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Schema unchanged")

	out, err = execute(t, NewSchemaCommand(opts), "history")
	require.NoError(t, err)
	assert.Contains(t, out, "SEQ")
	assert.Contains(t, out, "file:"+schemaPath)

	opts.Format = "json"
	out, err = execute(t, NewSchemaCommand(opts), "history")
	require.NoError(t, err)

	var resp struct {
		Data []HistoryEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, int64(1), resp.Data[0].Seq)
	assert.Equal(t, "file:"+schemaPath, resp.Data[0].Source)
}

func TestSchemaHistory_Empty(t *testing.T) {
	out, err := execute(t, NewSchemaCommand(storeOptions(t, "text")), "history")
	require.NoError(t, err)
	assert.Contains(t, out, "No snapshots stored for datasets.")
}

func TestTranslate_FromStore(t *testing.T) {
	schemaPath := writeFixtureSchema(t, t.TempDir())
	opts := storeOptions(t, "text")

	_, err := execute(t, NewSchemaCommand(opts), "save", schemaPath)
	require.NoError(t, err)

	out, err := execute(t, NewTranslateCommand(opts), "category=Physics")
	require.NoError(t, err)
	assert.Contains(t, out, "WHERE cat.name ILIKE $1")
}

func TestSchemaCommand_Errors(t *testing.T) {
	tests := []struct {
		name    string
		opts    *RootOptions
		args    []string
		wantErr string
	}{
		{"history without store", &RootOptions{Format: "text", Config: &config.Config{MainTable: "datasets"}}, []string{"history"}, "no snapshot store"},
		{"history without table", &RootOptions{Format: "text"}, []string{"history"}, "no main table"},
		{"save without store", &RootOptions{Format: "text"}, []string{"save", "schema.yaml"}, "no snapshot store"},
		{"discover without dsn", &RootOptions{Format: "text"}, []string{"discover"}, "no database"},
		{"discover save without store", &RootOptions{Format: "text"}, []string{"discover", "--dsn", "postgres://localhost/x", "--save"}, "--save requires store.path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, NewSchemaCommand(tt.opts), tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
