package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScenario writes content next to a copy of the test schema and
// returns the scenario path.
func writeScenario(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	schemaData, err := os.ReadFile(filepath.Join("testdata", "schema.yaml"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "schema.yaml"), schemaData, 0o644))

	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	path := writeScenario(t, `
name: test_scenario
description: "Test scenario for validation"
schema: schema.yaml
cases:
  - name: status
    query: status=active
    params: [active]
  - query: "tag:*"
    recovered: false
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "schema.yaml"), scenario.Schema)
	require.Len(t, scenario.Cases, 2)
	assert.Equal(t, []any{"active"}, scenario.Cases[0].Params)
	require.NotNil(t, scenario.Cases[1].Recovered)
	assert.False(t, *scenario.Cases[1].Recovered)
	assert.Equal(t, "status", scenario.Cases[0].Label(0))
	assert.Equal(t, "case 2", scenario.Cases[1].Label(1))
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownField(t *testing.T) {
	path := writeScenario(t, `
name: typo
schema: schema.yaml
cases:
  - query: status=active
    where_contain: [d.status]
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "where_contain")
}

func TestLoadScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing name",
			content: "schema: schema.yaml\ncases: [{query: a}]\n",
			wantErr: "name is required",
		},
		{
			name:    "missing schema",
			content: "name: x\ncases: [{query: a}]\n",
			wantErr: "schema is required",
		},
		{
			name:    "schema not found",
			content: "name: x\nschema: other.yaml\ncases: [{query: a}]\n",
			wantErr: "schema file not found",
		},
		{
			name:    "no cases",
			content: "name: x\nschema: schema.yaml\n",
			wantErr: "cases list is required",
		},
		{
			name:    "duplicate case names",
			content: "name: x\nschema: schema.yaml\ncases: [{name: a, query: a}, {name: a, query: b}]\n",
			wantErr: "duplicate name",
		},
		{
			name:    "unknown error type",
			content: "name: x\nschema: schema.yaml\ncases: [{query: a, error_type: boom}]\n",
			wantErr: "unknown error_type",
		},
		{
			name:    "error with plan expectations",
			content: "name: x\nschema: schema.yaml\ncases: [{query: a, error_type: invalid_field, where: TRUE}]\n",
			wantErr: "cannot be combined",
		},
		{
			name:    "threshold out of range",
			content: "name: x\nschema: schema.yaml\nsimilarity_threshold: 2\ncases: [{query: a}]\n",
			wantErr: "similarity_threshold",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
