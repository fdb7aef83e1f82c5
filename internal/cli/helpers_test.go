package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gclql/internal/schema"
	"github.com/roach88/gclql/internal/testutil"
)

// writeFixtureSchema saves the datasets fixture as a YAML snapshot.
func writeFixtureSchema(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "schema.yaml")
	require.NoError(t, schema.SaveFile(path, testutil.FixtureDiscovery()))
	return path
}

// execute runs cmd with args and returns stdout.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
