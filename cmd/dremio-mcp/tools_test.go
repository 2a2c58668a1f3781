// ABOUTME: Tests for the tools command: catalog listing and direct invocation.
// ABOUTME: Uses a config file fixture; no live Dremio needed.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFixture(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func runToolsCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newToolsCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

const baseConfig = `
dremio:
  uri: https://dremio.example.com
  pat: test-token
`

func TestToolsList(t *testing.T) {
	cfg := writeConfigFixture(t, baseConfig)

	out, _, err := runToolsCommand(t, "list", "-c", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "RunSqlQuery")
	assert.Contains(t, out, "GetFailedJobDetails")
	assert.NotContains(t, out, "RunPromQL", "prometheus tools must be hidden by default")
}

func TestToolsList_ModeFlag(t *testing.T) {
	cfg := writeConfigFixture(t, baseConfig)

	out, _, err := runToolsCommand(t, "list", "-c", cfg, "-m", "FOR_PROMETHEUS")
	require.NoError(t, err)
	assert.Contains(t, out, "RunPromQL")
	assert.NotContains(t, out, "RunSqlQuery", "self tools must be hidden under FOR_PROMETHEUS")
}

func TestToolsInvoke_DMLRejected(t *testing.T) {
	cfg := writeConfigFixture(t, baseConfig)

	_, errOut, err := runToolsCommand(t, "invoke", "-c", cfg, "-t", "RunSqlQuery",
		"sql=DROP TABLE users")
	require.Error(t, err, "expected invocation failure")
	assert.Contains(t, errOut, "mutation-not-allowed", "expected the category on stderr")
}

func TestToolsInvoke_ValidationFailurePrintsFields(t *testing.T) {
	cfg := writeConfigFixture(t, baseConfig)

	_, errOut, err := runToolsCommand(t, "invoke", "-c", cfg, "-t", "RunSqlQuery",
		"bogus=1")
	require.Error(t, err, "expected invocation failure")
	assert.Contains(t, errOut, "bogus", "every offending field must be printed")
	assert.Contains(t, errOut, "sql", "every offending field must be printed")
}

func TestToolsInvoke_UnknownTool(t *testing.T) {
	cfg := writeConfigFixture(t, baseConfig)

	_, _, err := runToolsCommand(t, "invoke", "-c", cfg, "-t", "NoSuchTool")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not visible")
}

func TestToolsInvoke_BadArgumentForm(t *testing.T) {
	cfg := writeConfigFixture(t, baseConfig)

	_, _, err := runToolsCommand(t, "invoke", "-c", cfg, "-t", "RunSqlQuery", "noequals")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name=value")
}
