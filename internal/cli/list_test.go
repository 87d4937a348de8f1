package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestList_ShowsLatestPerName(t *testing.T) {
	db := filepath.Join(t.TempDir(), "registry.db")

	_, err := executeCommand(t, "push", writeManifest(t, validAggregation), "--db", db)
	require.NoError(t, err)
	_, err = executeCommand(t, "push", writeManifest(t, `
name: promote
flavor: update
stages:
  - $set: {tier: gold}
`), "--db", db)
	require.NoError(t, err)

	out, err := executeCommand(t, "list", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "active-users")
	assert.Contains(t, out, "promote")
	assert.Contains(t, out, "update")
}

func TestList_JSONOutput(t *testing.T) {
	db := filepath.Join(t.TempDir(), "registry.db")

	_, err := executeCommand(t, "push", writeManifest(t, validAggregation), "--db", db)
	require.NoError(t, err)

	out, err := executeCommand(t, "--format", "json", "list", "--db", db)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	entries, ok := resp.Data.([]any)
	require.True(t, ok)
	require.Len(t, entries, 1)
	entry := entries[0].(map[string]any)
	assert.Equal(t, "active-users", entry["name"])
	assert.Equal(t, "aggregation", entry["flavor"])
}

func TestList_History(t *testing.T) {
	db := filepath.Join(t.TempDir(), "registry.db")

	_, err := executeCommand(t, "push", writeManifest(t, validAggregation), "--db", db)
	require.NoError(t, err)
	_, err = executeCommand(t, "push", writeManifest(t, `
name: active-users
flavor: aggregation
stages:
  - $match: {status: active}
  - $limit: 50
`), "--db", db)
	require.NoError(t, err)

	out, err := executeCommand(t, "--format", "json", "list", "--db", db, "--history", "active-users")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	entries, ok := resp.Data.([]any)
	require.True(t, ok)
	assert.Len(t, entries, 2)
}

func TestList_MissingDatabase(t *testing.T) {
	out, err := executeCommand(t, "list", "--db", filepath.Join(t.TempDir(), "none.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "registry database not found")
}
