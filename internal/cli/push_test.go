package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipewright/pipewright/internal/store"
)

func TestPush_StoresPipeline(t *testing.T) {
	path := writeManifest(t, validAggregation)
	db := filepath.Join(t.TempDir(), "registry.db")

	out, err := executeCommand(t, "push", path, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Pushed active-users (aggregation)")

	s, err := store.Open(db)
	require.NoError(t, err)
	defer s.Close()

	rec, err := s.Latest(context.Background(), "active-users")
	require.NoError(t, err)
	assert.Equal(t, `[{"$match":{"status":"active"}},{"$limit":10}]`, rec.Wire)
}

func TestPush_SecondPushIsNoop(t *testing.T) {
	path := writeManifest(t, validAggregation)
	db := filepath.Join(t.TempDir(), "registry.db")

	_, err := executeCommand(t, "push", path, "--db", db)
	require.NoError(t, err)

	out, err := executeCommand(t, "--format", "json", "push", path, "--db", db)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, false, data["inserted"])
}

func TestPush_RefusesInvalidPipeline(t *testing.T) {
	path := writeManifest(t, invalidUpdate)
	db := filepath.Join(t.TempDir(), "registry.db")

	out, err := executeCommand(t, "push", path, "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "refusing to push")
}

func TestPush_ForceSkipsValidation(t *testing.T) {
	path := writeManifest(t, invalidUpdate)
	db := filepath.Join(t.TempDir(), "registry.db")

	_, err := executeCommand(t, "push", path, "--db", db, "--force")
	require.NoError(t, err)

	s, err := store.Open(db)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Latest(context.Background(), "bad-update")
	require.NoError(t, err)
}

func TestPush_BadDatabasePath(t *testing.T) {
	path := writeManifest(t, validAggregation)

	out, err := executeCommand(t, "push", path, "--db", "/nonexistent/dir/registry.db")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "E006")
}
