package cli

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchCmd_Use(t *testing.T) {
	assert.Equal(t, "search [query]", searchCmd.Use)
	assert.Contains(t, searchCmd.Long, "FTS5")
}

func TestSearchCmd_RequiresExactlyOneArg(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, _, err := execute(t, "search")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestSearchCmd_Table(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, code, err := execute(t, "search", "roadmap")

	require.NoError(t, err)
	assert.Equal(t, ExitOK, code)
	assert.Contains(t, out, "[1] #1 notes.md (-1.25)")
	assert.Contains(t, out, "/archive/notes.md")
	assert.Contains(t, out, "Topic: roadmap")
	assert.Contains(t, out, "quarterly [roadmap] notes")
	assert.Equal(t, 20, ts.search.lastOpts.Limit)
	assert.False(t, ts.search.lastOpts.Raw)
}

func TestSearchCmd_Flags(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	_, _, err := execute(t, "search", `"exact phrase"`, "-n", "5", "--raw")

	require.NoError(t, err)
	assert.Equal(t, 5, ts.search.lastOpts.Limit)
	assert.True(t, ts.search.lastOpts.Raw)
}

func TestSearchCmd_JSONOutput(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, _, err := execute(t, "search", "roadmap", "--json")

	require.NoError(t, err)
	var results []searchResultJSON
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	assert.Equal(t, int64(1), results[0].ID)
	assert.Equal(t, "roadmap", results[0].Topic)
	assert.Equal(t, "en", results[0].Language)
}

func TestSearchCmd_NoResults(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.search.results = nil

	out, _, err := execute(t, "search", "nothing")

	require.NoError(t, err)
	assert.Contains(t, out, "No results found.")
}

func TestSearchCmd_ServiceError(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.search.err = errors.New("fts5: syntax error near \"AND\"")

	_, code, err := execute(t, "search", "AND")

	require.Error(t, err)
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, err.Error(), "search failed")
}

func TestSearchCmd_ServiceNotConfigured(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	searchService = nil

	_, _, err := execute(t, "search", "x")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "search service not configured")
}
