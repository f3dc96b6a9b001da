package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/archaeologist/internal/core/domain"
	"github.com/custodia-labs/archaeologist/internal/scanner"
)

func TestWatchCmd_Flags(t *testing.T) {
	assert.Equal(t, "watch <path>", watchCmd.Use)
	flag := watchCmd.Flags().Lookup("debounce")
	require.NotNil(t, flag)
	assert.Equal(t, scanner.DefaultDebounce.String(), flag.DefValue)
}

func TestWatchCmd_InitialRunThenStop(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	root := t.TempDir()
	ts.ingest.events = []domain.Event{{Kind: domain.EventStored, Path: filepath.Join(root, "a.txt"), DocumentID: 1}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"watch", root, "--no-embed"})
	defer rootCmd.SetArgs(nil)
	defer rootCmd.SetContext(context.Background())

	err := rootCmd.ExecuteContext(ctx)

	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "Watching "+root+" for changes...")
	assert.Contains(t, out, "Stopped watching.")
	require.NotEmpty(t, ts.ingest.opts)
	assert.Equal(t, root, ts.ingest.opts[0].Root)
	assert.Empty(t, ts.ingest.opts[0].Paths)
	assert.True(t, ts.ingest.opts[0].SkipEmbedding)
	assert.Equal(t, []bool{false}, ts.withEmbedding)
}

func TestWatchCmd_MissingRoot(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, code, err := execute(t, "watch", filepath.Join(t.TempDir(), "missing"))

	require.Error(t, err)
	assert.Equal(t, ExitFatal, code)
}

func TestPrintWatchSummary_SkipsEmptyBatches(t *testing.T) {
	buf := new(bytes.Buffer)
	watchCmd.SetOut(buf)
	defer watchCmd.SetOut(nil)

	printWatchSummary(watchCmd, &domain.RunSummary{})
	assert.Empty(t, buf.String())

	printWatchSummary(watchCmd, &domain.RunSummary{Processed: 2, Failed: 1})
	assert.Contains(t, buf.String(), "2 processed, 0 skipped, 1 failed, 0 deferred")
}
