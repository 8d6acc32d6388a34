package cli

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookworm-labs/bookshelf-cli/internal/core/domain"
)

func TestAddCmd_RequiresArgs(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute("add")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg")
}

func TestAddCmd_AddsBooks(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("add", "/incoming/war-and-peace.pdf", "/incoming/the-idiot.pdf")
	require.NoError(t, err)

	assert.Contains(t, out, `Added "war-and-peace" (2 pages)`)
	assert.Contains(t, out, `Added "the-idiot" (2 pages)`)

	books, err := ts.store.GetAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, books, 2)
}

func TestAddCmd_PreparesSchemaBeforeIndexing(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute("add", "/incoming/war-and-peace.pdf")
	require.NoError(t, err)

	assert.Equal(t, 1, ts.index.Calls["EnsureSchema"])
	assert.Equal(t, 1, ts.index.Calls["BulkIndexPages"])
}

func TestAddCmd_MissingPluginStopsIngestion(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.index.PluginInstalled = false

	_, err := execute("add", "/incoming/war-and-peace.pdf")
	require.ErrorIs(t, err, domain.ErrPluginMissing)

	assert.Zero(t, ts.index.Calls["BulkIndexPages"])
	assert.Zero(t, ts.index.Calls["IndexBook"])
}

func TestAddCmd_ProgressRestartsPerFile(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("add", "/incoming/war-and-peace.pdf", "/incoming/the-idiot.pdf")
	require.NoError(t, err)

	// Both books walk the same 0..100% scale.
	assert.Equal(t, 2, strings.Count(out, "... 50%"))
	assert.Equal(t, 2, strings.Count(out, "... 100%"))
}

func TestAddCmd_SkipsDuplicates(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.store.Seed(domain.Book{ID: "id-1", Name: "war-and-peace"}, "/shelf/war-and-peace.pdf")

	out, err := execute("add", "/incoming/war-and-peace.pdf")
	require.NoError(t, err)
	assert.Contains(t, out, `Skipped "war-and-peace"`)
}

func TestAddCmd_ReportsFailures(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.extractor.failFor["/incoming/bad.pdf"] = errors.New("corrupt")

	out, err := execute("add", "/incoming/good.pdf", "/incoming/bad.pdf")
	require.Error(t, err)

	assert.Contains(t, out, `Added "good"`)
	assert.Contains(t, out, `Failed "bad"`)
	assert.Contains(t, err.Error(), "1 of 2 files added")
}
