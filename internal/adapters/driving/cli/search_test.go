package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookworm-labs/bookshelf-cli/internal/core/domain"
)

func TestSearchCmd_Use(t *testing.T) {
	assert.Equal(t, "search <phrase>", searchCmd.Use)
}

func TestSearchCmd_RequiresArgs(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute("search")
	require.Error(t, err)
}

func TestSearchCmd_PrintsGroupedResults(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	book := domain.Book{ID: "id-1", Name: "war-and-peace"}
	ts.store.Seed(book, "/shelf/war-and-peace.pdf")
	ctx := context.Background()
	require.NoError(t, ts.index.IndexPage(ctx, domain.NewPage(book.ID, 3, "the hedgehog and the fox", false)))
	require.NoError(t, ts.index.IndexPage(ctx, domain.NewPage(book.ID, 7, "a fox knows many things", false)))

	out, err := execute("search", "fox")
	require.NoError(t, err)

	assert.Contains(t, out, "war-and-peace: pages 3, 7")
	assert.Contains(t, out, "Found 2 matching page(s) in 1 book(s)")
}

func TestSearchCmd_MultiWordPhrase(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	book := domain.Book{ID: "id-1", Name: "faust"}
	ts.store.Seed(book, "/shelf/faust.pdf")
	require.NoError(t, ts.index.IndexPage(context.Background(),
		domain.NewPage(book.ID, 1, "verweile doch du bist so schoen", false)))

	out, err := execute("search", "verweile", "doch")
	require.NoError(t, err)
	assert.Contains(t, out, "faust")
}

func TestSearchCmd_NothingFound(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("search", "absent")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing found.")
}

func TestSearchCmd_JSONOutput(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	book := domain.Book{ID: "id-1", Name: "faust"}
	ts.store.Seed(book, "/shelf/faust.pdf")
	require.NoError(t, ts.index.IndexPage(context.Background(),
		domain.NewPage(book.ID, 1, "needle", false)))

	out, err := execute("search", "--json", "needle")
	require.NoError(t, err)
	assert.Contains(t, out, `"Total": 1`)
	assert.Contains(t, out, `"name": "faust"`)
}
