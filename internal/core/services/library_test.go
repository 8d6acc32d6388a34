package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bookmem "github.com/bookworm-labs/bookshelf-cli/internal/adapters/driven/bookstore/memory"
	indexmem "github.com/bookworm-labs/bookshelf-cli/internal/adapters/driven/searchindex/memory"
	"github.com/bookworm-labs/bookshelf-cli/internal/core/domain"
	"github.com/bookworm-labs/bookshelf-cli/internal/core/ports/driven"
)

func TestAddBook_IngestsPagesAndBook(t *testing.T) {
	store := bookmem.NewStore()
	index := indexmem.NewIndex()
	lib := NewLibraryService(store, index, newFakeExtractor(3))

	var progressed bool
	result, err := lib.AddBook(context.Background(), "/incoming/anna-karenina.pdf", func(float64) { progressed = true })
	require.NoError(t, err)

	assert.Equal(t, domain.Added, result.Status)
	assert.Equal(t, "anna-karenina", result.Book.Name)
	assert.NotEmpty(t, result.Book.ID)
	assert.Equal(t, 3, result.Pages)
	assert.True(t, progressed)

	books, err := store.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, books, 1)

	pages, err := index.GetAllPages(context.Background(), result.Book.ID)
	require.NoError(t, err)
	assert.Len(t, pages, 3)

	indexed, err := index.GetAllBooks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.Book{result.Book}, indexed)
}

func TestAddBook_DuplicateNameIsNoOp(t *testing.T) {
	store := bookmem.NewStore()
	index := indexmem.NewIndex()
	store.Seed(domain.Book{ID: "id-1", Name: "anna-karenina"}, "/shelf/anna-karenina.pdf")

	ext := newFakeExtractor(3)
	lib := NewLibraryService(store, index, ext)

	result, err := lib.AddBook(context.Background(), "/incoming/anna-karenina.pdf", nil)
	require.NoError(t, err)

	assert.Equal(t, domain.AlreadyExists, result.Status)
	assert.Zero(t, result.Book)
	assert.Empty(t, ext.calls(), "a duplicate must not be extracted")
	assert.Zero(t, index.TotalCalls(), "a duplicate must not touch the backend")
}

func TestAddBook_ExtractionFailureLeavesNothingBehind(t *testing.T) {
	store := bookmem.NewStore()
	index := indexmem.NewIndex()

	ext := newFakeExtractor(1)
	ext.failFor["/incoming/broken.pdf"] = errors.New("corrupt file")

	lib := NewLibraryService(store, index, ext)

	_, err := lib.AddBook(context.Background(), "/incoming/broken.pdf", nil)
	require.ErrorContains(t, err, "corrupt file")

	books, err := store.GetAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, books)
	assert.Zero(t, index.Calls["IndexBook"])
	assert.Zero(t, index.Calls["BulkIndexPages"])
}

func TestAddBook_BulkFailureDoesNotShelve(t *testing.T) {
	store := bookmem.NewStore()
	index := indexmem.NewIndex()

	ext := newFakeExtractor(1)
	lib := NewLibraryService(store, index, &recordingExtractor{inner: ext, index: index})

	_, err := lib.AddBook(context.Background(), "/incoming/doomed.pdf", nil)

	var bulkErr *domain.BulkError
	require.ErrorAs(t, err, &bulkErr)

	books, berr := store.GetAll(context.Background())
	require.NoError(t, berr)
	assert.Empty(t, books, "a failed ingest must not put the file on the shelf")
	assert.Zero(t, index.Calls["IndexBook"])
}

// recordingExtractor arms the fake index to reject the bulk write of
// whichever book id the service generated.
type recordingExtractor struct {
	inner *fakeExtractor
	index *indexmem.Index
}

func (e *recordingExtractor) ExtractPages(ctx context.Context, path string, bookID string, progress driven.ProgressFunc) ([]domain.Page, error) {
	e.index.FailBulkPagesFor[bookID] = true
	return e.inner.ExtractPages(ctx, path, bookID, progress)
}

func TestAddBooks_FailingFileDoesNotAbortRest(t *testing.T) {
	store := bookmem.NewStore()
	index := indexmem.NewIndex()

	ext := newFakeExtractor(1)
	ext.failFor["/incoming/bad.pdf"] = errors.New("unreadable")

	lib := NewLibraryService(store, index, ext)

	paths := []string{"/incoming/good.pdf", "/incoming/bad.pdf", "/incoming/also-good.pdf"}
	results, err := lib.AddBooks(context.Background(), paths, nil)

	require.ErrorContains(t, err, "/incoming/bad.pdf")
	require.Len(t, results, 3)
	assert.Equal(t, domain.Added, results[0].Status)
	assert.Equal(t, domain.AddFailed, results[1].Status)
	assert.Equal(t, domain.Added, results[2].Status)

	books, berr := store.GetAll(context.Background())
	require.NoError(t, berr)
	assert.Len(t, books, 2)
}

func TestRemoveBook_DeletesFromIndexAndShelf(t *testing.T) {
	store := bookmem.NewStore()
	index := indexmem.NewIndex()

	book := domain.Book{ID: "id-1", Name: "obsolete"}
	store.Seed(book, "/shelf/obsolete.pdf")
	require.NoError(t, index.IndexBook(context.Background(), book))
	require.NoError(t, index.IndexPage(context.Background(), domain.NewPage(book.ID, 1, "x", false)))

	lib := NewLibraryService(store, index, newFakeExtractor(1))

	status, err := lib.RemoveBook(context.Background(), "obsolete")
	require.NoError(t, err)
	assert.Equal(t, domain.Deleted, status)

	books, err := store.GetAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, books)

	indexed, err := index.GetAllBooks(context.Background())
	require.NoError(t, err)
	assert.Empty(t, indexed)
}

func TestRemoveBook_UnknownName(t *testing.T) {
	index := indexmem.NewIndex()
	lib := NewLibraryService(bookmem.NewStore(), index, newFakeExtractor(1))

	status, err := lib.RemoveBook(context.Background(), "never-heard-of-it")
	require.NoError(t, err)
	assert.Equal(t, domain.NotFound, status)
	assert.Zero(t, index.Calls["DeleteBookWithPages"])
}

func TestListBooks(t *testing.T) {
	store := bookmem.NewStore()
	a := domain.Book{ID: "1", Name: "a"}
	b := domain.Book{ID: "2", Name: "b"}
	store.Seed(a, "/shelf/a.pdf")
	store.Seed(b, "/shelf/b.pdf")

	lib := NewLibraryService(store, indexmem.NewIndex(), newFakeExtractor(1))

	books, err := lib.ListBooks(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []domain.Book{a, b}, books)
}
