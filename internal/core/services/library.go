package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/bookworm-labs/bookshelf-cli/internal/core/domain"
	"github.com/bookworm-labs/bookshelf-cli/internal/core/ports/driven"
	"github.com/bookworm-labs/bookshelf-cli/internal/core/ports/driving"
	"github.com/bookworm-labs/bookshelf-cli/internal/logger"
)

// Ensure LibraryService implements the interface.
var _ driving.LibraryService = (*LibraryService)(nil)

// LibraryService manages the book collection: ingestion, removal and
// listing.
type LibraryService struct {
	store     driven.BookStore
	index     driven.SearchIndex
	extractor driven.PageExtractor
}

// NewLibraryService creates a new library service.
func NewLibraryService(
	store driven.BookStore,
	index driven.SearchIndex,
	extractor driven.PageExtractor,
) *LibraryService {
	return &LibraryService{
		store:     store,
		index:     index,
		extractor: extractor,
	}
}

// AddBook ingests one PDF. Pages are indexed before the book record:
// the book document only appears in the index once all of its pages
// do, so a crash mid-ingest leaves no book that looks complete.
func (l *LibraryService) AddBook(ctx context.Context, path string, progress driven.ProgressFunc) (driving.AddResult, error) {
	name := domain.BookName(path)

	shelved, err := l.store.GetAll(ctx)
	if err != nil {
		return driving.AddResult{}, fmt.Errorf("read shelf: %w", err)
	}
	for _, b := range shelved {
		if b.Name == name {
			logger.Info("Book %q is already on the shelf, skipping", name)
			return driving.AddResult{Status: domain.AlreadyExists}, nil
		}
	}

	book := domain.NewBook(path)

	pages, err := l.extractor.ExtractPages(ctx, path, book.ID, progress)
	if err != nil {
		return driving.AddResult{}, fmt.Errorf("extract %s: %w", path, err)
	}

	if err := l.index.BulkIndexPages(ctx, pages); err != nil {
		return driving.AddResult{}, fmt.Errorf("index pages of %q: %w", name, err)
	}
	if err := l.index.IndexBook(ctx, book); err != nil {
		return driving.AddResult{}, fmt.Errorf("index book %q: %w", name, err)
	}

	status, err := l.store.Add(ctx, path, book.ID)
	if err != nil {
		return driving.AddResult{}, fmt.Errorf("shelve %q: %w", name, err)
	}

	logger.Info("Added %q with %d pages", name, len(pages))
	return driving.AddResult{Book: book, Status: status, Pages: len(pages)}, nil
}

// AddBooks ingests several PDFs sequentially. A failing file is
// reported and does not abort the rest; the joined failures come back
// as the error alongside one result per input path.
func (l *LibraryService) AddBooks(ctx context.Context, paths []string, progress driven.ProgressFunc) ([]driving.AddResult, error) {
	results := make([]driving.AddResult, 0, len(paths))
	var errs []error

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		result, err := l.AddBook(ctx, path, progress)
		if err != nil {
			logger.Error("Failed to add %s: %v", path, err)
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
			result = driving.AddResult{Status: domain.AddFailed}
		}
		results = append(results, result)
	}

	return results, errors.Join(errs...)
}

// RemoveBook deletes the named book from the search index and then
// from the shelf.
func (l *LibraryService) RemoveBook(ctx context.Context, name string) (domain.DeleteStatus, error) {
	shelved, err := l.store.GetAll(ctx)
	if err != nil {
		return domain.NotFound, fmt.Errorf("read shelf: %w", err)
	}

	var book domain.Book
	found := false
	for _, b := range shelved {
		if b.Name == name {
			book = b
			found = true
			break
		}
	}
	if !found {
		return domain.NotFound, nil
	}

	outcome, err := l.index.DeleteBookWithPages(ctx, book)
	if err != nil {
		return domain.NotFound, fmt.Errorf("deindex %q: %w", name, err)
	}
	if outcome.Partial() {
		logger.Warn("Partial index deletion for %q (book: %v, pages: %v), next sync will retry",
			name, outcome.BookDeleted, outcome.PagesDeleted)
	}

	status, err := l.store.Delete(ctx, name)
	if err != nil {
		return status, fmt.Errorf("unshelve %q: %w", name, err)
	}

	logger.Info("Removed %q", name)
	return status, nil
}

// ListBooks enumerates the shelf.
func (l *LibraryService) ListBooks(ctx context.Context) ([]domain.Book, error) {
	return l.store.GetAll(ctx)
}
