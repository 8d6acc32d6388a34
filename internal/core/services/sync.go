package services

import (
	"context"
	"fmt"

	"github.com/bookworm-labs/bookshelf-cli/internal/core/domain"
	"github.com/bookworm-labs/bookshelf-cli/internal/core/ports/driven"
	"github.com/bookworm-labs/bookshelf-cli/internal/core/ports/driving"
	"github.com/bookworm-labs/bookshelf-cli/internal/logger"
)

// Ensure SyncService implements the interface.
var _ driving.Synchronizer = (*SyncService)(nil)

// SyncService reconciles the search index with the shelf. The shelf is
// the source of truth: books found only on disk get indexed, books
// found only in the index get removed from it.
type SyncService struct {
	store     driven.BookStore
	index     driven.SearchIndex
	extractor driven.PageExtractor
}

// NewSyncService creates a new synchronizer.
func NewSyncService(
	store driven.BookStore,
	index driven.SearchIndex,
	extractor driven.PageExtractor,
) *SyncService {
	return &SyncService{
		store:     store,
		index:     index,
		extractor: extractor,
	}
}

// Synchronize runs one reconciliation pass. Books are compared by
// (id, name): a re-imported book keeps its name but carries a new id,
// which must surface as one deletion plus one indexing. Failures of
// one book are recorded and never abort the others, so a second run
// over an unchanged shelf performs zero index mutations.
func (s *SyncService) Synchronize(ctx context.Context) (domain.SyncReport, error) {
	logger.Section("Shelf Synchronisation")

	report := domain.SyncReport{Failed: make(map[string]error)}

	onDisk, err := s.store.GetAll(ctx)
	if err != nil {
		return report, fmt.Errorf("read shelf: %w", err)
	}
	inIndex, err := s.index.GetAllBooks(ctx)
	if err != nil {
		return report, fmt.Errorf("read index: %w", err)
	}

	toIndex := difference(onDisk, inIndex)
	toDelete := difference(inIndex, onDisk)
	logger.Debug("Shelf holds %d books, index holds %d: %d to index, %d to delete",
		len(onDisk), len(inIndex), len(toIndex), len(toDelete))

	for _, book := range toIndex {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := s.indexBook(ctx, book); err != nil {
			logger.Error("Failed to index %q: %v", book.Name, err)
			report.Failed[book.ID] = err
			continue
		}
		logger.Info("Indexed %q", book.Name)
		report.Indexed = append(report.Indexed, book)
	}

	for _, book := range toDelete {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		outcome, err := s.index.DeleteBookWithPages(ctx, book)
		if err != nil {
			logger.Error("Failed to delete %q from the index: %v", book.Name, err)
			report.Failed[book.ID] = err
			continue
		}
		if !outcome.Complete() {
			logger.Warn("Partial index deletion for %q (book: %v, pages: %v)",
				book.Name, outcome.BookDeleted, outcome.PagesDeleted)
			report.Failed[book.ID] = fmt.Errorf("partial deletion of %q, will retry next run", book.Name)
			continue
		}
		logger.Info("Deleted %q from the index", book.Name)
		report.Deleted = append(report.Deleted, book)
	}

	if report.Clean() {
		logger.Info("Shelf and index are in sync")
	}
	return report, nil
}

// indexBook extracts and indexes one book. Pages go in first; the book
// document is written last as the marker that the ingest completed.
func (s *SyncService) indexBook(ctx context.Context, book domain.Book) error {
	path := s.store.Path(book.Name)

	pages, err := s.extractor.ExtractPages(ctx, path, book.ID, nil)
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}

	if err := s.index.BulkIndexPages(ctx, pages); err != nil {
		return fmt.Errorf("index pages: %w", err)
	}
	if err := s.index.IndexBook(ctx, book); err != nil {
		return fmt.Errorf("index book: %w", err)
	}
	return nil
}

// difference returns the books of a absent from b, compared by
// (id, name).
func difference(a, b []domain.Book) []domain.Book {
	present := make(map[domain.BookKey]struct{}, len(b))
	for _, book := range b {
		present[book.Key()] = struct{}{}
	}

	var out []domain.Book
	for _, book := range a {
		if _, ok := present[book.Key()]; !ok {
			out = append(out, book)
		}
	}
	return out
}
