package driven

import (
	"context"

	"github.com/bookworm-labs/bookshelf-cli/internal/core/domain"
)

// FileFingerprint identifies one version of a book file. A changed
// size or modification time invalidates cached extractions.
type FileFingerprint struct {
	Size    int64
	ModTime int64 // Unix seconds
}

// ExtractionCache stores extracted page text so re-synchronising an
// unchanged shelf does not redo text-layer parsing or OCR.
type ExtractionCache interface {
	// Get returns the cached pages for a book file version, or
	// (nil, false, nil) on a miss.
	Get(ctx context.Context, bookID string, fp FileFingerprint) ([]domain.Page, bool, error)

	// Put stores the pages for a book file version, replacing any
	// previous entry for the same book.
	Put(ctx context.Context, bookID string, fp FileFingerprint, pages []domain.Page) error

	// Invalidate drops all cached pages of a book.
	Invalidate(ctx context.Context, bookID string) error

	// Close releases the underlying storage.
	Close() error
}
