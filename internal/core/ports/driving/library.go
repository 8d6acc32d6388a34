package driving

import (
	"context"

	"github.com/bookworm-labs/bookshelf-cli/internal/core/domain"
	"github.com/bookworm-labs/bookshelf-cli/internal/core/ports/driven"
)

// AddResult is the per-file outcome of an ingestion.
type AddResult struct {
	// Book is the created book. Zero when Status is AlreadyExists.
	Book domain.Book

	// Status distinguishes a fresh add from a duplicate-name no-op.
	Status domain.AddStatus

	// Pages is the number of page records indexed for the book.
	Pages int
}

// LibraryService is the use-case surface for managing the collection.
type LibraryService interface {
	// AddBook ingests one PDF: extracts its pages, indexes them, then
	// indexes the book record and copies the file onto the shelf.
	// A duplicate name short-circuits to AlreadyExists.
	AddBook(ctx context.Context, path string, progress driven.ProgressFunc) (AddResult, error)

	// AddBooks ingests several PDFs sequentially, returning one result
	// per input path. A failing file does not abort the rest.
	AddBooks(ctx context.Context, paths []string, progress driven.ProgressFunc) ([]AddResult, error)

	// RemoveBook deletes the named book from the shelf and from the
	// search index.
	RemoveBook(ctx context.Context, name string) (domain.DeleteStatus, error)

	// ListBooks enumerates the shelf.
	ListBooks(ctx context.Context) ([]domain.Book, error)
}
