package driven

import (
	"context"
	"time"

	"github.com/bookworm-labs/bookshelf-cli/internal/core/domain"
)

// SearchIndex is the adapter contract over the external search
// backend. It owns the lifecycle of two logical collections, books and
// pages, and exposes typed operations against them.
type SearchIndex interface {
	// Ping checks backend reachability. It is distinct from business
	// queries and performs no index mutation.
	Ping(ctx context.Context) error

	// WaitReady polls the backend until it answers or the timeout
	// elapses, returning domain.ErrBackendUnavailable on expiry.
	WaitReady(ctx context.Context, timeout time.Duration) error

	// EnsureSchema idempotently creates both collections, the content
	// analyzer chain and the attachment ingestion pipeline. A missing
	// backend plugin is reported as domain.ErrPluginMissing.
	EnsureSchema(ctx context.Context) error

	// IndexBook upserts a single book document.
	IndexBook(ctx context.Context, book domain.Book) error

	// IndexPage upserts a single page document.
	IndexPage(ctx context.Context, page domain.Page) error

	// BulkIndexBooks upserts books in one batch. Item-level failures
	// are reported as *domain.BulkError, not a transport failure.
	BulkIndexBooks(ctx context.Context, books []domain.Book) error

	// BulkIndexPages upserts pages in one batch, with the same
	// per-item error contract as BulkIndexBooks.
	BulkIndexPages(ctx context.Context, pages []domain.Page) error

	// SearchPages runs a full-text query over page content and returns
	// hits with highlighted fragments, ordered by book id.
	SearchPages(ctx context.Context, phrase string) ([]domain.SearchHit, error)

	// GetAllBooks returns every book document. Backend pagination is
	// exhausted before returning; results are never truncated.
	GetAllBooks(ctx context.Context) ([]domain.Book, error)

	// GetAllPages returns every page document of one book, exhausting
	// pagination the same way.
	GetAllPages(ctx context.Context, bookID string) ([]domain.Page, error)

	// DeleteBookWithPages removes the book document and every page
	// with a matching bookId. The outcome keeps the two halves apart
	// so a partial deletion is distinguishable from a full one.
	DeleteBookWithPages(ctx context.Context, book domain.Book) (domain.DeleteOutcome, error)

	// Count returns the number of indexed book documents.
	Count(ctx context.Context) (int, error)
}
