package driving

import (
	"context"

	"github.com/bookworm-labs/bookshelf-cli/internal/core/domain"
)

// SearchService translates a user phrase into a presentation-ready
// result set grouped by book.
type SearchService interface {
	// Search queries the page index and groups hits per book. An empty
	// phrase short-circuits to an empty response without touching the
	// backend.
	Search(ctx context.Context, phrase string) (domain.SearchResponse, error)
}
