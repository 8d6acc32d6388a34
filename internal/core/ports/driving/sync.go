package driving

import (
	"context"

	"github.com/bookworm-labs/bookshelf-cli/internal/core/domain"
)

// Synchronizer reconciles the search index with the shelf: books only
// on disk are extracted and indexed, books only in the index are
// deleted. Running it twice over an unchanged shelf performs zero
// index mutations.
type Synchronizer interface {
	Synchronize(ctx context.Context) (domain.SyncReport, error)
}
