package driven

import (
	"context"

	"github.com/bookworm-labs/bookshelf-cli/internal/core/domain"
)

// BookStore is the sole authority for which books physically exist.
// Implementations own a dedicated shelf directory holding the book
// files and one JSON metadata sidecar per book.
type BookStore interface {
	// Add copies the file at path onto the shelf and writes the
	// sidecar for the given book id. A book with the same name already
	// present is a logged no-op reported as domain.AlreadyExists.
	Add(ctx context.Context, path string, id string) (domain.AddStatus, error)

	// Delete removes the named book's file and sidecar. Both removals
	// are attempted even if one target is missing; a removal failure
	// is surfaced, never swallowed.
	Delete(ctx context.Context, name string) (domain.DeleteStatus, error)

	// GetAll returns every book whose file and sidecar are both
	// present. Unpaired files are skipped as inconsistencies.
	GetAll(ctx context.Context) ([]domain.Book, error)

	// GetByID finds a book by its id. Absence is reported as
	// domain.ErrNotFound, not an empty struct.
	GetByID(ctx context.Context, id string) (domain.Book, error)

	// Exists reports whether the shelf holds a sidecar with matching
	// id and a file with matching name.
	Exists(ctx context.Context, book domain.Book) (bool, error)

	// Path returns the on-disk location of the named book's file.
	Path(name string) string
}
