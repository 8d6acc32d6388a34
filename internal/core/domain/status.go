package domain

// AddStatus reports the outcome of adding a book to the shelf.
// Duplicate names are an expected no-op, not an error.
type AddStatus int

const (
	// Added means the book was copied onto the shelf.
	Added AddStatus = iota

	// AlreadyExists means a book with the same name was already present
	// and nothing was changed.
	AlreadyExists

	// AddFailed means the ingestion errored and nothing was shelved.
	AddFailed
)

// String implements fmt.Stringer.
func (s AddStatus) String() string {
	switch s {
	case Added:
		return "added"
	case AlreadyExists:
		return "already exists"
	case AddFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// DeleteStatus reports the outcome of removing a book from the shelf.
type DeleteStatus int

const (
	// Deleted means the book file and its sidecar were removed.
	Deleted DeleteStatus = iota

	// NotFound means no book with the given name was on the shelf.
	NotFound
)

// String implements fmt.Stringer.
func (s DeleteStatus) String() string {
	switch s {
	case Deleted:
		return "deleted"
	case NotFound:
		return "not found"
	default:
		return "unknown"
	}
}

// DeleteOutcome describes how much of a book-with-pages deletion from
// the search index succeeded. The legacy behaviour collapsed the two
// halves into one boolean; keeping them apart lets callers retry the
// half that failed.
type DeleteOutcome struct {
	// BookDeleted is true when the book document was removed.
	BookDeleted bool

	// PagesDeleted is true when the delete-by-query over the pages
	// collection reported success.
	PagesDeleted bool
}

// Complete reports whether both halves of the deletion succeeded.
func (o DeleteOutcome) Complete() bool {
	return o.BookDeleted && o.PagesDeleted
}

// Partial reports whether exactly one half of the deletion succeeded.
func (o DeleteOutcome) Partial() bool {
	return o.BookDeleted != o.PagesDeleted
}
