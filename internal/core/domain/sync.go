package domain

// SyncReport summarises one reconciliation run between the shelf and
// the search index.
type SyncReport struct {
	// Indexed lists books that were present on disk only and have been
	// added to the index.
	Indexed []Book

	// Deleted lists books that were present in the index only and have
	// been removed from it.
	Deleted []Book

	// Failed maps a book id to the error that prevented its indexing
	// or deletion. Failures of one book never abort the others.
	Failed map[string]error
}

// Clean reports whether the run performed zero index mutations and
// encountered no failures. A second run over an unchanged shelf must
// be Clean.
func (r SyncReport) Clean() bool {
	return len(r.Indexed) == 0 && len(r.Deleted) == 0 && len(r.Failed) == 0
}

// Mutations returns the number of books the run added to or removed
// from the index.
func (r SyncReport) Mutations() int {
	return len(r.Indexed) + len(r.Deleted)
}
