package domain

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Book represents a single ingested PDF document.
// The ID is assigned once at ingestion time and never changes;
// the Name is derived from the source filename without its extension.
type Book struct {
	// ID is the unique identifier, a UUID string.
	ID string `json:"id"`

	// Name is the display name, unique within the shelf.
	Name string `json:"name"`
}

// NewBook creates a Book for the given source path with a freshly
// assigned UUID.
func NewBook(path string) Book {
	return Book{
		ID:   uuid.NewString(),
		Name: BookName(path),
	}
}

// BookName derives a book's display name from a file path.
func BookName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Key returns the identity used when reconciling the shelf against the
// search index. Name alone is insufficient: a deleted and re-imported
// book keeps its name but receives a new ID.
func (b Book) Key() BookKey {
	return BookKey{ID: b.ID, Name: b.Name}
}

// BookKey is the (id, name) equality key for set differences.
type BookKey struct {
	ID   string
	Name string
}
