// Package memory provides an in-memory BookStore used in tests.
package memory

import (
	"context"
	"sync"

	"github.com/bookworm-labs/bookshelf-cli/internal/core/domain"
	"github.com/bookworm-labs/bookshelf-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.BookStore = (*Store)(nil)

// Store is an in-memory implementation of driven.BookStore.
type Store struct {
	mu    sync.RWMutex
	books map[string]domain.Book // keyed by name
	paths map[string]string      // name -> pretend file path
}

// NewStore creates an empty in-memory book store.
func NewStore() *Store {
	return &Store{
		books: make(map[string]domain.Book),
		paths: make(map[string]string),
	}
}

// Seed inserts a book directly, bypassing Add semantics.
func (s *Store) Seed(book domain.Book, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.books[book.Name] = book
	s.paths[book.Name] = path
}

// Add records a book under the name derived from path.
func (s *Store) Add(_ context.Context, path string, id string) (domain.AddStatus, error) {
	name := domain.BookName(path)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.books[name]; exists {
		return domain.AlreadyExists, nil
	}
	s.books[name] = domain.Book{ID: id, Name: name}
	s.paths[name] = path
	return domain.Added, nil
}

// Delete removes a book by name.
func (s *Store) Delete(_ context.Context, name string) (domain.DeleteStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.books[name]; !exists {
		return domain.NotFound, nil
	}
	delete(s.books, name)
	delete(s.paths, name)
	return domain.Deleted, nil
}

// GetAll returns all stored books.
func (s *Store) GetAll(_ context.Context) ([]domain.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	books := make([]domain.Book, 0, len(s.books))
	for _, book := range s.books {
		books = append(books, book)
	}
	return books, nil
}

// GetByID finds a book by id.
func (s *Store) GetByID(_ context.Context, id string) (domain.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, book := range s.books {
		if book.ID == id {
			return book, nil
		}
	}
	return domain.Book{}, domain.ErrNotFound
}

// Exists reports whether a book with matching name and id is stored.
func (s *Store) Exists(_ context.Context, book domain.Book) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.books[book.Name]
	return ok && stored.ID == book.ID, nil
}

// Path returns the recorded path for a name.
func (s *Store) Path(name string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.paths[name]
}
