// Package file implements the shelf as a hidden directory of book
// files paired with JSON metadata sidecars.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bookworm-labs/bookshelf-cli/internal/core/domain"
	"github.com/bookworm-labs/bookshelf-cli/internal/core/ports/driven"
	"github.com/bookworm-labs/bookshelf-cli/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.BookStore = (*Store)(nil)

const (
	// ShelfDirName is the hidden directory holding the collection.
	ShelfDirName = ".bookshelf"

	// BookExt is the extension of primary book files.
	BookExt = ".pdf"

	// SidecarExt is the extension of metadata sidecar files.
	SidecarExt = ".json"
)

// Store is the on-disk book store. It is the sole authority for which
// books physically exist.
type Store struct {
	dir string

	// mu guards names; each name gets its own lock so concurrent
	// Add/Delete of the same book serialise while distinct books
	// proceed independently.
	mu    sync.Mutex
	names map[string]*sync.Mutex
}

// NewStore creates a store rooted at root. If root is empty the
// user's home directory is used. The shelf directory is created on
// first use and marked hidden where the platform supports it.
func NewStore(root string) (*Store, error) {
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		root = home
	}

	dir := filepath.Join(root, ShelfDirName)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating shelf directory: %w", err)
	}
	if err := markHidden(dir); err != nil {
		// Visibility is cosmetic; the shelf still works.
		logger.Warn("Could not mark %s hidden: %v", dir, err)
	}

	return &Store{
		dir:   dir,
		names: make(map[string]*sync.Mutex),
	}, nil
}

// Dir returns the shelf directory path.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the on-disk location of the named book's file.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name+BookExt)
}

func (s *Store) sidecarPath(name string) string {
	return filepath.Join(s.dir, name+SidecarExt)
}

// lockName returns the mutex serialising operations on one book name.
func (s *Store) lockName(name string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.names[name]
	if !ok {
		m = &sync.Mutex{}
		s.names[name] = m
	}
	return m
}

// Add copies the file at path onto the shelf and writes its sidecar.
// A book file with the same name already present is a logged no-op.
func (s *Store) Add(ctx context.Context, path string, id string) (domain.AddStatus, error) {
	if err := ctx.Err(); err != nil {
		return domain.AlreadyExists, err
	}

	name := domain.BookName(path)
	if name == "" {
		return domain.AlreadyExists, fmt.Errorf("add book: %w: empty name", domain.ErrInvalidInput)
	}

	lock := s.lockName(name)
	lock.Lock()
	defer lock.Unlock()

	dst := s.Path(name)
	if _, err := os.Stat(dst); err == nil {
		logger.Debug("The book to add already exists: %s", name)
		return domain.AlreadyExists, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return domain.AlreadyExists, fmt.Errorf("stat %s: %w", dst, err)
	}

	if err := copyFile(path, dst); err != nil {
		return domain.AlreadyExists, fmt.Errorf("copy book: %w", err)
	}
	if err := s.writeSidecar(name, id); err != nil {
		// Do not leave a half-added book behind.
		os.Remove(dst)
		return domain.AlreadyExists, fmt.Errorf("write sidecar: %w", err)
	}

	logger.Info("Book %q added to the shelf", name)
	return domain.Added, nil
}

func (s *Store) writeSidecar(name, id string) error {
	book := domain.Book{ID: id, Name: name}
	data, err := json.Marshal(book)
	if err != nil {
		return err
	}
	return os.WriteFile(s.sidecarPath(name), data, 0600)
}

// Delete removes the named book's file and sidecar. Both removals are
// attempted even when one target is missing; failures are surfaced.
func (s *Store) Delete(ctx context.Context, name string) (domain.DeleteStatus, error) {
	if err := ctx.Err(); err != nil {
		return domain.NotFound, err
	}
	if name == "" {
		return domain.NotFound, nil
	}

	lock := s.lockName(name)
	lock.Lock()
	defer lock.Unlock()

	primary := s.Path(name)
	sidecar := s.sidecarPath(name)

	_, primaryErr := os.Stat(primary)
	_, sidecarErr := os.Stat(sidecar)
	if errors.Is(primaryErr, os.ErrNotExist) && errors.Is(sidecarErr, os.ErrNotExist) {
		return domain.NotFound, nil
	}

	var errs []error
	for _, target := range []string{primary, sidecar} {
		if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, fmt.Errorf("remove %s: %w", target, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return domain.Deleted, err
	}

	logger.Info("Book %q removed from the shelf", name)
	return domain.Deleted, nil
}

// GetAll returns every book whose file and sidecar are both present.
// Unpaired files are inconsistencies, not failures.
func (s *Store) GetAll(ctx context.Context) ([]domain.Book, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading shelf directory: %w", err)
	}

	var books []domain.Book
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), BookExt) {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))

		book, err := s.readSidecar(name)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				logger.Warn("Book file %q has no sidecar, skipping", entry.Name())
			} else {
				logger.Warn("Sidecar for %q unreadable, skipping: %v", name, err)
			}
			continue
		}
		books = append(books, book)
	}
	return books, nil
}

func (s *Store) readSidecar(name string) (domain.Book, error) {
	data, err := os.ReadFile(s.sidecarPath(name))
	if err != nil {
		return domain.Book{}, err
	}
	var book domain.Book
	if err := json.Unmarshal(data, &book); err != nil {
		return domain.Book{}, fmt.Errorf("decode sidecar: %w", err)
	}
	return book, nil
}

// GetByID finds a book by its id.
func (s *Store) GetByID(ctx context.Context, id string) (domain.Book, error) {
	books, err := s.GetAll(ctx)
	if err != nil {
		return domain.Book{}, err
	}
	for _, book := range books {
		if book.ID == id {
			return book, nil
		}
	}
	return domain.Book{}, domain.ErrNotFound
}

// Exists reports whether the shelf holds a sidecar with matching id
// and a file with matching name.
func (s *Store) Exists(ctx context.Context, book domain.Book) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	if _, err := os.Stat(s.Path(book.Name)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}

	stored, err := s.readSidecar(book.Name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return stored.ID == book.ID, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0600)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}
