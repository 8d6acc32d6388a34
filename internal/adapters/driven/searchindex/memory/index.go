// Package memory provides an in-memory SearchIndex used in tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bookworm-labs/bookshelf-cli/internal/core/domain"
	"github.com/bookworm-labs/bookshelf-cli/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.SearchIndex = (*Index)(nil)

// Index is an in-memory implementation of driven.SearchIndex. It
// records call counts so tests can assert on backend traffic.
type Index struct {
	mu    sync.RWMutex
	books map[string]domain.Book   // by id
	pages map[string][]domain.Page // by book id

	// Calls counts every business operation by name.
	Calls map[string]int

	// FailBulkPagesFor simulates per-item bulk failures for the given
	// book ids.
	FailBulkPagesFor map[string]bool

	// PluginInstalled simulates the attachment plugin presence.
	PluginInstalled bool

	// Unavailable simulates an unreachable backend.
	Unavailable bool
}

// NewIndex creates an empty in-memory index with the plugin present.
func NewIndex() *Index {
	return &Index{
		books:            make(map[string]domain.Book),
		pages:            make(map[string][]domain.Page),
		Calls:            make(map[string]int),
		FailBulkPagesFor: make(map[string]bool),
		PluginInstalled:  true,
	}
}

func (i *Index) record(op string) error {
	i.Calls[op]++
	if i.Unavailable {
		return domain.ErrBackendUnavailable
	}
	return nil
}

// Ping checks simulated reachability.
func (i *Index) Ping(_ context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.record("Ping")
}

// WaitReady returns immediately unless the index is unavailable.
func (i *Index) WaitReady(_ context.Context, _ time.Duration) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.record("WaitReady")
}

// EnsureSchema checks the simulated plugin flag.
func (i *Index) EnsureSchema(_ context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if err := i.record("EnsureSchema"); err != nil {
		return err
	}
	if !i.PluginInstalled {
		return domain.ErrPluginMissing
	}
	return nil
}

// IndexBook upserts a book document.
func (i *Index) IndexBook(_ context.Context, book domain.Book) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if err := i.record("IndexBook"); err != nil {
		return err
	}
	i.books[book.ID] = book
	return nil
}

// IndexPage upserts a page document.
func (i *Index) IndexPage(_ context.Context, page domain.Page) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if err := i.record("IndexPage"); err != nil {
		return err
	}
	i.upsertPage(page)
	return nil
}

func (i *Index) upsertPage(page domain.Page) {
	pages := i.pages[page.BookID]
	for n, existing := range pages {
		if existing.Number == page.Number {
			pages[n] = page
			return
		}
	}
	i.pages[page.BookID] = append(pages, page)
}

// BulkIndexBooks upserts books in one batch.
func (i *Index) BulkIndexBooks(_ context.Context, books []domain.Book) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if err := i.record("BulkIndexBooks"); err != nil {
		return err
	}
	for _, book := range books {
		i.books[book.ID] = book
	}
	return nil
}

// BulkIndexPages upserts pages in one batch, honouring the simulated
// per-item failure set.
func (i *Index) BulkIndexPages(_ context.Context, pages []domain.Page) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if err := i.record("BulkIndexPages"); err != nil {
		return err
	}

	var failed []domain.BulkItemError
	for _, page := range pages {
		if i.FailBulkPagesFor[page.BookID] {
			failed = append(failed, domain.BulkItemError{
				DocID:  page.DocID(),
				Reason: "simulated failure",
			})
			continue
		}
		i.upsertPage(page)
	}
	if len(failed) > 0 {
		return &domain.BulkError{Items: failed}
	}
	return nil
}

// SearchPages matches decoded page text case-insensitively, ordering
// hits by book id as the adapter contract requires.
func (i *Index) SearchPages(_ context.Context, phrase string) ([]domain.SearchHit, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if err := i.record("SearchPages"); err != nil {
		return nil, err
	}

	needle := strings.ToLower(phrase)
	var hits []domain.SearchHit
	for bookID, pages := range i.pages {
		for _, page := range pages {
			text, err := page.Text()
			if err != nil {
				continue
			}
			if strings.Contains(strings.ToLower(text), needle) {
				hits = append(hits, domain.SearchHit{
					BookID:     bookID,
					Number:     page.Number,
					Highlights: []string{"<em>" + phrase + "</em>"},
					Score:      1,
				})
			}
		}
	}
	sort.Slice(hits, func(a, b int) bool {
		if hits[a].BookID != hits[b].BookID {
			return hits[a].BookID < hits[b].BookID
		}
		return hits[a].Number < hits[b].Number
	})
	return hits, nil
}

// GetAllBooks returns every book document.
func (i *Index) GetAllBooks(_ context.Context) ([]domain.Book, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if err := i.record("GetAllBooks"); err != nil {
		return nil, err
	}
	books := make([]domain.Book, 0, len(i.books))
	for _, book := range i.books {
		books = append(books, book)
	}
	return books, nil
}

// GetAllPages returns every page of one book.
func (i *Index) GetAllPages(_ context.Context, bookID string) ([]domain.Page, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if err := i.record("GetAllPages"); err != nil {
		return nil, err
	}
	pages := make([]domain.Page, len(i.pages[bookID]))
	copy(pages, i.pages[bookID])
	sort.Slice(pages, func(a, b int) bool { return pages[a].Number < pages[b].Number })
	return pages, nil
}

// DeleteBookWithPages removes a book document and its pages.
func (i *Index) DeleteBookWithPages(_ context.Context, book domain.Book) (domain.DeleteOutcome, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if err := i.record("DeleteBookWithPages"); err != nil {
		return domain.DeleteOutcome{}, err
	}
	delete(i.books, book.ID)
	delete(i.pages, book.ID)
	return domain.DeleteOutcome{BookDeleted: true, PagesDeleted: true}, nil
}

// Count returns the number of indexed books.
func (i *Index) Count(_ context.Context) (int, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if err := i.record("Count"); err != nil {
		return 0, err
	}
	return len(i.books), nil
}

// TotalCalls sums every recorded backend operation.
func (i *Index) TotalCalls() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	total := 0
	for _, n := range i.Calls {
		total += n
	}
	return total
}
