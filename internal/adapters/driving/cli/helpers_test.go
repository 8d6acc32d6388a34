package cli

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	bookmem "github.com/bookworm-labs/bookshelf-cli/internal/adapters/driven/bookstore/memory"
	configmem "github.com/bookworm-labs/bookshelf-cli/internal/adapters/driven/config/memory"
	indexmem "github.com/bookworm-labs/bookshelf-cli/internal/adapters/driven/searchindex/memory"
	"github.com/bookworm-labs/bookshelf-cli/internal/core/domain"
	"github.com/bookworm-labs/bookshelf-cli/internal/core/ports/driven"
	"github.com/bookworm-labs/bookshelf-cli/internal/core/services"
)

// fixedExtractor serves a fixed page of text per book.
type fixedExtractor struct {
	mu      sync.Mutex
	pages   int
	failFor map[string]error
}

func (f *fixedExtractor) ExtractPages(_ context.Context, path string, bookID string, progress driven.ProgressFunc) ([]domain.Page, error) {
	f.mu.Lock()
	err := f.failFor[path]
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}

	pages := make([]domain.Page, 0, f.pages)
	for n := 1; n <= f.pages; n++ {
		pages = append(pages, domain.NewPage(bookID, n, fmt.Sprintf("page %d of %s", n, path), false))
		if progress != nil {
			progress(float64(n) / float64(f.pages))
		}
	}
	return pages, nil
}

// testServices holds the fakes behind a wired command tree.
type testServices struct {
	store     *bookmem.Store
	index     *indexmem.Index
	extractor *fixedExtractor
}

// setupTestServices wires in-memory fakes and returns them with a
// cleanup restoring the unwired state.
func setupTestServices() (*testServices, func()) {
	ts := &testServices{
		store:     bookmem.NewStore(),
		index:     indexmem.NewIndex(),
		extractor: &fixedExtractor{pages: 2, failFor: make(map[string]error)},
	}

	config = configmem.NewConfigStore()
	bookStore = ts.store
	searchIndex = ts.index
	libraryService = services.NewLibraryService(ts.store, ts.index, ts.extractor)
	searchService = services.NewSearchService(ts.store, ts.index)
	synchronizer = services.NewSyncService(ts.store, ts.index, ts.extractor)
	wired = true

	return ts, func() {
		config = nil
		bookStore = nil
		searchIndex = nil
		libraryService = nil
		searchService = nil
		synchronizer = nil
		wired = false
	}
}

// execute runs the root command with args and captures its output.
func execute(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}
