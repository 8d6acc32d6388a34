package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bookworm-labs/bookshelf-cli/internal/core/domain"
	"github.com/bookworm-labs/bookshelf-cli/internal/core/ports/driven"
	"github.com/bookworm-labs/bookshelf-cli/internal/core/ports/driving"
	"github.com/bookworm-labs/bookshelf-cli/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// SearchService answers full-text queries with results grouped per
// book, resolving shelf metadata for every hit.
type SearchService struct {
	store driven.BookStore
	index driven.SearchIndex
}

// NewSearchService creates a new search service.
func NewSearchService(store driven.BookStore, index driven.SearchIndex) *SearchService {
	return &SearchService{
		store: store,
		index: index,
	}
}

// Search queries the page index and groups the hits by book, in
// first-seen hit order. An empty phrase returns an empty response
// without touching the backend. A hit whose book cannot be resolved
// on the shelf is dropped and logged as an index anomaly.
func (s *SearchService) Search(ctx context.Context, phrase string) (domain.SearchResponse, error) {
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		logger.Debug("Empty phrase, returning no results")
		return domain.SearchResponse{Results: []domain.BookResult{}}, nil
	}

	hits, err := s.index.SearchPages(ctx, phrase)
	if err != nil {
		return domain.SearchResponse{}, fmt.Errorf("search pages: %w", err)
	}

	var (
		order    []string
		grouped  = make(map[string]*domain.BookResult)
		orphaned = make(map[string]bool)
		total    int
	)

	for _, hit := range hits {
		if orphaned[hit.BookID] {
			continue
		}

		result, ok := grouped[hit.BookID]
		if !ok {
			book, err := s.store.GetByID(ctx, hit.BookID)
			if errors.Is(err, domain.ErrNotFound) {
				logger.Warn("Index refers to book %s that is not on the shelf, dropping its hits", hit.BookID)
				orphaned[hit.BookID] = true
				continue
			}
			if err != nil {
				return domain.SearchResponse{}, fmt.Errorf("resolve book %s: %w", hit.BookID, err)
			}

			result = &domain.BookResult{
				Book:       book,
				Highlights: make(map[int][]string),
			}
			grouped[hit.BookID] = result
			order = append(order, hit.BookID)
		}

		result.Pages = append(result.Pages, hit.Number)
		if len(hit.Highlights) > 0 {
			result.Highlights[hit.Number] = append(result.Highlights[hit.Number], hit.Highlights...)
		}
		total++
	}

	results := make([]domain.BookResult, 0, len(order))
	for _, id := range order {
		results = append(results, *grouped[id])
	}

	logger.Debug("Found %d page hits across %d books", total, len(results))
	return domain.SearchResponse{Results: results, Total: total}, nil
}
