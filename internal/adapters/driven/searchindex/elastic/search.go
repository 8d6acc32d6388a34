package elastic

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/bookworm-labs/bookshelf-cli/internal/core/domain"
	"github.com/bookworm-labs/bookshelf-cli/internal/logger"
)

// searchPageSize is the per-request batch size for paginated scans.
const searchPageSize = 500

// searchResponse is the subset of the backend's search answer the
// adapter reads.
type searchResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []searchHit `json:"hits"`
	} `json:"hits"`
}

type searchHit struct {
	ID        string              `json:"_id"`
	Score     float64             `json:"_score"`
	Source    json.RawMessage     `json:"_source"`
	Highlight map[string][]string `json:"highlight"`
	Sort      []any               `json:"sort"`
}

// SearchPages runs a full-text query over the analyzed page content
// and returns every hit with its highlighted fragments, ordered by
// book id. Pagination is exhausted via search_after; results are
// never silently truncated.
func (c *Client) SearchPages(ctx context.Context, phrase string) ([]domain.SearchHit, error) {
	logger.Debug("Searching: %q in index: %s", phrase, PagesIndex)

	body := map[string]any{
		"size": searchPageSize,
		"query": map[string]any{
			"match": map[string]any{
				"attachment.content": map[string]any{"query": phrase},
			},
		},
		"highlight": map[string]any{
			"fields": map[string]any{
				"attachment.content": map[string]any{},
			},
		},
		// bookId leads so callers can group hits per book in one pass.
		"sort": []any{
			map[string]any{"bookId": "asc"},
			map[string]any{"number": "asc"},
		},
	}

	var hits []domain.SearchHit
	err := c.scan(ctx, "/"+PagesIndex+"/_search", body, func(h searchHit) error {
		var src struct {
			BookID string `json:"bookId"`
			Number int    `json:"number"`
		}
		if err := json.Unmarshal(h.Source, &src); err != nil {
			return fmt.Errorf("decode page hit %s: %w", h.ID, err)
		}
		hits = append(hits, domain.SearchHit{
			BookID:     src.BookID,
			Number:     src.Number,
			Highlights: h.Highlight["attachment.content"],
			Score:      h.Score,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("search pages: %w", err)
	}

	logger.Debug("Search %q: %d page hits.", phrase, len(hits))
	return hits, nil
}

// GetAllBooks returns every book document in the index.
func (c *Client) GetAllBooks(ctx context.Context) ([]domain.Book, error) {
	body := map[string]any{
		"size":  searchPageSize,
		"query": map[string]any{"match_all": map[string]any{}},
		"sort":  []any{map[string]any{"id": "asc"}},
	}

	var books []domain.Book
	err := c.scan(ctx, "/"+BooksIndex+"/_search", body, func(h searchHit) error {
		var book domain.Book
		if err := json.Unmarshal(h.Source, &book); err != nil {
			return fmt.Errorf("decode book %s: %w", h.ID, err)
		}
		books = append(books, book)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("get all books: %w", err)
	}

	logger.Debug("Search all. Found %d book documents.", len(books))
	return books, nil
}

// GetAllPages returns every page document of one book.
func (c *Client) GetAllPages(ctx context.Context, bookID string) ([]domain.Page, error) {
	body := map[string]any{
		"size": searchPageSize,
		"query": map[string]any{
			"term": map[string]any{"bookId": bookID},
		},
		"sort": []any{map[string]any{"number": "asc"}},
	}

	var pages []domain.Page
	err := c.scan(ctx, "/"+PagesIndex+"/_search", body, func(h searchHit) error {
		var page domain.Page
		if err := json.Unmarshal(h.Source, &page); err != nil {
			return fmt.Errorf("decode page %s: %w", h.ID, err)
		}
		pages = append(pages, page)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("get pages of %s: %w", bookID, err)
	}
	return pages, nil
}

// scan repeats a sorted search with search_after until the backend
// has no more hits, feeding each hit to visit.
func (c *Client) scan(ctx context.Context, path string, body map[string]any, visit func(searchHit) error) error {
	for {
		var resp searchResponse
		if err := c.do(ctx, http.MethodPost, path, body, &resp); err != nil {
			return err
		}

		for _, hit := range resp.Hits.Hits {
			if err := visit(hit); err != nil {
				return err
			}
		}

		if len(resp.Hits.Hits) < searchPageSize {
			return nil
		}
		last := resp.Hits.Hits[len(resp.Hits.Hits)-1]
		if len(last.Sort) == 0 {
			// Backend did not echo sort values; nothing to resume from.
			return nil
		}
		body["search_after"] = last.Sort
	}
}
