package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/bookworm-labs/bookshelf-cli/internal/core/domain"
	"github.com/bookworm-labs/bookshelf-cli/internal/logger"
)

// IndexBook upserts a single book document keyed by the book id.
func (c *Client) IndexBook(ctx context.Context, book domain.Book) error {
	path := fmt.Sprintf("/%s/_doc/%s", BooksIndex, book.ID)
	if err := c.do(ctx, http.MethodPut, path, book, nil); err != nil {
		return fmt.Errorf("index book %s: %w", book.Name, err)
	}
	logger.Debug("Book %q indexed.", book.Name)
	return nil
}

// IndexPage upserts a single page document through the attachment
// pipeline.
func (c *Client) IndexPage(ctx context.Context, page domain.Page) error {
	path := fmt.Sprintf("/%s/_doc/%s?pipeline=%s", PagesIndex, page.DocID(), PipelineName)
	if err := c.do(ctx, http.MethodPut, path, page, nil); err != nil {
		return fmt.Errorf("index page %s: %w", page.DocID(), err)
	}
	return nil
}

// BulkIndexBooks upserts books in one batch request.
func (c *Client) BulkIndexBooks(ctx context.Context, books []domain.Book) error {
	if len(books) == 0 {
		return nil
	}

	var buf bytes.Buffer
	for _, book := range books {
		if err := writeBulkAction(&buf, BooksIndex, book.ID, book); err != nil {
			return err
		}
	}
	if err := c.bulk(ctx, "/_bulk", buf.Bytes()); err != nil {
		return fmt.Errorf("bulk index books: %w", err)
	}
	logger.Debug("Bulk indexing. All %d books indexed.", len(books))
	return nil
}

// BulkIndexPages upserts pages in one batch request routed through
// the attachment pipeline.
func (c *Client) BulkIndexPages(ctx context.Context, pages []domain.Page) error {
	if len(pages) == 0 {
		return nil
	}

	var buf bytes.Buffer
	for _, page := range pages {
		if err := writeBulkAction(&buf, PagesIndex, page.DocID(), page); err != nil {
			return err
		}
	}
	if err := c.bulk(ctx, "/_bulk?pipeline="+PipelineName, buf.Bytes()); err != nil {
		return fmt.Errorf("bulk index pages: %w", err)
	}
	logger.Debug("Bulk indexing. All %d pages indexed.", len(pages))
	return nil
}

// writeBulkAction appends one NDJSON action/document pair.
func writeBulkAction(buf *bytes.Buffer, index, id string, doc any) error {
	action := map[string]any{
		"index": map[string]any{"_index": index, "_id": id},
	}
	actionLine, err := json.Marshal(action)
	if err != nil {
		return fmt.Errorf("encode bulk action: %w", err)
	}
	docLine, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode bulk document: %w", err)
	}
	buf.Write(actionLine)
	buf.WriteByte('\n')
	buf.Write(docLine)
	buf.WriteByte('\n')
	return nil
}

// bulkResponse is the backend's per-item bulk answer.
type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		ID     string `json:"_id"`
		Status int    `json:"status"`
		Error  *struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	} `json:"items"`
}

// bulk sends an NDJSON payload and converts item-level failures into
// *domain.BulkError. A rejected document is not a transport failure:
// the caller decides whether to retry the failed subset.
func (c *Client) bulk(ctx context.Context, path string, payload []byte) error {
	var resp bulkResponse
	if err := c.doRaw(ctx, http.MethodPost, path, "application/x-ndjson", payload, &resp, nil); err != nil {
		return err
	}
	if !resp.Errors {
		return nil
	}

	var items []domain.BulkItemError
	for _, item := range resp.Items {
		for _, result := range item {
			if result.Error == nil {
				continue
			}
			items = append(items, domain.BulkItemError{
				DocID:  result.ID,
				Reason: result.Error.Type + ": " + result.Error.Reason,
			})
			logger.Debug("Failed to index document %s: %s", result.ID, result.Error.Reason)
		}
	}
	return &domain.BulkError{Items: items}
}

// DeleteBookWithPages removes the book document and every page with a
// matching bookId. The two halves are reported separately so a
// partial deletion is never presented as a full one.
func (c *Client) DeleteBookWithPages(ctx context.Context, book domain.Book) (domain.DeleteOutcome, error) {
	var outcome domain.DeleteOutcome
	var errs []error

	// An absent document leaves the desired end state, so 404 counts
	// as success for the book half.
	path := fmt.Sprintf("/%s/_doc/%s", BooksIndex, book.ID)
	err := c.doRaw(ctx, http.MethodDelete, path, "application/json", nil, nil,
		[]int{http.StatusNotFound})
	if err != nil {
		errs = append(errs, fmt.Errorf("delete book %s: %w", book.Name, err))
	} else {
		outcome.BookDeleted = true
	}

	var dbq struct {
		Deleted  int   `json:"deleted"`
		Failures []any `json:"failures"`
	}
	body := map[string]any{
		"query": map[string]any{
			"term": map[string]any{"bookId": book.ID},
		},
	}
	err = c.do(ctx, http.MethodPost, "/"+PagesIndex+"/_delete_by_query", body, &dbq)
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("delete pages of %s: %w", book.Name, err))
	case len(dbq.Failures) > 0:
		errs = append(errs, fmt.Errorf("delete pages of %s: %d failures", book.Name, len(dbq.Failures)))
	default:
		outcome.PagesDeleted = true
		logger.Debug("Deleted %d pages of book %q.", dbq.Deleted, book.Name)
	}

	return outcome, errors.Join(errs...)
}
