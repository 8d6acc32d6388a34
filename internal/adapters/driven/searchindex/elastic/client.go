// Package elastic adapts the external search backend over its HTTP
// API. The backend is an Elasticsearch-compatible document service;
// the adapter speaks plain JSON and owns the books and pages
// collections, their analysis configuration and the attachment
// ingestion pipeline.
package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/bookworm-labs/bookshelf-cli/internal/core/domain"
	"github.com/bookworm-labs/bookshelf-cli/internal/core/ports/driven"
	"github.com/bookworm-labs/bookshelf-cli/internal/logger"
)

// Ensure Client implements the interface.
var _ driven.SearchIndex = (*Client)(nil)

const (
	// BooksIndex is the collection of book documents.
	BooksIndex = "books"

	// PagesIndex is the collection of page documents.
	PagesIndex = "pages"

	// PipelineName is the attachment ingestion pipeline deriving plain
	// text from base64 page content.
	PipelineName = "book-pages"

	// AttachmentPlugin is the backend plugin the pipeline requires.
	AttachmentPlugin = "ingest-attachment"

	// DefaultTimeout is the HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// readyPollInterval is the delay between readiness probes.
	readyPollInterval = time.Second

	// requestRate throttles outgoing requests so bulk ingestion does
	// not overwhelm a small single-node backend.
	requestRate = 50

	// requestBurst is the throttle burst size.
	requestBurst = 10
)

// Client talks to the search backend. A single Client is shared by
// all services and is safe for concurrent use.
type Client struct {
	base      *url.URL
	httpc     *http.Client
	limiter   *rate.Limiter
	stopwords []string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Useful for
// tests.
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) { c.httpc = httpc }
}

// NewClient creates a search backend client for the given base URL.
// The stopword list feeds the page content analyzer created by
// EnsureSchema.
func NewClient(rawURL string, stopwords []string, opts ...Option) (*Client, error) {
	if rawURL == "" {
		rawURL = "http://localhost:9200"
	}
	base, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}

	c := &Client{
		base:      base,
		httpc:     &http.Client{Timeout: DefaultTimeout},
		limiter:   rate.NewLimiter(rate.Limit(requestRate), requestBurst),
		stopwords: stopwords,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// do sends one JSON request and decodes the JSON response into out
// (when out is non-nil). Transport-level failures map to
// domain.ErrBackendUnavailable; HTTP error statuses surface the
// backend's response body.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	return c.doRaw(ctx, method, path, "application/json", body, out, nil)
}

// doRaw is do with a custom content type and an optional status
// filter: statuses listed in accept are not treated as failures.
func (c *Client) doRaw(ctx context.Context, method, path, contentType string, body, out any, accept []int) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		reader = bytes.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	ref, err := url.Parse(path)
	if err != nil {
		return fmt.Errorf("parse request path: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base.ResolveReference(ref).String(), reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if reader != nil {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && !statusAccepted(resp.StatusCode, accept) {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &StatusError{
			Method: method,
			Path:   path,
			Status: resp.StatusCode,
			Body:   strings.TrimSpace(string(data)),
		}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func statusAccepted(status int, accept []int) bool {
	for _, s := range accept {
		if s == status {
			return true
		}
	}
	return false
}

// StatusError is a non-2xx answer from the backend.
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: backend returned %d: %s", e.Method, e.Path, e.Status, e.Body)
}

// Ping checks backend reachability with a bare root request. It never
// touches the collections.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.do(ctx, http.MethodGet, "/", nil, nil); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// WaitReady polls the backend until it answers or the timeout
// elapses. The backend may still be starting when the application
// launches; this is the only retry loop the adapter owns.
func (c *Client) WaitReady(ctx context.Context, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(readyPollInterval)
	defer ticker.Stop()

	for {
		if err := c.Ping(ctx); err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("backend not ready after %s: %w", timeout, domain.ErrBackendUnavailable)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Count returns the number of indexed book documents.
func (c *Client) Count(ctx context.Context) (int, error) {
	var resp struct {
		Count int `json:"count"`
	}
	if err := c.do(ctx, http.MethodGet, "/"+BooksIndex+"/_count", nil, &resp); err != nil {
		return 0, fmt.Errorf("count books: %w", err)
	}
	logger.Debug("Books count: %d", resp.Count)
	return resp.Count, nil
}
