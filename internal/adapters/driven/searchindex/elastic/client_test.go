package elastic

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookworm-labs/bookshelf-cli/internal/core/domain"
)

// fakeBackend is a minimal scripted search backend.
type fakeBackend struct {
	t *testing.T

	// handlers maps "METHOD /path" to a response writer.
	handlers map[string]http.HandlerFunc

	// requests records every "METHOD /path" seen.
	requests []string
}

func newFakeBackend(t *testing.T) *fakeBackend {
	return &fakeBackend{t: t, handlers: map[string]http.HandlerFunc{}}
}

func (f *fakeBackend) handle(key string, h http.HandlerFunc) {
	f.handlers[key] = h
}

func (f *fakeBackend) handleJSON(key string, status int, body string) {
	f.handle(key, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	})
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + r.URL.Path
	f.requests = append(f.requests, key)
	if h, ok := f.handlers[key]; ok {
		h(w, r)
		return
	}
	// Default answers keep unscripted calls harmless.
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, "{}")
}

func (f *fakeBackend) count(key string) int {
	n := 0
	for _, req := range f.requests {
		if req == key {
			n++
		}
	}
	return n
}

func newTestClient(t *testing.T, backend *fakeBackend) *Client {
	t.Helper()
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	client, err := NewClient(srv.URL, []string{"and", "и"})
	require.NoError(t, err)
	return client
}

const pluginsInstalled = `[{"name":"node-1","component":"ingest-attachment","version":"8.11.0"}]`

func TestEnsureSchema_CreatesMissingIndices(t *testing.T) {
	backend := newFakeBackend(t)
	backend.handleJSON("GET /_cat/plugins", http.StatusOK, pluginsInstalled)
	backend.handleJSON("HEAD /books", http.StatusNotFound, "")
	backend.handleJSON("HEAD /pages", http.StatusNotFound, "")

	var pagesBody map[string]any
	backend.handle("PUT /pages", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&pagesBody))
		fmt.Fprint(w, `{"acknowledged":true}`)
	})

	client := newTestClient(t, backend)
	require.NoError(t, client.EnsureSchema(context.Background()))

	assert.Equal(t, 1, backend.count("PUT /books"))
	assert.Equal(t, 1, backend.count("PUT /pages"))
	assert.Equal(t, 1, backend.count("PUT /_ingest/pipeline/"+PipelineName))

	// The pages collection carries the custom analyzer with the
	// configured stopword list.
	payload, err := json.Marshal(pagesBody)
	require.NoError(t, err)
	assert.Contains(t, string(payload), analyzerName)
	assert.Contains(t, string(payload), `"и"`)
	assert.Contains(t, string(payload), "book_stemmer_ru")
}

func TestEnsureSchema_Idempotent(t *testing.T) {
	backend := newFakeBackend(t)
	backend.handleJSON("GET /_cat/plugins", http.StatusOK, pluginsInstalled)
	backend.handleJSON("HEAD /books", http.StatusOK, "")
	backend.handleJSON("HEAD /pages", http.StatusOK, "")

	client := newTestClient(t, backend)
	require.NoError(t, client.EnsureSchema(context.Background()))
	require.NoError(t, client.EnsureSchema(context.Background()))

	assert.Zero(t, backend.count("PUT /books"), "existing index is not recreated")
	assert.Zero(t, backend.count("PUT /pages"))
}

func TestEnsureSchema_PluginMissing(t *testing.T) {
	backend := newFakeBackend(t)
	backend.handleJSON("GET /_cat/plugins", http.StatusOK,
		`[{"name":"node-1","component":"analysis-icu","version":"8.11.0"}]`)

	client := newTestClient(t, backend)
	err := client.EnsureSchema(context.Background())
	assert.ErrorIs(t, err, domain.ErrPluginMissing)
	assert.Zero(t, backend.count("PUT /books"), "no collection is touched without the plugin")
}

func TestBulkIndexPages_PerItemErrors(t *testing.T) {
	backend := newFakeBackend(t)
	backend.handle("POST /_bulk", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/x-ndjson", r.Header.Get("Content-Type"))
		assert.Equal(t, PipelineName, r.URL.Query().Get("pipeline"))
		fmt.Fprint(w, `{
			"errors": true,
			"items": [
				{"index": {"_id": "b1:1", "status": 201}},
				{"index": {"_id": "b1:2", "status": 400,
					"error": {"type": "mapper_parsing_exception", "reason": "bad field"}}},
				{"index": {"_id": "b1:3", "status": 201}}
			]
		}`)
	})

	client := newTestClient(t, backend)
	pages := []domain.Page{
		domain.NewPage("b1", 1, "one", false),
		domain.NewPage("b1", 2, "two", false),
		domain.NewPage("b1", 3, "three", false),
	}
	err := client.BulkIndexPages(context.Background(), pages)

	var bulkErr *domain.BulkError
	require.ErrorAs(t, err, &bulkErr)
	require.Len(t, bulkErr.Items, 1, "only the rejected document is reported")
	assert.Equal(t, "b1:2", bulkErr.Items[0].DocID)
	assert.Contains(t, bulkErr.Items[0].Reason, "mapper_parsing_exception")
}

func TestBulkIndexBooks_AllAccepted(t *testing.T) {
	backend := newFakeBackend(t)
	backend.handle("POST /_bulk", func(w http.ResponseWriter, r *http.Request) {
		payload, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		// Two action lines plus two document lines.
		assert.Len(t, strings.Split(strings.TrimSpace(string(payload)), "\n"), 4)
		fmt.Fprint(w, `{"errors": false, "items": []}`)
	})

	client := newTestClient(t, backend)
	err := client.BulkIndexBooks(context.Background(), []domain.Book{
		{ID: "id-1", Name: "A"},
		{ID: "id-2", Name: "B"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, backend.count("POST /_bulk"))
}

func TestSearchPages_ParsesHitsAndHighlights(t *testing.T) {
	backend := newFakeBackend(t)
	backend.handleJSON("POST /pages/_search", http.StatusOK, `{
		"hits": {"total": {"value": 2}, "hits": [
			{"_id": "a:2", "_score": 1.7,
			 "_source": {"bookId": "book-a", "number": 2},
			 "highlight": {"attachment.content": ["the <em>quarterly</em> report"]},
			 "sort": ["book-a", 2]},
			{"_id": "b:1", "_score": 0.9,
			 "_source": {"bookId": "book-b", "number": 1},
			 "highlight": {"attachment.content": ["<em>quarterly</em> numbers"]},
			 "sort": ["book-b", 1]}
		]}
	}`)

	client := newTestClient(t, backend)
	hits, err := client.SearchPages(context.Background(), "quarterly")
	require.NoError(t, err)

	require.Len(t, hits, 2)
	assert.Equal(t, "book-a", hits[0].BookID)
	assert.Equal(t, 2, hits[0].Number)
	assert.Equal(t, []string{"the <em>quarterly</em> report"}, hits[0].Highlights)
	assert.Equal(t, "book-b", hits[1].BookID)
}

func TestGetAllBooks_ExhaustsPagination(t *testing.T) {
	backend := newFakeBackend(t)

	page := 0
	backend.handle("POST /books/_search", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")
		if page == 0 {
			// A full first page means the scan must continue.
			assert.NotContains(t, body, "search_after")
			hits := make([]string, searchPageSize)
			for i := range hits {
				hits[i] = fmt.Sprintf(
					`{"_id":"%d","_source":{"id":"id-%d","name":"Book %d"},"sort":["id-%d"]}`,
					i, i, i, i)
			}
			fmt.Fprintf(w, `{"hits":{"total":{"value":%d},"hits":[%s]}}`,
				searchPageSize+1, strings.Join(hits, ","))
		} else {
			assert.Contains(t, body, "search_after", "second request resumes after the last sort key")
			fmt.Fprint(w, `{"hits":{"total":{"value":501},"hits":[
				{"_id":"last","_source":{"id":"id-last","name":"Last"},"sort":["id-last"]}
			]}}`)
		}
		page++
	})

	client := newTestClient(t, backend)
	books, err := client.GetAllBooks(context.Background())
	require.NoError(t, err)

	assert.Len(t, books, searchPageSize+1, "no silent truncation")
	assert.Equal(t, 2, backend.count("POST /books/_search"))
	assert.Equal(t, "Last", books[len(books)-1].Name)
}

func TestDeleteBookWithPages_FullSuccess(t *testing.T) {
	backend := newFakeBackend(t)
	backend.handleJSON("DELETE /books/_doc/id-1", http.StatusOK, `{"result":"deleted"}`)
	backend.handleJSON("POST /pages/_delete_by_query", http.StatusOK, `{"deleted": 12, "failures": []}`)

	client := newTestClient(t, backend)
	outcome, err := client.DeleteBookWithPages(context.Background(), domain.Book{ID: "id-1", Name: "A"})
	require.NoError(t, err)
	assert.True(t, outcome.Complete())
}

func TestDeleteBookWithPages_PartialFailureIsDistinguishable(t *testing.T) {
	backend := newFakeBackend(t)
	backend.handleJSON("DELETE /books/_doc/id-1", http.StatusOK, `{"result":"deleted"}`)
	backend.handleJSON("POST /pages/_delete_by_query", http.StatusOK,
		`{"deleted": 3, "failures": [{"id": "id-1:4"}]}`)

	client := newTestClient(t, backend)
	outcome, err := client.DeleteBookWithPages(context.Background(), domain.Book{ID: "id-1", Name: "A"})

	require.Error(t, err, "a half-done deletion is not success")
	assert.True(t, outcome.BookDeleted)
	assert.False(t, outcome.PagesDeleted)
	assert.True(t, outcome.Partial())
}

func TestDeleteBookWithPages_MissingBookIsSuccess(t *testing.T) {
	backend := newFakeBackend(t)
	backend.handleJSON("DELETE /books/_doc/id-1", http.StatusNotFound, `{"result":"not_found"}`)
	backend.handleJSON("POST /pages/_delete_by_query", http.StatusOK, `{"deleted": 0, "failures": []}`)

	client := newTestClient(t, backend)
	outcome, err := client.DeleteBookWithPages(context.Background(), domain.Book{ID: "id-1", Name: "A"})
	require.NoError(t, err)
	assert.True(t, outcome.Complete(), "absent documents already satisfy the deletion")
}

func TestPing_MapsTransportErrors(t *testing.T) {
	backend := newFakeBackend(t)
	srv := httptest.NewServer(backend)
	client, err := NewClient(srv.URL, nil)
	require.NoError(t, err)
	srv.Close()

	err = client.Ping(context.Background())
	assert.ErrorIs(t, err, domain.ErrBackendUnavailable)
}

func TestWaitReady_TimesOut(t *testing.T) {
	backend := newFakeBackend(t)
	srv := httptest.NewServer(backend)
	client, err := NewClient(srv.URL, nil)
	require.NoError(t, err)
	srv.Close()

	start := time.Now()
	err = client.WaitReady(context.Background(), 50*time.Millisecond)
	assert.ErrorIs(t, err, domain.ErrBackendUnavailable)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestCount(t *testing.T) {
	backend := newFakeBackend(t)
	backend.handleJSON("GET /books/_count", http.StatusOK, `{"count": 7}`)

	client := newTestClient(t, backend)
	n, err := client.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, n)
}
