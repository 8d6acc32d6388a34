package elastic

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bookworm-labs/bookshelf-cli/internal/core/domain"
	"github.com/bookworm-labs/bookshelf-cli/internal/logger"
)

// analyzerName is the custom analysis chain applied to page content:
// standard tokenizer, lowercasing, Russian and English stemming, then
// stopword removal from the externally loaded list.
const analyzerName = "book_text"

// EnsureSchema idempotently creates both collections and the
// attachment ingestion pipeline. The backend must carry the
// ingest-attachment plugin; its absence is reported as
// domain.ErrPluginMissing before any collection is touched.
func (c *Client) EnsureSchema(ctx context.Context) error {
	if err := c.checkAttachmentPlugin(ctx); err != nil {
		return err
	}

	if err := c.ensureIndex(ctx, BooksIndex, booksIndexBody()); err != nil {
		return err
	}
	if err := c.ensureIndex(ctx, PagesIndex, c.pagesIndexBody()); err != nil {
		return err
	}
	return c.ensurePipeline(ctx)
}

// checkAttachmentPlugin verifies the ingestion plugin is installed.
func (c *Client) checkAttachmentPlugin(ctx context.Context) error {
	var plugins []struct {
		Name      string `json:"name"`
		Component string `json:"component"`
		Version   string `json:"version"`
	}
	if err := c.do(ctx, http.MethodGet, "/_cat/plugins?format=json", nil, &plugins); err != nil {
		return fmt.Errorf("list plugins: %w", err)
	}

	for _, p := range plugins {
		if p.Component == AttachmentPlugin {
			logger.Debug("Plugin %s %s present on node %s", p.Component, p.Version, p.Name)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", domain.ErrPluginMissing, AttachmentPlugin)
}

func (c *Client) ensureIndex(ctx context.Context, name string, body map[string]any) error {
	err := c.doRaw(ctx, http.MethodHead, "/"+name, "application/json", nil, nil, nil)
	if err == nil {
		logger.Info("Index %q already exists.", name)
		return nil
	}
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Status != http.StatusNotFound {
		return fmt.Errorf("check index %s: %w", name, err)
	}

	if err := c.do(ctx, http.MethodPut, "/"+name, body, nil); err != nil {
		return fmt.Errorf("create index %s: %w", name, err)
	}
	logger.Info("Index %q created.", name)
	return nil
}

func (c *Client) ensurePipeline(ctx context.Context) error {
	body := map[string]any{
		"description": "extract page text from base64 content",
		"processors": []map[string]any{
			{
				"attachment": map[string]any{
					"field":         "content",
					"target_field":  "attachment",
					"indexed_chars": -1,
				},
			},
		},
	}
	if err := c.do(ctx, http.MethodPut, "/_ingest/pipeline/"+PipelineName, body, nil); err != nil {
		return fmt.Errorf("register pipeline %s: %w", PipelineName, err)
	}
	logger.Debug("Ingestion pipeline %q registered.", PipelineName)
	return nil
}

func booksIndexBody() map[string]any {
	return map[string]any{
		"mappings": map[string]any{
			"properties": map[string]any{
				"id":   map[string]any{"type": "keyword"},
				"name": map[string]any{"type": "keyword"},
			},
		},
	}
}

func (c *Client) pagesIndexBody() map[string]any {
	return map[string]any{
		"settings": map[string]any{
			"analysis": map[string]any{
				"filter": map[string]any{
					"book_stop": map[string]any{
						"type":      "stop",
						"stopwords": c.stopwords,
					},
					"book_stemmer_ru": map[string]any{
						"type":     "stemmer",
						"language": "russian",
					},
					"book_stemmer_en": map[string]any{
						"type":     "stemmer",
						"language": "english",
					},
				},
				"analyzer": map[string]any{
					analyzerName: map[string]any{
						"type":      "custom",
						"tokenizer": "standard",
						"filter": []string{
							"lowercase",
							"book_stemmer_ru",
							"book_stemmer_en",
							"book_stop",
						},
					},
				},
			},
		},
		"mappings": map[string]any{
			"properties": map[string]any{
				"bookId": map[string]any{"type": "keyword"},
				"number": map[string]any{"type": "integer"},
				"ocr":    map[string]any{"type": "boolean"},
				// Base64 source the pipeline consumes.
				"content": map[string]any{"type": "text", "index": false},
				"attachment": map[string]any{
					"properties": map[string]any{
						"content": map[string]any{
							"type":     "text",
							"analyzer": analyzerName,
						},
					},
				},
			},
		},
	}
}
