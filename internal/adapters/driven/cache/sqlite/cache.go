// Package sqlite caches extracted page text so re-synchronising an
// unchanged shelf never repeats text-layer parsing or OCR.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/bookworm-labs/bookshelf-cli/internal/core/domain"
	"github.com/bookworm-labs/bookshelf-cli/internal/core/ports/driven"
)

// Ensure Cache implements the interface.
var _ driven.ExtractionCache = (*Cache)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS extractions (
	book_id  TEXT    NOT NULL,
	size     INTEGER NOT NULL,
	mod_time INTEGER NOT NULL,
	number   INTEGER NOT NULL,
	content  TEXT    NOT NULL,
	ocr      INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (book_id, number)
);
CREATE INDEX IF NOT EXISTS idx_extractions_fp
	ON extractions (book_id, size, mod_time);
`

// Cache is a SQLite-backed implementation of driven.ExtractionCache.
type Cache struct {
	db   *sql.DB
	path string
}

// NewCache opens (or creates) the cache database under dataDir.
// If dataDir is empty, defaults to ~/.bookshelf/cache.
func NewCache(dataDir string) (*Cache, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".bookshelf", "cache")
	}
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "extractions.db")
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialising cache schema: %w", err)
	}

	return &Cache{db: db, path: dbPath}, nil
}

// Close closes the database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Path returns the database file path.
func (c *Cache) Path() string {
	return c.path
}

// Get returns the cached pages for one book file version. A changed
// size or modification time is a miss.
func (c *Cache) Get(ctx context.Context, bookID string, fp driven.FileFingerprint) ([]domain.Page, bool, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT number, content, ocr
		FROM extractions
		WHERE book_id = ? AND size = ? AND mod_time = ?
		ORDER BY number`,
		bookID, fp.Size, fp.ModTime)
	if err != nil {
		return nil, false, fmt.Errorf("query extraction cache: %w", err)
	}
	defer rows.Close()

	var pages []domain.Page
	for rows.Next() {
		page := domain.Page{BookID: bookID}
		var ocr int
		if err := rows.Scan(&page.Number, &page.Content, &ocr); err != nil {
			return nil, false, fmt.Errorf("scan cached page: %w", err)
		}
		page.OCR = ocr != 0
		pages = append(pages, page)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("read extraction cache: %w", err)
	}
	if len(pages) == 0 {
		return nil, false, nil
	}
	return pages, true, nil
}

// Put stores the pages of one book file version, replacing any
// previous entry for the same book.
func (c *Cache) Put(ctx context.Context, bookID string, fp driven.FileFingerprint, pages []domain.Page) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin cache transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM extractions WHERE book_id = ?`, bookID); err != nil {
		return fmt.Errorf("clear stale cache entries: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO extractions (book_id, size, mod_time, number, content, ocr)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare cache insert: %w", err)
	}
	defer stmt.Close()

	for _, page := range pages {
		ocr := 0
		if page.OCR {
			ocr = 1
		}
		if _, err := stmt.ExecContext(ctx,
			bookID, fp.Size, fp.ModTime, page.Number, page.Content, ocr); err != nil {
			return fmt.Errorf("cache page %d: %w", page.Number, err)
		}
	}
	return tx.Commit()
}

// Invalidate drops all cached pages of a book.
func (c *Cache) Invalidate(ctx context.Context, bookID string) error {
	if _, err := c.db.ExecContext(ctx,
		`DELETE FROM extractions WHERE book_id = ?`, bookID); err != nil {
		return fmt.Errorf("invalidate cache for %s: %w", bookID, err)
	}
	return nil
}

// FingerprintFile builds the cache key component for a file on disk.
func FingerprintFile(path string) (driven.FileFingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return driven.FileFingerprint{}, domain.ErrNotFound
		}
		return driven.FileFingerprint{}, err
	}
	return driven.FileFingerprint{
		Size:    info.Size(),
		ModTime: info.ModTime().Unix(),
	}, nil
}
