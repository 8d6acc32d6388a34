package driven

import (
	"context"

	"github.com/bookworm-labs/bookshelf-cli/internal/core/domain"
)

// ProgressFunc receives the fraction of pages processed so far, in
// [0,1]. It doubles as the cooperative cancellation checkpoint for
// long ingestions and must be safe to call from multiple goroutines.
type ProgressFunc func(fraction float64)

// PageExtractor produces the page records of a PDF file.
// Pages within one book may be extracted in parallel; the returned
// slice is always ordered by page number regardless of completion
// order. Per-page failures accumulate into *domain.ExtractionError,
// returned after every page was attempted.
type PageExtractor interface {
	ExtractPages(ctx context.Context, path string, bookID string, progress ProgressFunc) ([]domain.Page, error)
}

// OCREngine recognises text in a rendered page image. Implementations
// are external engines; a single call may be expensive but must be
// safe for concurrent use.
type OCREngine interface {
	// Recognize returns the text detected in a PNG image.
	Recognize(ctx context.Context, png []byte) (string, error)

	// Languages reports the language set the engine is configured for.
	Languages() []string
}

// PageRasterizer renders a single PDF page to an in-memory PNG at the
// requested resolution, for feeding into OCR.
type PageRasterizer interface {
	RenderPage(ctx context.Context, pdfPath string, pageNum int, dpi int) ([]byte, error)
}
