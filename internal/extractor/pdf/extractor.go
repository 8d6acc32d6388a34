// Package pdf extracts page text from PDF files, falling back to
// optical recognition for pages without a usable text layer.
package pdf

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sort"
	"strings"
	"sync"

	lpdf "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/unicode/norm"

	"github.com/bookworm-labs/bookshelf-cli/internal/core/domain"
	"github.com/bookworm-labs/bookshelf-cli/internal/core/ports/driven"
	"github.com/bookworm-labs/bookshelf-cli/internal/logger"
)

// DefaultDPI is the rasterization resolution for OCR input.
const DefaultDPI = 300

// Ensure Extractor implements the interface.
var _ driven.PageExtractor = (*Extractor)(nil)

// pageSource yields the text layer of individual pages of one open
// document.
type pageSource interface {
	PageText(number int) (string, error)
	Close() error
}

type openFunc func(path string) (pageSource, error)
type countFunc func(path string) (int, error)

// Extractor reads the embedded text layer of each page and routes
// empty pages through a rasterizer and an OCR engine when both are
// wired. Pages are processed by a bounded worker pool and reassembled
// in page order.
type Extractor struct {
	open    openFunc
	count   countFunc
	ocr     driven.OCREngine
	raster  driven.PageRasterizer
	cache   driven.ExtractionCache
	workers int
	dpi     int
}

// Option configures the Extractor.
type Option func(*Extractor)

// WithWorkers bounds the page worker pool.
func WithWorkers(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithOCR wires an OCR engine and the rasterizer feeding it.
func WithOCR(engine driven.OCREngine, rasterizer driven.PageRasterizer) Option {
	return func(e *Extractor) {
		e.ocr = engine
		e.raster = rasterizer
	}
}

// WithCache wires an extraction cache consulted before any parsing.
func WithCache(cache driven.ExtractionCache) Option {
	return func(e *Extractor) {
		e.cache = cache
	}
}

// WithDPI overrides the OCR rasterization resolution.
func WithDPI(dpi int) Option {
	return func(e *Extractor) {
		if dpi > 0 {
			e.dpi = dpi
		}
	}
}

// NewExtractor creates a page extractor.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		open:    openTextLayer,
		count:   countPages,
		workers: 4 * runtime.GOMAXPROCS(0),
		dpi:     DefaultDPI,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractPages extracts every page of the PDF at path. The returned
// slice is ordered by page number. Per-page failures accumulate into
// a *domain.ExtractionError returned after all pages were attempted;
// the successfully extracted pages are still returned alongside it.
func (e *Extractor) ExtractPages(ctx context.Context, path string, bookID string, progress driven.ProgressFunc) ([]domain.Page, error) {
	if progress == nil {
		progress = func(float64) {}
	}

	var (
		fp   driven.FileFingerprint
		fpOK bool
	)
	if e.cache != nil {
		if info, err := os.Stat(path); err == nil {
			fp = driven.FileFingerprint{Size: info.Size(), ModTime: info.ModTime().Unix()}
			fpOK = true
			if pages, hit, err := e.cache.Get(ctx, bookID, fp); err == nil && hit {
				logger.Debug("Serving %d cached pages for %s", len(pages), path)
				progress(1)
				return pages, nil
			}
		}
	}

	total, err := e.count(path)
	if err != nil {
		return nil, fmt.Errorf("count pages of %s: %w", path, err)
	}
	if total == 0 {
		progress(1)
		return []domain.Page{}, nil
	}

	src, err := e.open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer src.Close()

	var (
		mu       sync.Mutex
		pages    = make([]domain.Page, 0, total)
		failures []domain.PageError
		done     int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for number := 1; number <= total; number++ {
		// No new pages dispatch once the context is cancelled.
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			page, err := e.extractPage(gctx, src, path, bookID, number)

			mu.Lock()
			if err != nil {
				failures = append(failures, domain.PageError{Number: number, Err: err})
			} else {
				pages = append(pages, page)
			}
			done++
			fraction := float64(done) / float64(total)
			mu.Unlock()

			progress(fraction)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(pages, func(i, j int) bool { return pages[i].Number < pages[j].Number })

	if len(failures) > 0 {
		sort.Slice(failures, func(i, j int) bool { return failures[i].Number < failures[j].Number })
		return pages, &domain.ExtractionError{Path: path, Pages: failures}
	}

	if e.cache != nil && fpOK {
		if err := e.cache.Put(ctx, bookID, fp, pages); err != nil {
			logger.Warn("Failed to cache extraction of %s: %v", path, err)
		}
	}

	return pages, nil
}

// extractPage produces one page record, invoking OCR when the text
// layer is empty.
func (e *Extractor) extractPage(ctx context.Context, src pageSource, path, bookID string, number int) (domain.Page, error) {
	text, err := src.PageText(number)
	if err != nil {
		return domain.Page{}, err
	}

	text = strings.TrimSpace(norm.NFC.String(text))
	if text != "" {
		return domain.NewPage(bookID, number, text, false), nil
	}

	if e.ocr == nil || e.raster == nil {
		// No recognizer wired; an empty page stays empty.
		return domain.NewPage(bookID, number, "", false), nil
	}

	logger.Debug("Page %d of %s has no text layer, running OCR", number, path)

	png, err := e.raster.RenderPage(ctx, path, number, e.dpi)
	if err != nil {
		return domain.Page{}, fmt.Errorf("rasterize: %w", err)
	}

	recognized, err := e.ocr.Recognize(ctx, png)
	if err != nil {
		return domain.Page{}, fmt.Errorf("recognize: %w", err)
	}

	recognized = strings.TrimSpace(norm.NFC.String(recognized))
	return domain.NewPage(bookID, number, recognized, true), nil
}

// countPages reports the number of pages in the PDF at path. pdfcpu
// handles malformed cross-reference tables better than the text-layer
// reader, so it goes first.
func countPages(path string) (int, error) {
	if n, err := api.PageCountFile(path); err == nil {
		return n, nil
	}

	f, reader, err := lpdf.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	n := 0
	func() {
		defer func() { _ = recover() }()
		n = reader.NumPage()
	}()
	if n <= 0 {
		return 0, fmt.Errorf("%s: unable to determine page count", path)
	}
	return n, nil
}

// textLayerSource reads page text through the ledongthuc reader. The
// reader is not safe for concurrent page access, so reads serialize on
// a mutex; OCR of empty pages still runs in parallel outside it.
type textLayerSource struct {
	mu     sync.Mutex
	file   *os.File
	reader *lpdf.Reader
}

// openTextLayer opens the text layer of the PDF at path.
func openTextLayer(path string) (pageSource, error) {
	f, reader, err := lpdf.Open(path)
	if err != nil {
		return nil, err
	}
	return &textLayerSource{file: f, reader: reader}, nil
}

// PageText returns the text layer of one page. The underlying library
// panics on some malformed files, so calls are recovered into errors.
func (s *textLayerSource) PageText(number int) (text string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("text layer of page %d: %v", number, r)
		}
	}()

	page := s.reader.Page(number)
	if page.V.IsNull() {
		return "", nil
	}

	var b strings.Builder
	content := page.Content()
	for _, item := range content.Text {
		b.WriteString(item.S)
		b.WriteByte(' ')
	}
	return b.String(), nil
}

// Close releases the underlying file.
func (s *textLayerSource) Close() error {
	return s.file.Close()
}
