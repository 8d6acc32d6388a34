package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/bookworm-labs/bookshelf-cli/internal/core/ports/driven"
)

// Ensure Rasterizer implements the interface.
var _ driven.PageRasterizer = (*Rasterizer)(nil)

// Rasterizer renders PDF pages to PNG with the pdftoppm command line
// tool. When pdftoppm cannot address a page inside a damaged file, the
// page is first cut out into a standalone single-page PDF with pdfcpu
// and rendered from there.
type Rasterizer struct {
	binary string
}

// RasterizerOption configures the Rasterizer.
type RasterizerOption func(*Rasterizer)

// WithRasterizerBinary overrides the pdftoppm executable path.
func WithRasterizerBinary(path string) RasterizerOption {
	return func(r *Rasterizer) {
		if path != "" {
			r.binary = path
		}
	}
}

// NewRasterizer creates a pdftoppm-backed page rasterizer.
func NewRasterizer(opts ...RasterizerOption) *Rasterizer {
	r := &Rasterizer{binary: "pdftoppm"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RenderPage renders one page of the PDF at pdfPath to an in-memory
// PNG at the requested resolution.
func (r *Rasterizer) RenderPage(ctx context.Context, pdfPath string, pageNum int, dpi int) ([]byte, error) {
	png, err := r.render(ctx, pdfPath, pageNum, dpi)
	if err == nil {
		return png, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	// Retry against a standalone copy of the page.
	trimmed, cleanup, trimErr := trimPage(pdfPath, pageNum)
	if trimErr != nil {
		return nil, fmt.Errorf("render page %d of %s: %w", pageNum, pdfPath, err)
	}
	defer cleanup()

	png, retryErr := r.render(ctx, trimmed, 1, dpi)
	if retryErr != nil {
		return nil, fmt.Errorf("render page %d of %s: %w", pageNum, pdfPath, retryErr)
	}
	return png, nil
}

// render runs pdftoppm for a single page, writing the PNG to a
// temporary directory.
func (r *Rasterizer) render(ctx context.Context, pdfPath string, pageNum int, dpi int) ([]byte, error) {
	tmpDir, err := os.MkdirTemp("", "bookshelf-ocr-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmpDir)

	page := strconv.Itoa(pageNum)
	prefix := filepath.Join(tmpDir, "page")

	cmd := exec.CommandContext(ctx, r.binary,
		"-png",
		"-r", strconv.Itoa(dpi),
		"-f", page,
		"-l", page,
		"-singlefile",
		pdfPath, prefix)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("pdftoppm: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	png, err := os.ReadFile(prefix + ".png")
	if err != nil {
		return nil, fmt.Errorf("pdftoppm produced no output: %w", err)
	}
	return png, nil
}

// trimPage writes pageNum of the PDF into a standalone temporary file
// and returns its path with a cleanup func.
func trimPage(pdfPath string, pageNum int) (string, func(), error) {
	tmpDir, err := os.MkdirTemp("", "bookshelf-trim-*")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { os.RemoveAll(tmpDir) }

	out := filepath.Join(tmpDir, "page.pdf")
	if err := api.TrimFile(pdfPath, out, []string{strconv.Itoa(pageNum)}, nil); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("trim page %d: %w", pageNum, err)
	}
	return out, cleanup, nil
}
