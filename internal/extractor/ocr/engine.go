// Package ocr runs optical text recognition through external tools.
// The engine and the rasterizer are separate processes, so concurrent
// use spawns independent invocations.
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/bookworm-labs/bookshelf-cli/internal/core/ports/driven"
)

// DefaultLanguages is the recognition language set used when none is
// configured.
var DefaultLanguages = []string{"rus", "eng"}

// Ensure Engine implements the interface.
var _ driven.OCREngine = (*Engine)(nil)

// Engine recognizes page images with the tesseract command line tool.
type Engine struct {
	binary    string
	languages []string
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithBinary overrides the tesseract executable path.
func WithBinary(path string) EngineOption {
	return func(e *Engine) {
		if path != "" {
			e.binary = path
		}
	}
}

// NewEngine creates a tesseract-backed OCR engine for the given
// language set.
func NewEngine(languages []string, opts ...EngineOption) *Engine {
	if len(languages) == 0 {
		languages = DefaultLanguages
	}
	e := &Engine{
		binary:    "tesseract",
		languages: append([]string(nil), languages...),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Recognize feeds a PNG image to tesseract over stdin and returns the
// recognized text.
func (e *Engine) Recognize(ctx context.Context, png []byte) (string, error) {
	cmd := exec.CommandContext(ctx, e.binary, "stdin", "stdout", "-l", strings.Join(e.languages, "+"))
	cmd.Stdin = bytes.NewReader(png)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("tesseract: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	return stdout.String(), nil
}

// Languages reports the configured recognition languages.
func (e *Engine) Languages() []string {
	return append([]string(nil), e.languages...)
}
