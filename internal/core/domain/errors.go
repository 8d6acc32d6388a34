package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested book or page does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates a book with the same name is already
	// on the shelf. Adds treat this as a logged no-op.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrBackendUnavailable indicates the search backend cannot be
	// reached. Callers must not proceed with partial operations.
	ErrBackendUnavailable = errors.New("search backend unavailable")

	// ErrPluginMissing indicates the search backend lacks a required
	// capability, such as the attachment ingestion plugin.
	ErrPluginMissing = errors.New("required backend plugin not installed")
)

// BulkItemError is the failure of a single document within a bulk
// request.
type BulkItemError struct {
	// DocID is the identifier of the document that failed.
	DocID string

	// Reason is the backend's explanation.
	Reason string
}

// Error implements the error interface.
func (e BulkItemError) Error() string {
	return fmt.Sprintf("document %s: %s", e.DocID, e.Reason)
}

// BulkError reports a partially failed bulk operation. The request
// itself succeeded; only the listed items were rejected. Callers may
// retry just the failed subset.
type BulkError struct {
	// Items are the per-document failures.
	Items []BulkItemError
}

// Error implements the error interface.
func (e *BulkError) Error() string {
	return fmt.Sprintf("bulk operation: %d of the submitted documents failed", len(e.Items))
}

// PageError is the failure of extracting a single page.
type PageError struct {
	// Number is the 1-based page number that failed.
	Number int

	// Err is the underlying extraction failure.
	Err error
}

// Error implements the error interface.
func (e PageError) Error() string {
	return fmt.Sprintf("page %d: %v", e.Number, e.Err)
}

// Unwrap returns the underlying error.
func (e PageError) Unwrap() error {
	return e.Err
}

// ExtractionError aggregates per-page extraction failures for one
// book. It is raised once after every page has been attempted, so a
// failing page never silently drops and never aborts its siblings.
type ExtractionError struct {
	// Path is the PDF file whose extraction failed.
	Path string

	// Pages are the individual page failures, ordered by page number.
	Pages []PageError
}

// Error implements the error interface.
func (e *ExtractionError) Error() string {
	nums := make([]string, len(e.Pages))
	for i, p := range e.Pages {
		nums[i] = fmt.Sprintf("%d", p.Number)
	}
	return fmt.Sprintf("extract %s: %d page(s) failed: %s",
		e.Path, len(e.Pages), strings.Join(nums, ", "))
}
