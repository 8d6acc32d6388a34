package domain

import (
	"encoding/base64"
	"strconv"
)

// Page holds the extracted text of one page of a book.
// Content is base64-encoded so arbitrary bytes survive the JSON
// transport to the search backend's attachment pipeline.
type Page struct {
	// BookID links the page to its owning book.
	BookID string `json:"bookId"`

	// Number is the 1-based page number within the book.
	Number int `json:"number"`

	// Content is the base64-encoded page text.
	Content string `json:"content"`

	// OCR marks the content as produced by optical recognition
	// rather than the embedded text layer.
	OCR bool `json:"ocr,omitempty"`
}

// NewPage builds a Page from plain extracted text.
func NewPage(bookID string, number int, text string, ocr bool) Page {
	return Page{
		BookID:  bookID,
		Number:  number,
		Content: base64.StdEncoding.EncodeToString([]byte(text)),
		OCR:     ocr,
	}
}

// Text decodes the page content back to plain text.
func (p Page) Text() (string, error) {
	raw, err := base64.StdEncoding.DecodeString(p.Content)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// DocID returns the page's document identifier in the search index,
// a composite of the owning book's id and the page number.
func (p Page) DocID() string {
	return p.BookID + ":" + strconv.Itoa(p.Number)
}
