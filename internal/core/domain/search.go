package domain

// SearchHit is a single raw page hit from the search index.
type SearchHit struct {
	// BookID identifies the book the page belongs to.
	BookID string

	// Number is the matched page number.
	Number int

	// Highlights are the highlighted snippets of the matched content.
	Highlights []string

	// Score is the backend relevance score.
	Score float64
}

// BookResult groups the page hits of a single book for presentation.
type BookResult struct {
	// Book is the shelf metadata resolved for the hits.
	Book Book

	// Pages lists the matching page numbers in hit order.
	Pages []int

	// Highlights maps a page number to its highlighted snippets.
	Highlights map[int][]string
}

// SearchResponse is a complete, presentation-ready answer to a query.
type SearchResponse struct {
	// Results are grouped per book, in first-seen hit order.
	Results []BookResult

	// Total is the number of page instances found across all books.
	Total int
}
