// Package domain contains the core entities of the bookshelf:
// books, their extracted pages, search results and the error taxonomy.
// It has no dependencies on adapters or external services.
package domain
