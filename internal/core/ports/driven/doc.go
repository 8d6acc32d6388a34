// Package driven defines the secondary ports of the bookshelf core:
// interfaces the core calls out through, implemented by adapters
// (file shelf, search backend, extractors, caches, configuration).
package driven
