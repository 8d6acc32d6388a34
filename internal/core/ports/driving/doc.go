// Package driving defines the primary ports of the bookshelf core:
// the use-case interfaces the CLI (or any other shell) drives.
package driving
