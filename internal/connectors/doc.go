// Package connectors reads articles that a scraper has already written out.
// Connectors never fetch pages themselves.
package connectors
