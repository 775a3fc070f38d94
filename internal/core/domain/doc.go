// Package domain defines the core business entities for litsearch.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Article: A normalised, keyed document held in the relational store
//   - RawArticle: Fields as handed over by a scraper, all optional
//   - VectorRecord: One embedding of one article field
//   - QueryResult: A ranked hit produced by the query engine
//   - IngestOutcome: The sync state reached by one ingestion
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
