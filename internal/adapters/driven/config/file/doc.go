// Package file provides the TOML-backed configuration store.
//
// Settings are kept in ~/.litsearch/config.toml as nested tables and exposed
// as dotted keys ("embedding.provider"). Environment variables overlay the
// file: LITSEARCH_EMBEDDING_API_KEY overrides embedding.api_key, and so on.
// Overlaid values are never written back to disk.
package file
