// Package migrations holds the numbered PostgreSQL schema files. The first
// one enables the pgvector extension.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
