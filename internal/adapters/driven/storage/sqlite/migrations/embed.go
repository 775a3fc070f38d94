// Package migrations holds the numbered SQLite schema files, applied in
// order by the store on open.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
