// Package migrations holds the SQLite schema and the runner that applies it.
package migrations

import "embed"

// FS contains the migration files, applied in lexical order.
//
//go:embed *.sql
var FS embed.FS
