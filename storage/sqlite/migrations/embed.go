package migrations

import "embed"

// FS contains embedded SQLite migrations for the take library.
//
//go:embed *.sql
var FS embed.FS
