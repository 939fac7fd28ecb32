package migrations

import "embed"

// FS contains embedded SQLite migrations for systems storage.
//
//go:embed *.sql
var FS embed.FS
