// Package migrations embeds the SQL schema migrations for the SQLite
// metadata store.
package migrations

import "embed"

// FS holds the migration files, named NNNN_description.up.sql.
//
//go:embed *.sql
var FS embed.FS
