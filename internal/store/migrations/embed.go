// Package migrations embeds the SQL migrations of the run store.
package migrations

import "embed"

// FS holds every NNN_name.up.sql migration.
//
//go:embed *.sql
var FS embed.FS
