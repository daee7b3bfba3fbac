// Package migrations embeds the PostgreSQL schema migrations.
// They are applied with goose by cmd/kvitok-migrate.
package migrations

import "embed"

// FS holds the goose migration files.
//
//go:embed *.sql
var FS embed.FS
