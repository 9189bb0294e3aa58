// Package migrations embeds the PostgreSQL schema.
package migrations

import "embed"

// FS holds the versioned up/down SQL files
//
//go:embed *.sql
var FS embed.FS
