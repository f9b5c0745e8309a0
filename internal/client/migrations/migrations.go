// Package migrations embeds the goose migrations of the local client database.
package migrations

import "embed"

// Migrations holds the SQL files applied by storage.RunMigrations.
//
//go:embed *.sql
var Migrations embed.FS
