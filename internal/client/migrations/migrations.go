// Package migrations embeds the device-local SQLite schema migrations.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
