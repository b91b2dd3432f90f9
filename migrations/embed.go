// Package migrations embeds the SQL schema migrations.
package migrations

import "embed"

// FS holds the numbered up/down migrations in golang-migrate naming.
//
//go:embed *.sql
var FS embed.FS
