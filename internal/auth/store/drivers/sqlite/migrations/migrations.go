// Package migrations embeds the versioned SQL schema for the sqlite driver.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
