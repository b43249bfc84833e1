// Package migrations embeds per-dialect schema migrations so a single
// binary can bootstrap its own store.
package migrations

import "embed"

//go:embed sqlite/*.sql
var Sqlite embed.FS

//go:embed postgres/*.sql
var Postgres embed.FS
