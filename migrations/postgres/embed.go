// Package postgres embeds the SQL migrations for the postgres user store.
package postgres

import "embed"

//go:embed *.sql
var FS embed.FS
