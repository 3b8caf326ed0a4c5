// Package postgres embeds the goose SQL migrations for the Postgres backend.
package postgres

import "embed"

//go:embed *.sql
var Migrations embed.FS
