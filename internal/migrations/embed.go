// Package migrations holds the goose SQL migrations applied by cmd/migrate.
// The schema is migrated at deployment time, never implicitly at API startup.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
