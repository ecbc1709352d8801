// Package migrations holds all schema migrations for the sync database.
package migrations

import "github.com/uptrace/bun/migrate"

// Migrations is the registry consumed by the migration runner.
var Migrations = migrate.NewMigrations()
