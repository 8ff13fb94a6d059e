// Package migrations holds the bun migrations of the catalog schema.
package migrations

import "github.com/uptrace/bun/migrate"

// Migrations is the ordered set applied by the migrate command.
var Migrations = migrate.NewMigrations()
