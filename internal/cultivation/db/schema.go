// Package db provides SQLite persistence for presets, saved schemes and
// the current selection.
package db

import (
	"context"
	_ "embed"
	"fmt"
	"strconv"
)

// SchemaVersion is bumped whenever schema.sql changes shape.
const SchemaVersion = 1

// MetaSchemaVersion is the sync_metadata key holding the applied schema version.
const MetaSchemaVersion = "schema_version"

//go:embed schema.sql
var schemaSQL string

// migrate creates missing tables and records the schema version. A database
// stamped with a newer version than this build understands is refused.
func (db *DB) migrate(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("executing schema: %w", err)
	}

	stamped, err := db.GetSyncMetadata(ctx, MetaSchemaVersion)
	if err != nil {
		return err
	}
	if stamped != "" {
		v, err := strconv.Atoi(stamped)
		if err != nil {
			return fmt.Errorf("parsing %s %q: %w", MetaSchemaVersion, stamped, err)
		}
		if v > SchemaVersion {
			return fmt.Errorf("database schema version %d is newer than supported version %d", v, SchemaVersion)
		}
	}

	return db.SetSyncMetadata(ctx, MetaSchemaVersion, strconv.Itoa(SchemaVersion))
}
