package db

import (
	"context"
	"fmt"
)

// InitSchema creates the metadata table and its indexes
func (db *DB) InitSchema(ctx context.Context) error {
	statements := []struct {
		name string
		sql  string
	}{
		{MetadataTable, `
	CREATE TABLE IF NOT EXISTS metatable_metadata (
		id              TEXT PRIMARY KEY,
		key             TEXT NOT NULL,
		type            TEXT NOT NULL,
		title           TEXT NOT NULL,
		description     TEXT NOT NULL,
		keywords        TEXT NOT NULL,
		version         DOUBLE PRECISION NOT NULL DEFAULT 1.0,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		deleted_at      TIMESTAMPTZ
	)`},
		// at most one live record per key and type
		{"metatable_metadata_live_key", `
	CREATE UNIQUE INDEX IF NOT EXISTS metatable_metadata_live_key
		ON metatable_metadata (key, type) WHERE deleted_at IS NULL`},
		{"metatable_metadata_created", `
	CREATE INDEX IF NOT EXISTS metatable_metadata_created
		ON metatable_metadata (created_at)`},
	}

	for _, st := range statements {
		if _, err := db.Exec(ctx, st.sql); err != nil {
			return fmt.Errorf("failed to create %s: %w", st.name, err)
		}
	}
	return nil
}

// SchemaExists checks if the metadata table exists
func (db *DB) SchemaExists(ctx context.Context) (bool, error) {
	var exists bool
	err := db.QueryRow(ctx, `SELECT to_regclass($1) IS NOT NULL`, MetadataTable).Scan(&exists)
	return exists, err
}

// DropSchema drops the metadata table (use with caution!)
func (db *DB) DropSchema(ctx context.Context) error {
	if _, err := db.Exec(ctx, "DROP TABLE IF EXISTS "+MetadataTable+" CASCADE"); err != nil {
		return fmt.Errorf("failed to drop %s: %w", MetadataTable, err)
	}
	return nil
}
