package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/imgajeed76/metatable/internal/metadata"
	"github.com/imgajeed76/metatable/internal/util"
)

// MetadataStore persists metadata records in PostgreSQL
type MetadataStore struct {
	db *DB
}

// NewMetadataStore returns a store on db. Closing the store closes db.
func NewMetadataStore(db *DB) *MetadataStore {
	return &MetadataStore{db: db}
}

// Init creates the schema
func (s *MetadataStore) Init(ctx context.Context) error {
	return s.db.InitSchema(ctx)
}

// Close closes the connection pool
func (s *MetadataStore) Close() error {
	s.db.Close()
	return nil
}

// Insert adds a new record
func (s *MetadataStore) Insert(ctx context.Context, r metadata.Record) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO metatable_metadata (`+MetadataColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		r.ID, r.Key, r.Type, r.Title, r.Description, r.Keywords,
		r.Version, r.CreatedAt, r.UpdatedAt, r.DeletedAt)
	if pgCode(err) == codeUniqueViolation {
		return fmt.Errorf("%s (%s): %w", r.Key, r.Type, metadata.ErrConflict)
	}
	return translate(err)
}

// FindLive returns the live record for key and type
func (s *MetadataStore) FindLive(ctx context.Context, key, typ string) (metadata.Record, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+MetadataColumns+` FROM metatable_metadata
		WHERE key = $1 AND type = $2 AND deleted_at IS NULL`, key, typ)

	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return metadata.Record{}, fmt.Errorf("%s (%s): %w", key, typ, metadata.ErrNotFound)
	}
	return rec, translate(err)
}

// Update overwrites the editable fields of a live record
func (s *MetadataStore) Update(ctx context.Context, r metadata.Record) error {
	n, err := s.db.Exec(ctx, `
		UPDATE metatable_metadata
		SET title = $2, description = $3, keywords = $4, version = $5, updated_at = $6
		WHERE id = $1 AND deleted_at IS NULL`,
		r.ID, r.Title, r.Description, r.Keywords, r.Version, r.UpdatedAt)
	if err != nil {
		return translate(err)
	}
	if n == 0 {
		return fmt.Errorf("id %s: %w", r.ID, metadata.ErrNotFound)
	}
	return nil
}

// SoftDelete marks a live record as deleted
func (s *MetadataStore) SoftDelete(ctx context.Context, id string, at time.Time) error {
	n, err := s.db.Exec(ctx, `
		UPDATE metatable_metadata SET deleted_at = $2
		WHERE id = $1 AND deleted_at IS NULL`, id, at)
	if err != nil {
		return translate(err)
	}
	if n == 0 {
		return fmt.Errorf("id %s: %w", id, metadata.ErrNotFound)
	}
	return nil
}

// Purge removes every record with key and type
func (s *MetadataStore) Purge(ctx context.Context, key, typ string) (int64, error) {
	n, err := s.db.Exec(ctx, `DELETE FROM metatable_metadata WHERE key = $1 AND type = $2`, key, typ)
	return n, translate(err)
}

// List returns one page and the total count, read in a single snapshot
func (s *MetadataStore) List(ctx context.Context, opts metadata.ListOptions) ([]metadata.Record, int, error) {
	q := BuildList(PostgresDialect{}, opts)

	var (
		records []metadata.Record
		total   int
	)
	err := s.db.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "SET TRANSACTION ISOLATION LEVEL REPEATABLE READ READ ONLY"); err != nil {
			return err
		}
		if err := tx.QueryRow(ctx, q.Count, q.Args...).Scan(&total); err != nil {
			return err
		}

		rows, err := tx.Query(ctx, q.Select, q.Args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			rec, err := scanRecord(rows)
			if err != nil {
				return err
			}
			records = append(records, rec)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, 0, translate(err)
	}
	return records, total, nil
}

// Types returns the distinct types of all records, deleted ones included
func (s *MetadataStore) Types(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT DISTINCT type FROM metatable_metadata ORDER BY type`)
	if err != nil {
		return nil, translate(err)
	}
	types, err := pgx.CollectRows(rows, pgx.RowTo[string])
	return types, translate(err)
}

func scanRecord(row pgx.Row) (metadata.Record, error) {
	var r metadata.Record
	err := row.Scan(&r.ID, &r.Key, &r.Type, &r.Title, &r.Description, &r.Keywords,
		&r.Version, &r.CreatedAt, &r.UpdatedAt, &r.DeletedAt)
	if err != nil {
		return metadata.Record{}, err
	}
	r.CreatedAt = r.CreatedAt.UTC()
	r.UpdatedAt = r.UpdatedAt.UTC()
	if r.DeletedAt != nil {
		t := r.DeletedAt.UTC()
		r.DeletedAt = &t
	}
	return r, nil
}

// translate marks a missing table so callers can suggest `metatable init`
func translate(err error) error {
	if err != nil && pgCode(err) == codeUndefinedTable {
		return fmt.Errorf("%w: %w", util.ErrSchemaMissing, err)
	}
	return err
}

var _ metadata.Store = (*MetadataStore)(nil)
