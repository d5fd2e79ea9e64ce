// Package sqlite stores metadata records in a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/imgajeed76/metatable/internal/db"
	"github.com/imgajeed76/metatable/internal/metadata"
	"github.com/imgajeed76/metatable/internal/util"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS metatable_metadata (
	id TEXT PRIMARY KEY,
	key TEXT NOT NULL,
	type TEXT NOT NULL,
	title TEXT NOT NULL,
	description TEXT NOT NULL,
	keywords TEXT NOT NULL,
	version REAL NOT NULL DEFAULT 1.0,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	deleted_at INTEGER
);

CREATE UNIQUE INDEX IF NOT EXISTS metatable_metadata_live_key ON metatable_metadata(key, type) WHERE deleted_at IS NULL;
CREATE INDEX IF NOT EXISTS metatable_metadata_created ON metatable_metadata(created_at);
`

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Dialect renders ? placeholders and stores times as unix nanoseconds.
type Dialect struct{}

func (Dialect) Placeholder(int) string { return "?" }

func (Dialect) TimeArg(t time.Time) any { return t.UTC().UnixNano() }

type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*Store, error) {
	if path != MemoryPath {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("mkdir %s: %w", dir, err)
			}
		}
	}
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if path == MemoryPath {
		// every connection to :memory: is a separate database
		conn.SetMaxOpenConns(1)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := conn.Exec(p); err != nil {
			_ = conn.Close()
			return nil, err
		}
	}
	return &Store{db: conn, path: path}, nil
}

// Path returns the database file.
func (s *Store) Path() string { return s.path }

func (s *Store) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Insert(ctx context.Context, r metadata.Record) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO metatable_metadata(`+db.MetadataColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Key, r.Type, r.Title, r.Description, r.Keywords,
		r.Version, r.CreatedAt.UTC().UnixNano(), r.UpdatedAt.UTC().UnixNano(), nullableTime(r.DeletedAt))
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%s (%s): %w", r.Key, r.Type, metadata.ErrConflict)
	}
	return translate(err)
}

func (s *Store) FindLive(ctx context.Context, key, typ string) (metadata.Record, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT `+db.MetadataColumns+` FROM metatable_metadata
WHERE key = ? AND type = ? AND deleted_at IS NULL`, key, typ)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return metadata.Record{}, fmt.Errorf("%s (%s): %w", key, typ, metadata.ErrNotFound)
	}
	return rec, translate(err)
}

func (s *Store) Update(ctx context.Context, r metadata.Record) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE metatable_metadata
SET title = ?, description = ?, keywords = ?, version = ?, updated_at = ?
WHERE id = ? AND deleted_at IS NULL`,
		r.Title, r.Description, r.Keywords, r.Version, r.UpdatedAt.UTC().UnixNano(), r.ID)
	return affected(res, err, "id "+r.ID)
}

func (s *Store) SoftDelete(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE metatable_metadata SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`,
		at.UTC().UnixNano(), id)
	return affected(res, err, "id "+id)
}

func (s *Store) Purge(ctx context.Context, key, typ string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM metatable_metadata WHERE key = ? AND type = ?`, key, typ)
	if err != nil {
		return 0, translate(err)
	}
	return res.RowsAffected()
}

func (s *Store) List(ctx context.Context, opts metadata.ListOptions) ([]metadata.Record, int, error) {
	q := db.BuildList(Dialect{}, opts)

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, 0, err
	}
	defer tx.Rollback()

	var total int
	if err := tx.QueryRowContext(ctx, q.Count, q.Args...).Scan(&total); err != nil {
		return nil, 0, translate(err)
	}

	rows, err := tx.QueryContext(ctx, q.Select, q.Args...)
	if err != nil {
		return nil, 0, translate(err)
	}
	defer rows.Close()

	var out []metadata.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, tx.Commit()
}

func (s *Store) Types(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT DISTINCT type FROM metatable_metadata ORDER BY type`)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (metadata.Record, error) {
	var (
		r                metadata.Record
		created, updated int64
		deleted          sql.NullInt64
	)
	if err := row.Scan(&r.ID, &r.Key, &r.Type, &r.Title, &r.Description, &r.Keywords,
		&r.Version, &created, &updated, &deleted); err != nil {
		return metadata.Record{}, err
	}
	r.CreatedAt = time.Unix(0, created).UTC()
	r.UpdatedAt = time.Unix(0, updated).UTC()
	if deleted.Valid {
		t := time.Unix(0, deleted.Int64).UTC()
		r.DeletedAt = &t
	}
	return r, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().UnixNano()
}

func affected(res sql.Result, err error, what string) error {
	if err != nil {
		return translate(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, metadata.ErrNotFound)
	}
	return nil
}

func translate(err error) error {
	if err != nil && strings.Contains(err.Error(), "no such table") {
		return fmt.Errorf("%w: %w", util.ErrSchemaMissing, err)
	}
	return err
}

var _ metadata.Store = (*Store)(nil)
