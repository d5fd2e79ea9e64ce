package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imgajeed76/metatable/internal/metadata"
	"github.com/imgajeed76/metatable/internal/util"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(MemoryPath)
	require.NoError(t, err)
	require.NoError(t, s.Init(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func record(id, key, typ string, at time.Time) metadata.Record {
	return metadata.Record{
		ID: id, Key: key, Type: typ,
		Title: "Title " + key, Description: "Description of " + key, Keywords: "a, b, c",
		Version: metadata.InitialVersion, CreatedAt: at, UpdatedAt: at,
	}
}

var day0 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func TestStore_InsertFind(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)

	want := record("01A", "/home", "page", day0)
	require.NoError(t, s.Insert(ctx, want))

	got, err := s.FindLive(ctx, "/home", "page")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = s.FindLive(ctx, "/home", "post")
	assert.ErrorIs(t, err, metadata.ErrNotFound)
}

func TestStore_LiveKeyIsUnique(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)

	require.NoError(t, s.Insert(ctx, record("01A", "/home", "page", day0)))
	assert.ErrorIs(t, s.Insert(ctx, record("01B", "/home", "page", day0)), metadata.ErrConflict)

	require.NoError(t, s.SoftDelete(ctx, "01A", day0.Add(time.Minute)))
	assert.NoError(t, s.Insert(ctx, record("01B", "/home", "page", day0)), "deleted rows leave the key free")
}

func TestStore_UpdateAndSoftDelete(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)
	require.NoError(t, s.Insert(ctx, record("01A", "/home", "page", day0)))

	rec, err := s.FindLive(ctx, "/home", "page")
	require.NoError(t, err)
	rec.Title, rec.Version, rec.UpdatedAt = "Welcome", 1.1, day0.Add(time.Hour)
	require.NoError(t, s.Update(ctx, rec))

	got, err := s.FindLive(ctx, "/home", "page")
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	deletedAt := day0.Add(2 * time.Hour)
	require.NoError(t, s.SoftDelete(ctx, "01A", deletedAt))
	assert.ErrorIs(t, s.SoftDelete(ctx, "01A", deletedAt), metadata.ErrNotFound)
	assert.ErrorIs(t, s.Update(ctx, rec), metadata.ErrNotFound)

	rows, total, err := s.List(ctx, metadata.ListOptions{Status: metadata.StatusDeleted})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.NotNil(t, rows[0].DeletedAt)
	assert.True(t, rows[0].DeletedAt.Equal(deletedAt))
}

func TestStore_Purge(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)
	require.NoError(t, s.Insert(ctx, record("01A", "/home", "page", day0)))
	require.NoError(t, s.SoftDelete(ctx, "01A", day0))
	require.NoError(t, s.Insert(ctx, record("01B", "/home", "page", day0)))

	n, err := s.Purge(ctx, "/home", "page")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = s.Purge(ctx, "/home", "page")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStore_List(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)
	fixtures := []metadata.Record{
		record("01A", "/home", "page", day0),
		record("01B", "/blog_50_off", "post", day0.AddDate(0, 0, 1)),
		record("01C", "/blog_500ff", "post", day0.AddDate(0, 0, 2)),
		record("01D", "/about", "page", day0.AddDate(0, 0, 3)),
	}
	for _, r := range fixtures {
		require.NoError(t, s.Insert(ctx, r))
	}

	tests := []struct {
		name  string
		opts  metadata.ListOptions
		keys  []string
		total int
	}{
		{"newest first", metadata.ListOptions{}, []string{"/about", "/blog_500ff", "/blog_50_off", "/home"}, 4},
		{"second page by key", metadata.ListOptions{Page: 2, Count: 2, SortBy: "key"}, []string{"/blog_50_off", "/home"}, 4},
		{"type filter", metadata.ListOptions{Type: "post", SortBy: "createdAt"}, []string{"/blog_50_off", "/blog_500ff"}, 2},
		{"underscore is literal", metadata.ListOptions{KeyContains: "50_"}, []string{"/blog_50_off"}, 1},
		{"search is case-insensitive", metadata.ListOptions{Search: "DESCRIPTION OF /HO"}, []string{"/home"}, 1},
		{"date range", metadata.ListOptions{From: day0.AddDate(0, 0, 1), To: day0.AddDate(0, 0, 3), SortBy: "key", Desc: true}, []string{"/blog_50_off", "/blog_500ff"}, 2},
		{"past the end", metadata.ListOptions{Page: 9, Count: 2}, nil, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, total, err := s.List(ctx, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.total, total)

			var keys []string
			for _, r := range rows {
				keys = append(keys, r.Key)
			}
			assert.Equal(t, tt.keys, keys)
		})
	}
}

func TestStore_Types(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)
	require.NoError(t, s.Insert(ctx, record("01A", "/home", "page", day0)))
	require.NoError(t, s.Insert(ctx, record("01B", "/blog", "post", day0)))
	require.NoError(t, s.Insert(ctx, record("01C", "/news", "article", day0)))
	require.NoError(t, s.SoftDelete(ctx, "01C", day0))

	types, err := s.Types(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"article", "page", "post"}, types)
}

func TestStore_MissingSchema(t *testing.T) {
	s, err := Open(MemoryPath)
	require.NoError(t, err)
	defer s.Close()

	_, _, err = s.List(context.Background(), metadata.ListOptions{})
	assert.ErrorIs(t, err, util.ErrSchemaMissing)
}

func TestStore_File(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "meta.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Init(ctx))
	require.NoError(t, s.Insert(ctx, record("01A", "/home", "page", day0)))
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()
	_, err = reopened.FindLive(ctx, "/home", "page")
	assert.NoError(t, err)
}

func TestStore_WithService(t *testing.T) {
	ctx := context.Background()
	svc := metadata.NewService(openMemory(t), nil)

	_, err := svc.Create(ctx, metadata.Input{
		Key: "/pricing", Type: "page", Title: "Pricing",
		Description: "Plans and prices for every team size.", Keywords: "pricing, plans, cost",
	})
	require.NoError(t, err)

	rec, changes, err := svc.Update(ctx, "/pricing", "page", metadata.Patch{Keywords: ptr("pricing, plans, billing")})
	require.NoError(t, err)
	assert.Equal(t, 1.1, rec.Version)
	require.Len(t, changes, 1)
	assert.Equal(t, "keywords", changes[0].Field)
}

func ptr(s string) *string { return &s }
