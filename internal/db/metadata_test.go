package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imgajeed76/metatable/internal/metadata"
)

// connectTest connects to METATABLE_TEST_DATABASE_URL and starts from an
// empty schema, or skips.
func connectTest(t *testing.T) *MetadataStore {
	t.Helper()
	url := os.Getenv("METATABLE_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("METATABLE_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	conn, err := Connect(ctx, url)
	require.NoError(t, err)

	require.NoError(t, conn.DropSchema(ctx))
	store := NewMetadataStore(conn)
	require.NoError(t, store.Init(ctx))
	t.Cleanup(func() {
		_ = conn.DropSchema(context.Background())
		_ = store.Close()
	})
	return store
}

func record(id, key, typ string, at time.Time) metadata.Record {
	return metadata.Record{
		ID: id, Key: key, Type: typ,
		Title: "Title", Description: "Description text", Keywords: "a, b, c",
		Version: metadata.InitialVersion, CreatedAt: at, UpdatedAt: at,
	}
}

func TestMetadataStore_Postgres(t *testing.T) {
	store := connectTest(t)
	ctx := context.Background()
	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	exists, err := store.db.SchemaExists(ctx)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, store.Insert(ctx, record("01A", "/home", "page", at)))
	require.NoError(t, store.Insert(ctx, record("01B", "/blog", "post", at.Add(time.Hour))))
	assert.ErrorIs(t, store.Insert(ctx, record("01C", "/home", "page", at)), metadata.ErrConflict)

	got, err := store.FindLive(ctx, "/home", "page")
	require.NoError(t, err)
	assert.Equal(t, record("01A", "/home", "page", at), got)

	got.Title, got.Version = "Home", 1.1
	require.NoError(t, store.Update(ctx, got))

	require.NoError(t, store.SoftDelete(ctx, "01B", at))
	_, err = store.FindLive(ctx, "/blog", "post")
	assert.ErrorIs(t, err, metadata.ErrNotFound)

	rows, total, err := store.List(ctx, metadata.ListOptions{Status: metadata.StatusAll, SortBy: "key"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, "/blog", rows[0].Key)
	assert.Equal(t, "Home", rows[1].Title)

	types, err := store.Types(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"page", "post"}, types, "types of deleted records stay listed")

	n, err := store.Purge(ctx, "/blog", "post")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
