package util

import (
	"errors"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToValidUTF8(t *testing.T) {
	assert.Equal(t, "plain", ToValidUTF8("plain"))
	assert.Equal(t, "Müller", ToValidUTF8("M\xfcller"))
	assert.Equal(t, []byte("café"), ToValidUTF8Bytes([]byte("caf\xe9")))
}

func TestRedactURL(t *testing.T) {
	assert.Equal(t, "postgres://bob:xxxxx@db:5432/meta", RedactURL("postgres://bob:secret@db:5432/meta"))
	assert.Equal(t, "sqlite://meta.db", RedactURL("sqlite://meta.db"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "Grüß…", Truncate("Grüße Welt", 5))
	assert.Equal(t, "", Truncate("x", 0))
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"go", "tables", "cli"}, SplitList(" go,tables , cli"))
}

func TestNewID(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	a, b := NewID(at), NewID(at)

	assert.Less(t, a, b, "ids from the same instant stay ordered")

	id, err := ulid.ParseStrict(a)
	require.NoError(t, err)
	assert.True(t, ulid.Time(id.Time()).Equal(at))
}

func TestMetatableError_Format(t *testing.T) {
	base := errors.New("boom")
	err := RecordNotFoundError("/about", "page", base)

	assert.ErrorIs(t, err, base)
	out := err.Format()
	assert.Contains(t, out, "Error: Metadata '/about' (page) not found")
	assert.Contains(t, out, "Possible causes:")
	assert.Contains(t, out, "$ metatable list --view 'key=/about'")
}

func TestSchemaMissingError_MatchesSentinel(t *testing.T) {
	err := SchemaMissingError(errors.New("relation does not exist"))
	assert.ErrorIs(t, err, ErrSchemaMissing)
}
