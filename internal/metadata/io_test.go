package metadata

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeYAML_SingleMapping(t *testing.T) {
	in, err := DecodeYAML(strings.NewReader("key: /home\ntype: page\ntitle: Home\n"))
	require.NoError(t, err)
	assert.Equal(t, []Input{{Key: "/home", Type: "page", Title: "Home"}}, in)
}

func TestDecodeYAML_Empty(t *testing.T) {
	in, err := DecodeYAML(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, in)
}

func TestDecodeYAML_Latin1(t *testing.T) {
	in, err := DecodeYAML(strings.NewReader("- key: /cafe\n  title: Caf\xe9\n"))
	require.NoError(t, err)
	require.Len(t, in, 1)
	assert.Equal(t, "Café", in[0].Title)
}

func TestDecodeYAML_RejectsScalar(t *testing.T) {
	_, err := DecodeYAML(strings.NewReader("just text"))
	assert.ErrorContains(t, err, "expected a list of records")
}

func TestEncodeYAML(t *testing.T) {
	at := time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)
	var buf bytes.Buffer
	require.NoError(t, EncodeYAML(&buf, []Record{{ID: "01HX", Key: "/home", Type: "page", Version: 1.1, CreatedAt: at, UpdatedAt: at}}))

	out := buf.String()
	assert.Contains(t, out, "- id: 01HX\n")
	assert.Contains(t, out, "  version: 1.1\n")
	assert.NotContains(t, out, "deletedAt")

	buf.Reset()
	require.NoError(t, EncodeYAML(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}
