package table

import (
	"bytes"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/imgajeed76/metatable/internal/datatable"
)

func TestPrintXLSX(t *testing.T) {
	cols := []datatable.Column[item]{
		{ColumnDef: datatable.ColumnDef{ID: "name", Header: "Name"}, Cell: func(it item) string { return it.Name }},
		{ColumnDef: datatable.ColumnDef{ID: "kind", Header: "Kind"}, Cell: func(it item) string { return it.Kind }},
		{ColumnDef: datatable.ColumnDef{ID: "n"}, Cell: func(it item) string { return strconv.Itoa(it.N) }},
	}
	headers, rows := Cells(cols, testItems(3))
	assert.Equal(t, []string{"Name", "Kind", "n"}, headers)

	var buf bytes.Buffer
	require.NoError(t, PrintXLSX(&buf, "Items", headers, rows))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Items"}, f.GetSheetList())
	got, err := f.GetRows("Items")
	require.NoError(t, err)
	want := [][]string{
		{"Name", "Kind", "n"},
		{"item-00", "a", "0"},
		{"item-01", "b", "1"},
		{"item-02", "a", "2"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestPrintXLSXEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintXLSX(&buf, "Empty", []string{"Key"}, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetRows("Empty")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Key"}}, got)
}
