// Package table renders data tables: an interactive browser over a
// datatable.Table, aligned plain text, JSON, YAML and raw tab-separated
// output.
package table

import (
	"fmt"
	"io"
	"strings"

	"github.com/imgajeed76/metatable/internal/datatable"
)

// DisplayOptions controls how a page is printed.
type DisplayOptions struct {
	// JSON prints the page rows as a JSON array.
	JSON bool
	// YAML prints the page rows as a YAML sequence.
	YAML bool
	// Raw prints tab-separated cells without a header (for piping).
	Raw bool
}

// DisplayPage prints the current page of tbl. JSON and YAML encode the row
// values themselves; raw and plain output print the visible cells.
func DisplayPage[T any](w io.Writer, tbl *datatable.Table[T], opts DisplayOptions) error {
	rows := tbl.Data().Rows
	if rows == nil {
		rows = []T{}
	}

	switch {
	case opts.JSON:
		return PrintJSON(w, rows)
	case opts.YAML:
		return PrintYAML(w, rows)
	}

	var cells [][]string
	for _, row := range tbl.Rows() {
		if row.Kind == datatable.RowData {
			cells = append(cells, row.Cells)
		}
	}

	if opts.Raw {
		for _, row := range cells {
			if _, err := fmt.Fprintln(w, strings.Join(row, "\t")); err != nil {
				return err
			}
		}
		return nil
	}

	var headers []string
	for _, col := range tbl.VisibleColumns() {
		headers = append(headers, col.Title())
	}
	PrintPlainTable(w, headers, cells)
	fmt.Fprintln(w)
	fmt.Fprintln(w, pageSummary(tbl.PageInfo()))
	return nil
}

// pageSummary is the footer line shared by plain output and the browser.
func pageSummary(info datatable.PageInfo) string {
	return fmt.Sprintf("%s, page %d of %d", info.RangeText(), info.PageIndex+1, info.PageCount)
}
