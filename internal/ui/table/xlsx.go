package table

import (
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/imgajeed76/metatable/internal/datatable"
)

// Spreadsheet column width limits, in characters.
const (
	xlsxMinWidth = 8
	xlsxMaxWidth = 60
)

// Cells renders rows through every column, hidden or not.
func Cells[T any](cols []datatable.Column[T], rows []T) ([]string, [][]string) {
	headers := make([]string, len(cols))
	for i, col := range cols {
		headers[i] = col.Title()
	}
	cells := make([][]string, len(rows))
	for r, row := range rows {
		line := make([]string, len(cols))
		for i, col := range cols {
			line[i] = col.Cell(row)
		}
		cells[r] = line
	}
	return headers, cells
}

// PrintXLSX writes a workbook with one sheet: a bold header row followed by
// rows, with columns sized to their content.
func PrintXLSX(w io.Writer, sheet string, headers []string, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	widths := make([]int, len(headers))
	write := func(rowNum int, values []string) error {
		for i, v := range values {
			if i >= len(widths) {
				break
			}
			cell, err := excelize.CoordinatesToCellName(i+1, rowNum)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
			widths[i] = max(widths[i], len([]rune(v)))
		}
		return nil
	}

	if err := write(1, headers); err != nil {
		return err
	}
	for r, row := range rows {
		if err := write(r+2, row); err != nil {
			return err
		}
	}

	if len(headers) > 0 {
		bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			return err
		}
		last, err := excelize.CoordinatesToCellName(len(headers), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, "A1", last, bold); err != nil {
			return err
		}
	}

	for i, width := range widths {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, name, name, float64(min(max(width+2, xlsxMinWidth), xlsxMaxWidth))); err != nil {
			return err
		}
	}

	return f.Write(w)
}
