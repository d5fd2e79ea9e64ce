package table

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/imgajeed76/metatable/internal/datatable"
	"gopkg.in/yaml.v3"
)

// PrintJSON writes v as indented JSON.
func PrintJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// PrintYAML writes v as YAML.
func PrintYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// PrintPlainTable prints an aligned table without truncation. An empty
// page prints the header and the empty message.
func PrintPlainTable(w io.Writer, headers []string, rows [][]string) {
	if len(headers) == 0 {
		fmt.Fprintln(w, "(no columns)")
		return
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, val := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], lipgloss.Width(val))
			}
		}
	}

	writeLine := func(cells []string) {
		var sb strings.Builder
		for i, val := range cells {
			if i >= len(widths) {
				break
			}
			if i > 0 {
				sb.WriteString("  ")
			}
			sb.WriteString(padRight(val, widths[i]))
		}
		fmt.Fprintln(w, strings.TrimRight(sb.String(), " "))
	}

	writeLine(headers)
	seps := make([]string, len(widths))
	for i, n := range widths {
		seps[i] = strings.Repeat("─", n)
	}
	writeLine(seps)

	if len(rows) == 0 {
		fmt.Fprintln(w, datatable.EmptyMessage)
		return
	}
	for _, row := range rows {
		writeLine(row)
	}
}

// padRight pads s with spaces to width display cells (no truncation).
func padRight(s string, width int) string {
	if n := lipgloss.Width(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

// fit pads or truncates s to exactly width display cells.
func fit(s string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(s)
	if lipgloss.Width(s) <= width {
		return padRight(s, width)
	}
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
		runes = runes[:len(runes)-1]
	}
	return padRight(string(runes)+"…", width)
}
