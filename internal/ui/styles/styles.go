package styles

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/lipgloss"
)

// Symbols - Unicode with ASCII fallbacks
const (
	SymbolSuccess = "✓"
	SymbolError   = "✗"
	SymbolWarning = "⚠"
	SymbolArrow   = "→"
)

var forceNoColor atomic.Bool

// SetNoColor disables colors for the rest of the process (--no-color)
func SetNoColor(v bool) {
	forceNoColor.Store(v)
}

// NoColor checks if colors should be disabled
func NoColor() bool {
	return forceNoColor.Load() || os.Getenv("NO_COLOR") != "" || os.Getenv("METATABLE_NO_COLOR") != ""
}

// IsAccessible checks if accessibility mode is enabled
// When enabled: no animations, no spinner, simplified output
func IsAccessible() bool {
	v := os.Getenv("METATABLE_ACCESSIBLE")
	return v == "1" || v == "true"
}

// Base text styles
var (
	Bold = lipgloss.NewStyle().Bold(true)
	Dim  = lipgloss.NewStyle().Foreground(Muted)
)

// Semantic styles - use these instead of raw colors
var (
	// Message types
	SuccessStyle = lipgloss.NewStyle().Foreground(Success)
	ErrorStyle   = lipgloss.NewStyle().Foreground(Error)
	WarningStyle = lipgloss.NewStyle().Foreground(Warning)
	InfoStyle    = lipgloss.NewStyle().Foreground(Info)
	MutedStyle   = lipgloss.NewStyle().Foreground(Muted)

	// Records
	KeyStyle     = lipgloss.NewStyle().Foreground(ColorKey)
	TypeStyle    = lipgloss.NewStyle().Foreground(ColorType)
	DeletedStyle = lipgloss.NewStyle().Foreground(ColorDeleted).Strikethrough(true)

	// Field diffs
	InsertStyle = lipgloss.NewStyle().Foreground(ColorInsert).Underline(true)
	RemoveStyle = lipgloss.NewStyle().Foreground(ColorRemove).Strikethrough(true)

	// Interactive table
	HeaderStyle   = lipgloss.NewStyle().Bold(true).Foreground(TextPrimary)
	SortStyle     = lipgloss.NewStyle().Foreground(ColorSortGlow)
	SkeletonStyle = lipgloss.NewStyle().Foreground(BgBorder)
	SelectedStyle = lipgloss.NewStyle().
			Background(BgHighlight).
			Foreground(TextPrimary)
	CursorCellStyle = lipgloss.NewStyle().
			Background(Accent).
			Foreground(TextPrimary)
	LocationStyle = lipgloss.NewStyle().Foreground(Info).Underline(true)

	// Help bar
	HelpKey   = lipgloss.NewStyle().Foreground(Accent)
	HelpValue = lipgloss.NewStyle().Foreground(Muted)
)

// ═══════════════════════════════════════════════════════════════════════════
// Render functions - centralized formatting with NoColor support
// ═══════════════════════════════════════════════════════════════════════════

// Render applies a style if colors are enabled
func Render(s lipgloss.Style, text string) string {
	if NoColor() {
		return text
	}
	return s.Render(text)
}

// Key formats a record key
func Key(key string) string {
	return Render(KeyStyle, key)
}

// Type formats a record type
func Type(typ string) string {
	return Render(TypeStyle, typ)
}

// Inserted formats text added by an update
func Inserted(s string) string {
	if NoColor() {
		return "{+" + s + "+}"
	}
	return InsertStyle.Render(s)
}

// Removed formats text removed by an update
func Removed(s string) string {
	if NoColor() {
		return "[-" + s + "-]"
	}
	return RemoveStyle.Render(s)
}

// ═══════════════════════════════════════════════════════════════════════════
// Message formatters - structured output
// ═══════════════════════════════════════════════════════════════════════════

// SuccessMsg formats a success message with checkmark
func SuccessMsg(msg string) string {
	symbol := SymbolSuccess
	if NoColor() {
		symbol = "+"
	}
	return fmt.Sprintf("%s %s", Render(SuccessStyle, symbol), msg)
}

// ErrorMsg formats an error message
func ErrorMsg(title string) string {
	return Render(ErrorStyle, "Error: "+title)
}

// WarningMsg formats a warning message
func WarningMsg(msg string) string {
	symbol := SymbolWarning
	if NoColor() {
		symbol = "!"
	}
	return fmt.Sprintf("%s %s", Render(WarningStyle, symbol), msg)
}

// MutedMsg formats muted/secondary text
func MutedMsg(msg string) string {
	return Render(MutedStyle, msg)
}

// SectionHeader formats a section header
func SectionHeader(title string) string {
	return Render(Bold, title)
}

// HelpLine formats a help line (key description)
func HelpLine(key, description string) string {
	return fmt.Sprintf("  %s %s", Render(HelpKey, key), Render(MutedStyle, description))
}

// Indent returns text indented by n spaces
func Indent(text string, n int) string {
	prefix := strings.Repeat(" ", n)
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}

func Cyan(s string) string        { return Render(InfoStyle, s) }
func Mute(s string) string        { return Render(MutedStyle, s) }
func SuccessText(s string) string { return Render(SuccessStyle, s) }
func WarningText(s string) string { return Render(WarningStyle, s) }
func ErrorText(s string) string   { return Render(ErrorStyle, s) }

func Mutef(format string, a ...any) string  { return Mute(fmt.Sprintf(format, a...)) }
func Boldf(format string, a ...any) string  { return Render(Bold, fmt.Sprintf(format, a...)) }
func Errorf(format string, a ...any) string { return ErrorText(fmt.Sprintf(format, a...)) }

func Successf(format string, a ...any) string { return SuccessMsg(fmt.Sprintf(format, a...)) }
func Warningf(format string, a ...any) string { return WarningMsg(fmt.Sprintf(format, a...)) }
