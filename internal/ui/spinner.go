package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/imgajeed76/metatable/internal/ui/styles"
	"golang.org/x/term"
)

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// animated reports whether w can take carriage-return animations.
func animated(w io.Writer) bool {
	if styles.IsAccessible() {
		return false
	}
	f, ok := w.(*os.File)
	return ok && IsTerminal(f)
}

// Spinner shows an animated spinner on stderr while a fetch runs, so that
// piped stdout stays clean.
type Spinner struct {
	message string
	out     io.Writer
	done    chan struct{}
	wg      sync.WaitGroup
	active  bool
}

// NewSpinner creates a new spinner with the given message
func NewSpinner(message string) *Spinner {
	return &Spinner{
		message: message,
		out:     os.Stderr,
		done:    make(chan struct{}),
	}
}

// Start begins the spinner animation in the background. Outside a
// terminal it stays silent.
func (s *Spinner) Start() {
	if !animated(s.out) {
		return
	}
	s.active = true
	s.wg.Add(1)

	go func() {
		defer s.wg.Done()
		frames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
		style := lipgloss.NewStyle().Foreground(styles.Accent)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for i := 0; ; i++ {
			select {
			case <-s.done:
				fmt.Fprint(s.out, "\r\033[K")
				return
			case <-ticker.C:
				fmt.Fprintf(s.out, "\r%s %s", styles.Render(style, frames[i%len(frames)]), s.message)
			}
		}
	}()
}

// Stop stops the spinner and clears its line.
func (s *Spinner) Stop() {
	select {
	case <-s.done:
		return
	default:
		close(s.done)
	}
	if s.active {
		s.wg.Wait()
	}
}

// ══════════════════════════════════════════════════════════════════════════
// Progress bar for operations with known progress
// ══════════════════════════════════════════════════════════════════════════

// Progress represents a progress bar
type Progress struct {
	total   int
	current int
	label   string
	width   int
	out     io.Writer
}

// NewProgress creates a new progress bar writing to stderr
func NewProgress(label string, total int) *Progress {
	return &Progress{
		label: label,
		total: total,
		width: 30,
		out:   os.Stderr,
	}
}

// Update updates the progress and renders
func (p *Progress) Update(current int) {
	p.current = current
	p.render()
}

func (p *Progress) render() {
	if p.total <= 0 {
		return
	}

	if !animated(p.out) {
		pct := p.current * 100 / p.total
		// Print every 10% to avoid spam
		if pct%10 == 0 && (p.current == 0 || (p.current-1)*100/p.total != pct) {
			fmt.Fprintf(p.out, "%s: %d%% (%d of %d)\n", p.label, pct, p.current, p.total)
		}
		return
	}

	pct := float64(p.current) / float64(p.total)
	filled := min(int(pct*float64(p.width)), p.width)

	bar := styles.Render(lipgloss.NewStyle().Foreground(styles.Success), strings.Repeat("█", filled)) +
		styles.Render(lipgloss.NewStyle().Foreground(styles.Muted), strings.Repeat("░", p.width-filled))

	fmt.Fprintf(p.out, "\r%s %s %3d%% [%d/%d]", p.label, bar, int(pct*100), p.current, p.total)
}

// Done finishes the progress bar
func (p *Progress) Done() {
	if p.total <= 0 {
		return
	}
	if p.current != p.total {
		p.current = p.total
		p.render()
	}
	if animated(p.out) {
		fmt.Fprintln(p.out)
	}
}
