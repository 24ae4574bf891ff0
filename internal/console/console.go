// Package console renders generation feedback as terminal lines for the
// non-interactive generate command.
package console

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/convo/internal/domain"
	"github.com/mmcdole/convo/internal/tui/styles"
	"golang.org/x/term"
)

const (
	defaultBarWidth = 40
	maxBarWidth     = 60
)

// clearLine clears the current terminal line
const clearLine = "\r\033[2K"

// Console implements the domain surfaces on a writer. On a terminal the bar
// is redrawn in place; otherwise each whole-percent change prints a line.
type Console struct {
	prompt string

	mu          sync.Mutex
	out         io.Writer
	interactive bool
	width       int
	visible     bool
	barDrawn    bool
	lastPct     int
	entries     []domain.PlaybackEntry
}

// New creates a console for stdout
func New(prompt string) *Console {
	fd := int(os.Stdout.Fd())
	interactive := term.IsTerminal(fd)

	width := defaultBarWidth
	if interactive {
		if w, _, err := term.GetSize(fd); err == nil && w > 20 {
			width = min(w-12, maxBarWidth)
		}
	}
	return NewWriter(os.Stdout, prompt, interactive, width)
}

// NewWriter creates a console on any writer
func NewWriter(out io.Writer, prompt string, interactive bool, width int) *Console {
	if width <= 0 {
		width = defaultBarWidth
	}
	return &Console{
		prompt:      prompt,
		out:         out,
		interactive: interactive,
		width:       width,
		lastPct:     -1,
	}
}

// Value returns the prompt given on the command line
func (c *Console) Value() string {
	return c.prompt
}

// SetStatus prints a status line
func (c *Console) SetStatus(text string, isError bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.breakBar()
	style := styles.SubtitleStyle
	if isError {
		style = styles.ErrorStyle
	} else if strings.HasPrefix(text, "✅") {
		style = styles.SuccessStyle
	}
	fmt.Fprintln(c.out, style.Render(text))
}

// SetProgress draws the bar at percent
func (c *Console) SetProgress(percent float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	pct := int(percent)
	if !c.visible || pct == c.lastPct {
		return
	}
	c.lastPct = pct

	if c.interactive {
		fmt.Fprint(c.out, clearLine+RenderBar(percent, c.width))
		c.barDrawn = true
		return
	}
	fmt.Fprintf(c.out, "progress %d%%\n", pct)
}

// SetProgressVisible shows or hides the bar
func (c *Console) SetProgressVisible(visible bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !visible && c.barDrawn {
		fmt.Fprint(c.out, clearLine)
		c.barDrawn = false
	}
	if visible && !c.visible {
		c.lastPct = -1
	}
	c.visible = visible
}

// Append prints the new playback entry
func (c *Console) Append(entry domain.PlaybackEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.breakBar()
	c.entries = append(c.entries, entry)
	fmt.Fprintf(c.out, "%s %s %s\n",
		styles.AccentStyle.Render(fmt.Sprintf("#%d", entry.Index)),
		styles.TitleStyle.Render(entry.Prompt),
		styles.DimStyle.Render(fmt.Sprintf("(%s, %s) %s", entry.ContentType, entry.HumanSize(), entry.Ref.URL)),
	)
}

// Entries returns the entries printed so far
func (c *Console) Entries() []domain.PlaybackEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.PlaybackEntry(nil), c.entries...)
}

// breakBar moves past an in-place bar so the next line does not overwrite it.
// Called with c.mu held.
func (c *Console) breakBar() {
	if c.barDrawn {
		fmt.Fprintln(c.out)
		c.barDrawn = false
	}
}

// RenderBar renders a fixed-width text progress bar
func RenderBar(percent float64, width int) string {
	percent = max(0, min(percent, 100))
	filled := int(percent / 100 * float64(width))

	bar := lipgloss.NewStyle().Foreground(styles.Accent).Render(strings.Repeat("█", filled)) +
		styles.DimStyle.Render(strings.Repeat("░", width-filled))
	return fmt.Sprintf("%s %3d%%", bar, int(percent))
}
