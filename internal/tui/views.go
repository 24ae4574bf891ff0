package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/convo/internal/domain"
	"github.com/mmcdole/convo/internal/tui/styles"
	"github.com/sahilm/fuzzy"
)

// View renders the application
func (m Model) View() string {
	if !m.Ready {
		return "Loading..."
	}

	sections := []string{
		m.renderHeader(),
		m.renderPrompt(),
		m.renderStatus(),
		m.renderProgress(),
		"",
		m.renderHistoryTitle(),
	}
	sections = append(sections, m.renderHistory(m.historyRows())...)
	sections = append(sections, m.renderFooter())

	return strings.Join(sections, "\n")
}

func (m Model) renderHeader() string {
	title := styles.TitleStyle.Render("convo")
	server := styles.DimStyle.Render(" " + m.Server)
	return title + server
}

func (m Model) renderPrompt() string {
	border := styles.InactiveBorder
	if m.Focus == FocusPrompt {
		border = styles.ActiveBorder
	}
	return border.Width(max(m.Width-2, 10)).Render(m.Input.View())
}

func (m Model) renderStatus() string {
	if m.Status == "" {
		return " "
	}
	switch {
	case m.StatusIsErr:
		return styles.ErrorStyle.Render(m.Status)
	case m.Percent >= 100:
		return styles.SuccessStyle.Render(m.Status)
	default:
		return styles.SubtitleStyle.Render(m.Status)
	}
}

// renderProgress draws the bar only while the progress surface is visible.
// The line is kept blank otherwise so the layout does not jump.
func (m Model) renderProgress() string {
	if !m.BarVisible {
		return " "
	}
	return m.Bar.ViewAs(m.Percent/100) + styles.DimStyle.Render(fmt.Sprintf(" %3d%%", int(m.Percent)))
}

func (m Model) renderHistoryTitle() string {
	title := styles.AccentStyle.Render(fmt.Sprintf("History (%d)", m.History.Len()))
	if m.Filtering || m.FilterInput.Value() != "" {
		return title + "  " + m.FilterInput.View()
	}
	return title
}

func (m Model) historyRows() int {
	rows := m.Height - ChromeHeight
	if m.ShowHelp {
		rows -= 2
	}
	return max(rows, 1)
}

func (m Model) renderHistory(rows int) []string {
	if len(m.visible) == 0 {
		empty := "No conversations yet"
		if m.FilterInput.Value() != "" {
			empty = "No matches"
		}
		return []string{styles.DimStyle.Render(empty)}
	}

	// Keep the cursor in the window
	offset := 0
	if m.Cursor >= rows {
		offset = m.Cursor - rows + 1
	}
	end := min(offset+rows, len(m.visible))

	query := m.FilterInput.Value()
	lines := make([]string, 0, end-offset)
	for i := offset; i < end; i++ {
		selected := m.Focus == FocusHistory && i == m.Cursor
		lines = append(lines, m.renderEntry(m.visible[i], query, selected))
	}
	return lines
}

func (m Model) renderEntry(entry domain.PlaybackEntry, query string, selected bool) string {
	index := fmt.Sprintf("#%-3d ", entry.Index)
	meta := fmt.Sprintf("  %s  %s", entry.CreatedAt.Format("15:04:05"), entry.HumanSize())

	promptWidth := m.Width - lipgloss.Width(index) - lipgloss.Width(meta) - 2
	prompt := styles.Truncate(entry.Prompt, max(promptWidth, 10))

	var matched []int
	if query != "" {
		if matches := fuzzy.Find(query, []string{prompt}); len(matches) > 0 {
			matched = matches[0].MatchedIndexes
		}
	}

	marker := "  "
	if selected {
		marker = styles.AccentStyle.Render("▸ ")
	}
	return marker +
		styles.AccentStyle.Render(index) +
		styles.HighlightMatches(prompt, matched, selected) +
		styles.DimStyle.Render(meta)
}

func (m Model) renderFooter() string {
	var bindings []key.Binding
	switch {
	case m.Filtering:
		bindings = []key.Binding{
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "apply")),
			Keys.Escape,
		}
	case m.Focus == FocusPrompt:
		bindings = []key.Binding{Keys.Submit, Keys.ToggleFocus, Keys.Quit}
	default:
		bindings = []key.Binding{Keys.Up, Keys.Down, Keys.Replay, Keys.Filter, Keys.ToggleFocus, Keys.Help, Keys.Quit}
	}

	help := renderBindings(bindings)
	if m.ShowHelp && m.Focus == FocusHistory && !m.Filtering {
		help = renderBindings([]key.Binding{Keys.Home, Keys.End, Keys.Escape}) + "\n" + help
	}

	if m.Notice != "" {
		notice := styles.SubtitleStyle.Render(m.Notice)
		if m.NoticeErr {
			notice = styles.ErrorStyle.Render(m.Notice)
		}
		return notice + "  " + help
	}
	return help
}

func renderBindings(bindings []key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, styles.HelpKeyStyle.Render(h.Key)+" "+styles.HelpDescStyle.Render(h.Desc))
	}
	return strings.Join(parts, styles.HelpDescStyle.Render(" • "))
}
