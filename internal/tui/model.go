package tui

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/convo/internal/domain"
	"github.com/mmcdole/convo/internal/history"
	"github.com/mmcdole/convo/internal/tui/styles"
)

// Focus is the pane that receives keys
type Focus int

const (
	FocusPrompt Focus = iota
	FocusHistory
)

// Submitter starts a generation from the prompt surface
type Submitter interface {
	Trigger(ctx context.Context) domain.OperationOutcome
}

// Replayer plays an existing history entry again
type Replayer interface {
	Replay(entry domain.PlaybackEntry) error
}

// Layout
const (
	// header, bordered prompt, status, progress, spacer, history title, footer
	ChromeHeight = 9

	MinBarWidth = 10
	MaxBarWidth = 60
)

// Model is the main Bubble Tea model for the application
type Model struct {
	ctx    context.Context
	logger *slog.Logger

	// Services
	Ctrl     Submitter
	Player   Replayer
	Surfaces *Surfaces
	History  *history.History
	Server   string

	// UI components
	Input       textinput.Model
	FilterInput textinput.Model
	Bar         progress.Model

	// Dimensions
	Width  int
	Height int
	Ready  bool

	// Surface state, written only from surface messages
	Status      string
	StatusIsErr bool
	Percent     float64
	BarVisible  bool

	// UI state
	Focus     Focus
	Filtering bool
	ShowHelp  bool
	Notice    string
	NoticeErr bool
	Pending   int

	// History view
	visible []domain.PlaybackEntry
	Cursor  int
}

// NewModel creates a new application model
func NewModel(
	ctx context.Context,
	ctrl Submitter,
	player Replayer,
	surfaces *Surfaces,
	hist *history.History,
	server string,
	logger *slog.Logger,
) Model {
	if logger == nil {
		logger = slog.Default()
	}

	input := textinput.New()
	input.Placeholder = "Describe a conversation..."
	input.Prompt = "› "
	input.PromptStyle = styles.AccentStyle
	input.PlaceholderStyle = styles.DimStyle
	input.TextStyle = lipgloss.NewStyle().Foreground(styles.White)
	input.Focus()

	filter := textinput.New()
	filter.Prompt = "/"
	filter.PromptStyle = styles.FilterPromptStyle
	filter.CharLimit = 100

	return Model{
		ctx:         ctx,
		logger:      logger,
		Ctrl:        ctrl,
		Player:      player,
		Surfaces:    surfaces,
		History:     hist,
		Server:      server,
		Input:       input,
		FilterInput: filter,
		Bar: progress.New(
			progress.WithGradient(string(styles.Accent), string(styles.Green)),
			progress.WithWidth(MaxBarWidth),
		),
		Focus: FocusPrompt,
	}
}

// Init initializes the application
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.Surfaces.Listen())
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Ready = true
		m.updateLayout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	// Surface updates from the controller. Each one re-arms the listener.
	case StatusMsg:
		m.Status = msg.Message
		m.StatusIsErr = msg.IsError
		return m, m.Surfaces.Listen()

	case ProgressMsg:
		m.Percent = msg.Percent
		return m, m.Surfaces.Listen()

	case ProgressVisibleMsg:
		m.BarVisible = msg.Visible
		return m, m.Surfaces.Listen()

	case EntryAppendedMsg:
		followLatest := len(m.visible) == 0 || m.Cursor == len(m.visible)-1
		m.refreshVisible()
		if followLatest && m.FilterInput.Value() == "" {
			m.Cursor = len(m.visible) - 1
		}
		return m, m.Surfaces.Listen()

	case surfacesClosedMsg:
		return m, nil

	case OperationDoneMsg:
		if m.Pending > 0 {
			m.Pending--
		}
		m.logger.Debug("operation settled",
			"op", msg.Outcome.OpID,
			"state", msg.Outcome.State.String(),
			"superseded", msg.Outcome.Superseded())
		return m, nil

	case PlaybackStartedMsg:
		m.Notice = "Playing #" + strconv.Itoa(msg.Entry.Index)
		m.NoticeErr = false
		return m, nil

	case ErrMsg:
		m.logger.Warn("tui error", "context", msg.Context, "error", msg.Err)
		m.Notice = msg.Error()
		m.NoticeErr = true
		return m, nil
	}

	// Cursor blink and other component messages
	var cmd tea.Cmd
	if m.Focus == FocusPrompt {
		m.Input, cmd = m.Input.Update(msg)
	} else if m.Filtering {
		m.FilterInput, cmd = m.FilterInput.Update(msg)
	}
	return m, cmd
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, Keys.Quit) {
		m.Surfaces.Close()
		return m, tea.Quit
	}

	if m.Filtering {
		return m.handleFilterKey(msg)
	}

	if key.Matches(msg, Keys.ToggleFocus) {
		m.toggleFocus()
		return m, nil
	}

	if m.Focus == FocusPrompt {
		return m.handlePromptKey(msg)
	}
	return m.handleHistoryKey(msg)
}

func (m Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, Keys.Submit) {
		m.Surfaces.SetPrompt(m.Input.Value())
		m.Pending++
		m.Notice = ""
		return m, SubmitCmd(m.ctx, m.Ctrl)
	}

	var cmd tea.Cmd
	m.Input, cmd = m.Input.Update(msg)
	m.Surfaces.SetPrompt(m.Input.Value())
	return m, cmd
}

func (m Model) handleHistoryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, Keys.Up):
		if m.Cursor > 0 {
			m.Cursor--
		}
	case key.Matches(msg, Keys.Down):
		if m.Cursor < len(m.visible)-1 {
			m.Cursor++
		}
	case key.Matches(msg, Keys.Home):
		m.Cursor = 0
	case key.Matches(msg, Keys.End):
		m.Cursor = max(len(m.visible)-1, 0)
	case key.Matches(msg, Keys.Replay):
		if entry, ok := m.SelectedEntry(); ok {
			return m, ReplayCmd(m.Player, entry)
		}
	case key.Matches(msg, Keys.Filter):
		m.Filtering = true
		cmd := m.FilterInput.Focus()
		return m, cmd
	case key.Matches(msg, Keys.Escape):
		m.clearFilter()
	case key.Matches(msg, Keys.Help):
		m.ShowHelp = !m.ShowHelp
	}
	return m, nil
}

func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.clearFilter()
		return m, nil
	case "enter":
		m.Filtering = false
		m.FilterInput.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.FilterInput, cmd = m.FilterInput.Update(msg)
	m.refreshVisible()
	m.Cursor = 0
	return m, cmd
}

func (m *Model) toggleFocus() {
	if m.Focus == FocusPrompt {
		m.Focus = FocusHistory
		m.Input.Blur()
		m.refreshVisible()
		return
	}
	m.Focus = FocusPrompt
	m.Input.Focus()
}

func (m *Model) clearFilter() {
	m.Filtering = false
	m.FilterInput.SetValue("")
	m.FilterInput.Blur()
	m.refreshVisible()
}

// refreshVisible recomputes the history rows for the current filter
func (m *Model) refreshVisible() {
	m.visible = m.History.Find(m.FilterInput.Value())
	if m.Cursor >= len(m.visible) {
		m.Cursor = max(len(m.visible)-1, 0)
	}
}

// SelectedEntry returns the history entry under the cursor
func (m Model) SelectedEntry() (domain.PlaybackEntry, bool) {
	if m.Cursor < 0 || m.Cursor >= len(m.visible) {
		return domain.PlaybackEntry{}, false
	}
	return m.visible[m.Cursor], true
}

// VisibleEntries returns the history rows currently shown
func (m Model) VisibleEntries() []domain.PlaybackEntry {
	return m.visible
}

func (m *Model) updateLayout() {
	// border, prompt marker and cursor
	inputWidth := m.Width - 6
	if inputWidth < 10 {
		inputWidth = 10
	}
	m.Input.Width = inputWidth
	m.FilterInput.Width = inputWidth

	barWidth := m.Width - 8
	m.Bar.Width = min(max(barWidth, MinBarWidth), MaxBarWidth)
}
