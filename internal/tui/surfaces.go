package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/convo/internal/domain"
)

const surfaceBuffer = 64

// playbackList receives appended entries besides the model
type playbackList interface {
	Append(entry domain.PlaybackEntry)
}

// Surfaces adapts the domain surfaces to a channel for Bubble Tea. Writers
// run on controller goroutines; the model drains the channel one message at a
// time through Listen, so model state is only touched by the event loop.
type Surfaces struct {
	ch   chan tea.Msg
	done chan struct{}
	once sync.Once

	mu     sync.RWMutex
	prompt string

	list playbackList
}

// NewSurfaces creates surfaces that mirror appended entries into list (may
// be nil).
func NewSurfaces(list playbackList) *Surfaces {
	return &Surfaces{
		ch:   make(chan tea.Msg, surfaceBuffer),
		done: make(chan struct{}),
		list: list,
	}
}

// SetPrompt records the text currently in the prompt input
func (s *Surfaces) SetPrompt(text string) {
	s.mu.Lock()
	s.prompt = text
	s.mu.Unlock()
}

// Value implements domain.PromptInput
func (s *Surfaces) Value() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prompt
}

// SetStatus implements domain.StatusText
func (s *Surfaces) SetStatus(text string, isError bool) {
	s.send(StatusMsg{Message: text, IsError: isError})
}

// SetProgress implements domain.ProgressBar
func (s *Surfaces) SetProgress(percent float64) {
	s.send(ProgressMsg{Percent: percent})
}

// SetProgressVisible implements domain.ProgressBar
func (s *Surfaces) SetProgressVisible(visible bool) {
	s.send(ProgressVisibleMsg{Visible: visible})
}

// Append implements domain.PlaybackList
func (s *Surfaces) Append(entry domain.PlaybackEntry) {
	if s.list != nil {
		s.list.Append(entry)
	}
	s.send(EntryAppendedMsg{Entry: entry})
}

// send blocks until the model takes the message so no update is lost or
// reordered. After Close it returns immediately.
func (s *Surfaces) send(msg tea.Msg) {
	select {
	case s.ch <- msg:
	case <-s.done:
	}
}

// Close releases blocked writers and stops the listener
func (s *Surfaces) Close() {
	s.once.Do(func() { close(s.done) })
}

// Listen returns a command that reads the next surface update. The model
// re-arms it after every update it receives.
func (s *Surfaces) Listen() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-s.ch:
			return msg
		case <-s.done:
			return surfacesClosedMsg{}
		}
	}
}
