package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/convo/internal/domain"
)

// Command factories for async operations

// SubmitCmd triggers a generation with the current prompt. The call blocks
// for the whole remote request, so it runs as a command off the event loop.
func SubmitCmd(ctx context.Context, ctrl Submitter) tea.Cmd {
	return func() tea.Msg {
		return OperationDoneMsg{Outcome: ctrl.Trigger(ctx)}
	}
}

// ReplayCmd plays an existing entry again
func ReplayCmd(r Replayer, entry domain.PlaybackEntry) tea.Cmd {
	return func() tea.Msg {
		if err := r.Replay(entry); err != nil {
			return ErrMsg{Err: err, Context: fmt.Sprintf("playing #%d", entry.Index)}
		}
		return PlaybackStartedMsg{Entry: entry}
	}
}
