package tui

import (
	"github.com/mmcdole/convo/internal/domain"
)

// Message types for the TUI

// ErrMsg represents an error
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// StatusMsg sets the status line
type StatusMsg struct {
	Message string
	IsError bool
}

// ProgressMsg moves the progress bar
type ProgressMsg struct {
	Percent float64
}

// ProgressVisibleMsg shows or hides the progress bar
type ProgressVisibleMsg struct {
	Visible bool
}

// EntryAppendedMsg signals a new playback entry in the history
type EntryAppendedMsg struct {
	Entry domain.PlaybackEntry
}

// OperationDoneMsg carries the outcome of a submission once it settles
type OperationDoneMsg struct {
	Outcome domain.OperationOutcome
}

// PlaybackStartedMsg signals that a replay launched the player
type PlaybackStartedMsg struct {
	Entry domain.PlaybackEntry
}

// surfacesClosedMsg is returned by the listener once the surfaces are closed
type surfacesClosedMsg struct{}
