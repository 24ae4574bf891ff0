package domain

// UI surfaces the submission controller drives. Implementations must be safe
// to call from a goroutine other than the UI loop.

// PromptInput exposes the current text of the prompt field
type PromptInput interface {
	Value() string
}

// StatusText displays the operation status message
type StatusText interface {
	SetStatus(text string, isError bool)
}

// ProgressBar displays the progress surface (container + fill)
type ProgressBar interface {
	SetProgress(percent float64)
	SetProgressVisible(visible bool)
}

// PlaybackList accumulates playback controls, oldest first
type PlaybackList interface {
	Append(entry PlaybackEntry)
}
