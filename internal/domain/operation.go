package domain

import (
	"errors"
	"fmt"
	"time"
)

// OperationState is the lifecycle state of the submission controller
type OperationState int

const (
	StateIdle OperationState = iota
	StateValidating
	StateInFlight
	StateSucceeded
	StateFailed
)

// String returns the human-readable name of the state
func (s OperationState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateInFlight:
		return "in-flight"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// GenerationRequest carries a trimmed, non-empty prompt for one operation
type GenerationRequest struct {
	Prompt string
}

// Payload is the raw body of a successful generation
type Payload struct {
	Data        []byte
	ContentType string
}

// ResourceRef is a session-scoped playable reference to a stored payload
type ResourceRef struct {
	ID  string
	URL string
}

// PlaybackEntry is one rendered generation result. Entries are append-only.
type PlaybackEntry struct {
	ID          string
	Index       int // 1-based position in the session history
	Prompt      string
	Ref         ResourceRef
	ContentType string
	Size        int
	CreatedAt   time.Time
}

// HumanSize formats the payload size for display
func (e PlaybackEntry) HumanSize() string {
	switch n := e.Size; {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

// OperationOutcome reports how a single submission ended
type OperationOutcome struct {
	OpID    string
	State   OperationState
	Message string
	Entry   *PlaybackEntry // nil unless State == StateSucceeded
	Err     error
}

// Superseded reports whether a newer operation replaced this one before it settled
func (o OperationOutcome) Superseded() bool {
	return errors.Is(o.Err, ErrSuperseded)
}
