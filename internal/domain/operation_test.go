package domain

import (
	"errors"
	"testing"
)

func TestOperationStateString(t *testing.T) {
	tests := []struct {
		state OperationState
		want  string
	}{
		{StateIdle, "idle"},
		{StateInFlight, "in-flight"},
		{StateFailed, "failed"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestHumanSize(t *testing.T) {
	tests := []struct {
		size int
		want string
	}{
		{512, "512 B"},
		{1536, "1.5 KB"},
		{3 << 20, "3.0 MB"},
	}
	for _, tt := range tests {
		if got := (PlaybackEntry{Size: tt.size}).HumanSize(); got != tt.want {
			t.Errorf("HumanSize(%d) = %q, want %q", tt.size, got, tt.want)
		}
	}
}

func TestErrorsUnwrap(t *testing.T) {
	if !errors.Is(&ValidationError{Err: ErrEmptyPrompt}, ErrEmptyPrompt) {
		t.Error("ValidationError does not unwrap to ErrEmptyPrompt")
	}

	cause := errors.New("connection refused")
	var tf *TransportFailure
	if !errors.As(error(&TransportFailure{Op: "send request", Err: cause}), &tf) || !errors.Is(tf, cause) {
		t.Error("TransportFailure does not unwrap to its cause")
	}

	out := OperationOutcome{Err: ErrSuperseded}
	if !out.Superseded() {
		t.Error("outcome with ErrSuperseded not reported as superseded")
	}
}
