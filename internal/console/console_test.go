package console

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mmcdole/convo/internal/domain"
)

func TestNonInteractiveProgressLines(t *testing.T) {
	var buf bytes.Buffer
	c := NewWriter(&buf, "cats", false, 10)

	c.SetProgress(10) // hidden: ignored
	c.SetProgressVisible(true)
	c.SetProgress(0)
	c.SetProgress(0.4) // same whole percent: ignored
	c.SetProgress(42.7)
	c.SetProgress(100)
	c.SetProgressVisible(false)
	c.SetProgress(50) // hidden again: ignored

	got := buf.String()
	want := "progress 0%\nprogress 42%\nprogress 100%\n"
	if got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestStatusAndEntries(t *testing.T) {
	var buf bytes.Buffer
	c := NewWriter(&buf, "a podcast about cats", false, 10)

	if c.Value() != "a podcast about cats" {
		t.Errorf("Value = %q", c.Value())
	}

	c.SetStatus("Error: model overloaded", true)
	c.Append(domain.PlaybackEntry{
		Index:       1,
		Prompt:      "a podcast about cats",
		ContentType: "audio/mpeg",
		Size:        2048,
		Ref:         domain.ResourceRef{URL: "http://127.0.0.1:1/blob/x"},
	})

	out := buf.String()
	for _, want := range []string{"Error: model overloaded", "#1", "a podcast about cats", "2.0 KB", "http://127.0.0.1:1/blob/x"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if len(c.Entries()) != 1 {
		t.Errorf("Entries = %d, want 1", len(c.Entries()))
	}
}

func TestInteractiveBarIsBrokenBeforeStatus(t *testing.T) {
	var buf bytes.Buffer
	c := NewWriter(&buf, "x", true, 10)

	c.SetProgressVisible(true)
	c.SetProgress(50)
	c.SetStatus("done", false)

	out := buf.String()
	if !strings.Contains(out, " 50%") {
		t.Errorf("bar not drawn: %q", out)
	}
	// The status starts on a fresh line after the bar
	if !strings.Contains(out, "50%\n") {
		t.Errorf("status overwrote the bar: %q", out)
	}
}

func TestRenderBarClamps(t *testing.T) {
	for _, tt := range []struct {
		in   float64
		want string
	}{
		{-5, "  0%"},
		{50, " 50%"},
		{250, "100%"},
	} {
		if got := RenderBar(tt.in, 4); !strings.HasSuffix(got, tt.want) {
			t.Errorf("RenderBar(%v) = %q, want suffix %q", tt.in, got, tt.want)
		}
	}
}
