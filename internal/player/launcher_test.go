package player

import (
	"errors"
	"reflect"
	"runtime"
	"testing"

	"github.com/mmcdole/convo/internal/log"
)

type launch struct {
	name string
	args []string
}

// fakeExec records launches and pretends only the listed binaries exist
func fakeExec(l *Launcher, installed ...string) *[]launch {
	var launches []launch
	have := make(map[string]bool)
	for _, name := range installed {
		have[name] = true
	}
	l.lookPath = func(name string) (string, error) {
		if have[name] {
			return "/usr/bin/" + name, nil
		}
		return "", errors.New("not found")
	}
	l.start = func(name string, args ...string) error {
		launches = append(launches, launch{name: name, args: args})
		return nil
	}
	return &launches
}

func TestPlayConfiguredKnownPlayerGetsAudioArgs(t *testing.T) {
	l := NewLauncher("/opt/bin/mpv", nil, log.NullLogger())
	launches := fakeExec(l)

	if err := l.Play("http://127.0.0.1:1/blob/a"); err != nil {
		t.Fatalf("Play: %v", err)
	}

	want := []launch{{
		name: "/opt/bin/mpv",
		args: []string{"--no-video", "--force-window=no", "http://127.0.0.1:1/blob/a"},
	}}
	if !reflect.DeepEqual(*launches, want) {
		t.Errorf("launches = %+v, want %+v", *launches, want)
	}
}

func TestPlayConfiguredArgsOverrideDefaults(t *testing.T) {
	l := NewLauncher("mpv", []string{"--volume=50"}, log.NullLogger())
	launches := fakeExec(l)

	if err := l.Play("u"); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if got := (*launches)[0].args; !reflect.DeepEqual(got, []string{"--volume=50", "u"}) {
		t.Errorf("args = %v", got)
	}
}

func TestPlayDetectsCandidate(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("candidate order differs on windows")
	}
	l := NewLauncher("", nil, log.NullLogger())
	launches := fakeExec(l, "ffplay")

	if err := l.Play("u"); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if len(*launches) != 1 || (*launches)[0].name != "ffplay" {
		t.Fatalf("launches = %+v, want ffplay", *launches)
	}
	if got := (*launches)[0].args; got[len(got)-1] != "u" || got[0] != "-nodisp" {
		t.Errorf("args = %v", got)
	}
}

func TestPlayFallsBackToSystemDefault(t *testing.T) {
	l := NewLauncher("", nil, log.NullLogger())
	launches := fakeExec(l)

	if err := l.Play("u"); err != nil {
		t.Fatalf("Play: %v", err)
	}

	want := map[string]string{"darwin": "open", "windows": "cmd"}[runtime.GOOS]
	if want == "" {
		want = "xdg-open"
	}
	if len(*launches) != 1 || (*launches)[0].name != want {
		t.Errorf("launches = %+v, want %s", *launches, want)
	}
}

func TestPlayerName(t *testing.T) {
	for _, tt := range []struct{ in, want string }{
		{"mpv", "mpv"},
		{"/usr/local/bin/FFplay", "ffplay"},
		{"vlc.exe", "vlc"},
	} {
		t.Run(tt.in, func(t *testing.T) {
			if got := playerName(tt.in); got != tt.want {
				t.Errorf("playerName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
