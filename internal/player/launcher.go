package player

import (
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// Launcher opens audio URLs in an external player
type Launcher struct {
	command string   // configured player command, empty for auto-detect
	args    []string // additional arguments for the player
	logger  *slog.Logger

	// lookPath and start are swapped in tests
	lookPath func(string) (string, error)
	start    func(name string, args ...string) error
}

// playerConfig defines how to run one known player for audio-only playback
type playerConfig struct {
	audioArgs []string            // args that keep the player headless / windowless
	platforms map[string][]string // platform -> executable names to try in order
}

// players registry - single source of truth for all player configuration
var players = map[string]playerConfig{
	"mpv": {
		audioArgs: []string{"--no-video", "--force-window=no"},
		platforms: map[string][]string{
			"darwin":  {"mpv"},
			"linux":   {"mpv"},
			"windows": {"mpv"},
		},
	},
	"ffplay": {
		audioArgs: []string{"-nodisp", "-autoexit", "-loglevel", "quiet"},
		platforms: map[string][]string{
			"darwin":  {"ffplay"},
			"linux":   {"ffplay"},
			"windows": {"ffplay"},
		},
	},
	"vlc": {
		audioArgs: []string{"--intf", "dummy", "--play-and-exit"},
		platforms: map[string][]string{
			"darwin":  {"vlc", "/Applications/VLC.app/Contents/MacOS/VLC"},
			"linux":   {"cvlc", "vlc"},
			"windows": {"vlc"},
		},
	},
	"mplayer": {
		audioArgs: []string{"-novideo", "-really-quiet"},
		platforms: map[string][]string{
			"darwin": {"mplayer"},
			"linux":  {"mplayer"},
		},
	},
}

// candidatePlayers defines the preferred player order for each platform
var candidatePlayers = map[string][]string{
	"darwin":  {"mpv", "ffplay", "vlc", "mplayer"},
	"linux":   {"mpv", "ffplay", "vlc", "mplayer"},
	"windows": {"mpv", "vlc", "ffplay"},
}

// NewLauncher creates a new Launcher. Known players get their audio-only
// arguments when no args are configured.
func NewLauncher(command string, args []string, logger *slog.Logger) *Launcher {
	if logger == nil {
		logger = slog.Default()
	}

	resolvedArgs := args
	if len(resolvedArgs) == 0 && command != "" {
		if cfg, ok := players[playerName(command)]; ok {
			resolvedArgs = cfg.audioArgs
			logger.Debug("using default audio args", "player", playerName(command), "args", resolvedArgs)
		}
	}

	return &Launcher{
		command:  command,
		args:     resolvedArgs,
		logger:   logger,
		lookPath: exec.LookPath,
		start: func(name string, args ...string) error {
			return exec.Command(name, args...).Start() // Start async, don't wait
		},
	}
}

// playerName normalizes a command path to a registry key
func playerName(command string) string {
	base := filepath.Base(command)
	// Strip any extension (for Windows .exe)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.ToLower(base)
}

// Play opens url in the configured player, a detected one, or the system default
func (l *Launcher) Play(url string) error {
	// Tier 1: User configured a specific player
	if l.command != "" {
		cmdArgs := append(append([]string{}, l.args...), url)
		l.logger.Info("launching configured player", "command", l.command, "args", cmdArgs)
		return l.start(l.command, cmdArgs...)
	}

	// Tier 2: Try candidate chain
	if name, err := l.detectAndLaunch(url); err == nil {
		l.logger.Info("launched with detected player", "player", name)
		return nil
	}

	// Tier 3: Fall back to system default (open/xdg-open/start)
	l.logger.Info("no candidate players found, using system default")
	return l.launchDefault(url)
}

// detectAndLaunch tries candidate players in order.
// Returns the player name that succeeded.
func (l *Launcher) detectAndLaunch(url string) (string, error) {
	candidates, ok := candidatePlayers[runtime.GOOS]
	if !ok {
		candidates = candidatePlayers["linux"] // default
	}

	for _, name := range candidates {
		cfg, exists := players[name]
		if !exists {
			continue
		}

		paths, ok := cfg.platforms[runtime.GOOS]
		if !ok {
			l.logger.Debug("player not available on this platform", "player", name, "platform", runtime.GOOS)
			continue
		}

		for _, path := range paths {
			if _, err := l.lookPath(path); err != nil {
				l.logger.Debug("launch path not available", "player", name, "path", path, "error", err)
				continue
			}
			cmdArgs := append(append([]string{}, cfg.audioArgs...), url)
			if err := l.start(path, cmdArgs...); err != nil {
				l.logger.Debug("launch failed", "player", name, "path", path, "error", err)
				continue
			}
			return name, nil
		}
	}

	return "", fmt.Errorf("no candidate players found")
}

// launchDefault opens the URL using the system default handler
func (l *Launcher) launchDefault(url string) error {
	l.logger.Info("launching with system default", "os", runtime.GOOS, "url", url)

	switch runtime.GOOS {
	case "darwin":
		return l.start("open", url)
	case "windows":
		return l.start("cmd", "/c", "start", "", url)
	default:
		// Linux and other Unix-like systems
		return l.start("xdg-open", url)
	}
}
