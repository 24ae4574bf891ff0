package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mmcdole/convo/internal/tui/styles"
	"golang.org/x/term"
)

const (
	readyTimeout  = 15 * time.Second
	readyInterval = 500 * time.Millisecond
)

// clearSpinnerLine clears the spinner line from the terminal
const clearSpinnerLine = "\r\033[2K"

// readinessProbe is satisfied by the generation client
type readinessProbe interface {
	BaseURL() string
	WaitReady(ctx context.Context, interval time.Duration) error
}

// waitForServerWithSpinner waits for the generation server to answer. An
// unreachable server is reported but not fatal, requests may still succeed
// once it comes up.
func waitForServerWithSpinner(ctx context.Context, probe readinessProbe) bool {
	ctx, cancel := context.WithTimeout(ctx, readyTimeout)
	defer cancel()

	resultCh := make(chan error, 1)
	go func() {
		resultCh <- probe.WaitReady(ctx, readyInterval)
	}()

	interactive := term.IsTerminal(int(os.Stdout.Fd()))
	label := "Connecting to " + probe.BaseURL() + "..."

	frame := 0
	if interactive {
		fmt.Printf("\r%s %s", styles.SpinnerStyle.Render(styles.SpinnerFrames[frame]), label)
	}

	ticker := time.NewTicker(80 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case err := <-resultCh:
			if interactive {
				fmt.Print(clearSpinnerLine)
			}
			if err != nil {
				fmt.Fprintln(os.Stderr, styles.ErrorStyle.Render("✗ Server not responding at "+probe.BaseURL()+", generation may fail"))
				return false
			}
			return true

		case <-ticker.C:
			frame++
			if interactive {
				fmt.Printf("\r%s %s", styles.SpinnerStyle.Render(styles.SpinnerFrames[frame%len(styles.SpinnerFrames)]), label)
			}
		}
	}
}
