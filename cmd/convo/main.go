package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/convo/internal/config"
	"github.com/mmcdole/convo/internal/controller"
	"github.com/mmcdole/convo/internal/history"
	"github.com/mmcdole/convo/internal/log"
	"github.com/mmcdole/convo/internal/render"
	"github.com/mmcdole/convo/internal/tui"
	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags
var Version = "dev"

// Global flags
var (
	configDir string
	serverURL string
)

var rootCmd = &cobra.Command{
	Use:           "convo",
	Short:         "Generate and play conversations from a prompt",
	Long:          `convo sends a prompt to a conversation generation server and plays back the audio it returns.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "directory containing config.yaml")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "generation server URL (overrides config)")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(configCmd)
}

// exitError carries an exit code for failures already reported to the user
type exitError struct {
	code int
}

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

func main() {
	if err := rootCmd.Execute(); err != nil {
		var exit exitError
		if errors.As(err, &exit) {
			os.Exit(exit.code)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads configuration and applies command line overrides
func loadConfig() (*config.Config, error) {
	var paths []string
	if configDir != "" {
		paths = append(paths, configDir)
	}
	cfg, err := config.LoadConfig(paths...)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if serverURL != "" {
		cfg.Server.URL = serverURL
	}
	return cfg, nil
}

// setupLogger installs the file logger as the default
func setupLogger(cfg *config.Config) *slog.Logger {
	logger, err := log.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = log.NullLogger()
	}
	slog.SetDefault(logger)
	return logger
}

func runTUI(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := setupLogger(cfg)
	logger.Info("starting convo", "version", Version, "server", cfg.Server.URL)

	sess, err := openSession(cfg, logger)
	if err != nil {
		return err
	}
	defer sess.Close()

	waitForServerWithSpinner(ctx, sess.client)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	hist := history.New()
	surfaces := tui.NewSurfaces(hist)
	defer surfaces.Close()

	renderer := render.NewRenderer(sess.store, sess.server, sess.launcher, surfaces, logger)
	ctrl := controller.New(
		sess.client,
		renderer,
		sess.sim,
		controller.Surfaces{Input: surfaces, Status: surfaces, Progress: surfaces},
		cfg.Progress.HideDelay,
		logger,
	)

	model := tui.NewModel(ctx, ctrl, renderer, surfaces, hist, cfg.Server.URL, logger)
	p := tea.NewProgram(model, tea.WithAltScreen())

	logger.Info("starting TUI")

	if _, err := p.Run(); err != nil {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	logger.Info("shutting down", "entries", hist.Len())
	return nil
}
