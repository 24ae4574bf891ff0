package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mmcdole/convo/internal/console"
	"github.com/mmcdole/convo/internal/controller"
	"github.com/mmcdole/convo/internal/render"
	"github.com/mmcdole/convo/internal/tui/styles"
	"github.com/spf13/cobra"
)

var noWait bool

var generateCmd = &cobra.Command{
	Use:   "generate <prompt>",
	Short: "Generate one conversation and play it",
	Long: `Generate sends the prompt to the server, shows progress while it runs and plays
the result. The session stays open until Ctrl+C so the player can keep streaming.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := setupLogger(cfg)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		sess, err := openSession(cfg, logger)
		if err != nil {
			return err
		}
		defer sess.Close()

		waitForServerWithSpinner(ctx, sess.client)

		con := console.New(strings.Join(args, " "))
		renderer := render.NewRenderer(sess.store, sess.server, sess.launcher, con, logger)
		ctrl := controller.New(
			sess.client,
			renderer,
			sess.sim,
			controller.Surfaces{Input: con, Status: con, Progress: con},
			cfg.Progress.HideDelay,
			logger,
		)

		outcome := ctrl.Trigger(ctx)
		if outcome.Err != nil {
			logger.Info("generation failed", "op", outcome.OpID, "error", outcome.Err)
			return exitError{code: 1}
		}

		if noWait {
			return nil
		}
		fmt.Println(styles.DimStyle.Render("Press Ctrl+C to end the session."))
		<-ctx.Done()
		return nil
	},
}

func init() {
	generateCmd.Flags().BoolVar(&noWait, "no-wait", false, "exit right after the result is handed to the player")
}
