package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mmcdole/convo/internal/config"
	"github.com/spf13/cobra"
)

var forceInit bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := configDir
		if dir == "" {
			dir = config.DefaultConfigPath()
		}

		path := filepath.Join(dir, "config.yaml")
		if _, err := os.Stat(path); err == nil && !forceInit {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}

		written, err := config.SaveConfig(config.DefaultConfig(), dir)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Wrote %s\n", written)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		fmt.Printf("server.url:          %s\n", cfg.Server.URL)
		fmt.Printf("server.timeout:      %s\n", cfg.Server.Timeout)
		fmt.Printf("progress.interval:   %s\n", cfg.Progress.Interval)
		fmt.Printf("progress.max_step:   %v\n", cfg.Progress.MaxStep)
		fmt.Printf("progress.ceiling:    %v\n", cfg.Progress.Ceiling)
		fmt.Printf("progress.hide_delay: %s\n", cfg.Progress.HideDelay)
		fmt.Printf("player.command:      %s\n", cfg.Player.Command)
		fmt.Printf("player.args:         %v\n", cfg.Player.Args)
		fmt.Printf("session.dir:         %s\n", cfg.Session.Dir)
		fmt.Printf("logging.file:        %s\n", cfg.Logging.File)
		fmt.Printf("logging.level:       %s\n", cfg.Logging.Level)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}
