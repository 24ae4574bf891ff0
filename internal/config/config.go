package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Progress ProgressConfig `mapstructure:"progress"`
	Player   PlayerConfig   `mapstructure:"player"`
	Session  SessionConfig  `mapstructure:"session"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig holds the generation endpoint configuration
type ServerConfig struct {
	URL     string        `mapstructure:"url"`     // Base URL, /generate is appended
	Timeout time.Duration `mapstructure:"timeout"` // 0 = no limit, generation time is unbounded
}

// ProgressConfig tunes the simulated progress bar
type ProgressConfig struct {
	Interval  time.Duration `mapstructure:"interval"`
	MaxStep   float64       `mapstructure:"max_step"`
	Ceiling   float64       `mapstructure:"ceiling"`
	HideDelay time.Duration `mapstructure:"hide_delay"` // how long 100% stays visible after success
}

// PlayerConfig holds audio player configuration
type PlayerConfig struct {
	Command string   `mapstructure:"command"` // empty = auto-detect
	Args    []string `mapstructure:"args"`
}

// SessionConfig controls where session resources live while the app runs
type SessionConfig struct {
	Dir string `mapstructure:"dir"` // empty = temp dir, ":memory:" = no disk
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			URL: "http://127.0.0.1:8017",
		},
		Progress: ProgressConfig{
			Interval:  200 * time.Millisecond,
			MaxStep:   5,
			Ceiling:   95,
			HideDelay: 500 * time.Millisecond,
		},
		Player: PlayerConfig{
			Args: []string{},
		},
		Logging: LoggingConfig{
			File:  defaultLogPath(),
			Level: "INFO",
		},
	}
}

// defaultLogPath returns the default log file path for the current OS
func defaultLogPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "convo", "convo.log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "convo", "convo.log")
	}
}

// DefaultConfigPath returns the default config directory for the current OS
func DefaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "convo")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "convo")
	}
}

// newViper builds a viper instance seeded with defaults so env overrides
// apply to keys that are absent from the file.
func newViper(cfg *Config) *viper.Viper {
	v := viper.New()

	v.SetDefault("server.url", cfg.Server.URL)
	v.SetDefault("server.timeout", cfg.Server.Timeout)
	v.SetDefault("progress.interval", cfg.Progress.Interval)
	v.SetDefault("progress.max_step", cfg.Progress.MaxStep)
	v.SetDefault("progress.ceiling", cfg.Progress.Ceiling)
	v.SetDefault("progress.hide_delay", cfg.Progress.HideDelay)
	v.SetDefault("player.command", cfg.Player.Command)
	v.SetDefault("player.args", cfg.Player.Args)
	v.SetDefault("session.dir", cfg.Session.Dir)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.level", cfg.Logging.Level)

	// Environment variable overrides: CONVO_SERVER_URL, CONVO_LOGGING_LEVEL, ...
	v.SetEnvPrefix("CONVO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// LoadConfig loads configuration from file and environment.
// Extra search paths are tried before the defaults.
func LoadConfig(paths ...string) (*Config, error) {
	cfg := DefaultConfig()
	v := newViper(cfg)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.AddConfigPath(DefaultConfigPath())
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values the rest of the app relies on
func (c *Config) Validate() error {
	if c.Server.URL == "" {
		return fmt.Errorf("server.url is required")
	}
	if c.Progress.Interval <= 0 {
		return fmt.Errorf("progress.interval must be positive, got %s", c.Progress.Interval)
	}
	if c.Progress.Ceiling <= 0 || c.Progress.Ceiling >= 100 {
		return fmt.Errorf("progress.ceiling must be in (0, 100), got %v", c.Progress.Ceiling)
	}
	if c.Progress.MaxStep <= 0 {
		return fmt.Errorf("progress.max_step must be positive, got %v", c.Progress.MaxStep)
	}
	if c.Progress.HideDelay < 0 {
		return fmt.Errorf("progress.hide_delay must not be negative")
	}
	return nil
}

// SaveConfig writes the configuration to config.yaml in dir
// (DefaultConfigPath when dir is empty) and returns the file path.
func SaveConfig(cfg *Config, dir string) (string, error) {
	if dir == "" {
		dir = DefaultConfigPath()
	}

	// Ensure config directory exists
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	// Set fields individually to ensure correct key names (snake_case)
	v := viper.New()
	v.Set("server.url", cfg.Server.URL)
	v.Set("server.timeout", cfg.Server.Timeout.String())

	v.Set("progress.interval", cfg.Progress.Interval.String())
	v.Set("progress.max_step", cfg.Progress.MaxStep)
	v.Set("progress.ceiling", cfg.Progress.Ceiling)
	v.Set("progress.hide_delay", cfg.Progress.HideDelay.String())

	v.Set("player.command", cfg.Player.Command)
	v.Set("player.args", cfg.Player.Args)

	v.Set("session.dir", cfg.Session.Dir)

	v.Set("logging.file", cfg.Logging.File)
	v.Set("logging.level", cfg.Logging.Level)

	configFile := filepath.Join(dir, "config.yaml")
	if err := v.WriteConfigAs(configFile); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}

	return configFile, nil
}
