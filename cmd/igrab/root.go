package main

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vmunix/igrab/internal/config"
)

var version = "dev"

var (
	configPath string
	apiURL     string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "igrab",
	Short: "CLI client for the instaloader media-download API",
	Long: `igrab - CLI client for the instaloader media-download API

Submits a download job for a profile or post, waits for the server to
resolve the media, fetches every file, and packs the results into a
single zip archive.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default igrab.toml if present)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "API server URL (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")

	rootCmd.Version = version
	rootCmd.SetVersionTemplate("igrab {{.Version}}\n")
}

// loadConfig resolves the effective configuration: an explicit --config path
// must exist; otherwise igrab.toml is used when present, falling back to
// built-in defaults. Flags override file values.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	switch {
	case configPath != "":
		c, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		cfg = c
	default:
		c, err := config.Load("igrab.toml")
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, err
			}
			c = config.Default()
		}
		cfg = c
	}

	if apiURL != "" {
		cfg.API.URL = apiURL
	}
	return cfg, nil
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// newLogger builds the CLI logger. --verbose wins over the configured level.
func newLogger(cfg *config.Config) *slog.Logger {
	level := parseLogLevel(cfg.Log.Level)
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}
