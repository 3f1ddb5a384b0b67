package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vmunix/igrab/internal/api"
	"github.com/vmunix/igrab/internal/fetch"
	"github.com/vmunix/igrab/internal/history"
	"github.com/vmunix/igrab/internal/job"
	"github.com/vmunix/igrab/internal/orchestrator"
	"github.com/vmunix/igrab/internal/progress"
)

var getCmd = &cobra.Command{
	Use:   "get <target>",
	Short: "Download a profile or post into a zip archive",
	Long: `Download a profile or post into a zip archive.

The target is a username or a post/reel URL. In auto mode the server
decides which one it is.

Examples:
  igrab get john.doe_99                          # Whole profile
  igrab get https://instagram.com/p/ABC123/      # Single post
  igrab get john.doe_99 --mode profile --out ~/Downloads
  igrab get john.doe_99 --direct                 # Skip the API proxy`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func init() {
	rootCmd.AddCommand(getCmd)
	getCmd.Flags().StringP("mode", "m", "auto", "Download mode (profile, post, auto)")
	getCmd.Flags().StringP("out", "o", ".", "Directory to write the archive into")
	getCmd.Flags().IntP("concurrency", "c", 0, "Concurrent media fetches (default from config)")
	getCmd.Flags().Bool("direct", false, "Fetch media URLs directly instead of through the API proxy")
	getCmd.Flags().Bool("quiet", false, "Suppress the progress bar")
}

func runGet(cmd *cobra.Command, args []string) error {
	target := args[0]
	modeFlag, _ := cmd.Flags().GetString("mode")
	outDir, _ := cmd.Flags().GetString("out")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	direct, _ := cmd.Flags().GetBool("direct")
	quiet, _ := cmd.Flags().GetBool("quiet")

	mode, err := parseMode(modeFlag)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	client := api.NewClient(cfg.API.URL, api.WithLogger(logger))

	var strategy fetch.Strategy
	if direct || cfg.Fetch.Strategy == "direct" {
		strategy = fetch.NewDirectStrategy()
	} else {
		strategy = fetch.NewProxyStrategy(cfg.API.URL)
	}
	fetcher := fetch.NewFetcher(strategy,
		fetch.WithLogger(logger),
		fetch.WithRateLimit(cfg.Fetch.RateLimit),
	)

	sinks := []progress.Sink{progress.NewLogSink(logger)}
	var bar *barSink
	if !quiet {
		bar = newBarSink()
		sinks = append(sinks, bar)
	}
	tracker := progress.NewTracker(sinks...)

	opts := []orchestrator.Option{
		orchestrator.WithLogger(logger),
		orchestrator.WithPollOptions(
			job.WithInterval(time.Duration(cfg.Poll.IntervalSeconds)*time.Second),
			job.WithMaxAttempts(cfg.Poll.MaxAttempts),
		),
	}
	if concurrency > 0 {
		opts = append(opts, orchestrator.WithConcurrency(concurrency))
	} else {
		opts = append(opts, orchestrator.WithConcurrency(cfg.Fetch.Concurrency))
	}

	// History is best effort: a broken database should not block a download.
	if store, db, err := history.Open(cfg.History.Path); err != nil {
		logger.Warn("history disabled", "error", err)
	} else {
		defer func() { _ = db.Close() }()
		opts = append(opts, orchestrator.WithHistory(store))
	}

	orch := orchestrator.New(client, fetcher, tracker, opts...)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	outcome, err := orch.Run(ctx, orchestrator.Request{Target: target, Mode: mode})
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return err
	}

	if outcome.Archive == nil {
		fmt.Println("No media found; nothing to save.")
		return nil
	}

	path := filepath.Join(outDir, outcome.ArchiveName)
	if err := os.WriteFile(path, outcome.Archive, 0o644); err != nil {
		return fmt.Errorf("write archive: %w", err)
	}

	fmt.Printf("Saved %d of %d files to %s", outcome.Archived, outcome.Requested, path)
	if outcome.Failed > 0 {
		fmt.Printf(" (%d failed)", outcome.Failed)
	}
	fmt.Printf(" in %s\n", outcome.Elapsed.Round(time.Millisecond))
	return nil
}
