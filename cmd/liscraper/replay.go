package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"liscraper/pkg/browser"
	"liscraper/pkg/logger"
	"liscraper/pkg/models"
	"liscraper/pkg/pacing"
	"liscraper/pkg/scraper"
	"liscraper/pkg/ui"
)

var (
	replayPosts     int
	replayProfile   string
	replayPerReveal int
)

// replayCmd runs the batch pipeline against a saved feed page
var replayCmd = &cobra.Command{
	Use:   "replay <page.html>",
	Short: "Run an extraction against a saved feed page",
	Long: `Run the full batch pipeline offline against an HTML file saved from a
LinkedIn activity page. Scrolling reveals the saved posts a few at a time the
way the live feed does, so batching, deduplication and merging behave as in a
real run. No browser is started and no login happens.`,
	Example: `  liscraper replay saved-feed.html -n 20 --batch-size 8`,
	Args:    cobra.ExactArgs(1),
	RunE:    runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)

	replayCmd.Flags().IntVarP(&replayPosts, "posts", "n", 10, "number of posts to collect")
	replayCmd.Flags().IntVar(&batchSize, "batch-size", 0, "posts per batch (default from config: 30)")
	replayCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory (default from config: output)")
	replayCmd.Flags().StringVar(&replayProfile, "profile", "https://www.linkedin.com/in/replay", "profile url the page stands for")
	replayCmd.Flags().IntVar(&replayPerReveal, "reveal", 3, "posts revealed per scroll")
	replayCmd.Flags().BoolVar(&useTUI, "tui", false, "use the full-screen dashboard")
}

func runReplay(cmd *cobra.Command, args []string) error {
	page, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read page: %w", err)
	}

	flags := scrapeFlags(cmd)
	flags["no-pacing"] = true
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	useTUI = cfg.UI.TUI
	cfg.Scrape.BetweenBatches = 0
	cfg.Output.WriteJSON = true

	opts := browser.DefaultSnapshotOptions()
	opts.ItemsPerScroll = replayPerReveal
	opts.Location = replayProfile
	launcher := browser.NewSnapshotLauncher(page, opts)

	session := models.NewSession(replayProfile, replayPosts, cfg.Scrape.BatchSize)
	if !useTUI {
		ui.PrintInfo("Replaying", args[0])
	}
	logger.GetLogger().WithField("page", args[0]).Info("Replaying saved feed")

	creds := scraper.Credentials{Email: "replay@localhost", Password: "replay"}
	return execute(cmd.Context(), cfg, launcher, pacing.Zero(), session, creds, nil)
}
