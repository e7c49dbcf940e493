package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"liscraper/pkg/auth"
	"liscraper/pkg/browser"
	"liscraper/pkg/checkpoint"
	"liscraper/pkg/config"
	"liscraper/pkg/linkedin"
	"liscraper/pkg/logger"
	"liscraper/pkg/models"
	"liscraper/pkg/pacing"
	"liscraper/pkg/pagination"
	"liscraper/pkg/ratelimit"
	"liscraper/pkg/scraper"
	"liscraper/pkg/storage"
	"liscraper/pkg/ui"
	"liscraper/pkg/ui/tui"
)

var (
	// Scrape command flags
	postCount        int
	batchSize        int
	headless         bool
	inputFile        string
	outputDir        string
	email            string
	password         string
	resumeSession    bool
	forceRestart     bool
	useTUI           bool
	batchScopedDedup bool
	noPacing         bool
)

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape <profile-url>",
	Short: "Extract posts from a LinkedIn profile or company feed",
	Long: `Extract up to N posts from a LinkedIn profile or company feed.

The request is split into batches of --batch-size posts. Every batch logs in
with a fresh browser, scrolls past the posts earlier batches collected and
writes its posts to its own file. When more than one batch ran, the files are
merged into a single "_all_batches_" file.

Credentials are taken from, in order:
  - --email and --password
  - LISCRAPER_EMAIL and LISCRAPER_PASSWORD
  - the default stored account (see 'liscraper auth login')

After every batch the session is checkpointed. An interrupted or failed run
can be continued with --resume.`,
	Example: `  # Collect 100 posts in batches of 30
  liscraper scrape https://www.linkedin.com/in/janedoe -n 100

  # A company page, headless, with the dashboard
  liscraper scrape https://www.linkedin.com/company/acme -n 60 --headless --tui

  # Read url, count, login and headless flag from a file
  liscraper scrape --input input.txt

  # Continue after an interruption
  liscraper scrape https://www.linkedin.com/in/janedoe -n 100 --resume`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScrape,
}

// resumeCmd continues a checkpointed session
var resumeCmd = &cobra.Command{
	Use:   "resume <profile-url>",
	Short: "Continue an interrupted session from its checkpoint",
	Long: `Continue the checkpointed session of a profile. The requested total and
batch size are the ones the session was started with.`,
	Example: `  liscraper resume https://www.linkedin.com/in/janedoe`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resumeSession = true
		return runScrape(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(scrapeCmd)
	rootCmd.AddCommand(resumeCmd)

	scrapeCmd.Flags().IntVarP(&postCount, "posts", "n", 0, "number of posts to collect")
	scrapeCmd.Flags().IntVar(&batchSize, "batch-size", 0, "posts per batch (default from config: 30)")
	scrapeCmd.Flags().StringVarP(&inputFile, "input", "i", "", "read url, posts, email, password and headless (y/n) from a file")
	scrapeCmd.Flags().BoolVar(&resumeSession, "resume", false, "resume from the last checkpoint")
	scrapeCmd.Flags().BoolVar(&forceRestart, "force-restart", false, "discard an existing checkpoint and start over")
	scrapeCmd.Flags().BoolVar(&batchScopedDedup, "batch-scoped-dedup", false, "deduplicate within each batch only")

	for _, c := range []*cobra.Command{scrapeCmd, resumeCmd} {
		c.Flags().BoolVar(&headless, "headless", false, "run the browser without a window")
		c.Flags().StringVarP(&outputDir, "output", "o", "", "output directory (default from config: output)")
		c.Flags().StringVar(&email, "email", "", "LinkedIn login email")
		c.Flags().StringVar(&password, "password", "", "LinkedIn login password")
		c.Flags().BoolVar(&useTUI, "tui", false, "use the full-screen dashboard")
		c.Flags().BoolVar(&noPacing, "no-pacing", false, "disable human-like delays")
	}
}

func runScrape(cmd *cobra.Command, args []string) error {
	var input *config.Input
	if inputFile != "" {
		in, err := config.ParseInputFile(inputFile)
		if err != nil {
			return err
		}
		input = in
	}

	var profileURL string
	switch {
	case len(args) > 0:
		profileURL = strings.TrimSpace(args[0])
	case input != nil:
		profileURL = input.ProfileURL
	default:
		return errors.New("a profile url is required (or --input)")
	}
	if _, err := linkedin.FeedURL(profileURL); err != nil {
		return err
	}

	flags := scrapeFlags(cmd)
	if input != nil && !cmd.Flags().Changed("headless") {
		flags["headless"] = input.Headless
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	useTUI = cfg.UI.TUI
	log := logger.GetLogger()

	creds, err := resolveCredentials(input)
	if err != nil {
		return err
	}

	requested := postCount
	if requested <= 0 && input != nil {
		requested = input.Posts
	}
	session := models.NewSession(profileURL, requested, cfg.Scrape.BatchSize)

	var checkpoints *checkpoint.Manager
	if cfg.Output.Checkpoints {
		checkpoints, err = checkpoint.NewManager(profileURL)
		if err != nil {
			return err
		}
		session, err = prepareSession(checkpoints, session)
		if err != nil {
			return err
		}
	}
	if session.RequestedTotal <= 0 {
		return errors.New("number of posts must be positive (use -n)")
	}

	if !cfg.UI.TUI {
		ui.PrintInfo("Target Profile", profileURL)
		ui.PrintInfo("Posts", fmt.Sprintf("%d in batches of %d", session.RequestedTotal, session.BatchSize))
	}
	log.WithFields(map[string]interface{}{
		"profile":    profileURL,
		"requested":  session.RequestedTotal,
		"batch_size": session.BatchSize,
		"version":    version,
	}).Info("liscraper starting")

	p := pacing.FromConfig(cfg.Pacing)
	launcher := browser.NewChromeLauncher(cfg.Browser, linkedin.LoginForm, p, log)
	return execute(cmd.Context(), cfg, launcher, p, session, creds, checkpoints)
}

// scrapeFlags collects the flags the user set, keyed the way
// config.MergeCommandLineFlags expects.
func scrapeFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	set := cmd.Flags().Changed
	if set("headless") {
		flags["headless"] = headless
	}
	if set("batch-size") {
		flags["batch-size"] = batchSize
	}
	if set("batch-scoped-dedup") {
		flags["batch-scoped-dedup"] = batchScopedDedup
	}
	if set("output") {
		flags["output"] = outputDir
	}
	if set("tui") {
		flags["tui"] = useTUI
	}
	if noPacing {
		flags["no-pacing"] = true
	}
	return flags
}

func resolveCredentials(input *config.Input) (scraper.Credentials, error) {
	e, pw := email, password
	if input != nil {
		if e == "" {
			e = input.Email
		}
		if pw == "" {
			pw = input.Password
		}
	}

	manager, err := auth.NewManager()
	if err != nil {
		return scraper.Credentials{}, fmt.Errorf("failed to initialize credential manager: %w", err)
	}
	account, err := manager.Resolve(e, pw)
	if err != nil {
		if errors.Is(err, auth.ErrCredentialsNotFound) {
			return scraper.Credentials{}, errors.New("no LinkedIn credentials found; run 'liscraper auth login' or pass --email and --password")
		}
		return scraper.Credentials{}, err
	}
	if !useTUI {
		ui.PrintInfo("Using account", account.Email)
	}
	return scraper.Credentials{Email: account.Email, Password: account.Password}, nil
}

// prepareSession applies --resume and --force-restart to an existing
// checkpoint for the profile.
func prepareSession(m *checkpoint.Manager, fresh models.ScrapeSession) (models.ScrapeSession, error) {
	if forceRestart {
		if err := m.Backup(); err != nil {
			return fresh, err
		}
		if err := m.Delete(); err != nil {
			return fresh, err
		}
		return fresh, nil
	}
	if !m.Exists() {
		if resumeSession {
			ui.PrintWarning("No checkpoint found, starting a new session")
		}
		return fresh, nil
	}
	if !resumeSession {
		return fresh, fmt.Errorf("a checkpoint exists at %s; use --resume to continue it or --force-restart to discard it", m.Path())
	}

	cp, err := m.Load()
	if err != nil {
		return fresh, err
	}
	session := cp.ToSession()
	if !useTUI {
		ui.PrintInfo("Resuming", fmt.Sprintf("%d of %d posts after %d batches", session.Offset, session.RequestedTotal, len(session.Batches)))
	}
	return session, nil
}

// execute runs session to completion with either the console progress
// display or the dashboard. SIGINT cancels the run and keeps the checkpoint.
func execute(parent context.Context, cfg *config.Config, launcher browser.Launcher, p pacing.Policy,
	session models.ScrapeSession, creds scraper.Credentials, checkpoints *checkpoint.Manager) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	log := logger.GetLogger()
	store, err := storage.NewManager(cfg.Output.Directory, storage.WithLogger(log))
	if err != nil {
		return err
	}

	var reporter scraper.Reporter
	var dashboard *tui.TUI
	if cfg.UI.TUI {
		dashboard = tui.NewTUI(cancel)
		reporter = dashboard
	} else {
		reporter = ui.NewProgressDisplay(os.Stdout, verbose)
	}

	s := scraper.New(launcher, store,
		scraper.WithLimiter(ratelimit.PerHour(cfg.RateLimit.SessionsPerHour, cfg.RateLimit.Burst)),
		scraper.WithPacing(p),
		scraper.WithPagination(pagination.OptionsFrom(cfg.Scrape)),
		scraper.WithLogger(log),
		scraper.WithReporter(reporter),
	)
	opts := []scraper.RunnerOption{scraper.WithRunnerLogger(log)}
	if checkpoints != nil {
		opts = append(opts, scraper.WithCheckpoints(checkpoints))
	}
	runner := scraper.NewRunner(s, store, scraper.RunnerConfigFrom(cfg), opts...)

	dashboardDone := make(chan error, 1)
	if dashboard != nil {
		go func() { dashboardDone <- dashboard.Start() }()
	}

	final, runErr := runner.Run(ctx, session, creds)

	if dashboard != nil {
		dashboard.Stop()
		if err := <-dashboardDone; err != nil {
			log.WithError(err).Warn("Dashboard exited with an error")
		}
	}
	ui.NewNotifier(cfg.UI.Notifications).SessionFinished(final, runErr)

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			ui.PrintWarning(fmt.Sprintf("Interrupted after %d posts; continue with 'liscraper resume %s'", final.Offset, final.ProfileURL))
			return nil
		}
		return runErr
	}
	printSummary(final)
	return nil
}

func printSummary(s models.ScrapeSession) {
	fmt.Println()
	ui.PrintInfo("Profile", s.ProfileLabel)
	ui.PrintInfo("Posts", fmt.Sprintf("%d of %d", s.Offset, s.RequestedTotal))
	ui.PrintInfo("Batches", fmt.Sprintf("%d", len(s.Batches)))
	if s.CanonicalPath != "" {
		ui.PrintInfo("Output", s.CanonicalPath)
	}

	if s.Terminal() == models.StateStalled {
		ui.PrintWarning("The feed stopped yielding new posts before the request was satisfied")
		return
	}
	ui.PrintSuccess("[EXTRACTION COMPLETED SUCCESSFULLY]")
}
