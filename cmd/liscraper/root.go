package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"liscraper/pkg/config"
	"liscraper/pkg/logger"
	"liscraper/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile    string
	logLevel      string
	logFile       string
	notifications bool
	quiet         bool
	verbose       bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "liscraper",
	Short: "Extract posts from LinkedIn profile and company feeds",
	Long: `liscraper collects the posts of a LinkedIn profile or company feed into
plain-text files, a batch at a time.

Each batch logs in with a fresh browser, scrolls past the posts earlier
batches already collected and writes the next ones to their own file. When
the request is satisfied the batch files are merged into one.

Features:
  - Batches with retries and a checkpoint to resume from
  - Deduplication across batches
  - Credentials in the system keychain or an encrypted file
  - Console progress or a full-screen dashboard`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet || logLevel == "error" {
			ui.SetQuietMode(true)
		}

		switch cmd.Name() {
		case "version", "help", "show":
		default:
			if !useTUI {
				ui.PrintLogo()
			}
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.PrintError("Error", err.Error())
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./.liscraper.yaml or ~/.config/liscraper/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error, disabled)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write logs to this file")
	rootCmd.PersistentFlags().BoolVar(&notifications, "notifications", true, "enable desktop notifications")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print every post and skip as it happens")

	rootCmd.SetVersionTemplate(`liscraper {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadConfig resolves the configuration with flags layered on top and
// installs the global logger.
func loadConfig(flags map[string]interface{}) (*config.Config, error) {
	if flags == nil {
		flags = make(map[string]interface{})
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}
	if logFile != "" {
		flags["log-file"] = logFile
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, err
	}
	if !notifications {
		cfg.UI.Notifications = false
	}
	if cfg.UI.TUI && cfg.Logging.File == "" {
		// Console logs would tear the dashboard.
		cfg.Logging.Level = "disabled"
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}
