package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"liscraper/pkg/checkpoint"
	"liscraper/pkg/models"
	"liscraper/pkg/ui"
)

var clearAll bool

// sessionCmd groups the checkpoint commands
var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect and clear checkpointed sessions",
	Long: `Inspect and clear the checkpoints that let an interrupted session
resume. A checkpoint is kept per profile and removed once its session
finishes.`,
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List checkpointed sessions",
	RunE:  runSessionList,
}

var sessionStatusCmd = &cobra.Command{
	Use:   "status <profile-url>",
	Short: "Show the batches of a checkpointed session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionStatus,
}

var sessionClearCmd = &cobra.Command{
	Use:   "clear [profile-url]",
	Short: "Delete a checkpoint",
	Example: `  liscraper session clear https://www.linkedin.com/in/janedoe
  liscraper session clear --all`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSessionClear,
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionListCmd)
	sessionCmd.AddCommand(sessionStatusCmd)
	sessionCmd.AddCommand(sessionClearCmd)

	sessionClearCmd.Flags().BoolVar(&clearAll, "all", false, "delete every checkpoint")
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Header = text.FormatTitle
	return t
}

func runSessionList(cmd *cobra.Command, args []string) error {
	dir, err := checkpoint.Directory()
	if err != nil {
		return err
	}
	summaries, err := checkpoint.List(dir)
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		ui.PrintInfo("No checkpointed sessions", dir)
		return nil
	}

	t := newTable()
	t.AppendHeader(table.Row{"profile", "label", "posts", "batches", "state", "updated"})
	for _, s := range summaries {
		t.AppendRow(table.Row{
			s.ProfileURL,
			s.ProfileLabel,
			fmt.Sprintf("%d/%d", s.Collected, s.Requested),
			s.Batches,
			stateText(s.State),
			s.UpdatedAt.Format("2006-01-02 15:04"),
		})
	}
	t.Render()
	return nil
}

func runSessionStatus(cmd *cobra.Command, args []string) error {
	m, err := checkpoint.NewManager(args[0])
	if err != nil {
		return err
	}
	cp, err := m.Load()
	if err != nil {
		return err
	}
	if cp == nil {
		ui.PrintInfo("No checkpoint for", args[0])
		return nil
	}

	s := cp.ToSession()
	ui.PrintInfo("Profile", s.ProfileURL)
	if s.ProfileLabel != "" {
		ui.PrintInfo("Label", s.ProfileLabel)
	}
	ui.PrintInfo("Posts", fmt.Sprintf("%d of %d (batch size %d)", s.Offset, s.RequestedTotal, s.BatchSize))
	ui.PrintInfo("State", string(s.Terminal()))
	ui.PrintInfo("Checkpoint", m.Path())

	if len(s.Batches) == 0 {
		return nil
	}
	t := newTable()
	t.AppendHeader(table.Row{"#", "accepted", "target", "cumulative", "skipped", "pagination", "file"})
	for _, b := range s.Batches {
		t.AppendRow(table.Row{
			b.Index,
			b.Accepted,
			b.Target,
			b.Cumulative,
			formatSkipped(b.Skipped),
			string(b.Pagination),
			b.ArtifactPath,
		})
	}
	t.AppendFooter(table.Row{"", s.Offset, s.RequestedTotal})
	t.Render()
	return nil
}

func runSessionClear(cmd *cobra.Command, args []string) error {
	if clearAll {
		dir, err := checkpoint.Directory()
		if err != nil {
			return err
		}
		summaries, err := checkpoint.List(dir)
		if err != nil {
			return err
		}
		for _, s := range summaries {
			if err := os.Remove(s.Path); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("failed to delete checkpoint: %w", err)
			}
		}
		ui.PrintSuccess(fmt.Sprintf("Deleted %d checkpoints", len(summaries)))
		return nil
	}

	if len(args) == 0 {
		return fmt.Errorf("give a profile url or --all")
	}
	m, err := checkpoint.NewManager(args[0])
	if err != nil {
		return err
	}
	if !m.Exists() {
		ui.PrintInfo("No checkpoint for", args[0])
		return nil
	}
	if err := m.Delete(); err != nil {
		return err
	}
	ui.PrintSuccess("Checkpoint deleted: " + m.Path())
	return nil
}

func stateText(s models.TerminalState) string {
	switch s {
	case models.StateComplete:
		return text.FgGreen.Sprint(string(s))
	case models.StateStalled:
		return text.FgYellow.Sprint(string(s))
	default:
		return text.FgCyan.Sprint(string(s))
	}
}

func formatSkipped(skipped map[models.SkipReason]int) string {
	if len(skipped) == 0 {
		return "-"
	}
	var parts []string
	for _, reason := range models.SkipReasons {
		if n := skipped[reason]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s %d", reason, n))
		}
	}
	return strings.Join(parts, ", ")
}
