package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"liscraper/pkg/models"
)

const logo = `
╦  ╦╔═╗╔═╗╦═╗╔═╗╔═╗╔═╗╦═╗
║  ║╚═╗║  ╠╦╝╠═╣╠═╝║╣ ╠╦╝
╩═╝╩╚═╝╚═╝╩╚═╩ ╩╩  ╚═╝╩╚═`

func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	half := (m.width - 4) / 2
	left := lipgloss.JoinVertical(lipgloss.Left, m.renderSessionPanel(half), m.renderBatchPanel(half))
	right := lipgloss.JoinVertical(lipgloss.Left, m.renderRecentPanel(half), m.renderLogsPanel(half))

	sections := []string{
		logoStyle.Width(m.width).Render(logo),
		lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right),
	}
	if m.showHelp {
		sections = append(sections, m.renderHelp())
	} else {
		sections = append(sections, helpStyle.Render("Press ? for help, q to stop"))
	}

	return baseStyle.Width(m.width).Height(m.height).Render(
		lipgloss.JoinVertical(lipgloss.Left, sections...),
	)
}

func (m *Model) renderSessionPanel(width int) string {
	title := titleStyle.Render(" SESSION ")

	status := m.spinner.View() + " running"
	switch {
	case m.finished && m.final != nil:
		status = errorStyle.Render("✗ stopped")
	case m.finished && m.state == models.StateStalled:
		status = warningStyle.Render("! feed ran dry")
	case m.finished:
		status = successStyle.Render("✓ complete")
	case m.waitReason != "":
		left := max(0, m.waitUntil.Sub(m.now()))
		status = warningStyle.Render(fmt.Sprintf("⏳ %s, %s left", m.waitReason, formatDuration(left)))
	}

	lines := []string{
		stat("Profile:", m.profile),
		stat("Status:", status),
		stat("Collected:", fmt.Sprintf("%d / %d posts", m.collected, m.requested)),
		m.progress.ViewAs(m.Completion()),
		stat("Elapsed:", formatDuration(m.now().Sub(m.sessionStart))),
		stat("ETA:", formatDuration(m.ETA())),
	}
	if skipped := m.Skipped(); len(skipped) > 0 {
		lines = append(lines, stat("Skipped:", formatSkips(skipped)))
	}
	if m.output != "" {
		lines = append(lines, stat("Output:", m.output))
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(lines, "\n")),
	)
}

func (m *Model) renderBatchPanel(width int) string {
	title := titleStyle.Render(" BATCHES ")

	if len(m.batches) == 0 {
		return panelStyle.Width(width).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, mutedStyle.Render("No batches yet")),
		)
	}

	start := max(0, len(m.batches)-8)
	rows := make([]string, 0, len(m.batches)-start)
	for _, b := range m.batches[start:] {
		mark := map[BatchState]string{
			BatchActive:   m.spinner.View(),
			BatchRetrying: "↻",
			BatchDone:     "✓",
			BatchFailed:   "✗",
		}[b.State]
		row := fmt.Sprintf("%s #%-3d offset %-5d %3d/%-3d", mark, b.Index, b.Offset, b.Accepted, b.Target)
		if !b.Finished.IsZero() {
			row += "  " + formatDuration(b.Finished.Sub(b.Started))
		}
		rows = append(rows, stateStyle(b.State).Render(row))
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(rows, "\n")),
	)
}

func (m *Model) renderRecentPanel(width int) string {
	title := titleStyle.Render(" LATEST POSTS ")

	content := mutedStyle.Render("Nothing collected yet")
	if len(m.recent) > 0 {
		lines := make([]string, len(m.recent))
		for i, r := range m.recent {
			lines[i] = truncate(strings.Join(strings.Fields(r), " "), width-6)
		}
		content = strings.Join(lines, "\n")
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, content),
	)
}

func (m *Model) renderLogsPanel(width int) string {
	title := titleStyle.Render(" ACTIVITY ")

	start := max(0, len(m.logMessages)-10)
	var logs []string
	for _, entry := range m.logMessages[start:] {
		timestamp := logTimestampStyle.Render(entry.Time.Format("15:04:05"))
		level := lipgloss.NewStyle().Foreground(entry.Color).Bold(true).Render(fmt.Sprintf("[%-7s]", entry.Level))
		logs = append(logs, fmt.Sprintf("%s %s %s", timestamp, level, truncate(entry.Message, width-25)))
	}

	content := strings.Join(logs, "\n")
	if content == "" {
		content = mutedStyle.Render("No activity yet...")
	}

	return panelStyle.Width(width).Height(max(5, m.height-30)).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, content),
	)
}

func (m *Model) renderHelp() string {
	help := `
  Keys:
    q/Q, ctrl+c  - Stop the run (progress is checkpointed)
    ctrl+l       - Clear the activity log
    ?            - Toggle this help

  Batches:
    ` + successStyle.Render("✓") + `  saved
    ` + warningStyle.Render("↻") + `  failed, retrying
    ` + errorStyle.Render("✗") + `  failed
`
	return panelStyle.Width(m.width).Render(help)
}

func stat(label, value string) string {
	return statsLabelStyle.Render(label) + " " + statsValueStyle.Render(value)
}

func formatSkips(skipped map[models.SkipReason]int) string {
	parts := make([]string, 0, len(skipped))
	for reason, n := range skipped {
		parts = append(parts, fmt.Sprintf("%d %s", n, reason))
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 3 || len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
