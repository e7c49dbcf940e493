package tui

import "github.com/charmbracelet/lipgloss"

var (
	brandBlue = lipgloss.Color("#0A66C2")
	skyBlue   = lipgloss.Color("#70B5F9")
	okGreen   = lipgloss.Color("#44B37F")
	warnAmber = lipgloss.Color("#F5A623")
	errorRed  = lipgloss.Color("#CC1016")
	darkBg    = lipgloss.Color("#1B1F23")
	panelBg   = lipgloss.Color("#252A30")
	dimWhite  = lipgloss.Color("#B0B0B0")

	baseStyle = lipgloss.NewStyle().
			Background(darkBg).
			Foreground(dimWhite)

	logoStyle = lipgloss.NewStyle().
			Foreground(skyBlue).
			Bold(true).
			Padding(1, 0).
			Align(lipgloss.Center)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(brandBlue).
			Background(panelBg).
			Padding(1, 2)

	titleStyle = lipgloss.NewStyle().
			Background(brandBlue).
			Foreground(lipgloss.Color("#FFFFFF")).
			Bold(true).
			Padding(0, 1)

	statsLabelStyle = lipgloss.NewStyle().
			Foreground(skyBlue).
			Bold(true)

	statsValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	successStyle = lipgloss.NewStyle().
			Foreground(okGreen).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorRed).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(warnAmber).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(dimWhite).
			Faint(true)

	logTimestampStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#666666"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			Padding(1, 0, 0, 2)
)

// stateStyle colors a batch row by its state
func stateStyle(s BatchState) lipgloss.Style {
	switch s {
	case BatchDone:
		return successStyle
	case BatchFailed:
		return errorStyle
	case BatchRetrying:
		return warningStyle
	default:
		return statsValueStyle
	}
}
