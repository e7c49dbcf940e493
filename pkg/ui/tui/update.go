package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"liscraper/pkg/models"
)

type SessionStartedMsg struct {
	Session models.ScrapeSession
}

type BatchStartedMsg struct {
	Index  int
	Offset int
	Target int
}

type PostAcceptedMsg struct {
	Batch    int
	Post     models.Post
	Accepted int
}

type PostSkippedMsg struct {
	Batch  int
	Reason models.SkipReason
}

type BatchFinishedMsg struct {
	Result models.BatchResult
}

type BatchFailedMsg struct {
	Index     int
	Err       error
	WillRetry bool
}

type WaitingMsg struct {
	Reason   string
	Duration time.Duration
}

type SessionFinishedMsg struct {
	Session models.ScrapeSession
	Err     error
}

// LogMsg adds a free-form entry to the activity log
type LogMsg struct {
	Level   string
	Message string
}

// TickMsg refreshes timers
type TickMsg time.Time

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = max(10, msg.Width/2-12)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case TickMsg:
		return m, tickCmd()

	case SessionStartedMsg:
		m.startSession(msg.Session)
	case BatchStartedMsg:
		m.startBatch(msg.Index, msg.Offset, msg.Target)
	case PostAcceptedMsg:
		m.acceptPost(msg.Batch, msg.Post, msg.Accepted)
	case PostSkippedMsg:
		m.skipPost(msg.Batch, msg.Reason)
	case BatchFinishedMsg:
		m.finishBatch(msg.Result)
	case BatchFailedMsg:
		m.failBatch(msg.Index, msg.Err, msg.WillRetry)
	case WaitingMsg:
		m.wait(msg.Reason, msg.Duration)
	case SessionFinishedMsg:
		m.finishSession(msg.Session, msg.Err)
	case LogMsg:
		m.AddLogMessage(msg.Level, msg.Message)
	}
	return m, nil
}

func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "Q", "ctrl+c":
		if !m.finished && m.onQuit != nil {
			m.onQuit()
		}
		return m, tea.Quit

	case "?":
		m.showHelp = !m.showHelp

	case "ctrl+l":
		m.logMessages = nil
	}
	return m, nil
}

func tickCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
