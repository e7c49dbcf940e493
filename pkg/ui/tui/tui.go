package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"liscraper/pkg/models"
	"liscraper/pkg/scraper"
)

var _ scraper.Reporter = (*TUI)(nil)

// TUI is a full-screen dashboard fed by scraper progress events
type TUI struct {
	program *tea.Program
	model   *Model
}

// NewTUI creates the dashboard. onQuit is called when the user quits
// before the run is over.
func NewTUI(onQuit func()) *TUI {
	model := NewModel(onQuit)
	return &TUI{
		program: tea.NewProgram(&model, tea.WithAltScreen()),
		model:   &model,
	}
}

// Start blocks until the dashboard exits
func (t *TUI) Start() error {
	_, err := t.program.Run()
	return err
}

// Stop exits the dashboard
func (t *TUI) Stop() {
	t.program.Quit()
}

func (t *TUI) Send(msg tea.Msg) {
	if t.program != nil {
		t.program.Send(msg)
	}
}

func (t *TUI) SessionStarted(s models.ScrapeSession) {
	t.Send(SessionStartedMsg{Session: s})
}

func (t *TUI) BatchStarted(index, offset, target int) {
	t.Send(BatchStartedMsg{Index: index, Offset: offset, Target: target})
}

func (t *TUI) PostAccepted(batch int, post models.Post, accepted, _ int) {
	t.Send(PostAcceptedMsg{Batch: batch, Post: post, Accepted: accepted})
}

func (t *TUI) PostSkipped(batch int, reason models.SkipReason) {
	t.Send(PostSkippedMsg{Batch: batch, Reason: reason})
}

func (t *TUI) BatchFinished(res models.BatchResult) {
	t.Send(BatchFinishedMsg{Result: res})
}

func (t *TUI) BatchFailed(index int, err error, willRetry bool) {
	t.Send(BatchFailedMsg{Index: index, Err: err, WillRetry: willRetry})
}

func (t *TUI) Waiting(reason string, d time.Duration) {
	t.Send(WaitingMsg{Reason: reason, Duration: d})
}

func (t *TUI) SessionFinished(s models.ScrapeSession, err error) {
	t.Send(SessionFinishedMsg{Session: s, Err: err})
}

// Log adds a line to the activity log
func (t *TUI) Log(level, message string) {
	t.Send(LogMsg{Level: level, Message: message})
}
