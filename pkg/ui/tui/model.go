package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"liscraper/pkg/models"
)

// BatchState is where a batch is in its lifecycle
type BatchState int

const (
	BatchActive BatchState = iota
	BatchRetrying
	BatchDone
	BatchFailed
)

// BatchRow is one line of the batch table
type BatchRow struct {
	Index    int
	Offset   int
	Target   int
	Accepted int
	Skipped  map[models.SkipReason]int
	State    BatchState
	Started  time.Time
	Finished time.Time
	Err      error
}

// Model is the dashboard state
type Model struct {
	spinner  spinner.Model
	progress progress.Model

	profile   string
	requested int
	batchSize int
	collected int
	resumed   int
	batches   []*BatchRow
	recent    []string

	waitReason string
	waitUntil  time.Time

	finished bool
	state    models.TerminalState
	final    error
	output   string

	sessionStart time.Time
	now          func() time.Time

	width          int
	height         int
	showHelp       bool
	logMessages    []LogMessage
	maxLogMessages int
	onQuit         func()
}

// LogMessage is one entry of the activity log
type LogMessage struct {
	Time    time.Time
	Level   string
	Message string
	Color   lipgloss.Color
}

// NewModel creates an empty dashboard. onQuit runs when the user quits.
func NewModel(onQuit func()) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(brandBlue)

	p := progress.New(progress.WithDefaultGradient())
	p.Width = 40

	return Model{
		spinner:        s,
		progress:       p,
		sessionStart:   time.Now(),
		now:            time.Now,
		maxLogMessages: 50,
		onQuit:         onQuit,
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

func (m *Model) startSession(s models.ScrapeSession) {
	m.profile = s.ProfileURL
	if s.ProfileLabel != "" {
		m.profile = s.ProfileLabel
	}
	m.requested = s.RequestedTotal
	m.batchSize = s.BatchSize
	m.collected = s.Offset
	m.resumed = s.Offset
	m.sessionStart = m.now()
	if s.Offset > 0 {
		m.AddLogMessage("INFO", fmt.Sprintf("Resuming at %d of %d posts", s.Offset, s.RequestedTotal))
	} else {
		m.AddLogMessage("INFO", fmt.Sprintf("Collecting %d posts in batches of %d", s.RequestedTotal, s.BatchSize))
	}
}

// row returns the batch with index, adding it when first seen
func (m *Model) row(index int) *BatchRow {
	for _, b := range m.batches {
		if b.Index == index {
			return b
		}
	}
	b := &BatchRow{Index: index, Skipped: make(map[models.SkipReason]int)}
	m.batches = append(m.batches, b)
	return b
}

func (m *Model) startBatch(index, offset, target int) {
	b := m.row(index)
	b.Offset, b.Target, b.Accepted = offset, target, 0
	b.Skipped = make(map[models.SkipReason]int)
	b.State = BatchActive
	b.Started = m.now()
	b.Err = nil
	m.waitReason = ""
	m.AddLogMessage("INFO", fmt.Sprintf("Batch %d started at offset %d", index, offset))
}

func (m *Model) acceptPost(index int, post models.Post, accepted int) {
	b := m.row(index)
	b.Accepted = accepted
	m.collected++
	m.recent = append(m.recent, fmt.Sprintf("%s • %s", post.Date, post.Content))
	if len(m.recent) > 5 {
		m.recent = m.recent[len(m.recent)-5:]
	}
}

func (m *Model) skipPost(index int, reason models.SkipReason) {
	m.row(index).Skipped[reason]++
}

func (m *Model) finishBatch(res models.BatchResult) {
	b := m.row(res.Index)
	b.Accepted = res.Accepted
	b.Target = res.Target
	b.State = BatchDone
	b.Finished = m.now()
	m.collected = res.Cumulative
	if res.ProfileLabel != "" {
		m.profile = res.ProfileLabel
	}

	level := "SUCCESS"
	if res.Underfilled() {
		level = "WARN"
	}
	m.AddLogMessage(level, fmt.Sprintf("Batch %d saved %d/%d posts", res.Index, res.Accepted, res.Target))
}

func (m *Model) failBatch(index int, err error, willRetry bool) {
	b := m.row(index)
	b.Err = err
	if willRetry {
		b.State = BatchRetrying
		m.AddLogMessage("WARN", fmt.Sprintf("Batch %d failed, retrying: %v", index, err))
		return
	}
	b.State = BatchFailed
	b.Finished = m.now()
	m.AddLogMessage("ERROR", fmt.Sprintf("Batch %d failed: %v", index, err))
}

func (m *Model) wait(reason string, d time.Duration) {
	m.waitReason = reason
	m.waitUntil = m.now().Add(d)
	m.AddLogMessage("INFO", fmt.Sprintf("Waiting %s (%s)", formatDuration(d), reason))
}

func (m *Model) finishSession(s models.ScrapeSession, err error) {
	m.finished = true
	m.state = s.Terminal()
	m.final = err
	m.output = s.CanonicalPath
	m.collected = s.Offset
	m.waitReason = ""
	switch {
	case err != nil:
		m.AddLogMessage("ERROR", "Session stopped: "+err.Error())
	case m.state == models.StateStalled:
		m.AddLogMessage("WARN", fmt.Sprintf("Feed ran dry at %d posts", s.Offset))
	default:
		m.AddLogMessage("SUCCESS", fmt.Sprintf("Collected %d posts", s.Offset))
	}
}

// AddLogMessage appends to the activity log, keeping the newest entries
func (m *Model) AddLogMessage(level, message string) {
	color := dimWhite
	switch level {
	case "ERROR":
		color = errorRed
	case "WARN":
		color = warnAmber
	case "SUCCESS":
		color = okGreen
	case "INFO":
		color = brandBlue
	}

	m.logMessages = append(m.logMessages, LogMessage{
		Time:    m.now(),
		Level:   level,
		Message: message,
		Color:   color,
	})
	if len(m.logMessages) > m.maxLogMessages {
		m.logMessages = m.logMessages[len(m.logMessages)-m.maxLogMessages:]
	}
}

// Completion is the share of requested posts collected, in [0, 1]
func (m *Model) Completion() float64 {
	if m.requested <= 0 {
		return 0
	}
	return min(1, float64(m.collected)/float64(m.requested))
}

// ETA projects the remaining time from this run's rate
func (m *Model) ETA() time.Duration {
	gained := m.collected - m.resumed
	remaining := m.requested - m.collected
	if gained <= 0 || remaining <= 0 {
		return 0
	}
	return m.now().Sub(m.sessionStart) / time.Duration(gained) * time.Duration(remaining)
}

// Skipped totals skip reasons over all batches
func (m *Model) Skipped() map[models.SkipReason]int {
	total := make(map[models.SkipReason]int)
	for _, b := range m.batches {
		for reason, n := range b.Skipped {
			total[reason] += n
		}
	}
	return total
}
