package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"liscraper/pkg/models"
)

// ProgressDisplay prints a single refreshing status line per batch, or one
// line per event in verbose mode. It satisfies scraper.Reporter.
type ProgressDisplay struct {
	mu      sync.Mutex
	out     io.Writer
	verbose bool
	now     func() time.Time

	profile  string
	tracker  *Tracker
	batch    int
	target   int
	accepted int
	skipped  int
	failures int
}

// NewProgressDisplay writes to out
func NewProgressDisplay(out io.Writer, verbose bool) *ProgressDisplay {
	return &ProgressDisplay{out: out, verbose: verbose, now: time.Now}
}

func (p *ProgressDisplay) SessionStarted(s models.ScrapeSession) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.profile = s.ProfileURL
	if s.ProfileLabel != "" {
		p.profile = s.ProfileLabel
	}
	p.tracker = NewTracker(s.RequestedTotal, s.Offset)
	p.tracker.StartTime = p.now()

	if quiet.Load() {
		return
	}
	if s.Offset > 0 {
		fmt.Fprintf(p.out, "%s %s: %d of %d posts already collected\n", Magenta("→"), Cyan("Resuming"), s.Offset, s.RequestedTotal)
	} else {
		fmt.Fprintf(p.out, "%s %s %d posts in batches of %d\n", Magenta("→"), Cyan("Collecting"), s.RequestedTotal, s.BatchSize)
	}
}

func (p *ProgressDisplay) BatchStarted(index, offset, target int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.batch, p.target = index, target
	p.accepted, p.skipped = 0, 0
	if quiet.Load() {
		return
	}
	if p.verbose {
		fmt.Fprintf(p.out, "\n%s Batch %d: skipping %d, aiming for %d\n", Magenta("→"), index, offset, target)
		return
	}
	p.printLine()
}

func (p *ProgressDisplay) PostAccepted(_ int, post models.Post, accepted, _ int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.accepted = accepted
	if p.tracker != nil {
		p.tracker.Collected++
	}
	if quiet.Load() {
		return
	}
	if p.verbose {
		fmt.Fprintf(p.out, "%s %s • %s • %s\n", Green("✓"), post.Date, Dim(excerpt(post.Content, 60)),
			Dim(fmt.Sprintf("♥ %s", post.Engagement.Likes)))
		return
	}
	p.printLine()
}

func (p *ProgressDisplay) PostSkipped(_ int, reason models.SkipReason) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.skipped++
	if quiet.Load() {
		return
	}
	if p.verbose {
		fmt.Fprintf(p.out, "%s skipped (%s)\n", Dim("-"), reason)
		return
	}
	p.printLine()
}

func (p *ProgressDisplay) BatchFinished(res models.BatchResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.tracker != nil {
		p.tracker.Collected = res.Cumulative
	}
	if res.ProfileLabel != "" {
		p.profile = res.ProfileLabel
	}
	if quiet.Load() {
		return
	}
	mark := Green("✓")
	if res.Underfilled() {
		mark = Yellow("!")
	}
	fmt.Fprintf(p.out, "\n%s Batch %d: %d/%d posts (%d total, %d remaining)\n", mark, res.Index, res.Accepted, res.Target, res.Cumulative, res.Remaining)
}

func (p *ProgressDisplay) BatchFailed(index int, err error, willRetry bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.failures++
	if willRetry {
		if !quiet.Load() {
			fmt.Fprintf(p.out, "\n%s Batch %d failed, retrying: %v\n", Yellow("⚠"), index, err)
		}
		return
	}
	fmt.Fprintf(p.out, "\n%s Batch %d failed: %v\n", Red("✗"), index, err)
}

func (p *ProgressDisplay) Waiting(reason string, d time.Duration) {
	if quiet.Load() || d <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "\n%s Waiting %s (%s)\n", Yellow("⏳"), FormatDuration(d), reason)
}

func (p *ProgressDisplay) SessionFinished(s models.ScrapeSession, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err != nil {
		fmt.Fprintf(p.out, "\n%s Stopped after %d of %d posts: %v\n", Red("✗"), s.Offset, s.RequestedTotal, err)
		return
	}
	if quiet.Load() {
		return
	}

	elapsed := time.Duration(0)
	if p.tracker != nil {
		elapsed = p.now().Sub(p.tracker.StartTime)
	}
	switch s.Terminal() {
	case models.StateStalled:
		fmt.Fprintf(p.out, "\n%s Feed ran dry: collected %d of %d posts in %s\n", Yellow("!"), s.Offset, s.RequestedTotal, FormatDuration(elapsed))
	default:
		fmt.Fprintf(p.out, "\n%s Collected %d posts from %s in %s\n", Green("✓"), s.Offset, p.profile, FormatDuration(elapsed))
	}
	if s.CanonicalPath != "" {
		fmt.Fprintf(p.out, "  %s %s\n", Dim("•"), s.CanonicalPath)
	}
	if p.failures > 0 {
		fmt.Fprintf(p.out, "  %s %d batch attempts failed\n", Dim("•"), p.failures)
	}
}

// printLine redraws the status line in place
func (p *ProgressDisplay) printLine() {
	line := fmt.Sprintf("%s batch %d [%s] %d/%d",
		Cyan(p.profile),
		p.batch,
		Bar(p.accepted, p.target, 20),
		p.accepted,
		p.target,
	)
	if p.tracker != nil {
		now := p.now()
		line += fmt.Sprintf(" • %d/%d total • %.1f/min", p.tracker.Collected, p.tracker.Requested, p.tracker.Rate(now))
		if eta := p.tracker.ETA(now); eta > 0 {
			line += " • " + FormatDuration(eta)
		}
	}
	if p.skipped > 0 {
		line += " • " + Dim(fmt.Sprintf("%d skipped", p.skipped))
	}
	fmt.Fprintf(p.out, "\r%s\r%s", strings.Repeat(" ", 120), line)
}

func excerpt(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
