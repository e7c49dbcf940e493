package ui

import (
	"fmt"
	"strings"
	"time"
)

const (
	ProgressBar   = "━"
	ProgressEmpty = "─"
)

// Bar renders done out of total as a fixed-width bar
func Bar(done, total, width int) string {
	filled := 0
	if total > 0 {
		filled = done * width / total
	}
	filled = max(0, min(filled, width))
	return strings.Repeat(ProgressBar, filled) + strings.Repeat(ProgressEmpty, width-filled)
}

// Tracker measures progress toward a requested post count
type Tracker struct {
	Requested int
	Collected int
	// Resumed counts posts collected before this run started
	Resumed   int
	StartTime time.Time
}

func NewTracker(requested, collected int) *Tracker {
	return &Tracker{
		Requested: requested,
		Collected: collected,
		Resumed:   collected,
		StartTime: time.Now(),
	}
}

// Rate returns posts per minute collected by this run
func (t *Tracker) Rate(now time.Time) float64 {
	elapsed := now.Sub(t.StartTime).Minutes()
	if elapsed <= 0 {
		return 0
	}
	return float64(t.Collected-t.Resumed) / elapsed
}

// ETA estimates the time left, or 0 when there is no basis yet
func (t *Tracker) ETA(now time.Time) time.Duration {
	gained := t.Collected - t.Resumed
	remaining := t.Requested - t.Collected
	if gained <= 0 || remaining <= 0 {
		return 0
	}
	perPost := now.Sub(t.StartTime) / time.Duration(gained)
	return perPost * time.Duration(remaining)
}

// FormatDuration renders d compactly: 42s, 3m05s, 1h12m
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
	}
}
