package models

import "time"

// PaginationExit records why the scroll loop stopped.
type PaginationExit string

const (
	ExitTarget     PaginationExit = "target"
	ExitStagnation PaginationExit = "stagnation"
	ExitAttempts   PaginationExit = "attempts"
)

// BatchResult is the outcome of one bounded batch run.
type BatchResult struct {
	Index        int                `json:"index"`
	ProfileLabel string             `json:"profile_label"`
	ArtifactPath string             `json:"artifact_path,omitempty"`
	Posts        []Post             `json:"-"`
	Target       int                `json:"target"`
	Accepted     int                `json:"accepted"`
	Cumulative   int                `json:"cumulative"`
	Remaining    int                `json:"remaining"`
	Continuation bool               `json:"continuation"`
	Pagination   PaginationExit     `json:"pagination,omitempty"`
	Skipped      map[SkipReason]int `json:"skipped,omitempty"`
	CompletedAt  time.Time          `json:"completed_at"`
}

// NewBatchResult computes the bookkeeping fields for a batch that accepted
// the given posts on top of offset.
func NewBatchResult(requested, offset, target int, posts []Post) BatchResult {
	cumulative := offset + len(posts)
	remaining := requested - cumulative
	if remaining < 0 {
		remaining = 0
	}
	return BatchResult{
		Posts:        posts,
		Target:       target,
		Accepted:     len(posts),
		Cumulative:   cumulative,
		Remaining:    remaining,
		Continuation: remaining > 0,
		Skipped:      make(map[SkipReason]int),
		CompletedAt:  time.Now(),
	}
}

// Underfilled reports whether the batch accepted fewer posts than it aimed for.
func (b BatchResult) Underfilled() bool {
	return b.Accepted < b.Target
}

// Stalled reports whether the batch made no progress at all.
func (b BatchResult) Stalled() bool {
	return b.Target > 0 && b.Accepted == 0
}
