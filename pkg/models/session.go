package models

// TerminalState distinguishes the ways a session can end.
type TerminalState string

const (
	StateRunning  TerminalState = "running"
	StateComplete TerminalState = "complete"
	StateStalled  TerminalState = "stalled"
)

// ScrapeSession is the caller-held state of one logical request. Values are
// never modified in place; every transition returns a new session.
type ScrapeSession struct {
	ProfileURL     string        `json:"profile_url"`
	ProfileLabel   string        `json:"profile_label,omitempty"`
	RequestedTotal int           `json:"requested_total"`
	BatchSize      int           `json:"batch_size"`
	Offset         int           `json:"offset"`
	Batches        []BatchResult `json:"batches"`
	Fingerprints   []string      `json:"fingerprints,omitempty"`
	Stalled        bool          `json:"stalled"`
	CanonicalPath  string        `json:"canonical_path,omitempty"`
}

// NewSession starts a request for requested posts from profileURL.
func NewSession(profileURL string, requested, batchSize int) ScrapeSession {
	return ScrapeSession{
		ProfileURL:     profileURL,
		RequestedTotal: requested,
		BatchSize:      batchSize,
	}
}

// WithBatch returns the session advanced past b.
func (s ScrapeSession) WithBatch(b BatchResult) ScrapeSession {
	next := s.clone()
	b.Index = len(s.Batches) + 1
	next.Batches = append(next.Batches, b)
	if b.Cumulative > next.Offset {
		next.Offset = b.Cumulative
	}
	if b.ProfileLabel != "" {
		next.ProfileLabel = b.ProfileLabel
	}
	if b.Stalled() {
		next.Stalled = true
	}
	return next
}

// WithFingerprints returns the session carrying the given ledger contents.
func (s ScrapeSession) WithFingerprints(fps []string) ScrapeSession {
	next := s.clone()
	next.Fingerprints = append([]string(nil), fps...)
	return next
}

// WithCanonical returns the session pointing at its merged artifact.
func (s ScrapeSession) WithCanonical(path string) ScrapeSession {
	next := s.clone()
	next.CanonicalPath = path
	return next
}

// Remaining returns how many posts are still wanted.
func (s ScrapeSession) Remaining() int {
	if r := s.RequestedTotal - s.Offset; r > 0 {
		return r
	}
	return 0
}

// NextTarget returns the size of the next batch.
func (s ScrapeSession) NextTarget() int {
	return min(s.BatchSize, s.Remaining())
}

// Done reports whether no further batch should run.
func (s ScrapeSession) Done() bool {
	if s.Stalled || s.Remaining() == 0 {
		return true
	}
	if n := len(s.Batches); n > 0 {
		return !s.Batches[n-1].Continuation
	}
	return false
}

// Terminal reports how the session ended, or StateRunning if it has not.
func (s ScrapeSession) Terminal() TerminalState {
	switch {
	case !s.Done():
		return StateRunning
	case s.Stalled && s.Offset < s.RequestedTotal:
		return StateStalled
	default:
		return StateComplete
	}
}

// ArtifactPaths lists the batch artifacts in batch order.
func (s ScrapeSession) ArtifactPaths() []string {
	var paths []string
	for _, b := range s.Batches {
		if b.ArtifactPath != "" {
			paths = append(paths, b.ArtifactPath)
		}
	}
	return paths
}

func (s ScrapeSession) clone() ScrapeSession {
	next := s
	next.Batches = append([]BatchResult(nil), s.Batches...)
	next.Fingerprints = append([]string(nil), s.Fingerprints...)
	return next
}
