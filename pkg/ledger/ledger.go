// Package ledger tracks which post contents have already been accepted.
package ledger

import (
	"sync"

	"liscraper/pkg/models"
)

// Ledger is a set of content fingerprints. One Ledger is shared by every
// batch of a request so a post surfacing twice is only accepted once.
type Ledger struct {
	mu    sync.Mutex
	seen  map[string]struct{}
	order []string
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{seen: make(map[string]struct{})}
}

// FromFingerprints restores a ledger from previously recorded fingerprints.
func FromFingerprints(fps []string) *Ledger {
	l := New()
	for _, fp := range fps {
		l.add(fp)
	}
	return l
}

// IsNovel reports whether content has not been seen before and records it.
func (l *Ledger) IsNovel(content string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.add(models.Fingerprint(content))
}

// Contains reports whether content was recorded, without recording it.
func (l *Ledger) Contains(content string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.seen[models.Fingerprint(content)]
	return ok
}

func (l *Ledger) add(fp string) bool {
	if _, ok := l.seen[fp]; ok {
		return false
	}
	l.seen[fp] = struct{}{}
	l.order = append(l.order, fp)
	return true
}

// Fingerprints returns the recorded fingerprints in insertion order.
func (l *Ledger) Fingerprints() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.order...)
}

// Len returns the number of recorded fingerprints.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.order)
}

// Fork returns an independent copy of l. Changes to the copy reach l only
// through Absorb.
func (l *Ledger) Fork() *Ledger {
	return FromFingerprints(l.Fingerprints())
}

// Absorb records every fingerprint held by other.
func (l *Ledger) Absorb(other *Ledger) {
	fps := other.Fingerprints()
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, fp := range fps {
		l.add(fp)
	}
}
