// Package pacing centralises the randomized pauses that keep browser
// interaction from looking scripted.
package pacing

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"liscraper/pkg/config"
)

// Phase names a kind of pause.
type Phase string

const (
	SkipScroll   Phase = "skip-scroll"
	GrowthScroll Phase = "growth-scroll"
	Recovery     Phase = "recovery"
	Jitter       Phase = "jitter"
	ExpandBefore Phase = "expand-before"
	ExpandAfter  Phase = "expand-after"
	BetweenPosts Phase = "between-posts"
	Teardown     Phase = "teardown"
	LoginSettle  Phase = "login-settle"
	Keystroke    Phase = "keystroke"
	PostLogin    Phase = "post-login"
	Navigate     Phase = "navigate"
)

// Range bounds a pause.
type Range struct {
	Min time.Duration
	Max time.Duration
}

// Policy decides how long each phase waits and supplies the random draws
// used for scroll jitter and recovery positions.
type Policy interface {
	// Wait blocks for a duration chosen for phase, or until ctx is done.
	Wait(ctx context.Context, phase Phase) error
	// Roll returns a number in [0, 1).
	Roll() float64
}

// Between maps a roll onto [lo, hi].
func Between(p Policy, lo, hi float64) float64 {
	return lo + p.Roll()*(hi-lo)
}

// Random draws each pause uniformly from its phase's range.
type Random struct {
	mu     sync.Mutex
	rng    *rand.Rand
	ranges map[Phase]Range
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewRandom creates a Random policy. A zero seed seeds from the clock.
func NewRandom(ranges map[Phase]Range, seed int64) *Random {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Random{
		rng:    rand.New(rand.NewSource(seed)),
		ranges: ranges,
		sleep:  Sleep,
	}
}

// FromConfig builds the policy described by cfg. Disabled pacing yields a
// policy that never waits but still randomizes jitter.
func FromConfig(cfg config.PacingConfig) Policy {
	ranges := make(map[Phase]Range, len(cfg.Phases))
	for name, r := range cfg.Phases {
		ranges[Phase(name)] = Range{Min: r.Min, Max: r.Max}
	}
	p := NewRandom(ranges, cfg.Seed)
	if !cfg.Enabled {
		p.sleep = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }
	}
	return p
}

// Delay returns the pause Random would take for phase.
func (p *Random) Delay(phase Phase) time.Duration {
	r, ok := p.ranges[phase]
	if !ok || r.Max <= 0 {
		return 0
	}
	if r.Max <= r.Min {
		return r.Min
	}
	p.mu.Lock()
	n := p.rng.Int63n(int64(r.Max - r.Min))
	p.mu.Unlock()
	return r.Min + time.Duration(n)
}

func (p *Random) Wait(ctx context.Context, phase Phase) error {
	return p.sleep(ctx, p.Delay(phase))
}

func (p *Random) Roll() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.Float64()
}

// Fixed never waits and always rolls the same value. Rolls at or above the
// jitter probability keep the scroll loop free of jitter.
type Fixed struct {
	Value float64

	mu    sync.Mutex
	waits map[Phase]int
}

// Zero returns a policy with no delays and no jitter.
func Zero() *Fixed {
	return &Fixed{Value: 0.99}
}

// NewFixed returns a policy with no delays whose rolls return v.
func NewFixed(v float64) *Fixed {
	return &Fixed{Value: v}
}

func (f *Fixed) Wait(ctx context.Context, phase Phase) error {
	f.mu.Lock()
	if f.waits == nil {
		f.waits = make(map[Phase]int)
	}
	f.waits[phase]++
	f.mu.Unlock()
	return ctx.Err()
}

func (f *Fixed) Roll() float64 {
	return f.Value
}

// Waits returns how many times phase was waited on.
func (f *Fixed) Waits(phase Phase) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.waits[phase]
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
