package pacing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liscraper/pkg/config"
)

func TestRandomDelayStaysInRange(t *testing.T) {
	p := NewRandom(map[Phase]Range{
		GrowthScroll: {Min: 2500 * time.Millisecond, Max: 5 * time.Second},
		Keystroke:    {Min: 50 * time.Millisecond, Max: 50 * time.Millisecond},
	}, 42)

	for i := 0; i < 200; i++ {
		d := p.Delay(GrowthScroll)
		require.GreaterOrEqual(t, d, 2500*time.Millisecond)
		require.Less(t, d, 5*time.Second)
	}
	assert.Equal(t, 50*time.Millisecond, p.Delay(Keystroke))
	assert.Zero(t, p.Delay(Teardown), "unknown phases do not wait")
}

func TestRandomIsDeterministicForSeed(t *testing.T) {
	a := NewRandom(nil, 7)
	b := NewRandom(nil, 7)
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Roll(), b.Roll())
	}
}

func TestBetween(t *testing.T) {
	assert.InDelta(t, 0.5, Between(NewFixed(0), 0.5, 0.9), 1e-9)
	assert.InDelta(t, 0.7, Between(NewFixed(0.5), 0.5, 0.9), 1e-9)
}

func TestFromConfigDisabledDoesNotSleep(t *testing.T) {
	cfg := config.DefaultConfig().Pacing
	cfg.Enabled = false
	p := FromConfig(cfg)

	start := time.Now()
	require.NoError(t, p.Wait(context.Background(), GrowthScroll))
	assert.Less(t, time.Since(start), time.Second)
}

func TestWaitHonoursCancellation(t *testing.T) {
	p := NewRandom(map[Phase]Range{Teardown: {Min: time.Hour, Max: 2 * time.Hour}}, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Wait(ctx, Teardown)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFixedCountsWaits(t *testing.T) {
	p := Zero()
	ctx := context.Background()
	require.NoError(t, p.Wait(ctx, BetweenPosts))
	require.NoError(t, p.Wait(ctx, BetweenPosts))

	assert.Equal(t, 2, p.Waits(BetweenPosts))
	assert.Equal(t, 0, p.Waits(Teardown))
	assert.GreaterOrEqual(t, p.Roll(), 0.2)
}
