package pagination

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liscraper/internal/feedtest"
	"liscraper/pkg/browser"
	"liscraper/pkg/config"
	"liscraper/pkg/logger"
	"liscraper/pkg/models"
	"liscraper/pkg/pacing"
)

func newFeed(t *testing.T, page []byte, opts browser.SnapshotOptions) *browser.Snapshot {
	t.Helper()
	snap, err := browser.NewSnapshot(page, opts)
	require.NoError(t, err)
	return snap
}

func profileFeed(t *testing.T, total, initial, perScroll int) *browser.Snapshot {
	t.Helper()
	opts := browser.DefaultSnapshotOptions()
	opts.InitialItems = initial
	opts.ItemsPerScroll = perScroll
	opts.Location = "https://www.linkedin.com/in/jane-doe/recent-activity/all/"
	return newFeed(t, feedtest.Page(feedtest.Options{}, feedtest.Posts(total)...), opts)
}

func TestLoadAtLeastStopsOnStagnantFeed(t *testing.T) {
	snap := profileFeed(t, 3, 3, 3)
	p := pacing.Zero()
	c := NewController(snap, p, logger.NewNopLogger(), DefaultOptions())

	res, err := c.LoadAtLeast(context.Background(), 10, 0)
	require.NoError(t, err)

	assert.Equal(t, models.ExitStagnation, res.Exit)
	assert.Equal(t, 5, res.Iterations)
	assert.Len(t, res.Items, 3)
	assert.Equal(t, 3, res.Materialized)
	// Recovery runs on the third, fourth and fifth unchanged heights.
	assert.Equal(t, 6, p.Waits(pacing.Recovery))
	assert.Equal(t, 0, p.Waits(pacing.Jitter))
}

func TestLoadAtLeastStagnationCountResetsOnGrowth(t *testing.T) {
	snap := profileFeed(t, 4, 3, 3)
	c := NewController(snap, pacing.Zero(), logger.NewNopLogger(), DefaultOptions())

	res, err := c.LoadAtLeast(context.Background(), 10, 0)
	require.NoError(t, err)

	assert.Equal(t, models.ExitStagnation, res.Exit)
	assert.Equal(t, 6, res.Iterations)
	assert.Len(t, res.Items, 4)
}

func TestLoadAtLeastReachesOverscanTarget(t *testing.T) {
	snap := profileFeed(t, 20, 3, 3)
	c := NewController(snap, pacing.Zero(), logger.NewNopLogger(), DefaultOptions())

	res, err := c.LoadAtLeast(context.Background(), 2, 0)
	require.NoError(t, err)

	assert.Equal(t, models.ExitTarget, res.Exit)
	assert.Equal(t, 2, res.Iterations)
	assert.Len(t, res.Items, 9)
}

func TestLoadAtLeastAttemptCap(t *testing.T) {
	snap := profileFeed(t, 50, 3, 1)
	opts := DefaultOptions()
	opts.MaxAttempts = 2
	c := NewController(snap, pacing.Zero(), logger.NewNopLogger(), opts)

	res, err := c.LoadAtLeast(context.Background(), 10, 0)
	require.NoError(t, err)

	assert.Equal(t, models.ExitAttempts, res.Exit)
	assert.Equal(t, 2, res.Iterations)
	assert.Len(t, res.Items, 5)
}

func TestLoadAtLeastDropsSkippedPrefix(t *testing.T) {
	snap := profileFeed(t, 30, 3, 3)
	p := pacing.Zero()
	c := NewController(snap, p, logger.NewNopLogger(), DefaultOptions())

	res, err := c.LoadAtLeast(context.Background(), 2, 10)
	require.NoError(t, err)

	assert.Equal(t, 2, p.Waits(pacing.SkipScroll))
	assert.Equal(t, models.ExitTarget, res.Exit)
	assert.Equal(t, 3, res.Iterations)
	assert.Equal(t, 18, res.Materialized)
	require.Len(t, res.Items, 8)

	text, err := res.Items[0].Text(context.Background())
	require.NoError(t, err)
	assert.Contains(t, text, "Post number 11 about")
}

func TestLoadAtLeastSkipBeyondFeedReturnsNothing(t *testing.T) {
	snap := profileFeed(t, 4, 4, 0)
	c := NewController(snap, pacing.Zero(), logger.NewNopLogger(), DefaultOptions())

	res, err := c.LoadAtLeast(context.Background(), 5, 10)
	require.NoError(t, err)

	assert.Empty(t, res.Items)
	assert.Equal(t, 4, res.Materialized)
	assert.Equal(t, models.ExitStagnation, res.Exit)
}

func TestLoadAtLeastJitter(t *testing.T) {
	snap := profileFeed(t, 20, 3, 3)
	p := pacing.NewFixed(0.1)
	c := NewController(snap, p, logger.NewNopLogger(), DefaultOptions())

	res, err := c.LoadAtLeast(context.Background(), 2, 0)
	require.NoError(t, err)

	assert.Equal(t, 2*res.Iterations, p.Waits(pacing.Jitter))
	// The first jitter happens with six items revealed.
	assert.Contains(t, snap.Scripts(), browser.ScrollTo(pacing.Between(p, 0.7, 0.9)*float64(1000+6*800)))
}

func TestLoadAtLeastCompanyPage(t *testing.T) {
	opts := browser.DefaultSnapshotOptions()
	opts.InitialItems = 5
	opts.ItemsPerScroll = 0
	opts.Location = "https://www.linkedin.com/company/acme/posts/"
	page := feedtest.Page(feedtest.Options{Company: true, Name: "Acme"}, feedtest.Posts(5)...)
	snap := newFeed(t, page, opts)
	c := NewController(snap, pacing.Zero(), logger.NewNopLogger(), DefaultOptions())

	res, err := c.LoadAtLeast(context.Background(), 1, 0)
	require.NoError(t, err)

	assert.Equal(t, models.ExitTarget, res.Exit)
	assert.Len(t, res.Items, 5)
}

func TestLoadAtLeastExpandsSeeMorePageWide(t *testing.T) {
	items := feedtest.Posts(2)
	items[1].SeeMore = true
	opts := browser.DefaultSnapshotOptions()
	opts.InitialItems = 2
	opts.ItemsPerScroll = 0
	snap := newFeed(t, feedtest.Page(feedtest.Options{}, items...), opts)
	p := pacing.Zero()
	c := NewController(snap, p, logger.NewNopLogger(), DefaultOptions())

	_, err := c.LoadAtLeast(context.Background(), 1, 0)
	require.NoError(t, err)

	assert.Equal(t, 1, snap.Clicks())
	assert.Equal(t, 1, p.Waits(pacing.ExpandAfter))
}

func TestLoadAtLeastCancelled(t *testing.T) {
	snap := profileFeed(t, 20, 3, 3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewController(snap, pacing.Zero(), logger.NewNopLogger(), DefaultOptions()).LoadAtLeast(ctx, 5, 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOptionsFrom(t *testing.T) {
	opts := OptionsFrom(config.ScrapeConfig{MaxAttempts: 10, Overscan: 0})
	assert.Equal(t, 10, opts.MaxAttempts)
	assert.Equal(t, 4, opts.Overscan)
	assert.Equal(t, 5, opts.StopAfter)
}
