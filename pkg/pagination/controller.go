// Package pagination scrolls a lazily loaded feed until enough items exist.
package pagination

import (
	"context"

	"liscraper/pkg/browser"
	"liscraper/pkg/config"
	"liscraper/pkg/extract"
	"liscraper/pkg/linkedin"
	"liscraper/pkg/logger"
	"liscraper/pkg/models"
	"liscraper/pkg/pacing"
)

// Options tune the scroll loop.
type Options struct {
	// MaxAttempts caps growth-phase iterations.
	MaxAttempts int
	// Overscan multiplies the wanted count to cover items filtered later.
	Overscan int
	// RecoveryAfter unchanged heights trigger a recovery scroll.
	RecoveryAfter int
	// StopAfter unchanged heights end the growth phase.
	StopAfter int
	// JitterChance is the per-iteration probability of an up-and-down scroll.
	JitterChance float64
	// SkipPerScroll is the number of items assumed to load per skip scroll.
	SkipPerScroll int
	// SkipScrollCap caps skip-phase iterations.
	SkipScrollCap int
	// SkipOverscan ends the skip phase once this many times skip items exist.
	SkipOverscan float64
}

// DefaultOptions returns the standard scroll loop settings.
func DefaultOptions() Options {
	return Options{
		MaxAttempts:   40,
		Overscan:      4,
		RecoveryAfter: 3,
		StopAfter:     5,
		JitterChance:  0.2,
		SkipPerScroll: 5,
		SkipScrollCap: 20,
		SkipOverscan:  1.5,
	}
}

// OptionsFrom applies the configured attempt cap and overscan to the
// defaults. Non-positive values keep the defaults.
func OptionsFrom(sc config.ScrapeConfig) Options {
	opts := DefaultOptions()
	if sc.MaxAttempts > 0 {
		opts.MaxAttempts = sc.MaxAttempts
	}
	if sc.Overscan > 0 {
		opts.Overscan = sc.Overscan
	}
	return opts
}

// Result is what a LoadAtLeast call surfaced.
type Result struct {
	// Items follow the skipped prefix, in page order.
	Items []browser.Element
	// Materialized counts every item on the page, skipped ones included.
	Materialized int
	Iterations   int
	Exit         models.PaginationExit
}

// Controller drives the scroll loop on one page.
type Controller struct {
	drv    browser.Driver
	pacing pacing.Policy
	logger logger.Logger
	opts   Options
}

// NewController creates a controller for drv.
func NewController(drv browser.Driver, p pacing.Policy, log logger.Logger, opts Options) *Controller {
	return &Controller{drv: drv, pacing: p, logger: log, opts: opts}
}

// LoadAtLeast scrolls until n items beyond the first skip are likely
// available (Overscan times n), the page stops growing, or MaxAttempts runs
// out. It may return fewer than n items. Only context errors are returned.
func (c *Controller) LoadAtLeast(ctx context.Context, n, skip int) (Result, error) {
	query := c.itemQuery(ctx)
	var items []browser.Element

	if skip > 0 {
		var err error
		if items, err = c.skipPhase(ctx, query, skip); err != nil {
			return Result{}, err
		}
	}

	want := skip + c.opts.Overscan*n
	lastHeight := c.height(ctx, 0)
	noChange, attempts := 0, 0

	for len(items) < want && noChange < c.opts.StopAfter && attempts < c.opts.MaxAttempts {
		c.eval(ctx, browser.ScriptSmoothScrollToBottom)
		if err := c.pacing.Wait(ctx, pacing.GrowthScroll); err != nil {
			return Result{}, err
		}
		if err := c.expandAll(ctx); err != nil {
			return Result{}, err
		}

		height := c.height(ctx, lastHeight)
		items = c.query(ctx, query, items)

		if height == lastHeight {
			noChange++
			if noChange >= c.opts.RecoveryAfter {
				c.logger.DebugWithFields("Feed not growing, trying recovery scroll", map[string]interface{}{
					"no_change": noChange,
				})
				if err := c.scrollAway(ctx, lastHeight, 0.5, 0.9, pacing.Recovery); err != nil {
					return Result{}, err
				}
			}
		} else {
			noChange = 0
		}
		lastHeight = height
		attempts++

		if c.pacing.Roll() < c.opts.JitterChance {
			if err := c.scrollAway(ctx, lastHeight, 0.7, 0.9, pacing.Jitter); err != nil {
				return Result{}, err
			}
		}
	}

	res := Result{Materialized: len(items), Iterations: attempts}
	switch {
	case len(items) >= want:
		res.Exit = models.ExitTarget
	case noChange >= c.opts.StopAfter:
		res.Exit = models.ExitStagnation
	default:
		res.Exit = models.ExitAttempts
	}

	if skip > 0 && len(items) > skip {
		items = items[skip:]
	} else if skip > 0 {
		items = nil
	}
	res.Items = items

	logger.LogPagination(c.logger, string(res.Exit), res.Iterations, res.Materialized, len(res.Items))
	return res, nil
}

// skipPhase scrolls quickly past items consumed by earlier batches.
func (c *Controller) skipPhase(ctx context.Context, query string, skip int) ([]browser.Element, error) {
	var items []browser.Element
	scrolls := min(skip/c.opts.SkipPerScroll, c.opts.SkipScrollCap)
	threshold := c.opts.SkipOverscan * float64(skip)

	for i := 0; i < scrolls; i++ {
		c.eval(ctx, browser.ScriptScrollToBottom)
		if err := c.pacing.Wait(ctx, pacing.SkipScroll); err != nil {
			return nil, err
		}
		if err := c.expandAll(ctx); err != nil {
			return nil, err
		}
		items = c.query(ctx, query, items)
		if float64(len(items)) >= threshold {
			break
		}
	}

	c.logger.DebugWithFields("Skip phase finished", map[string]interface{}{
		"skip":         skip,
		"materialized": len(items),
	})
	return items, nil
}

// scrollAway jumps to a random fraction of height in [lo, hi] and back to
// the bottom, pausing after each move.
func (c *Controller) scrollAway(ctx context.Context, height, lo, hi float64, phase pacing.Phase) error {
	c.eval(ctx, browser.ScrollTo(pacing.Between(c.pacing, lo, hi)*height))
	if err := c.pacing.Wait(ctx, phase); err != nil {
		return err
	}
	c.eval(ctx, browser.ScriptScrollToBottom)
	return c.pacing.Wait(ctx, phase)
}

// expandAll clicks every visible "see more" control on the page.
func (c *Controller) expandAll(ctx context.Context) error {
	buttons, err := c.drv.QueryAll(ctx, linkedin.SeeMoreButton)
	if err != nil {
		c.logger.WithError(err).Debug("Failed to look up see-more buttons")
		return ctx.Err()
	}
	for _, b := range buttons {
		if err := extract.ExpandButton(ctx, c.pacing, b); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.WithError(err).Debug("Failed to expand see-more button")
		}
	}
	return nil
}

func (c *Controller) itemQuery(ctx context.Context) string {
	loc, err := c.drv.Location(ctx)
	if err != nil {
		c.logger.WithError(err).Warn("Failed to read page location, assuming a personal profile")
	}
	return linkedin.ItemQuery(loc)
}

func (c *Controller) eval(ctx context.Context, script string) {
	if err := c.drv.Evaluate(ctx, script, nil); err != nil {
		c.logger.WithError(err).Debug("Scroll script failed")
	}
}

// height returns the page height, or prev when it cannot be measured.
func (c *Controller) height(ctx context.Context, prev float64) float64 {
	var h float64
	if err := c.drv.Evaluate(ctx, browser.ScriptPageHeight, &h); err != nil {
		c.logger.WithError(err).Debug("Failed to measure page height")
		return prev
	}
	return h
}

// query returns the current feed items, or prev when the query fails.
func (c *Controller) query(ctx context.Context, selector string, prev []browser.Element) []browser.Element {
	items, err := c.drv.QueryAll(ctx, selector)
	if err != nil {
		c.logger.WithError(err).Debug("Failed to query feed items")
		return prev
	}
	return items
}
