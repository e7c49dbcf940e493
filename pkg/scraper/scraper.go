package scraper

import (
	"context"
	"errors"
	"fmt"

	"liscraper/pkg/browser"
	errs "liscraper/pkg/errors"
	"liscraper/pkg/extract"
	"liscraper/pkg/ledger"
	"liscraper/pkg/linkedin"
	"liscraper/pkg/logger"
	"liscraper/pkg/models"
	"liscraper/pkg/pacing"
	"liscraper/pkg/pagination"
	"liscraper/pkg/ratelimit"
)

// BatchRequest describes one bounded batch.
type BatchRequest struct {
	ProfileURL string
	// Requested is the total wanted across all batches.
	Requested int
	// Offset counts posts accepted by earlier batches.
	Offset    int
	BatchSize int
	// Index is the 1-based batch number, used for reporting.
	Index    int
	Email    string
	Password string
}

// Target returns the number of posts this batch aims for.
func (r BatchRequest) Target() int {
	return min(r.BatchSize, r.Requested-r.Offset)
}

// Scraper runs batches, each in a fresh browser session.
type Scraper struct {
	launcher   browser.Launcher
	saver      BatchSaver
	limiter    ratelimit.Limiter
	pacing     pacing.Policy
	pagination pagination.Options
	logger     logger.Logger
	reporter   Reporter
}

// Option configures a Scraper.
type Option func(*Scraper)

// WithLimiter limits how often sessions are launched.
func WithLimiter(l ratelimit.Limiter) Option {
	return func(s *Scraper) { s.limiter = l }
}

// WithPacing sets the delay policy.
func WithPacing(p pacing.Policy) Option {
	return func(s *Scraper) { s.pacing = p }
}

// WithPagination overrides the scroll loop settings.
func WithPagination(o pagination.Options) Option {
	return func(s *Scraper) { s.pagination = o }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Scraper) { s.logger = l }
}

// WithReporter sets the progress reporter.
func WithReporter(r Reporter) Option {
	return func(s *Scraper) { s.reporter = r }
}

// New creates a Scraper that opens sessions with launcher and writes
// artifacts through saver.
func New(launcher browser.Launcher, saver BatchSaver, opts ...Option) *Scraper {
	s := &Scraper{
		launcher:   launcher,
		saver:      saver,
		limiter:    ratelimit.PerHour(0, 0),
		pacing:     pacing.Zero(),
		pagination: pagination.DefaultOptions(),
		logger:     logger.GetLogger(),
		reporter:   NopReporter{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunBatch authenticates, surfaces feed items past req.Offset, extracts up
// to req.Target() novel posts and saves them as one artifact. Posts are
// checked against led, which only learns about them once the artifact is
// written. The browser session is closed on every path.
func (s *Scraper) RunBatch(ctx context.Context, req BatchRequest, led *ledger.Ledger) (res *models.BatchResult, err error) {
	log := s.logger.WithFields(map[string]interface{}{
		"profile": req.ProfileURL,
		"batch":   req.Index,
	})

	target := req.Target()
	if target <= 0 {
		log.Info("Nothing left to fetch, skipping batch")
		empty := models.NewBatchResult(req.Requested, req.Offset, 0, nil)
		empty.Index = req.Index
		return &empty, nil
	}

	phase := errs.PhaseLaunch
	defer func() {
		if r := recover(); r != nil {
			log.ErrorWithFields("Batch panicked", map[string]interface{}{
				"phase": string(phase),
				"panic": fmt.Sprint(r),
			})
			res = nil
			err = errs.Wrap(fmt.Errorf("panic: %v", r), errs.ErrorTypeUnknown, phase, req.ProfileURL)
		}
	}()

	logger.LogBatchStart(log, req.ProfileURL, req.Index, req.Offset, target)
	s.reporter.BatchStarted(req.Index, req.Offset, target)

	sess, err := s.launch(ctx, log, req.ProfileURL)
	if err != nil {
		return nil, err
	}
	defer s.teardown(ctx, sess, log)

	phase = errs.PhaseAuth
	if err := sess.Login(ctx, req.Email, req.Password); err != nil {
		log.WithError(err).Error("Login failed")
		return nil, errs.Wrap(err, errs.ErrorTypeAuth, phase, req.ProfileURL)
	}

	phase = errs.PhaseNavigate
	feedURL, err := linkedin.FeedURL(req.ProfileURL)
	if err != nil {
		return nil, errs.Wrap(err, errs.ErrorTypeConfig, phase, req.ProfileURL)
	}
	if err := sess.Navigate(ctx, feedURL); err != nil {
		log.WithError(err).WithField("url", feedURL).Error("Failed to open activity feed")
		return nil, errs.Wrap(err, errs.ErrorTypeNavigation, phase, req.ProfileURL)
	}
	label := linkedin.ResolveProfileLabel(ctx, sess, req.ProfileURL)

	phase = errs.PhasePaginate
	page, err := pagination.NewController(sess, s.pacing, log, s.pagination).LoadAtLeast(ctx, target, req.Offset)
	if err != nil {
		return nil, errs.Wrap(err, errs.ErrorTypeNavigation, phase, req.ProfileURL)
	}

	phase = errs.PhaseExtract
	work := led.Fork()
	posts, skipped, err := s.collect(ctx, log, req.Index, page.Items, target, work)
	if err != nil {
		return nil, errs.Wrap(err, errs.ErrorTypeExtraction, phase, req.ProfileURL)
	}

	result := models.NewBatchResult(req.Requested, req.Offset, target, posts)
	result.Index = req.Index
	result.ProfileLabel = label
	result.Pagination = page.Exit
	result.Skipped = skipped
	logger.LogBatchComplete(log, req.ProfileURL, result.Accepted, target, result.Cumulative, result.Remaining)

	phase = errs.PhasePersist
	path, err := s.saver.SaveBatch(label, posts)
	if err != nil {
		log.WithError(err).Error("Failed to save batch artifact")
		return nil, errs.Wrap(err, errs.ErrorTypeIO, phase, req.ProfileURL)
	}
	result.ArtifactPath = path
	led.Absorb(work)

	return &result, nil
}

func (s *Scraper) launch(ctx context.Context, log logger.Logger, profile string) (browser.Session, error) {
	if !s.limiter.Allow() {
		delay := s.limiter.Delay()
		log.WarnWithFields("Session limit reached, cooling down", map[string]interface{}{
			"wait": delay.String(),
		})
		s.reporter.Waiting("session rate limit", delay)
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, errs.Wrap(err, errs.ErrorTypeRateLimit, errs.PhaseLaunch, profile)
		}
	}

	sess, err := s.launcher.Launch(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to launch browser")
		return nil, errs.Wrap(err, errs.ErrorTypeUnknown, errs.PhaseLaunch, profile)
	}
	return sess, nil
}

// collect runs items through the extraction pipeline until target posts are
// accepted. Only accepted posts are followed by a between-posts pause.
func (s *Scraper) collect(ctx context.Context, log logger.Logger, batch int, items []browser.Element, target int, led *ledger.Ledger) ([]models.Post, map[models.SkipReason]int, error) {
	pipeline := extract.NewPipeline(s.pacing, log)
	posts := make([]models.Post, 0, target)
	skipped := make(map[models.SkipReason]int)

	for i, item := range items {
		if len(posts) >= target {
			break
		}

		post, err := pipeline.Extract(ctx, item)
		var skipErr *extract.SkipError
		switch {
		case err == nil && led.IsNovel(post.Content):
			posts = append(posts, post)
			s.reporter.PostAccepted(batch, post, len(posts), target)
			if err := s.pacing.Wait(ctx, pacing.BetweenPosts); err != nil {
				return nil, nil, err
			}
		case err == nil:
			skipped[models.SkipDuplicate]++
			logger.LogSkip(log, i+1, string(models.SkipDuplicate))
			s.reporter.PostSkipped(batch, models.SkipDuplicate)
		case errors.As(err, &skipErr):
			skipped[skipErr.Reason]++
			logger.LogSkip(log, i+1, string(skipErr.Reason))
			s.reporter.PostSkipped(batch, skipErr.Reason)
		default:
			return nil, nil, err
		}
	}
	return posts, skipped, nil
}

// teardown pauses briefly and closes the session.
func (s *Scraper) teardown(ctx context.Context, sess browser.Session, log logger.Logger) {
	_ = s.pacing.Wait(ctx, pacing.Teardown)
	if err := sess.Close(); err != nil {
		log.WithError(err).Warn("Failed to close browser session")
	}
}
