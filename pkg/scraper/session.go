package scraper

import (
	"context"
	"fmt"
	"time"

	"liscraper/pkg/checkpoint"
	"liscraper/pkg/config"
	errs "liscraper/pkg/errors"
	"liscraper/pkg/ledger"
	"liscraper/pkg/logger"
	"liscraper/pkg/merge"
	"liscraper/pkg/metadata"
	"liscraper/pkg/models"
	"liscraper/pkg/pacing"
	"liscraper/pkg/retry"
	"liscraper/pkg/storage"
)

// Credentials authenticate every batch's session.
type Credentials struct {
	Email    string
	Password string
}

// RunnerConfig bounds a whole request.
type RunnerConfig struct {
	// MaxPosts caps the requested total. Zero means no cap.
	MaxPosts int
	// BatchRetries is how many times a failed batch is re-run.
	BatchRetries int
	// BetweenBatches is the pause before every batch after the first.
	BetweenBatches time.Duration
	// BatchScopedDedup gives every batch its own ledger.
	BatchScopedDedup bool
	// WriteJSON writes a metadata sidecar next to the canonical artifact.
	WriteJSON bool
}

// RunnerConfigFrom extracts the runner settings from cfg.
func RunnerConfigFrom(cfg *config.Config) RunnerConfig {
	return RunnerConfig{
		MaxPosts:         cfg.Scrape.MaxPosts,
		BatchRetries:     cfg.Scrape.BatchRetries,
		BetweenBatches:   cfg.Scrape.BetweenBatches,
		BatchScopedDedup: cfg.Scrape.BatchScopedDedup,
		WriteJSON:        cfg.Output.WriteJSON,
	}
}

// Runner drives a request batch by batch until it is satisfied or stalls.
type Runner struct {
	scraper     *Scraper
	assembler   *merge.Assembler
	cfg         RunnerConfig
	checkpoints *checkpoint.Manager
	retry       *retry.Config
	logger      logger.Logger
	reporter    Reporter
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithCheckpoints saves the session through m after every batch.
func WithCheckpoints(m *checkpoint.Manager) RunnerOption {
	return func(r *Runner) { r.checkpoints = m }
}

// WithRetry overrides how failed batches are retried. MaxAttempts is always
// derived from RunnerConfig.BatchRetries.
func WithRetry(cfg retry.Config) RunnerOption {
	return func(r *Runner) { r.retry = &cfg }
}

// WithRunnerLogger sets the logger.
func WithRunnerLogger(l logger.Logger) RunnerOption {
	return func(r *Runner) { r.logger = l }
}

// WithRunnerReporter sets the progress reporter.
func WithRunnerReporter(rep Reporter) RunnerOption {
	return func(r *Runner) { r.reporter = rep }
}

// NewRunner creates a runner executing batches with s and writing the
// merged artifact through saver.
func NewRunner(s *Scraper, saver merge.Saver, cfg RunnerConfig, opts ...RunnerOption) *Runner {
	r := &Runner{
		scraper:  s,
		cfg:      cfg,
		retry:    retry.DefaultConfig(),
		logger:   logger.GetLogger(),
		reporter: s.reporter,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.assembler = merge.NewAssembler(saver, r.logger)
	r.retry.MaxAttempts = cfg.BatchRetries + 1
	if r.retry.Logger == nil {
		r.retry.Logger = r.logger
	}
	return r
}

// Run continues session until Done, then produces the canonical artifact.
// The returned session is always the latest state, even with an error, so
// the caller can resume it.
func (r *Runner) Run(ctx context.Context, session models.ScrapeSession, creds Credentials) (models.ScrapeSession, error) {
	started := time.Now()
	log := r.logger.WithField("profile", session.ProfileURL)

	if session.BatchSize <= 0 {
		return session, errs.New(errs.ErrorTypeConfig, "", "batch size must be positive")
	}
	if r.cfg.MaxPosts > 0 && session.RequestedTotal > r.cfg.MaxPosts {
		log.WarnWithFields("Requested count exceeds the configured maximum", map[string]interface{}{
			"requested": session.RequestedTotal,
			"max_posts": r.cfg.MaxPosts,
		})
		session.RequestedTotal = r.cfg.MaxPosts
	}

	logger.LogComponentStart(log, "runner", map[string]interface{}{
		"requested":     session.RequestedTotal,
		"batch_size":    session.BatchSize,
		"offset":        session.Offset,
		"batch_retries": r.cfg.BatchRetries,
		"shared_dedup":  !r.cfg.BatchScopedDedup,
	})
	shared := ledger.FromFingerprints(session.Fingerprints)
	cp := r.openCheckpoint(session, log)
	r.reporter.SessionStarted(session)

	for !session.Done() {
		if len(session.Batches) > 0 && r.cfg.BetweenBatches > 0 {
			r.reporter.Waiting("between batches", r.cfg.BetweenBatches)
			if err := pacing.Sleep(ctx, r.cfg.BetweenBatches); err != nil {
				return r.abort(session, cp, log, err)
			}
		}

		req := BatchRequest{
			ProfileURL: session.ProfileURL,
			Requested:  session.RequestedTotal,
			Offset:     session.Offset,
			BatchSize:  session.BatchSize,
			Index:      len(session.Batches) + 1,
			Email:      creds.Email,
			Password:   creds.Password,
		}
		led := shared
		if r.cfg.BatchScopedDedup {
			led = ledger.New()
		}

		result, err := retry.DoWithResult(ctx, func(ctx context.Context) (*models.BatchResult, error) {
			return r.scraper.RunBatch(ctx, req, led)
		}, r.batchRetry(req.Index))
		if err != nil {
			r.reporter.BatchFailed(req.Index, err, false)
			return r.abort(session, cp, log, err)
		}

		session = session.WithBatch(*result).WithFingerprints(shared.Fingerprints())
		r.reporter.BatchFinished(session.Batches[len(session.Batches)-1])
		r.saveCheckpoint(cp, session, log)

		if session.Stalled {
			log.WarnWithFields("Feed stopped yielding posts", map[string]interface{}{
				"collected": session.Offset,
				"requested": session.RequestedTotal,
			})
		}
	}

	session, err := r.finish(session, started, log)
	if err != nil {
		return r.abort(session, cp, log, err)
	}

	if r.checkpoints != nil {
		if err := r.checkpoints.Delete(); err != nil {
			log.WithError(err).Warn("Failed to delete checkpoint")
		}
	}
	log.InfoWithFields("Session finished", map[string]interface{}{
		"state":     string(session.Terminal()),
		"collected": session.Offset,
		"batches":   len(session.Batches),
		"canonical": session.CanonicalPath,
	})
	logger.LogComponentStop(log, "runner", string(session.Terminal()))
	r.reporter.SessionFinished(session, nil)
	return session, nil
}

func (r *Runner) batchRetry(index int) *retry.Config {
	cfg := *r.retry
	onRetry := cfg.OnRetry
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		r.reporter.BatchFailed(index, err, true)
		if onRetry != nil {
			onRetry(attempt, err, delay)
		}
	}
	return &cfg
}

// finish points the session at its canonical artifact: the only batch
// artifact, or a merge of all of them.
func (r *Runner) finish(session models.ScrapeSession, started time.Time, log logger.Logger) (models.ScrapeSession, error) {
	paths := session.ArtifactPaths()

	var posts []models.Post
	switch len(paths) {
	case 0:
		log.Warn("No batch artifacts were written")
		return session, nil
	case 1:
		a, err := storage.ParseFile(paths[0])
		if err != nil {
			return session, errs.Wrap(err, errs.ErrorTypeIO, errs.PhaseMerge, session.ProfileURL)
		}
		posts = a.Posts
		session = session.WithCanonical(paths[0])
	default:
		path, combined, err := r.assembler.Merge(paths, session.ProfileLabel)
		if err != nil {
			return session, errs.Wrap(err, errs.ErrorTypeIO, errs.PhaseMerge, session.ProfileURL)
		}
		posts = combined.Posts
		session = session.WithCanonical(path)
	}

	if r.cfg.WriteJSON {
		if err := metadata.FromSession(session, posts, started).Save(session.CanonicalPath); err != nil {
			log.WithError(err).Warn("Failed to write metadata sidecar")
		}
	}
	return session, nil
}

func (r *Runner) openCheckpoint(session models.ScrapeSession, log logger.Logger) *checkpoint.Checkpoint {
	if r.checkpoints == nil {
		return nil
	}
	cp, err := r.checkpoints.Load()
	if err != nil {
		log.WithError(err).Warn("Failed to load checkpoint, starting a new one")
	}
	if cp == nil {
		cp = checkpoint.FromSession(session)
	}
	r.saveCheckpoint(cp, session, log)
	return cp
}

func (r *Runner) saveCheckpoint(cp *checkpoint.Checkpoint, session models.ScrapeSession, log logger.Logger) {
	if r.checkpoints == nil || cp == nil {
		return
	}
	if err := r.checkpoints.Update(cp, session); err != nil {
		log.WithError(err).Warn("Failed to update checkpoint")
	}
}

func (r *Runner) abort(session models.ScrapeSession, cp *checkpoint.Checkpoint, log logger.Logger, err error) (models.ScrapeSession, error) {
	r.saveCheckpoint(cp, session, log)
	log.WithError(err).ErrorWithFields("Session stopped", map[string]interface{}{
		"collected": session.Offset,
		"batches":   len(session.Batches),
	})
	logger.LogComponentStop(log, "runner", "aborted")
	r.reporter.SessionFinished(session, err)
	return session, fmt.Errorf("session for %s stopped after %d posts: %w", session.ProfileURL, session.Offset, err)
}
