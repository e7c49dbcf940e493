package scraper

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liscraper/internal/feedtest"
	"liscraper/pkg/browser"
	"liscraper/pkg/checkpoint"
	errs "liscraper/pkg/errors"
	"liscraper/pkg/ledger"
	"liscraper/pkg/logger"
	"liscraper/pkg/metadata"
	"liscraper/pkg/models"
	"liscraper/pkg/pacing"
	"liscraper/pkg/retry"
	"liscraper/pkg/storage"
)

const profileURL = "https://www.linkedin.com/in/jane-doe"

type recordingReporter struct {
	NopReporter

	mu       sync.Mutex
	accepted int
	skipped  map[models.SkipReason]int
	finished []models.BatchResult
	failures []bool
	final    error
	ended    bool
}

func newRecordingReporter() *recordingReporter {
	return &recordingReporter{skipped: make(map[models.SkipReason]int)}
}

func (r *recordingReporter) PostAccepted(int, models.Post, int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accepted++
}

func (r *recordingReporter) PostSkipped(_ int, reason models.SkipReason) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.skipped[reason]++
}

func (r *recordingReporter) BatchFinished(res models.BatchResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = append(r.finished, res)
}

func (r *recordingReporter) BatchFailed(_ int, _ error, willRetry bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, willRetry)
}

func (r *recordingReporter) SessionFinished(_ models.ScrapeSession, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.final = err
	r.ended = true
}

type failingSaver struct{}

func (failingSaver) SaveBatch(string, []models.Post) (string, error) {
	return "", errors.New("disk full")
}

type fixture struct {
	launcher *browser.SnapshotLauncher
	store    *storage.Manager
	reporter *recordingReporter
	dir      string
}

func newFixture(t *testing.T, items []feedtest.Item, login func(email, password string) error) *fixture {
	t.Helper()
	opts := browser.DefaultSnapshotOptions()
	opts.ItemsPerScroll = 5
	opts.Login = login
	page := feedtest.Page(feedtest.Options{Name: "Jane Doe"}, items...)

	dir := t.TempDir()
	store, err := storage.NewManager(dir, storage.WithLogger(logger.NewNopLogger()))
	require.NoError(t, err)

	return &fixture{
		launcher: browser.NewSnapshotLauncher(page, opts),
		store:    store,
		reporter: newRecordingReporter(),
		dir:      dir,
	}
}

func (f *fixture) scraper(saver BatchSaver) *Scraper {
	if saver == nil {
		saver = f.store
	}
	return New(f.launcher, saver,
		WithPacing(pacing.Zero()),
		WithLogger(logger.NewNopLogger()),
		WithReporter(f.reporter),
	)
}

func (f *fixture) runner(cfg RunnerConfig, opts ...RunnerOption) *Runner {
	opts = append([]RunnerOption{
		WithRetry(retry.Config{Backoff: &retry.ConstantBackoff{}, RetryIf: retry.DefaultRetryIf}),
		WithRunnerLogger(logger.NewNopLogger()),
	}, opts...)
	return NewRunner(f.scraper(nil), f.store, cfg, opts...)
}

func (f *fixture) artifacts(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(f.dir)
	require.NoError(t, err)
	var out []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".txt") {
			out = append(out, e.Name())
		}
	}
	return out
}

func (f *fixture) assertAllClosed(t *testing.T) {
	t.Helper()
	sessions := f.launcher.Sessions()
	require.NotEmpty(t, sessions)
	for i, s := range sessions {
		assert.True(t, s.Closed(), "session %d left open", i)
	}
}

func request(requested, offset, batchSize int) BatchRequest {
	return BatchRequest{
		ProfileURL: profileURL,
		Requested:  requested,
		Offset:     offset,
		BatchSize:  batchSize,
		Index:      1,
		Email:      "jane@example.com",
		Password:   "secret",
	}
}

func TestBatchRequestTarget(t *testing.T) {
	assert.Equal(t, 30, request(100, 0, 30).Target())
	assert.Equal(t, 10, request(100, 90, 30).Target())
	assert.Equal(t, 0, request(100, 100, 30).Target())
}

func TestRunBatchAcceptsUpToTarget(t *testing.T) {
	f := newFixture(t, feedtest.Posts(12), nil)
	led := ledger.New()

	res, err := f.scraper(nil).RunBatch(context.Background(), request(5, 0, 30), led)
	require.NoError(t, err)

	assert.Equal(t, 5, res.Target)
	assert.Equal(t, 5, res.Accepted)
	assert.Equal(t, 5, res.Cumulative)
	assert.Equal(t, 0, res.Remaining)
	assert.False(t, res.Continuation)
	assert.Equal(t, "Jane Doe", res.ProfileLabel)
	assert.Equal(t, "Post number 1 about building things", res.Posts[0].Content)
	assert.Equal(t, "2d", res.Posts[0].Date)
	assert.Equal(t, 5, led.Len())
	assert.Equal(t, 5, f.reporter.accepted)

	require.FileExists(t, res.ArtifactPath)
	a, err := storage.ParseFile(res.ArtifactPath)
	require.NoError(t, err)
	assert.Len(t, a.Posts, 5)

	sessions := f.launcher.Sessions()
	require.Len(t, sessions, 1)
	assert.True(t, sessions[0].LoggedIn())
	assert.True(t, sessions[0].Closed())
}

func TestRunBatchNothingLeftSkipsBrowser(t *testing.T) {
	f := newFixture(t, feedtest.Posts(3), nil)

	res, err := f.scraper(nil).RunBatch(context.Background(), request(10, 10, 5), ledger.New())
	require.NoError(t, err)

	assert.Equal(t, 0, res.Accepted)
	assert.Equal(t, 10, res.Cumulative)
	assert.False(t, res.Continuation)
	assert.Empty(t, f.launcher.Sessions())
	assert.Empty(t, f.artifacts(t))
}

func TestRunBatchCountsSkips(t *testing.T) {
	items := feedtest.Posts(4)
	items = append(items,
		feedtest.Item{Content: "Shared from someone else", Repost: true},
		feedtest.Post("Post number 2 about building things"),
		feedtest.Item{Raw: "<div></div>"},
	)
	f := newFixture(t, items, nil)
	led := ledger.New()

	res, err := f.scraper(nil).RunBatch(context.Background(), request(10, 0, 10), led)
	require.NoError(t, err)

	assert.Equal(t, 4, res.Accepted)
	assert.True(t, res.Continuation)
	assert.Equal(t, 1, res.Skipped[models.SkipReposted])
	assert.Equal(t, 1, res.Skipped[models.SkipDuplicate])
	assert.Equal(t, 1, res.Skipped[models.SkipNoContent])
	assert.Equal(t, res.Skipped, f.reporter.skipped)
}

func TestRunBatchPausesOnlyAfterAcceptedPosts(t *testing.T) {
	items := feedtest.Posts(3)
	items = append(items,
		feedtest.Item{Content: "Shared from someone else", Repost: true},
		feedtest.Post("Post number 1 about building things"),
		feedtest.Item{Raw: "<div></div>"},
	)
	f := newFixture(t, items, nil)
	p := pacing.Zero()
	s := New(f.launcher, f.store,
		WithPacing(p),
		WithLogger(logger.NewNopLogger()),
		WithReporter(f.reporter),
	)

	res, err := s.RunBatch(context.Background(), request(10, 0, 10), ledger.New())
	require.NoError(t, err)

	assert.Equal(t, 3, res.Accepted)
	assert.Equal(t, 3, p.Waits(pacing.BetweenPosts))
}

func TestRunBatchMultiLineHeading(t *testing.T) {
	opts := browser.DefaultSnapshotOptions()
	opts.ItemsPerScroll = 5
	page := feedtest.Page(feedtest.Options{NameHTML: "<span>Jane</span>\n<span>Doe</span>"}, feedtest.Posts(3)...)
	store, err := storage.NewManager(t.TempDir(), storage.WithLogger(logger.NewNopLogger()))
	require.NoError(t, err)
	s := New(browser.NewSnapshotLauncher(page, opts), store,
		WithPacing(pacing.Zero()),
		WithLogger(logger.NewNopLogger()),
	)

	res, err := s.RunBatch(context.Background(), request(3, 0, 3), ledger.New())
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", res.ProfileLabel)

	a, err := storage.ParseFile(res.ArtifactPath)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", a.Label)
	assert.Len(t, a.Posts, 3)
}

func TestRunBatchAuthFailure(t *testing.T) {
	f := newFixture(t, feedtest.Posts(5), func(string, string) error {
		return errors.New("invalid credentials")
	})

	res, err := f.scraper(nil).RunBatch(context.Background(), request(5, 0, 5), ledger.New())
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errs.IsType(err, errs.ErrorTypeAuth))
	assert.Contains(t, err.Error(), "invalid credentials")
	assert.Empty(t, f.artifacts(t))
	f.assertAllClosed(t)
}

func TestRunBatchLaunchFailure(t *testing.T) {
	f := newFixture(t, feedtest.Posts(5), nil)
	f.launcher.FailLaunch = errors.New("chrome not found")

	_, err := f.scraper(nil).RunBatch(context.Background(), request(5, 0, 5), ledger.New())
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeUnknown))
	assert.Empty(t, f.launcher.Sessions())
}

func TestRunBatchPersistFailureLeavesLedgerUntouched(t *testing.T) {
	f := newFixture(t, feedtest.Posts(5), nil)
	led := ledger.New()

	_, err := f.scraper(failingSaver{}).RunBatch(context.Background(), request(5, 0, 5), led)
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeIO))
	assert.Equal(t, 0, led.Len())
	f.assertAllClosed(t)

	// A retry with a working saver accepts the same posts.
	res, err := f.scraper(nil).RunBatch(context.Background(), request(5, 0, 5), led)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Accepted)
}

func TestRunBatchCancelled(t *testing.T) {
	f := newFixture(t, feedtest.Posts(5), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.scraper(nil).RunBatch(ctx, request(5, 0, 5), ledger.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunnerSplitsAndMerges(t *testing.T) {
	f := newFixture(t, feedtest.Posts(45), nil)

	s, err := f.runner(RunnerConfig{}).Run(context.Background(), models.NewSession(profileURL, 45, 30), Credentials{})
	require.NoError(t, err)

	require.Len(t, s.Batches, 2)
	assert.Equal(t, 30, s.Batches[0].Accepted)
	assert.Equal(t, 15, s.Batches[1].Accepted)
	assert.Equal(t, 45, s.Offset)
	assert.Equal(t, models.StateComplete, s.Terminal())
	assert.Len(t, s.Fingerprints, 45)
	assert.Contains(t, filepath.Base(s.CanonicalPath), "_all_batches_")

	merged, err := storage.ParseFile(s.CanonicalPath)
	require.NoError(t, err)
	require.Len(t, merged.Posts, 45)
	for i, p := range merged.Posts {
		assert.Equal(t, fmt.Sprintf("Post number %d about building things", i+1), p.Content)
	}
	assert.Len(t, f.artifacts(t), 3)
	assert.Len(t, f.launcher.Sessions(), 2)
	f.assertAllClosed(t)
	assert.True(t, f.reporter.ended)
	assert.NoError(t, f.reporter.final)
}

func TestRunnerSingleBatchIsCanonical(t *testing.T) {
	f := newFixture(t, feedtest.Posts(10), nil)

	s, err := f.runner(RunnerConfig{}).Run(context.Background(), models.NewSession(profileURL, 8, 30), Credentials{})
	require.NoError(t, err)

	require.Len(t, s.Batches, 1)
	assert.Equal(t, s.Batches[0].ArtifactPath, s.CanonicalPath)
	assert.Len(t, f.artifacts(t), 1)
}

func TestRunnerStallsWhenFeedRunsDry(t *testing.T) {
	f := newFixture(t, feedtest.Posts(10), nil)

	s, err := f.runner(RunnerConfig{}).Run(context.Background(), models.NewSession(profileURL, 40, 10), Credentials{})
	require.NoError(t, err)

	require.Len(t, s.Batches, 2)
	assert.Equal(t, 0, s.Batches[1].Accepted)
	assert.True(t, s.Stalled)
	assert.Equal(t, 10, s.Offset)
	assert.Equal(t, models.StateStalled, s.Terminal())

	merged, err := storage.ParseFile(s.CanonicalPath)
	require.NoError(t, err)
	assert.Len(t, merged.Posts, 10)
}

func TestRunnerAuthFailureWritesNothing(t *testing.T) {
	f := newFixture(t, feedtest.Posts(10), func(string, string) error {
		return errors.New("checkpoint challenge")
	})

	s, err := f.runner(RunnerConfig{BatchRetries: 1}).Run(context.Background(), models.NewSession(profileURL, 10, 5), Credentials{})
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeAuth))

	assert.Empty(t, s.Batches)
	assert.Empty(t, s.CanonicalPath)
	assert.Empty(t, f.artifacts(t))
	assert.Len(t, f.launcher.Sessions(), 2)
	f.assertAllClosed(t)
	assert.Equal(t, []bool{true, false}, f.reporter.failures)
	assert.Error(t, f.reporter.final)
}

func TestRunnerDeduplicatesAcrossBatches(t *testing.T) {
	items := feedtest.Posts(40)
	for i := 30; i < 35; i++ {
		items[i] = feedtest.Post(fmt.Sprintf("Post number %d about building things", i-29))
	}
	f := newFixture(t, items, nil)

	s, err := f.runner(RunnerConfig{}).Run(context.Background(), models.NewSession(profileURL, 40, 30), Credentials{})
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(s.Batches), 2)
	assert.Equal(t, 5, s.Batches[1].Skipped[models.SkipDuplicate])
	assert.Equal(t, 5, s.Batches[1].Accepted)

	merged, err := storage.ParseFile(s.CanonicalPath)
	require.NoError(t, err)
	seen := make(map[string]bool)
	for _, p := range merged.Posts {
		assert.False(t, seen[p.Content], "duplicate %q", p.Content)
		seen[p.Content] = true
	}
}

func TestRunnerBatchScopedDedup(t *testing.T) {
	items := feedtest.Posts(40)
	for i := 30; i < 35; i++ {
		items[i] = feedtest.Post(fmt.Sprintf("Post number %d about building things", i-29))
	}
	f := newFixture(t, items, nil)

	s, err := f.runner(RunnerConfig{BatchScopedDedup: true}).Run(context.Background(), models.NewSession(profileURL, 40, 30), Credentials{})
	require.NoError(t, err)

	require.Len(t, s.Batches, 2)
	assert.Equal(t, 10, s.Batches[1].Accepted)
	assert.Equal(t, 40, s.Offset)
	assert.Equal(t, models.StateComplete, s.Terminal())
}

func TestRunnerCapsRequest(t *testing.T) {
	f := newFixture(t, feedtest.Posts(20), nil)

	s, err := f.runner(RunnerConfig{MaxPosts: 6}).Run(context.Background(), models.NewSession(profileURL, 50, 30), Credentials{})
	require.NoError(t, err)

	assert.Equal(t, 6, s.RequestedTotal)
	assert.Equal(t, 6, s.Offset)
}

func TestRunnerRejectsZeroBatchSize(t *testing.T) {
	f := newFixture(t, feedtest.Posts(3), nil)

	_, err := f.runner(RunnerConfig{}).Run(context.Background(), models.NewSession(profileURL, 5, 0), Credentials{})
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeConfig))
	assert.Empty(t, f.launcher.Sessions())
}

func TestRunnerWritesMetadataSidecar(t *testing.T) {
	f := newFixture(t, feedtest.Posts(10), nil)

	s, err := f.runner(RunnerConfig{WriteJSON: true}).Run(context.Background(), models.NewSession(profileURL, 10, 6), Credentials{})
	require.NoError(t, err)

	require.True(t, metadata.Exists(s.CanonicalPath))
	meta, err := metadata.Load(s.CanonicalPath)
	require.NoError(t, err)
	assert.Equal(t, 10, meta.Collected)
	assert.Len(t, meta.Batches, 2)
	assert.Len(t, meta.Posts, 10)
}

func TestRunnerCheckpointLifecycle(t *testing.T) {
	t.Run("deleted on completion", func(t *testing.T) {
		f := newFixture(t, feedtest.Posts(10), nil)
		cps, err := checkpoint.NewManagerIn(t.TempDir(), profileURL)
		require.NoError(t, err)

		_, err = f.runner(RunnerConfig{}, WithCheckpoints(cps)).Run(context.Background(), models.NewSession(profileURL, 10, 5), Credentials{})
		require.NoError(t, err)
		assert.False(t, cps.Exists())
	})

	t.Run("kept on failure", func(t *testing.T) {
		f := newFixture(t, feedtest.Posts(10), nil)
		cps, err := checkpoint.NewManagerIn(t.TempDir(), profileURL)
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		rep := &cancelAfterFirstBatch{recordingReporter: newRecordingReporter(), cancel: cancel}

		r := NewRunner(f.scraper(nil), f.store, RunnerConfig{},
			WithCheckpoints(cps),
			WithRunnerLogger(logger.NewNopLogger()),
			WithRunnerReporter(rep),
			WithRetry(retry.Config{Backoff: &retry.ConstantBackoff{}}),
		)
		s, err := r.Run(ctx, models.NewSession(profileURL, 10, 5), Credentials{})
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 5, s.Offset)

		cp, err := cps.Load()
		require.NoError(t, err)
		require.NotNil(t, cp)
		resumed := cp.ToSession()
		assert.Equal(t, 5, resumed.Offset)
		assert.Len(t, resumed.Fingerprints, 5)
		assert.False(t, resumed.Done())

		done, err := f.runner(RunnerConfig{}, WithCheckpoints(cps)).Run(context.Background(), resumed, Credentials{})
		require.NoError(t, err)
		assert.Equal(t, 10, done.Offset)
		require.Len(t, done.Batches, 2)
		assert.Equal(t, "Post number 6 about building things", mustParse(t, done.Batches[1].ArtifactPath).Posts[0].Content)
		assert.False(t, cps.Exists())
	})
}

type cancelAfterFirstBatch struct {
	*recordingReporter
	cancel context.CancelFunc
}

func (c *cancelAfterFirstBatch) BatchFinished(res models.BatchResult) {
	c.recordingReporter.BatchFinished(res)
	c.cancel()
}

func mustParse(t *testing.T, path string) storage.Artifact {
	t.Helper()
	a, err := storage.ParseFile(path)
	require.NoError(t, err)
	return a
}
