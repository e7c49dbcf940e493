// Package scraper extracts LinkedIn posts in bounded batches.
//
// A batch opens a fresh browser session, logs in, opens the profile's
// activity feed, scrolls until enough items exist past the posts earlier
// batches already took, and extracts up to the batch size of novel posts.
// Each batch writes its own artifact. The session is always closed, and any
// failure is reported as a classified error naming the step that failed.
//
// The Runner drives a whole request: it runs batches until the requested
// count is reached or the feed stops yielding posts, retries failed
// batches, checkpoints progress after each one and finally merges the batch
// artifacts into one canonical file.
//
// Usage:
//
//	launcher := browser.NewChromeLauncher(cfg.Browser, linkedin.LoginForm, policy, log)
//	store, _ := storage.NewManager(cfg.Output.Directory)
//	s := scraper.New(launcher, store, scraper.WithPacing(policy))
//
//	runner := scraper.NewRunner(s, store, cfg)
//	session, err := runner.Run(ctx, models.NewSession(url, 100, 30), creds)
//
// Rate Limiting:
//
// Every batch is a new login. Session launches go through a limiter that
// defaults to a handful per hour; when it is exhausted the batch waits.
package scraper
