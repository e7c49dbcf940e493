package scraper

import (
	"time"

	"liscraper/pkg/models"
)

// BatchSaver persists the posts accepted by one batch.
type BatchSaver interface {
	SaveBatch(label string, posts []models.Post) (string, error)
}

// Reporter receives progress from batches and sessions. Implementations
// must not block.
type Reporter interface {
	SessionStarted(s models.ScrapeSession)
	BatchStarted(index, offset, target int)
	PostAccepted(batch int, post models.Post, accepted, target int)
	PostSkipped(batch int, reason models.SkipReason)
	BatchFinished(result models.BatchResult)
	BatchFailed(index int, err error, willRetry bool)
	Waiting(reason string, d time.Duration)
	SessionFinished(s models.ScrapeSession, err error)
}

// NopReporter ignores everything.
type NopReporter struct{}

func (NopReporter) SessionStarted(models.ScrapeSession)         {}
func (NopReporter) BatchStarted(int, int, int)                  {}
func (NopReporter) PostAccepted(int, models.Post, int, int)     {}
func (NopReporter) PostSkipped(int, models.SkipReason)          {}
func (NopReporter) BatchFinished(models.BatchResult)            {}
func (NopReporter) BatchFailed(int, error, bool)                {}
func (NopReporter) Waiting(string, time.Duration)               {}
func (NopReporter) SessionFinished(models.ScrapeSession, error) {}
