// Package logger provides the structured logging interface used across
// liscraper.
//
// It wraps zerolog behind a small Logger interface so components can be
// handed a logger (or a TestLogger in tests) instead of reaching for a global.
//
// Basic Usage:
//
//	err := logger.Initialize(&cfg.Logging)
//	log := logger.GetLogger().WithField("profile", ref)
//	log.InfoWithFields("Batch complete", map[string]interface{}{
//	    "accepted":   30,
//	    "cumulative": 30,
//	})
//
// Every rejected feed item is logged through LogSkip with its reason, so a
// post missing from an artifact can always be traced back to a log line.
package logger
