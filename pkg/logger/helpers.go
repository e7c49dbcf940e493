package logger

import (
	"context"

	"github.com/rs/zerolog"
)

// LogBatchStart logs the beginning of a batch
func LogBatchStart(l Logger, profile string, index, offset, target int) {
	l.InfoWithFields("Starting batch", map[string]interface{}{
		"profile": profile,
		"batch":   index,
		"offset":  offset,
		"target":  target,
	})
}

// LogBatchComplete logs a finished batch, as a warning when it came up short
func LogBatchComplete(l Logger, profile string, accepted, target, cumulative, remaining int) {
	fields := map[string]interface{}{
		"profile":    profile,
		"accepted":   accepted,
		"target":     target,
		"cumulative": cumulative,
		"remaining":  remaining,
	}
	if accepted < target {
		l.WarnWithFields("Batch under-filled", fields)
		return
	}
	l.InfoWithFields("Batch complete", fields)
}

// LogSkip records why a feed item was left out of the output
func LogSkip(l Logger, position int, reason string) {
	l.DebugWithFields("Skipped feed item", map[string]interface{}{
		"position": position,
		"reason":   reason,
	})
}

// LogPagination logs how the scroll loop ended
func LogPagination(l Logger, exit string, iterations, materialized, returned int) {
	l.InfoWithFields("Pagination finished", map[string]interface{}{
		"exit":         exit,
		"iterations":   iterations,
		"materialized": materialized,
		"returned":     returned,
	})
}

// LogComponentStart logs component startup
func LogComponentStart(l Logger, component string, config map[string]interface{}) {
	l.WithField("component", component).InfoWithFields("Component starting", config)
}

// LogComponentStop logs component shutdown
func LogComponentStop(l Logger, component, reason string) {
	l.InfoWithFields("Component stopped", map[string]interface{}{
		"component": component,
		"reason":    reason,
	})
}

// NewNopLogger returns a logger that discards everything
func NewNopLogger() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) Fatal(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) FatalWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger {
	nop := zerolog.Nop()
	return &nop
}
