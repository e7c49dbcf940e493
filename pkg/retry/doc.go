// Package retry re-runs failed operations with backoff.
//
// Features:
//   - Exponential, linear and constant backoff strategies
//   - Jitter on every computed delay
//   - Context cancellation while waiting
//   - Backoff chosen by the failure's error type
//   - Configurable retry predicates
//
// Basic usage:
//
//	err := retry.Do(ctx, func(ctx context.Context) error {
//		_, err := s.RunBatch(ctx, req, ledger)
//		return err
//	}, nil)
//
//	cfg := &retry.Config{
//		MaxAttempts: 2,
//		Backoff:     &retry.ConstantBackoff{Delay: 30 * time.Second},
//		RetryIf:     retry.DefaultRetryIf,
//		Logger:      logger.GetLogger(),
//	}
//	result, err := retry.DoWithResult(ctx, runBatch, cfg)
//
// Error types:
//   - Auth failures wait tens of seconds
//   - Rate limit failures wait longest
//   - Navigation failures retry quickly
//   - IO and config failures are not retried
package retry
