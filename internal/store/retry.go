package store

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/MKhiriev/go-auth-keeper/internal/logger"
)

const (
	retryBaseDelay  = 50 * time.Millisecond
	retryMaxRetries = 2
)

// withRetry runs fn and repeats it with exponential backoff while the
// driver classifies the failure as [Retryable]. The last error is returned
// unwrapped.
func (db *DB) withRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(retryMaxRetries, retry.NewExponential(retryBaseDelay))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if db.errorClassificator != nil && db.errorClassificator.Classify(err) == Retryable {
			logger.FromContext(ctx).Warn().Err(err).Str("func", "*DB.withRetry").Msg("retrying database call")
			return retry.RetryableError(err)
		}
		return err
	})
}
