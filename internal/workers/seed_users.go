package workers

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/MKhiriev/go-auth-keeper/internal/logger"
	"github.com/MKhiriev/go-auth-keeper/internal/service"
)

const (
	seedAttempts     = 5
	seedInitialDelay = 500 * time.Millisecond
)

type seedUsersWorker struct {
	initializer Initializer
	backoff     func() retry.Backoff

	logger *logger.Logger
}

// NewSeedUsersWorker creates the configured seed users. Infrastructure
// failures (database or Redis not reachable yet) are retried with
// exponential backoff; invalid seed definitions are logged and skipped.
func NewSeedUsersWorker(initializer Initializer, logger *logger.Logger) Worker {
	return &seedUsersWorker{
		initializer: initializer,
		backoff: func() retry.Backoff {
			return retry.WithMaxRetries(seedAttempts-1, retry.NewExponential(seedInitialDelay))
		},
		logger: logger,
	}
}

func (s *seedUsersWorker) Run(ctx context.Context) {
	err := retry.Do(ctx, s.backoff(), func(ctx context.Context) error {
		err := s.initializer.Initialize(ctx)
		if errors.Is(err, service.ErrInfrastructure) {
			s.logger.Warn().Err(err).Str("func", "*seedUsersWorker.Run").Msg("seeding users failed, retrying")
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		s.logger.Err(err).Str("func", "*seedUsersWorker.Run").Msg("error creating seed users")
		return
	}

	s.logger.Info().Msg("seed users are in place")
}
