package cleanup

import (
	"context"
	"time"

	"tokengate/internal/auth/repository"
	"tokengate/internal/common/constants"
	"tokengate/internal/common/logger"
	"tokengate/internal/observability/metrics"
)

// StartTokenCleanup periodically removes tokens whose deadline has passed.
// It runs until ctx is cancelled. A cleanup pass failing only logs; the
// next tick tries again.
func StartTokenCleanup(
	ctx context.Context,
	tokens repository.TokenRepository,
	log *logger.Logger,
	interval time.Duration,
) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("token cleanup stopped")
			return
		case <-ticker.C:
			runCleanupPass(ctx, tokens, log)
		}
	}
}

func runCleanupPass(ctx context.Context, tokens repository.TokenRepository, log *logger.Logger) {
	passCtx, cancel := context.WithTimeout(ctx, constants.DBQueryTimeout)
	defer cancel()

	deleted, err := tokens.DeleteExpired(passCtx)
	if err != nil {
		log.Errorf("token cleanup pass failed: %v", err)
		return
	}

	if deleted > 0 {
		metrics.TokensCleanupDeleted.Add(float64(deleted))
		log.Infof("token cleanup: deleted %d expired tokens", deleted)
	}
}
