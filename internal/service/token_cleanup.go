package service

import (
	"context"
	"time"

	"github.com/dancarlton/rinsed/internal/store"

	"go.uber.org/zap"
)

// TokenCleanup periodically deletes verification tokens that aren't needed
// anymore. It blocks until ctx is cancelled so run it in a goroutine.
func TokenCleanup(ctx context.Context, t time.Duration, s *store.UserStore) {
	ticker := time.NewTicker(t)
	defer ticker.Stop()

	zap.L().Debug("Token cleanup attached", zap.Duration("tick_every", t))

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			cleanTokens(ctx, s, now)
		}
	}
}

func cleanTokens(ctx context.Context, s *store.UserStore, now time.Time) int64 {
	n, err := s.DeleteExpiredTokens(ctx, now)
	if err != nil {
		zap.L().Error("Failed to cleanup expired tokens", zap.Error(err))
		return 0
	}

	if n > 0 {
		zap.L().Debug("Cleaned up expired tokens", zap.Int64("count", n))
	}

	return n
}
