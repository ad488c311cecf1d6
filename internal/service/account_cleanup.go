package service

import (
	"context"
	"errors"
	"time"

	"github.com/dancarlton/rinsed/internal/store"

	"go.uber.org/zap"
)

// AccountCleanup periodically deletes accounts that never verified their
// email within ttl of registering, together with their avatars. avatars may
// be nil when storage is disabled.
func AccountCleanup(ctx context.Context, t, ttl time.Duration, s *store.UserStore, avatars *AvatarService) {
	ticker := time.NewTicker(t)
	defer ticker.Stop()

	zap.L().Debug("Account cleanup attached", zap.Duration("tick_every", t), zap.Duration("ttl", ttl))

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			cleanAccounts(ctx, s, avatars, now.Add(-ttl))
		}
	}
}

func cleanAccounts(ctx context.Context, s *store.UserStore, avatars *AvatarService, before time.Time) int {
	users, err := s.FindUnverifiedBefore(ctx, before)
	if err != nil {
		zap.L().Error("Failed to query db for users to clean", zap.Error(err))
		return 0
	}

	var deleted int

	for _, u := range users {
		if avatars != nil && u.Avatar != "" {
			// The account goes even when the object can't be removed
			if err := avatars.Remove(ctx, u.Avatar); err != nil && !errors.Is(err, ErrForeignAvatar) {
				zap.L().Error("Failed to delete avatar from storage", zap.String("userID", u.ID), zap.Error(err))
			}
		}

		if err := s.Delete(ctx, u.ID); err != nil {
			zap.L().Error("Failed to delete user from database", zap.String("userID", u.ID), zap.Error(err))
			continue
		}

		deleted++
	}

	if deleted > 0 {
		zap.L().Debug("Account cleanup finished", zap.Int("deleted", deleted))
	}

	return deleted
}
