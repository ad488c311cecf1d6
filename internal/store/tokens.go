package store

import (
	"context"
	"errors"
	"time"

	"github.com/dancarlton/rinsed/internal/model"

	"gorm.io/gorm"
)

var (
	ErrTokenInvalid   = errors.New("token expired or invalid")
	ErrTokenUsed      = errors.New("token was used already")
	ErrTokenExpired   = errors.New("token expired")
	ErrResendCooldown = errors.New("verification mail was sent recently")
	ErrResendBlocked  = errors.New("too many verification mails requested today")
)

type partialVerifToken struct {
	ExpiresAt *time.Time
	Purpose   string
	Used      bool
}

func (s *UserStore) CreateVerificationToken(ctx context.Context, t *model.VerificationToken) error {
	return s.db.WithContext(ctx).Create(t).Error
}

// VerifyEmail consumes an email verification token and marks its owner as
// verified in a single transaction.
func (s *UserStore) VerifyEmail(ctx context.Context, userID, token string, now time.Time) error {
	var rec partialVerifToken

	err := s.db.WithContext(ctx).
		Model(model.VerificationToken{}).
		Where("user_id = ? AND token = ? AND purpose = ?", userID, token, model.PurposeEmailVerify).
		Select("expires_at", "purpose", "used").
		First(&rec).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTokenInvalid
		}

		return err
	}

	if rec.Used {
		return ErrTokenUsed
	}

	if rec.ExpiresAt != nil && rec.ExpiresAt.Before(now) {
		return ErrTokenExpired
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := tx.Model(&model.VerificationToken{}).
			Where("user_id = ? AND token = ? AND used = ?", userID, token, false).
			Updates(map[string]any{
				"used":    true,
				"used_at": now,
			})
		if r.Error != nil {
			return r.Error
		}

		// Lost the race against another request consuming the same token
		if r.RowsAffected == 0 {
			return ErrTokenUsed
		}

		r = tx.Model(&model.User{}).
			Where("id = ?", userID).
			Updates(map[string]any{
				"is_verified": true,
				"version":     gorm.Expr("version + 1"),
			})
		if r.Error != nil {
			return r.Error
		}

		if r.RowsAffected == 0 {
			return ErrUserNotFound
		}

		return nil
	})
}

// revokeVerificationTokens marks every unused email verification token of
// userID as used.
func revokeVerificationTokens(tx *gorm.DB, userID string, now time.Time) error {
	return tx.Model(&model.VerificationToken{}).
		Where("user_id = ? AND purpose = ? AND used = ?", userID, model.PurposeEmailVerify, false).
		Updates(map[string]any{
			"used":    true,
			"used_at": now,
		}).Error
}

// DeleteExpiredTokens removes tokens past their cleanup date, or past their
// expiry when no cleanup date was set.
func (s *UserStore) DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	r := s.db.WithContext(ctx).
		Where("cleanup_at < ? OR (cleanup_at IS NULL AND expires_at < ?)", now, now).
		Delete(&model.VerificationToken{})

	return r.RowsAffected, r.Error
}

// FindUnverifiedBefore lists accounts that never verified their email and
// were created before t.
func (s *UserStore) FindUnverifiedBefore(ctx context.Context, t time.Time) ([]model.User, error) {
	var users []model.User

	err := s.db.WithContext(ctx).
		Where("is_verified = ? AND created_at < ?", false, t).
		Find(&users).
		Error

	return users, err
}

// RegisterResend records a verification mail resend for userID. It fails with
// ErrResendCooldown inside the cooldown and ErrResendBlocked once dailyLimit
// resends were made in the current 24h window.
func (s *UserStore) RegisterResend(ctx context.Context, userID string, now time.Time, cooldown time.Duration, dailyLimit int) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rr model.ResendRequest

		err := tx.Where("user_id = ?", userID).First(&rr).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if errors.Is(err, gorm.ErrRecordNotFound) {
			rr = model.ResendRequest{UserID: userID, DayStart: now}
		}

		if now.Sub(rr.DayStart) >= 24*time.Hour {
			rr.DayStart = now
			rr.Count = 0
			rr.Blocked = false
		}

		if rr.Blocked {
			return ErrResendBlocked
		}

		if !rr.LastResend.IsZero() && now.Sub(rr.LastResend) < cooldown {
			return ErrResendCooldown
		}

		rr.Count++
		rr.LastResend = now
		if rr.Count >= dailyLimit {
			rr.Blocked = true
		}

		return tx.Save(&rr).Error
	})
}

// MarkVerified flags the account as verified without consuming a token
func (s *UserStore) MarkVerified(ctx context.Context, id string) error {
	r := s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"is_verified": true,
			"version":     gorm.Expr("version + 1"),
		})
	if r.Error != nil {
		return r.Error
	}

	if r.RowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}
