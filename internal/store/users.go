// Package store persists accounts and their verification tokens through gorm.
// It enforces the record constraints before every write and backs the
// uniqueness checks with database-level unique indexes.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dancarlton/rinsed/internal/model"

	"gorm.io/gorm"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrVersionConflict = errors.New("user was modified concurrently")
)

type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// DB exposes the underlying connection for callers that need their own queries
func (s *UserStore) DB() *gorm.DB {
	return s.db
}

// Create applies defaults, validates u, checks every unique field and
// inserts it. The ID and timestamps are filled in on success.
func (s *UserStore) Create(ctx context.Context, u *model.User) error {
	u.ApplyDefaults(time.Now())

	if err := model.Validate(u); err != nil {
		return err
	}

	if err := checkUnique(s.db.WithContext(ctx), u); err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		return translateError(err)
	}

	return nil
}

// Save writes every field of an existing record as long as nobody else
// updated it since u was read. The stored version has to match u.Version,
// otherwise ErrVersionConflict is returned and nothing is written. On success
// u.Version holds the new version.
func (s *UserStore) Save(ctx context.Context, u *model.User) error {
	return s.save(s.db.WithContext(ctx), u, ErrVersionConflict)
}

// SaveEmailChange saves u and revokes every outstanding email verification
// token in the same transaction. Links mailed to the previous address stop
// working.
func (s *UserStore) SaveEmailChange(ctx context.Context, u *model.User, now time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.save(tx, u, ErrVersionConflict); err != nil {
			return err
		}

		return revokeVerificationTokens(tx, u.ID, now)
	})
}

// ResetPassword saves u, which carries the new password hash and a cleared
// reset token, only if token is still the one stored on the account. A token
// consumed by a concurrent request fails with ErrTokenInvalid.
func (s *UserStore) ResetPassword(ctx context.Context, u *model.User, token string) error {
	if token == "" {
		return ErrTokenInvalid
	}

	return s.save(s.db.WithContext(ctx), u, ErrTokenInvalid, "password_reset_token = ?", token)
}

// save runs the optimistic update through db, narrowed by the optional extra
// condition in conds. errStale is returned when no row matched.
func (s *UserStore) save(db *gorm.DB, u *model.User, errStale error, conds ...any) error {
	if u.ID == "" {
		return errors.New("can't save a user without an ID")
	}

	u.ApplyDefaults(u.CreatedAt)

	if err := model.Validate(u); err != nil {
		return err
	}

	if err := checkUnique(db, u); err != nil {
		return err
	}

	expected := u.Version
	u.Version = expected + 1

	q := db.Model(u).Where("version = ?", expected)
	if len(conds) > 0 {
		q = q.Where(conds[0], conds[1:]...)
	}

	r := q.Select("*").
		Omit("id", "created_at", "VerificationTokens").
		Updates(u)
	if r.Error != nil {
		u.Version = expected
		return translateError(r.Error)
	}

	if r.RowsAffected == 0 {
		u.Version = expected
		return errStale
	}

	return nil
}

func (s *UserStore) FindByID(ctx context.Context, id string) (*model.User, error) {
	return s.findOne(ctx, "id = ?", id)
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.findOne(ctx, "email = ?", email)
}

func (s *UserStore) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.findOne(ctx, "username = ?", username)
}

func (s *UserStore) FindByGoogleID(ctx context.Context, googleID string) (*model.User, error) {
	return s.findOne(ctx, "google_id = ?", googleID)
}

// FindByIdentifier matches either the username or the email
func (s *UserStore) FindByIdentifier(ctx context.Context, identifier string) (*model.User, error) {
	return s.findOne(ctx, "username = ? OR email = ?", identifier, identifier)
}

func (s *UserStore) FindByResetToken(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, ErrUserNotFound
	}

	return s.findOne(ctx, "password_reset_token = ?", token)
}

// Delete removes the account together with its tokens and resend history.
func (s *UserStore) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&model.VerificationToken{}).Error; err != nil {
			return err
		}

		if err := tx.Where("user_id = ?", id).Delete(&model.ResendRequest{}).Error; err != nil {
			return err
		}

		r := tx.Where("id = ?", id).Delete(&model.User{})
		if r.Error != nil {
			return r.Error
		}

		if r.RowsAffected == 0 {
			return ErrUserNotFound
		}

		return nil
	})
}

func (s *UserStore) findOne(ctx context.Context, query string, args ...any) (*model.User, error) {
	var u model.User

	err := s.db.WithContext(ctx).Where(query, args...).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}

		return nil, err
	}

	return &u, nil
}

type uniqueField struct {
	field  string
	column string
	value  *string
}

// checkUnique fails with a *model.DuplicateKeyError when another record holds
// one of u's unique values. Absent values are never checked.
func checkUnique(db *gorm.DB, u *model.User) error {
	fields := []uniqueField{
		{"email", "email", &u.Email},
		{"username", "username", u.Username},
		{"googleId", "google_id", u.GoogleID},
	}

	for _, f := range fields {
		if f.value == nil {
			continue
		}

		q := db.Model(&model.User{}).
			Where(f.column+" = ?", *f.value)

		if u.ID != "" {
			q = q.Where("id <> ?", u.ID)
		}

		var count int64
		if err := q.Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check %s uniqueness, %w", f.field, err)
		}

		if count > 0 {
			return &model.DuplicateKeyError{Field: f.field}
		}
	}

	return nil
}
