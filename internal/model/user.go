// Package model defines database models
package model

import (
	"strings"
	"time"

	"github.com/dancarlton/rinsed/pkg/security"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	idCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	idLength  = 16
)

// User is the account record. Username, GoogleID and Password are pointers
// because they can be absent, and an absent unique column is stored as NULL
// so that two accounts without a value never collide.
type User struct {
	ID                   string    `gorm:"primaryKey;size:16" json:"id"`
	Username             *string   `gorm:"uniqueIndex;size:50" json:"username,omitempty" validate:"omitempty,min=2,max=50"`
	GoogleID             *string   `gorm:"uniqueIndex" json:"googleId,omitempty"`
	Email                string    `gorm:"uniqueIndex;size:255;not null" json:"email" validate:"required,min=5,max=255"`
	Password             *string   `json:"-"`
	PasswordResetToken   string    `gorm:"index;not null;default:''" json:"passwordResetToken"`
	PasswordResetExpires time.Time `json:"passwordResetExpires"`
	IsVerified           bool      `gorm:"not null;default:false" json:"isVerified"`
	Role                 Role      `gorm:"size:16;not null;default:user" json:"role" validate:"required,oneof=admin user provider"`
	Avatar               string    `gorm:"not null;default:''" json:"avatar"`
	Version              int       `gorm:"not null;default:0" json:"-"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`

	VerificationTokens []VerificationToken `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// ApplyDefaults fills every unset field that has a default. Empty optional
// strings are turned into absent values.
func (u *User) ApplyDefaults(now time.Time) {
	u.Username = trimOptional(u.Username)
	u.GoogleID = trimOptional(u.GoogleID)
	u.Email = strings.TrimSpace(u.Email)

	if u.Password != nil && *u.Password == "" {
		u.Password = nil
	}

	if u.Role == "" {
		u.Role = RoleUser
	}

	if u.PasswordResetExpires.IsZero() {
		u.PasswordResetExpires = now
	}
}

// HasPassword reports whether password based login is configured for the account.
func (u *User) HasPassword() bool {
	return u.Password != nil && *u.Password != ""
}

// HashPassword replaces the plaintext password with its hash and returns the
// hash. It must run exactly once, on the plaintext, before the record is
// first written. The record is left untouched when hashing fails.
func (u *User) HashPassword(h security.Hasher) (string, error) {
	if !u.HasPassword() {
		return "", &HashingError{Err: ErrNoPassword}
	}

	hash, err := h.Hash(*u.Password)
	if err != nil {
		return "", &HashingError{Err: err}
	}

	u.Password = &hash
	return hash, nil
}

// VerifyPassword compares candidate against the stored hash in constant time.
// Accounts without a password (Google sign-in only) never match.
func (u *User) VerifyPassword(candidate string) bool {
	if !u.HasPassword() {
		return false
	}

	ok, err := security.Verify(candidate, *u.Password)
	if err != nil {
		zap.L().Debug("Stored password hash is unusable", zap.String("userID", u.ID), zap.Error(err))
		return false
	}

	return ok
}

// SafeView returns the record as it may be exposed outside the service: every
// field except the password and the version counter.
func (u *User) SafeView() map[string]any {
	view := map[string]any{
		"id":                   u.ID,
		"email":                u.Email,
		"passwordResetToken":   u.PasswordResetToken,
		"passwordResetExpires": u.PasswordResetExpires,
		"isVerified":           u.IsVerified,
		"role":                 string(u.Role),
		"avatar":               u.Avatar,
		"createdAt":            u.CreatedAt,
		"updatedAt":            u.UpdatedAt,
	}

	if u.Username != nil {
		view["username"] = *u.Username
	}

	if u.GoogleID != nil {
		view["googleId"] = *u.GoogleID
	}

	return view
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID != "" {
		return nil
	}

	id, err := gonanoid.Generate(idCharset, idLength)
	if err != nil {
		return err
	}

	u.ID = id
	return nil
}

// BeforeSave refuses to write a password that isn't a hash.
func (u *User) BeforeSave(tx *gorm.DB) error {
	if u.Password != nil && !security.IsHashed(*u.Password) {
		return &ValidationError{Fields: []FieldError{{Field: "password", Rule: "hashed"}}}
	}

	return nil
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}

	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}

	return &v
}
