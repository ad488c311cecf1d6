package model

import (
	"errors"
	"time"

	"github.com/dancarlton/rinsed/pkg/util"
)

const (
	tokenSize = 32

	PurposeEmailVerify = "email_verify"
)

type VerificationToken struct {
	ID        int    `gorm:"primaryKey;autoincrement"`
	UserID    string `gorm:"index;size:16"`
	Token     string `gorm:"uniqueIndex"`
	Purpose   string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
	CleanupAt *time.Time
	Used      bool
}

type VerificationTokenOpts struct {
	UserID    string
	Purpose   string
	ExpiresAt *time.Time
	CleanupAt *time.Time
}

func MakeVerificationToken(o *VerificationTokenOpts) (*VerificationToken, error) {
	if o == nil {
		return nil, errors.New("no token options provided")
	}

	if o.UserID == "" {
		return nil, errors.New("no user ID provided")
	}

	if o.Purpose == "" {
		return nil, errors.New("no token purpose provided")
	}

	if o.ExpiresAt == nil {
		return nil, errors.New("no expiry provided")
	}

	token, err := util.GenerateToken(tokenSize)
	if err != nil {
		return nil, err
	}

	return &VerificationToken{
		UserID:    o.UserID,
		Token:     token,
		Purpose:   o.Purpose,
		ExpiresAt: *o.ExpiresAt,
		CreatedAt: time.Now(),
		CleanupAt: o.CleanupAt,
	}, nil
}
