package security

import (
	"time"

	"github.com/dancarlton/rinsed/pkg/util"
)

const (
	resetTokenSize = 32

	ResetTokenTTL = time.Hour
)

// MakeResetToken returns a fresh password reset token and the moment it
// stops being accepted.
func MakeResetToken(now time.Time) (string, time.Time, error) {
	token, err := util.GenerateToken(resetTokenSize)
	if err != nil {
		return "", time.Time{}, err
	}

	return token, now.Add(ResetTokenTTL), nil
}
