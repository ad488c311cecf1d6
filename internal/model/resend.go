package model

import "time"

// ResendRequest tracks how often a user asked for another verification mail.
type ResendRequest struct {
	ID         int    `gorm:"primaryKey;autoIncrement"`
	UserID     string `gorm:"uniqueIndex;size:16"`
	LastResend time.Time
	Count      int       // Resends since DayStart
	DayStart   time.Time // Start of the current 24h window
	Blocked    bool      // If the user sends too many resend requests they're blocked for the day
}
