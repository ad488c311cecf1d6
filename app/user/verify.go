package user

import (
	"errors"
	"net/http"
	"time"

	"github.com/dancarlton/rinsed/internal"
	"github.com/dancarlton/rinsed/internal/store"

	"github.com/gin-gonic/gin"
)

const (
	resendCooldown   = time.Minute
	resendDailyLimit = 5
)

func UserVerify(c *gin.Context, d *internal.Deps) {
	requestID := c.GetString("requestID")

	token := c.Query("token")
	if token == "" {
		badRequest(c, "No verification token provided")
		return
	}

	userID := c.Query("user_id")
	if userID == "" {
		badRequest(c, "No user ID provided")
		return
	}

	err := d.Users.VerifyEmail(c.Request.Context(), userID, token, time.Now())
	switch {
	case err == nil:
	case errors.Is(err, store.ErrTokenInvalid):
		c.JSON(http.StatusNotFound, gin.H{
			"error":     "Token expired or invalid",
			"requestID": requestID,
		})
		return
	case errors.Is(err, store.ErrTokenUsed):
		badRequest(c, "Token was used already")
		return
	case errors.Is(err, store.ErrTokenExpired):
		badRequest(c, "Token expired")
		return
	default:
		respondError(c, err, "Failed to verify user")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "User validated successfully",
		"requestID": requestID,
	})
}

// UserResendVerification mails a fresh verification link, at most once per
// cooldown and resendDailyLimit times a day
func UserResendVerification(c *gin.Context, d *internal.Deps) {
	requestID := c.GetString("requestID")
	user := currentUser(c)

	if user.IsVerified {
		badRequest(c, "Account is already verified")
		return
	}

	err := d.Users.RegisterResend(c.Request.Context(), user.ID, time.Now(), resendCooldown, resendDailyLimit)
	if errors.Is(err, store.ErrResendCooldown) || errors.Is(err, store.ErrResendBlocked) {
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":     err.Error(),
			"requestID": requestID,
		})
		return
	}

	if err != nil {
		respondError(c, err, "Failed to register resend request")
		return
	}

	if !sendVerification(c, d, user) {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Failed to send verification mail",
			"requestID": requestID,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Verification mail sent",
		"requestID": requestID,
	})
}
