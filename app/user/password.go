package user

import (
	"errors"
	"net/http"
	"time"

	"github.com/dancarlton/rinsed/internal"
	"github.com/dancarlton/rinsed/internal/store"
	"github.com/dancarlton/rinsed/pkg/security"
	"github.com/dancarlton/rinsed/validators"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type forgotBody struct {
	Email string `json:"email"`
}

type resetBody struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

const forgotMessage = "If the account exists a reset link has been sent"

// UserPasswordForgot stores a reset token on the account and mails it. The
// answer is the same whether the account exists or not.
func UserPasswordForgot(c *gin.Context, d *internal.Deps) {
	requestID := c.GetString("requestID")

	var data forgotBody
	if err := c.ShouldBindJSON(&data); err != nil || data.Email == "" {
		badRequest(c, "No email address provided")
		return
	}

	user, err := d.Users.FindByEmail(c.Request.Context(), data.Email)
	if err != nil {
		if !errors.Is(err, store.ErrUserNotFound) {
			respondError(c, err, "Failed to look up user")
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": forgotMessage, "requestID": requestID})
		return
	}

	token, expires, err := security.MakeResetToken(time.Now())
	if err != nil {
		respondError(c, err, "Failed to generate reset token")
		return
	}

	user.PasswordResetToken = token
	user.PasswordResetExpires = expires

	if err := d.Users.Save(c.Request.Context(), user); err != nil {
		respondError(c, err, "Failed to store reset token")
		return
	}

	if err := d.Mailer.SendPasswordReset(user.Email, token); err != nil {
		zap.L().Error("Failed to send password reset mail", zap.Error(err), zap.String("requestID", requestID))
	}

	c.JSON(http.StatusOK, gin.H{"message": forgotMessage, "requestID": requestID})
}

func UserPasswordReset(c *gin.Context, d *internal.Deps) {
	requestID := c.GetString("requestID")

	var data resetBody
	if err := c.ShouldBindJSON(&data); err != nil || data.Token == "" {
		badRequest(c, "No reset token provided")
		return
	}

	if err := validators.PasswordValidator(data.Password); err != nil {
		badRequest(c, err.Error())
		return
	}

	user, err := d.Users.FindByResetToken(c.Request.Context(), data.Token)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			badRequest(c, "Token expired or invalid")
			return
		}

		respondError(c, err, "Failed to look up reset token")
		return
	}

	now := time.Now()
	if user.PasswordResetExpires.Before(now) {
		badRequest(c, "Token expired or invalid")
		return
	}

	user.Password = &data.Password
	if _, err := user.HashPassword(d.Hasher); err != nil {
		respondError(c, err, "Failed to hash password")
		return
	}

	// Tokens are single use
	user.PasswordResetToken = ""
	user.PasswordResetExpires = now

	if err := d.Users.ResetPassword(c.Request.Context(), user, data.Token); err != nil {
		if errors.Is(err, store.ErrTokenInvalid) {
			badRequest(c, "Token expired or invalid")
			return
		}

		respondError(c, err, "Failed to reset password")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Password changed",
		"requestID": requestID,
	})
}
