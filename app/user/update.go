package user

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dancarlton/rinsed/internal"
	"github.com/dancarlton/rinsed/internal/model"
	"github.com/dancarlton/rinsed/validators"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Absent fields are left alone. An empty username removes it.
type updateBody struct {
	Username        *string `json:"username"`
	Email           *string `json:"email"`
	CurrentPassword string  `json:"currentPassword"`
	NewPassword     *string `json:"newPassword"`
}

func UserUpdate(c *gin.Context, d *internal.Deps) {
	requestID := c.GetString("requestID")
	user := currentUser(c)

	var data updateBody
	if err := c.ShouldBindJSON(&data); err != nil {
		badRequest(c, "Invalid request body")

		zap.L().Debug("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if data.Username != nil {
		name := strings.TrimSpace(*data.Username)
		if name != "" {
			if err := validators.UsernameValidator(name); err != nil {
				badRequest(c, err.Error())
				return
			}
		}

		user.Username = &name
	}

	emailChanged := false
	if data.Email != nil && *data.Email != user.Email {
		if err := validators.EmailValidator(*data.Email); err != nil {
			badRequest(c, err.Error())
			return
		}

		user.Email = *data.Email
		user.IsVerified = false
		emailChanged = true
	}

	if data.NewPassword != nil {
		if user.HasPassword() && !user.VerifyPassword(data.CurrentPassword) {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":     "Current password is wrong",
				"requestID": requestID,
			})
			return
		}

		if err := validators.PasswordValidator(*data.NewPassword); err != nil {
			badRequest(c, err.Error())
			return
		}

		plain := *data.NewPassword
		user.Password = &plain

		if _, err := user.HashPassword(d.Hasher); err != nil {
			respondError(c, err, "Failed to hash password")
			return
		}
	}

	save := d.Users.Save
	if emailChanged {
		save = func(ctx context.Context, u *model.User) error {
			return d.Users.SaveEmailChange(ctx, u, time.Now())
		}
	}

	if err := save(c.Request.Context(), user); err != nil {
		respondError(c, err, "Failed to update user")
		return
	}

	// A new address has to be verified again
	if emailChanged {
		sendVerification(c, d, user)
	}

	c.JSON(http.StatusOK, gin.H{
		"user":      ownerView(user),
		"requestID": requestID,
	})
}
