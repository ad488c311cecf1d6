package user

import (
	"net/http"
	"time"

	"github.com/dancarlton/rinsed/internal"
	"github.com/dancarlton/rinsed/internal/model"
	"github.com/dancarlton/rinsed/validators"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type registerBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

func UserRegister(c *gin.Context, d *internal.Deps) {
	requestID := c.GetString("requestID")

	var data registerBody
	if err := c.ShouldBindJSON(&data); err != nil {
		badRequest(c, "Invalid request body")

		zap.L().Debug("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if err := validators.EmailValidator(data.Email); err != nil {
		badRequest(c, err.Error())
		return
	}

	if err := validators.PasswordValidator(data.Password); err != nil {
		badRequest(c, err.Error())
		return
	}

	u := &model.User{
		Email:    data.Email,
		Password: &data.Password,
	}

	if data.Username != "" {
		if err := validators.UsernameValidator(data.Username); err != nil {
			badRequest(c, err.Error())
			return
		}

		u.Username = &data.Username
	}

	if _, err := u.HashPassword(d.Hasher); err != nil {
		respondError(c, err, "Failed to hash password")
		return
	}

	if err := d.Users.Create(c.Request.Context(), u); err != nil {
		respondError(c, err, "Failed to create user")
		return
	}

	mailSent := sendVerification(c, d, u)

	c.JSON(http.StatusCreated, gin.H{
		"user":      ownerView(u),
		"mailSent":  mailSent,
		"requestID": requestID,
	})
}

// sendVerification issues a new verification token and mails it. Failures
// are logged, the account can ask for another mail later.
func sendVerification(c *gin.Context, d *internal.Deps, u *model.User) bool {
	requestID := c.GetString("requestID")

	expireAt := time.Now().Add(time.Minute * 30)
	cleanAt := time.Now().Add(time.Hour * 24 * 60)

	token, err := model.MakeVerificationToken(&model.VerificationTokenOpts{
		UserID:    u.ID,
		Purpose:   model.PurposeEmailVerify,
		ExpiresAt: &expireAt, // Expire after 30 minutes
		CleanupAt: &cleanAt,  // Cleanup after 60 days
	})
	if err != nil {
		zap.L().Error("Failed to generate verification token", zap.Error(err), zap.String("requestID", requestID))
		return false
	}

	if err := d.Users.CreateVerificationToken(c.Request.Context(), token); err != nil {
		zap.L().Error("Failed to store verification token", zap.Error(err), zap.String("requestID", requestID))
		return false
	}

	if err := d.Mailer.SendVerification(token, u.Email); err != nil {
		zap.L().Error("Failed to send verification email", zap.Error(err), zap.String("requestID", requestID))
		return false
	}

	return true
}
