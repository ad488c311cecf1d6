package user

import (
	"errors"
	"net/http"
	"time"

	"github.com/dancarlton/rinsed/internal"
	"github.com/dancarlton/rinsed/internal/store"
	"github.com/dancarlton/rinsed/pkg/middleware"
	"github.com/dancarlton/rinsed/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type loginBody struct {
	// Username or email
	Identifier string `json:"identifier"`
	Email      string `json:"email"`
	Password   string `json:"password"`
}

func UserLogin(c *gin.Context, d *internal.Deps) {
	requestID := c.GetString("requestID")

	var data loginBody
	if err := c.ShouldBindJSON(&data); err != nil {
		badRequest(c, "Invalid request body")

		zap.L().Debug("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if data.Identifier == "" {
		data.Identifier = data.Email
	}

	if data.Identifier == "" {
		badRequest(c, "Identifier field can't be empty")
		return
	}

	if data.Password == "" {
		badRequest(c, "Password field can't be empty")
		return
	}

	user, err := d.Users.FindByIdentifier(c.Request.Context(), data.Identifier)
	if err != nil && !errors.Is(err, store.ErrUserNotFound) {
		respondError(c, err, "Failed to look up user")
		return
	}

	// Unknown accounts and wrong passwords look the same from outside
	if user == nil || !user.VerifyPassword(data.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":     "Invalid credentials",
			"requestID": requestID,
		})
		return
	}

	ttl := viper.GetDuration("jwt.ttl")

	authToken, err := security.MakeAuthToken(user.ID, time.Now(), ttl)
	if err != nil {
		respondError(c, err, "Failed to generate JWT auth token")
		return
	}

	ssl := viper.GetBool("host.ssl.enabled")
	maxAge := int(ttl.Seconds())

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AuthCookie, authToken, maxAge, "/", "", ssl, true)
	c.SetCookie("logged_in", "1", maxAge, "/", "", ssl, false)

	c.JSON(http.StatusOK, gin.H{
		"userID":    user.ID,
		"verified":  user.IsVerified,
		"token":     authToken,
		"requestID": requestID,
	})
}
