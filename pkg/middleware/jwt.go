package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dancarlton/rinsed/internal/store"
	"github.com/dancarlton/rinsed/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const AuthCookie = "auth_token"

// NewJWTMiddleware authenticates the request from the auth_token cookie or a
// bearer token and sets userID and user on the context. With requireVerified
// accounts that didn't verify their email are turned away.
func NewJWTMiddleware(users *store.UserStore, requireVerified bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetString("requestID")

		tokenStr := tokenFromRequest(c)
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "No authorization token provided",
				"requestID": requestID,
			})
			return
		}

		userID, err := security.ParseAuthToken(tokenStr)
		if err != nil {
			msg := "Authorization token invalid"
			if errors.Is(err, jwt.ErrTokenExpired) {
				msg = "Authorization token expired. Please log in again"
			}

			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     msg,
				"requestID": requestID,
			})

			zap.L().Debug("Failed to parse token", zap.Error(err), zap.String("requestID", requestID))
			return
		}

		// The account may have been deleted while the token is still valid
		user, err := users.FindByID(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, store.ErrUserNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error":     "User not found",
					"requestID": requestID,
				})
				return
			}

			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":     "Internal server error",
				"requestID": requestID,
			})

			zap.L().Error("Failed to check if user exists", zap.Error(err), zap.String("requestID", requestID))
			return
		}

		if requireVerified && !user.IsVerified {
			c.SetCookie("needs_verification", "1", 86400, "/", "", viper.GetBool("host.ssl.enabled"), false)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":     "Please verify your account before using the service",
				"requestID": requestID,
			})
			return
		}

		c.Set("userID", userID)
		c.Set("user", user)
		c.Next()
	}
}

func tokenFromRequest(c *gin.Context) string {
	if tok, err := c.Cookie(AuthCookie); err == nil && tok != "" {
		return tok
	}

	if tok, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(tok)
	}

	return ""
}
