package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const TurnstileVerifyURL = "https://challenges.cloudflare.com/turnstile/v0/siteverify"

type response struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

var turnstileClient = &http.Client{Timeout: 10 * time.Second}

// NewTurnstileMiddleware checks the TurnstileToken header against verifyURL
// when cloudflare.turnstile.enabled is set.
func NewTurnstileMiddleware(verifyURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !viper.GetBool("cloudflare.turnstile.enabled") {
			c.Next()
			return
		}

		requestID := c.GetString("requestID")

		token := c.Request.Header.Get("TurnstileToken")
		if token == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":     "Missing or invalid turnstile token",
				"requestID": requestID,
			})
			return
		}

		jsonBody, _ := json.Marshal(gin.H{
			"secret":   viper.GetString("cloudflare.turnstile.secret_token"),
			"response": token,
			"remoteip": c.ClientIP(),
		})

		req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodPost, verifyURL, bytes.NewReader(jsonBody))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":     "Internal server error",
				"requestID": requestID,
			})
			return
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := turnstileClient.Do(req)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "Unauthorized",
				"requestID": requestID,
			})

			zap.L().Error("Failed to reach turnstile", zap.Error(err), zap.String("requestID", requestID))
			return
		}
		defer resp.Body.Close()

		var res response
		if err := json.NewDecoder(resp.Body).Decode(&res); err != nil || !res.Success {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "Unauthorized",
				"requestID": requestID,
			})

			zap.L().Debug("Turnstile rejected request", zap.Strings("codes", res.ErrorCodes), zap.String("requestID", requestID))
			return
		}

		c.Next()
	}
}
