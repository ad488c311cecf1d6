package user

import (
	"net/http"

	"github.com/dancarlton/rinsed/internal"
	"github.com/dancarlton/rinsed/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
)

type deleteBody struct {
	Password string `json:"password"`
}

// UserDelete removes the authenticated account. Accounts with a password
// have to confirm it.
func UserDelete(c *gin.Context, d *internal.Deps) {
	requestID := c.GetString("requestID")
	user := currentUser(c)

	if user.HasPassword() {
		var data deleteBody
		_ = c.ShouldBindJSON(&data)

		if !user.VerifyPassword(data.Password) {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":     "Invalid credentials",
				"requestID": requestID,
			})
			return
		}
	}

	if err := d.Users.Delete(c.Request.Context(), user.ID); err != nil {
		respondError(c, err, "Failed to delete user")
		return
	}

	if user.Avatar != "" {
		removeAvatar(c, d, user.Avatar)
	}

	ssl := viper.GetBool("host.ssl.enabled")
	c.SetCookie(middleware.AuthCookie, "", -1, "/", "", ssl, true)
	c.SetCookie("logged_in", "", -1, "/", "", ssl, false)

	c.JSON(http.StatusOK, gin.H{
		"message":   "Account deleted",
		"requestID": requestID,
	})
}
