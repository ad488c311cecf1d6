package user

import (
	"net/http"

	"github.com/dancarlton/rinsed/internal"

	"github.com/gin-gonic/gin"
)

// UserMe returns the account the request is authenticated as
func UserMe(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"user":      ownerView(currentUser(c)),
		"requestID": c.GetString("requestID"),
	})
}

// UserProfile returns the public part of any account
func UserProfile(c *gin.Context, d *internal.Deps) {
	user, err := d.Users.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to fetch user")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":      profileView(user),
		"requestID": c.GetString("requestID"),
	})
}
