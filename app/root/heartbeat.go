// Package root contains the endpoints that don't belong to a resource
package root

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func Heartbeat(c *gin.Context) {
	c.Status(http.StatusOK)
}

// Validate only runs behind the JWT middleware, reaching it means the token is good
func Validate(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"userID":    c.GetString("userID"),
		"requestID": c.GetString("requestID"),
	})
}
