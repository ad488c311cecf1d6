// Package user contains the account endpoints
package user

import (
	"errors"
	"net/http"

	"github.com/dancarlton/rinsed/internal/model"
	"github.com/dancarlton/rinsed/internal/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError maps the store and model errors to a status code. Anything it
// doesn't recognise is logged and answered with a 500.
func respondError(c *gin.Context, err error, msg string) {
	requestID := c.GetString("requestID")

	var ve *model.ValidationError
	var de *model.DuplicateKeyError

	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Validation failed",
			"fields":    ve.Fields,
			"requestID": requestID,
		})
	case errors.As(err, &de):
		c.JSON(http.StatusConflict, gin.H{
			"error":     "This " + de.Field + " is already in use",
			"field":     de.Field,
			"requestID": requestID,
		})
	case errors.Is(err, store.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error":     "User not found",
			"requestID": requestID,
		})
	case errors.Is(err, store.ErrVersionConflict):
		c.JSON(http.StatusConflict, gin.H{
			"error":     "The account was changed by another request, try again",
			"requestID": requestID,
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error(msg, zap.Error(err), zap.String("requestID", requestID))
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":     msg,
		"requestID": c.GetString("requestID"),
	})
}

func currentUser(c *gin.Context) *model.User {
	return c.MustGet("user").(*model.User)
}
