package user

import (
	"errors"
	"net/http"

	"github.com/dancarlton/rinsed/internal"
	"github.com/dancarlton/rinsed/internal/service"
	"github.com/dancarlton/rinsed/validators"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserAvatar replaces the avatar with the image in the avatar form field
func UserAvatar(c *gin.Context, d *internal.Deps) {
	requestID := c.GetString("requestID")
	user := currentUser(c)

	if d.Avatars == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":     "Avatar uploads are disabled",
			"requestID": requestID,
		})
		return
	}

	fh, err := c.FormFile("avatar")
	if err != nil {
		badRequest(c, validators.ErrNoFile.Error())
		return
	}

	code, f, mime, err := validators.AvatarValidator(fh, d.Avatars.MaxSize)
	if err != nil {
		c.JSON(code, gin.H{
			"error":     err.Error(),
			"requestID": requestID,
		})

		if code == http.StatusInternalServerError {
			zap.L().Error("Failed to validate avatar", zap.Error(err), zap.String("requestID", requestID))
		}
		return
	}
	defer f.Close()

	url, err := d.Avatars.Upload(c.Request.Context(), user.ID, f, fh.Size, mime)
	if err != nil {
		respondError(c, err, "Failed to upload avatar")
		return
	}

	old := user.Avatar
	user.Avatar = url

	if err := d.Users.Save(c.Request.Context(), user); err != nil {
		if err := d.Avatars.Remove(c.Request.Context(), url); err != nil {
			zap.L().Error("Failed to remove orphaned avatar", zap.Error(err), zap.String("requestID", requestID))
		}

		respondError(c, err, "Failed to save avatar")
		return
	}

	if old != "" {
		removeAvatar(c, d, old)
	}

	c.JSON(http.StatusOK, gin.H{
		"avatar":    url,
		"requestID": requestID,
	})
}

func removeAvatar(c *gin.Context, d *internal.Deps, url string) {
	if d.Avatars == nil {
		return
	}

	err := d.Avatars.Remove(c.Request.Context(), url)
	if err != nil && !errors.Is(err, service.ErrForeignAvatar) {
		zap.L().Error("Failed to remove avatar", zap.Error(err), zap.String("requestID", c.GetString("requestID")))
	}
}
