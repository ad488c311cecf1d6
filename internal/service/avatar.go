package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dancarlton/rinsed/pkg/util"

	"github.com/gabriel-vasile/mimetype"
)

var ErrForeignAvatar = errors.New("avatar isn't stored in the configured bucket")

// ObjectStore is the subset of the bucket client avatars need
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
	KeyFromURL(u string) (string, bool)
}

type AvatarService struct {
	Store   ObjectStore
	MaxSize int64
}

func NewAvatarService(s ObjectStore, maxSize int64) *AvatarService {
	return &AvatarService{Store: s, MaxSize: maxSize}
}

// Upload stores an already validated image under avatars/<userID>/ and
// returns its public URL.
func (a *AvatarService) Upload(ctx context.Context, userID string, body io.Reader, size int64, contentType string) (string, error) {
	ext := ""
	if m := mimetype.Lookup(contentType); m != nil {
		ext = m.Extension()
	}

	key := fmt.Sprintf("avatars/%s/%s%s", userID, util.RandStr(10), ext)

	if err := a.Store.Put(ctx, key, body, size, contentType); err != nil {
		return "", fmt.Errorf("failed to upload avatar, %w", err)
	}

	return a.Store.URL(key), nil
}

// Remove deletes the object behind an avatar URL. URLs pointing elsewhere,
// e.g. a Google profile picture, are left alone.
func (a *AvatarService) Remove(ctx context.Context, avatarURL string) error {
	key, ok := a.Store.KeyFromURL(avatarURL)
	if !ok {
		return ErrForeignAvatar
	}

	return a.Store.Delete(ctx, key)
}
