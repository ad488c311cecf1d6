package aws

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestURLRoundTrip(t *testing.T) {
	s := &S3Client{PublicURL: "https://cdn.example.com"}

	u := s.URL("avatars/abc/x.png")
	assert.Equal(t, "https://cdn.example.com/avatars/abc/x.png", u)

	key, ok := s.KeyFromURL(u)
	assert.True(t, ok)
	assert.Equal(t, "avatars/abc/x.png", key)

	_, ok = s.KeyFromURL("https://elsewhere.example.com/avatars/abc/x.png")
	assert.False(t, ok)

	_, ok = s.KeyFromURL("https://cdn.example.com/")
	assert.False(t, ok)
}
