package validators

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmailValidator(t *testing.T) {
	tests := []struct {
		email string
		err   error
	}{
		{"alice@example.com", nil},
		{"", ErrEmailEmpty},
		{"a@b", ErrEmailLength},
		{"not-an-email", ErrEmailInvalid},
		{"Alice <alice@example.com>", ErrEmailInvalid},
		{strings.Repeat("a", 250) + "@example.com", ErrEmailLength},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.err, EmailValidator(tt.email))
		})
	}
}

func TestPasswordValidator(t *testing.T) {
	assert.NoError(t, PasswordValidator("secret123"))
	assert.ErrorIs(t, PasswordValidator(""), ErrPasswordEmpty)
	assert.ErrorIs(t, PasswordValidator("short"), ErrPasswordTooShort)
	assert.NoError(t, PasswordValidator(strings.Repeat("a", 72)))
	assert.ErrorIs(t, PasswordValidator(strings.Repeat("a", 73)), ErrPasswordTooLong)
	assert.ErrorIs(t, PasswordValidator(strings.Repeat("ż", 37)), ErrPasswordTooLong)
	assert.ErrorIs(t, PasswordValidator("secret\n123"), ErrPasswordInvalid)
	assert.ErrorIs(t, PasswordValidator("secret\xff123"), ErrPasswordInvalid)
}

func TestUsernameValidator(t *testing.T) {
	assert.NoError(t, UsernameValidator("alice_01"))
	assert.NoError(t, UsernameValidator("żółw"))
	assert.ErrorIs(t, UsernameValidator("a"), ErrUsernameLength)
	assert.ErrorIs(t, UsernameValidator(strings.Repeat("a", 51)), ErrUsernameLength)
	assert.ErrorIs(t, UsernameValidator("alice smith"), ErrUsernameInvalid)
}

func formFile(t *testing.T, content []byte) *multipart.FileHeader {
	t.Helper()

	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)

	fw, err := mw.CreateFormFile("avatar", "file")
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/", buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))

	return req.MultipartForm.File["avatar"][0]
}

func TestAvatarValidator(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

	code, f, mime, err := AvatarValidator(formFile(t, png), 1<<20)
	require.NoError(t, err)
	defer f.Close()

	assert.Zero(t, code)
	assert.Equal(t, "image/png", mime)

	// The file is rewound for the upload
	head := make([]byte, 4)
	_, err = f.Read(head)
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", string(head))

	code, _, _, err = AvatarValidator(formFile(t, []byte("hello there")), 1<<20)
	assert.ErrorIs(t, err, ErrFileTypeUnsupported)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _, _, err = AvatarValidator(formFile(t, png), 4)
	assert.ErrorIs(t, err, ErrFileTooLarge)
	assert.Equal(t, http.StatusRequestEntityTooLarge, code)

	code, _, _, err = AvatarValidator(nil, 4)
	assert.ErrorIs(t, err, ErrNoFile)
	assert.Equal(t, http.StatusBadRequest, code)
}
