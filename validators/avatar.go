package validators

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"slices"

	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrFileTooLarge        = errors.New("file too large")
	ErrFileTypeUnsupported = errors.New("unsupported file type")
	ErrNoFile              = errors.New("no file provided")
)

var avatarTypes = []string{"image/png", "image/jpeg", "image/webp", "image/gif"}

// AvatarValidator checks an uploaded avatar and returns it opened and rewound
// together with its sniffed MIME type. The returned code is the HTTP status
// to answer with when err is set.
func AvatarValidator(fh *multipart.FileHeader, maxSize int64) (int, multipart.File, string, error) {
	if fh == nil {
		return http.StatusBadRequest, nil, "", ErrNoFile
	}

	if fh.Size > maxSize {
		return http.StatusRequestEntityTooLarge, nil, "", ErrFileTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return http.StatusInternalServerError, nil, "", err
	}

	// The header is easy to spoof so sniff the content instead
	mime, err := mimetype.DetectReader(f)
	if err != nil {
		f.Close()
		return http.StatusInternalServerError, nil, "", err
	}

	if !slices.ContainsFunc(avatarTypes, mime.Is) {
		f.Close()
		return http.StatusBadRequest, nil, "", ErrFileTypeUnsupported
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return http.StatusInternalServerError, nil, "", err
	}

	return 0, f, mime.String(), nil
}
