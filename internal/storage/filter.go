package storage

import (
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/Nixie-Tech-LLC/marquee/internal/model"
)

var (
	ErrUnsupportedMedia = errors.New("only image and video files are allowed")
	ErrFileTooLarge     = errors.New("file exceeds the upload size limit")
)

// CheckUpload accepts a file only when both its declared MIME type and its
// sniffed content are image/* or video/*. It returns the sniffed type.
func CheckUpload(fileHeader *multipart.FileHeader, maxBytes int64) (string, error) {
	if maxBytes > 0 && fileHeader.Size > maxBytes {
		return "", ErrFileTooLarge
	}

	declared, _, err := mime.ParseMediaType(fileHeader.Header.Get("Content-Type"))
	if err != nil || !isMedia(declared) {
		return "", fmt.Errorf("%w: declared %q", ErrUnsupportedMedia, fileHeader.Header.Get("Content-Type"))
	}

	f, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer f.Close()

	detected, err := mimetype.DetectReader(f)
	if err != nil {
		return "", fmt.Errorf("failed to inspect uploaded file: %w", err)
	}
	if !isMedia(detected.String()) {
		return "", fmt.Errorf("%w: content is %s", ErrUnsupportedMedia, detected.String())
	}
	return detected.String(), nil
}

// ContentTypeOf maps an accepted MIME type onto the content kind it becomes.
func ContentTypeOf(mimeType string) model.ContentType {
	if strings.HasPrefix(mimeType, "video/") {
		return model.ContentVideo
	}
	return model.ContentImage
}

func isMedia(mimeType string) bool {
	return strings.HasPrefix(mimeType, "image/") || strings.HasPrefix(mimeType, "video/")
}
