// Package storage uploads review and restaurant photos.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// MaxImageSize is the largest accepted upload.
const MaxImageSize = 5 << 20

var (
	// ErrTooLarge is returned for uploads above MaxImageSize.
	ErrTooLarge = errors.New("image exceeds 5 MiB")
	// ErrUnsupportedType is returned for non-image uploads.
	ErrUnsupportedType = errors.New("unsupported image type")
)

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// Uploader stores binary objects in a collection and returns a download URL.
type Uploader interface {
	Upload(ctx context.Context, collection, name, contentType string, r io.Reader, size int64) (string, error)
	Delete(ctx context.Context, collection, path string) error
}

// CheckImage validates the content type and size of an upload.
func CheckImage(contentType string, size int64) error {
	if _, ok := allowedTypes[contentType]; !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedType, contentType)
	}
	if size > MaxImageSize {
		return ErrTooLarge
	}
	return nil
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ObjectName builds a unique object name keeping a sanitized base name.
func ObjectName(name, contentType string) string {
	base := strings.TrimSuffix(path.Base(name), path.Ext(name))
	base = strings.Trim(unsafeChars.ReplaceAllString(base, "-"), "-.")
	if len(base) > 64 {
		base = base[:64]
	}
	if base == "" {
		base = "image"
	}
	return uuid.NewString() + "-" + base + allowedTypes[contentType]
}
