// Package imagestore persists uploaded product images and returns the URL
// the catalogue stores as the product's image reference.
package imagestore

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
)

// Store defines the interface for saving product images.
type Store interface {
	// Put stores data under key and returns its public URL.
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
}

// ErrUnsupportedType is returned for uploads that are not a known image type.
var ErrUnsupportedType = errors.New("unsupported image type")

var extensions = map[string]string{
	"image/jpeg":    ".jpg",
	"image/png":     ".png",
	"image/webp":    ".webp",
	"image/gif":     ".gif",
	"image/svg+xml": ".svg",
}

// Extension returns the file extension for an image content type.
func Extension(contentType string) (string, error) {
	mediaType := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	ext, ok := extensions[mediaType]
	if !ok {
		return "", ErrUnsupportedType
	}
	return ext, nil
}

// ObjectKey returns a fresh key for an image of productID.
func ObjectKey(productID, contentType string) (string, error) {
	ext, err := Extension(contentType)
	if err != nil {
		return "", err
	}
	return productID + "-" + uuid.NewString() + ext, nil
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
