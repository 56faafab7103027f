// Package storage keeps uploaded images (user logos, card photos) in an
// object store.
package storage

import (
	"context"
	"errors"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrUnavailable is returned when no object store is configured.
	ErrUnavailable = errors.New("object storage unavailable")
	ErrNotFound    = errors.New("object not found")
	// ErrUnsupportedType rejects uploads that are not images.
	ErrUnsupportedType = errors.New("unsupported content type")
)

// MaxUploadSize bounds logo and photo uploads.
const MaxUploadSize = 5 << 20

type Object struct {
	Data        []byte
	ContentType string
}

type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) (*Object, error)
	Delete(ctx context.Context, key string) error
}

var imageTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ImageContentType sniffs data and accepts only the image types above.
func ImageContentType(data []byte) (string, error) {
	ct := http.DetectContentType(data)
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	if _, ok := imageTypes[ct]; !ok {
		return "", ErrUnsupportedType
	}
	return ct, nil
}

// NewKey returns a fresh object key under prefix, e.g. logos/<uuid>.png.
func NewKey(prefix, contentType string) string {
	return path.Join(prefix, uuid.NewString()+imageTypes[contentType])
}

// Unavailable is the store used when MinIO is not configured.
type Unavailable struct{}

func (Unavailable) Put(context.Context, string, []byte, string) error { return ErrUnavailable }
func (Unavailable) Get(context.Context, string) (*Object, error)      { return nil, ErrUnavailable }
func (Unavailable) Delete(context.Context, string) error              { return ErrUnavailable }
