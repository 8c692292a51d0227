// Package storage abstracts where uploaded media files live. The server
// supports a local filesystem backend for development and an S3-compatible
// backend (MinIO, GCS interoperability mode) for deployed environments.
package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/avolkovs/runbase/internal/server/config"
)

// Backend is a media storage backend.
type Backend interface {
	// Save writes the object under key.
	Save(ctx context.Context, key string, r io.Reader) error
	// Open returns a reader over the object at key.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// PresignUpload allocates a fresh storage key and returns a URL the
	// client can PUT the object to.
	PresignUpload(ctx context.Context) (key string, url string, err error)
	// PresignDownload returns a URL from which the object at key can be
	// fetched.
	PresignDownload(ctx context.Context, key string) (string, error)
	// URL returns the canonical unsigned URL of the object at key.
	URL(key string) string
}

// RandomKey returns a date-bucketed object key for a new upload.
func RandomKey() string {
	d := time.Now()
	return fmt.Sprintf("uploads/%d/%d/%d/%v", d.Year(), d.Month(), d.Day(), uuid.New())
}

// NewBackend builds the backend named in the configuration.
func NewBackend(cfg *config.Config) (Backend, error) {
	switch cfg.MediaBackend {
	case "local":
		return NewLocal(cfg.MediaRoot), nil
	case "s3":
		return NewS3(cfg), nil
	default:
		return nil, fmt.Errorf("unknown media backend %q", cfg.MediaBackend)
	}
}
