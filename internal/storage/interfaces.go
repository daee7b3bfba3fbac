// Package storage defines interfaces for object storage backends.
// The storage layer persists rendered receipt documents and hands out
// time-limited download links for them.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrObjectNotFound is returned when the requested object does not exist.
var ErrObjectNotFound = errors.New("object not found")

// ObjectStore defines the interface for receipt object backends.
// Implementations can include S3, MinIO, or other S3-compatible systems.
type ObjectStore interface {
	// EnsureBucket creates the configured bucket if it does not exist yet.
	// Safe to call on every startup.
	EnsureBucket(ctx context.Context) error

	// Exists checks whether an object with the given key is present.
	Exists(ctx context.Context, key string) (bool, error)

	// Put stores an object under the given key, overwriting any
	// existing object with the same key.
	Put(ctx context.Context, key string, body []byte, contentType string) error

	// PresignGet returns a presigned download URL for the object,
	// valid for the given TTL. The object is served with the given
	// response content type.
	PresignGet(ctx context.Context, key string, ttl time.Duration, responseContentType string) (string, error)
}
