// Package filestore defines the unified interface for object storage backends.
//
// All providers (MinIO, AWS S3, in-memory) implement the Store interface.
// Callers depend only on this package, never on a specific provider package.
//
// Usage:
//
//	cfg := &filestore.Config{
//		Provider: filestore.ProviderMinIO,
//		Endpoint: "localhost:9000",
//		Bucket:   "shared",
//	}
//	store, err := minio.New(ctx, cfg)
//	if err != nil { ... }
//	defer store.Close()
//
//	objects, err := store.ListObjects(ctx, cfg.Bucket)
package filestore

import (
	"context"
	"io"
	"time"
)

// Store is the single interface all object storage providers must implement.
//
// Operations attempted without usable credentials fail with an
// errs.ErrKindCredentialsUnavailable error.
type Store interface {
	// Ping verifies the storage backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any held resources.
	Close() error

	// ListObjects returns every object in bucket, in the backend's native
	// listing order. An empty bucket yields an empty slice and no error.
	ListObjects(ctx context.Context, bucket string) ([]ObjectInfo, error)

	// PutObject stores the content of r under key, replacing any existing
	// object with that key. size is the content length, or -1 if unknown.
	PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string) error

	// PresignGetURL returns a time-limited URL that allows anyone to download
	// the object at key without credentials. The key is not checked for existence.
	PresignGetURL(ctx context.Context, bucket, key string, ttl time.Duration) (string, error)

	// DeleteObject removes the object at key. Deleting a missing key succeeds.
	DeleteObject(ctx context.Context, bucket, key string) error
}
