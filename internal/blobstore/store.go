// Package blobstore defines the unified interface for object storage backends.
//
// All providers (MinIO, S3-compatible, …) implement the Store interface.
// Callers depend only on this package — never on a specific provider package.
//
// Usage:
//
//	cfg := blobstore.DefaultConfig("localhost:9000", "minioadmin", "minioadmin")
//	store, err := minio.New(ctx, cfg)
//	if err != nil { ... }
//	defer store.Close()
//
//	err = store.Put(ctx, "files", key, data, "application/pdf")
package blobstore

import (
	"context"
	"time"
)

// Store is the single interface all object storage providers must implement.
type Store interface {
	// Ping verifies the storage backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any held resources (connections, goroutines, etc.).
	Close() error

	// EnsureBucket creates bucket if it does not already exist.
	// Calling it for an existing bucket is not an error.
	EnsureBucket(ctx context.Context, bucket string) error

	// Put writes data to the object at key inside bucket, overwriting any
	// existing object, and records contentType as its MIME type.
	Put(ctx context.Context, bucket, key string, data []byte, contentType string) error

	// Get opens a streaming handle to the object at key inside bucket.
	// The caller MUST call Object.Close() after reading.
	Get(ctx context.Context, bucket, key string) (Object, error)

	// Stat returns metadata for the object at key inside bucket
	// without downloading its content.
	Stat(ctx context.Context, bucket, key string) (*ObjectInfo, error)

	// Delete removes the object at key inside bucket.
	// Deleting a missing key is not an error.
	Delete(ctx context.Context, bucket, key string) error

	// PresignGetURL returns a time-limited URL that allows anyone to download
	// the object at key inside bucket without credentials.
	PresignGetURL(ctx context.Context, bucket, key string, ttl time.Duration) (string, error)
}
