// Package storage provides a domain-agnostic interface for S3-compatible object storage.
// The lead pool uses it to archive leads before cleanup removes them.
package storage

import (
	"context"
	"io"
)

// ObjectStore writes and removes archive objects.
type ObjectStore interface {
	// PutObject stores reader under key in bucket. size may be -1 when unknown.
	PutObject(ctx context.Context, bucket, key, contentType string, reader io.Reader, size int64) error

	// EnsureBucketExists creates the bucket if it doesn't exist.
	EnsureBucketExists(ctx context.Context, bucket string) error
}

// Config defines the configuration interface for storage.
type Config interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	IsMinIOEnabled() bool
}
