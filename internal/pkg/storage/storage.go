// Package storage reads documents from object storage (S3, GCS, MinIO) or
// from the local filesystem.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

var ErrObjectNotFound = errors.New("storage: object not found")

// Storage reads objects. Implementations translate their own "no such
// key" errors to ErrObjectNotFound.
type Storage interface {
	io.Closer
	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, ObjectInfo, error)
	StatObject(ctx context.Context, bucket, key string) (ObjectInfo, error)
}

type ObjectInfo struct {
	Bucket      string
	Key         string
	Size        int64
	ETag        string
	ContentType string
	UpdatedAt   time.Time
}
