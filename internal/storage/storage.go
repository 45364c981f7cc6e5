package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spec-kit/incident-service/internal/config"
)

// ObjectStorage defines common object operations across backends.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Bucket() string
	// Scheme prefixes stored references, e.g. "s3" in s3://bucket/key.
	Scheme() string
}

// New builds the backend selected by cfg.Driver. The "none" driver yields a
// nil backend and images stay inline.
func New(ctx context.Context, cfg config.StorageConfig) (ObjectStorage, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", config.StorageDriverNone:
		return nil, nil
	case config.StorageDriverMinio:
		return NewMinioClient(cfg)
	case config.StorageDriverS3:
		return NewS3Client(ctx, cfg)
	case config.StorageDriverGCS:
		return NewGCSClient(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}

// ObjectRef renders the reference stored on a report.
func ObjectRef(backend ObjectStorage, key string) string {
	return fmt.Sprintf("%s://%s/%s", backend.Scheme(), backend.Bucket(), key)
}

// ParseObjectRef splits scheme://bucket/key.
func ParseObjectRef(ref string) (scheme, bucket, key string, err error) {
	scheme, rest, ok := strings.Cut(ref, "://")
	if !ok || scheme == "" {
		return "", "", "", errors.New("object reference missing scheme")
	}
	bucket, key, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", "", errors.New("object reference missing bucket or key")
	}
	return scheme, bucket, key, nil
}
