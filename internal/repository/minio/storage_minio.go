package minio

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

func NewClient(endpoint, key, secret string, useSSL bool) (*minio.Client, error) {
	return minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(key, secret, ""),
		Secure: useSSL,
	})
}

// Storage implements ports.ObjectStorage on top of a MinIO client.
type Storage struct {
	client     *minio.Client
	publicBase string
}

// NewStorage wraps client. publicBase, when set, replaces the client endpoint
// in returned object URLs (for example a CDN or reverse proxy origin).
func NewStorage(client *minio.Client, publicBase string) *Storage {
	return &Storage{client: client, publicBase: strings.TrimRight(strings.TrimSpace(publicBase), "/")}
}

func (s *Storage) EnsureBucket(ctx context.Context, bucket string) error {
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("minio: check bucket %s: %w", bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("minio: create bucket %s: %w", bucket, err)
	}
	return nil
}

func (s *Storage) Upload(ctx context.Context, bucket, objectName, contentType string, reader io.Reader, size int64) (string, error) {
	_, err := s.client.PutObject(ctx, bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("minio: put %s/%s: %w", bucket, objectName, err)
	}
	return s.URL(bucket, objectName), nil
}

func (s *Storage) URL(bucket, objectName string) string {
	return ObjectURL(s.baseURL(), bucket, objectName)
}

func (s *Storage) baseURL() string {
	if s.publicBase != "" {
		return s.publicBase
	}
	if s.client == nil {
		return ""
	}
	return strings.TrimRight(s.client.EndpointURL().String(), "/")
}

// ObjectURL joins base, bucket and an object key, escaping each key segment.
func ObjectURL(base, bucket, objectName string) string {
	segments := strings.Split(strings.TrimLeft(objectName, "/"), "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.TrimRight(base, "/") + "/" + bucket + "/" + strings.Join(segments, "/")
}
