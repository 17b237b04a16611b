// Package blobstore keeps uploaded statement files in Google Cloud Storage.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/SscSPs/fintrack/internal/apperrors"
	portsrepo "github.com/SscSPs/fintrack/internal/core/ports/repositories"
	"google.golang.org/api/option"
)

const (
	gcsScheme     = "gs://"
	uploadTimeout = 2 * time.Minute
)

// GCSStore is a BlobStore writing objects to a single bucket.
type GCSStore struct {
	client *storage.Client
	bucket string
}

var _ portsrepo.BlobStore = (*GCSStore)(nil)

// NewGCSStore opens a storage client. An empty credentialsFile uses Application Default Credentials.
func NewGCSStore(ctx context.Context, bucket, credentialsFile string) (*GCSStore, error) {
	if bucket == "" {
		return nil, errors.New("gcs: bucket is required")
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs: create storage client: %w", err)
	}
	return &GCSStore{client: client, bucket: bucket}, nil
}

// Close releases the storage client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}

func (s *GCSStore) Put(ctx context.Context, key string, data []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	// Objects are write-once; an existing key is a duplicate.
	w := s.client.Bucket(s.bucket).Object(key).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	w.ContentType = contentType(key)
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("gcs: write %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("gcs: finalize upload of %s: %w", key, err)
	}
	return URI(s.bucket, key), nil
}

func (s *GCSStore) Get(ctx context.Context, uri string) ([]byte, error) {
	bucket, key, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}
	rc, err := s.client.Bucket(bucket).Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrNotFound, uri)
		}
		return nil, fmt.Errorf("gcs: open %s: %w", uri, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("gcs: read %s: %w", uri, err)
	}
	return data, nil
}

// URI formats the gs:// address of key in bucket.
func URI(bucket, key string) string {
	return gcsScheme + bucket + "/" + key
}

// ParseURI splits gs://bucket/key. Anything else is reported as ErrNotFound.
func ParseURI(uri string) (bucket, key string, err error) {
	trimmed, ok := strings.CutPrefix(uri, gcsScheme)
	if !ok {
		return "", "", fmt.Errorf("%w: %q is not a gs:// uri", apperrors.ErrNotFound, uri)
	}
	bucket, key, ok = strings.Cut(trimmed, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("%w: %q has no object path", apperrors.ErrNotFound, uri)
	}
	return bucket, key, nil
}

func contentType(key string) string {
	switch {
	case strings.HasSuffix(key, ".pdf"):
		return "application/pdf"
	case strings.HasSuffix(key, ".csv"):
		return "text/csv"
	case strings.HasSuffix(key, ".ofx"), strings.HasSuffix(key, ".qfx"):
		return "application/x-ofx"
	}
	return "application/octet-stream"
}
