package repositories

import "context"

// BlobStore keeps the raw bytes of uploaded statement files.
type BlobStore interface {
	// Put stores data under key and returns the URI to read it back with.
	Put(ctx context.Context, key string, data []byte) (string, error)

	// Get loads the bytes stored at uri. Unknown URIs return ErrNotFound.
	Get(ctx context.Context, uri string) ([]byte, error)
}
