package filestore

import (
	"context"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
)

// GCS stores uploads in a Google Cloud Storage bucket. Credentials come from
// Application Default Credentials.
type GCS struct {
	client *storage.Client
	bucket string
}

// NewGCS creates a GCS store for the given bucket.
func NewGCS(ctx context.Context, bucket string) (*GCS, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}
	return &GCS{client: client, bucket: bucket}, nil
}

// Close releases the underlying client.
func (g *GCS) Close() error {
	return g.client.Close()
}

// Download reads an object's full contents.
func (g *GCS) Download(ctx context.Context, path string) ([]byte, error) {
	r, err := g.client.Bucket(g.bucket).Object(path).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("opening gs://%s/%s: %w", g.bucket, path, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading gs://%s/%s: %w", g.bucket, path, err)
	}
	return data, nil
}

// Upload writes content under a collision-free object name and returns it.
func (g *GCS) Upload(ctx context.Context, name string, content []byte) (string, error) {
	object := "uploads/" + uuid.NewString() + "_" + name

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := g.client.Bucket(g.bucket).Object(object).NewWriter(ctx)
	if _, err := w.Write(content); err != nil {
		w.Close()
		return "", fmt.Errorf("writing gs://%s/%s: %w", g.bucket, object, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalizing gs://%s/%s: %w", g.bucket, object, err)
	}
	return object, nil
}
