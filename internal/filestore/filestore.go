// Package filestore is the opaque file storage behind imports. The pipeline
// only ever uploads raw export bytes and downloads them back by path; where
// they live (local disk, a bucket) is an implementation detail.
package filestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Store uploads and downloads opaque file blobs.
type Store interface {
	// Download returns the bytes previously stored under path.
	Download(ctx context.Context, path string) ([]byte, error)
	// Upload stores content and returns the path to retrieve it later.
	Upload(ctx context.Context, name string, content []byte) (string, error)
}

// Local stores files under <root>/uploads on the local filesystem.
type Local struct {
	root string
}

// NewLocal creates a Local store rooted at dir.
func NewLocal(dir string) *Local {
	return &Local{root: dir}
}

const uploadsDir = "uploads"

// Download reads a previously uploaded file.
func (l *Local) Download(ctx context.Context, path string) ([]byte, error) {
	clean := filepath.Clean(path)
	if strings.Contains(clean, "..") || filepath.IsAbs(clean) {
		return nil, fmt.Errorf("invalid file path %q", path)
	}
	data, err := os.ReadFile(filepath.Join(l.root, clean))
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", path, err)
	}
	return data, nil
}

// Upload writes content under a collision-free name and returns its path.
func (l *Local) Upload(ctx context.Context, name string, content []byte) (string, error) {
	dir := filepath.Join(l.root, uploadsDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating uploads dir: %w", err)
	}
	stored := filepath.Join(uploadsDir, uuid.NewString()+"_"+filepath.Base(name))
	if err := os.WriteFile(filepath.Join(l.root, stored), content, 0o644); err != nil {
		return "", fmt.Errorf("uploading %s: %w", name, err)
	}
	return stored, nil
}
