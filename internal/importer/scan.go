package importer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileInfo describes an export file waiting in the inbox directory.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// processedDir is the subdirectory archived exports move to.
const processedDir = "processed"

// Scan returns CSV export files waiting in the inbox directory. A missing
// inbox is an empty result, not an error.
func Scan(inbox string) ([]FileInfo, error) {
	entries, err := os.ReadDir(inbox)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading inbox dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(e.Name()), ".csv") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(inbox, e.Name()),
			Size: info.Size(),
		})
	}
	return files, nil
}

// MarkProcessed moves a file from the inbox to its processed/ subdirectory so
// a rescan does not pick it up again.
func MarkProcessed(inbox, fileName string) error {
	dstDir := filepath.Join(inbox, processedDir)
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}
	if err := os.Rename(filepath.Join(inbox, fileName), filepath.Join(dstDir, fileName)); err != nil {
		return fmt.Errorf("moving %s to processed: %w", fileName, err)
	}
	return nil
}
