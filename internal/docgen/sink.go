package docgen

import (
	"fmt"
	"os"
	"path/filepath"

	"gen1/internal/logging"
)

// DirSink stores generated documents in a directory.
type DirSink struct {
	Dir string
}

// Save writes blob into the directory, creating it when needed, and returns
// the file path as the download location.
func (s DirSink) Save(blob Blob) (string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create artifacts dir: %w", err)
	}
	dest := filepath.Join(s.Dir, filepath.Base(blob.Filename))
	if err := os.WriteFile(dest, blob.Data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", blob.Filename, err)
	}
	logging.Docgen("saved %s (%s, %d bytes)", dest, blob.MediaType, len(blob.Data))
	return dest, nil
}
