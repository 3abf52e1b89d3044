package state

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const markerFile = "last_alert_date.txt"

// FileStore keeps the marker as plain text in a single file inside dir.
// The directory is created on first write.
type FileStore struct {
	dir string
}

// NewFileStore returns a FileStore rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) LastAlertDate() (string, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, markerFile))
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("state: read marker: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *FileStore) MarkAlerted(date string) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("state: create dir: %w", err)
	}
	path := filepath.Join(s.dir, markerFile)
	if err := os.WriteFile(path, []byte(date), 0o644); err != nil {
		return fmt.Errorf("state: write marker: %w", err)
	}
	return nil
}
