package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage owns the downloads directory where fetched media lives until
// it is published.
type LocalStorage struct {
	downloadsDir string
}

func NewLocalStorage(downloadsDir string) *LocalStorage {
	return &LocalStorage{downloadsDir: downloadsDir}
}

func (s *LocalStorage) Dir() string {
	return s.downloadsDir
}

func (s *LocalStorage) EnsureDirectories() error {
	if err := os.MkdirAll(s.downloadsDir, 0755); err != nil {
		return fmt.Errorf("failed to create downloads directory: %w", err)
	}
	return nil
}

// List returns the working files currently in the downloads directory.
func (s *LocalStorage) List() ([]string, error) {
	entries, err := os.ReadDir(s.downloadsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read downloads directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		files = append(files, filepath.Join(s.downloadsDir, entry.Name()))
	}
	return files, nil
}

// Remove deletes a working file. Paths outside the downloads directory are
// refused so a local source can never be deleted by mistake.
func (s *LocalStorage) Remove(path string) error {
	owned, err := s.Owns(path)
	if err != nil {
		return err
	}
	if !owned {
		return fmt.Errorf("refusing to remove %s: outside %s", path, s.downloadsDir)
	}

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to remove working file: %w", err)
	}
	return nil
}

func (s *LocalStorage) Owns(path string) (bool, error) {
	dir, err := filepath.Abs(s.downloadsDir)
	if err != nil {
		return false, fmt.Errorf("failed to resolve downloads directory: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false, fmt.Errorf("failed to resolve path: %w", err)
	}

	rel, err := filepath.Rel(dir, abs)
	if err != nil {
		return false, nil
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)), nil
}

// Clean removes every working file left behind by failed jobs.
func (s *LocalStorage) Clean() (int, error) {
	files, err := s.List()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, f := range files {
		if err := os.Remove(f); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", f, err)
		}
		removed++
	}
	return removed, nil
}
