package secrets

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileSource reads one secret per file from a directory. Files must be
// regular files with mode 0600 or 0400; contents are trimmed.
type FileSource struct {
	dir string

	mu     sync.RWMutex
	values map[string]string
}

// NewFileSource opens dir.
func NewFileSource(dir string) (*FileSource, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("secret directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("secret directory %s is not a directory", dir)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("secret directory: %w", err)
	}

	return &FileSource{dir: abs, values: make(map[string]string)}, nil
}

// Lookup implements Source.
func (s *FileSource) Lookup(_ context.Context, name string) (string, error) {
	s.mu.RLock()
	v, ok := s.values[name]
	s.mu.RUnlock()
	if ok {
		return v, nil
	}

	path, err := s.path(name)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("%w: no file %s", ErrNotFound, name)
	}
	if err != nil {
		return "", fmt.Errorf("secret %s: %w", name, err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("secret %s is not a regular file", name)
	}
	if perm := info.Mode().Perm(); perm != 0o600 && perm != 0o400 {
		return "", fmt.Errorf("secret %s has insecure permissions %o (want 0600 or 0400)", name, perm)
	}

	// #nosec G304 - path is confined to the secret directory
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("secret %s: %w", name, err)
	}
	v = strings.TrimSpace(string(data))

	s.mu.Lock()
	s.values[name] = v
	s.mu.Unlock()
	return v, nil
}

// Name implements Source.
func (s *FileSource) Name() string { return "file" }

// Refresh drops every cached value.
func (s *FileSource) Refresh() {
	s.mu.Lock()
	s.values = make(map[string]string)
	s.mu.Unlock()
}

// path joins name onto the directory and rejects anything escaping it.
func (s *FileSource) path(name string) (string, error) {
	path := filepath.Join(s.dir, name)
	if !strings.HasPrefix(path, s.dir+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid secret name %q", name)
	}
	return path, nil
}
