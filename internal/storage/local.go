package storage

import (
	"context"
	"os"
	"path/filepath"
)

// LocalStore writes attachments to a directory served statically by the HTTP
// server, returning relative URLs under the configured base path.
type LocalStore struct {
	dir     string
	baseURL string
}

func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &LocalStore{dir: dir, baseURL: baseURL}, nil
}

func (s *LocalStore) Save(_ context.Context, filename, _ string, data []byte) (string, error) {
	if err := os.WriteFile(filepath.Join(s.dir, filename), data, 0o644); err != nil {
		return "", err
	}
	return s.baseURL + "/" + filename, nil
}
