package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore keeps proof files on the local filesystem; used in
// development and single-node deployments.
type LocalStore struct {
	dir           string
	publicBaseURL string
}

// NewLocalStore creates the upload directory if needed.
func NewLocalStore(dir, publicBaseURL string) (*LocalStore, error) {
	if dir == "" {
		dir = "data/uploads"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create upload dir: %w", err)
	}
	return &LocalStore{
		dir:           dir,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}, nil
}

func (s *LocalStore) Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	full := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("storage: create dir: %w", err)
	}

	f, err := os.Create(full)
	if err != nil {
		return fmt.Errorf("storage: create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(full)
		return fmt.Errorf("storage: write file: %w", err)
	}
	return nil
}

func (s *LocalStore) Delete(ctx context.Context, key string) error {
	err := os.Remove(filepath.Join(s.dir, filepath.FromSlash(key)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: delete file: %w", err)
	}
	return nil
}

func (s *LocalStore) URL(key string) string {
	return s.publicBaseURL + "/" + key
}

var _ Store = (*LocalStore)(nil)
