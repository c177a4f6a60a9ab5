// Package storage persists proof photos behind a small driver interface.
// Keys are generated server-side; caller-supplied filenames are only
// trusted for their extension.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hyunjae-dev/prooflink/config"
)

// Store is the driver contract for proof files.
type Store interface {
	Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// New selects a driver from configuration.
func New(cfg config.StorageConfig) (Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "local":
		return NewLocalStore(cfg.LocalDir, cfg.PublicBaseURL)
	case "s3", "minio":
		return NewS3Store(cfg)
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", cfg.Driver)
	}
}

// safeExtensions is the only set of caller extensions we keep.
var safeExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".webp": {}, ".heic": {},
}

// extensionByType maps allowed content types to a default extension.
var extensionByType = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/heic": ".heic",
}

// ObjectKey builds a collision-resistant key like
// proofs/2026/09/01/<uuid>.jpg. The original filename contributes at most
// its extension, and only when that extension is on the allow-list;
// otherwise the extension is derived from the content type.
func ObjectKey(folder, filename, contentType string, now time.Time) string {
	ext := strings.ToLower(path.Ext(filename))
	if _, ok := safeExtensions[ext]; !ok {
		ext = extensionByType[strings.ToLower(contentType)]
		if ext == "" {
			ext = ".bin"
		}
	}
	return fmt.Sprintf("%s/%s/%s%s", folder, now.UTC().Format("2006/01/02"), uuid.New().String(), ext)
}
