package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hyunjae-dev/prooflink/config"
)

func TestObjectKey_Layout(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	key := ObjectKey("proofs", "photo.JPG", "image/jpeg", now)

	if !strings.HasPrefix(key, "proofs/2026/09/01/") {
		t.Fatalf("unexpected key prefix: %q", key)
	}
	if !strings.HasSuffix(key, ".jpg") {
		t.Fatalf("expected lowercased extension, got %q", key)
	}
}

func TestObjectKey_UnsafeExtensionFallsBackToContentType(t *testing.T) {
	now := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	key := ObjectKey("proofs", "../../etc/passwd.sh", "image/png", now)
	if !strings.HasSuffix(key, ".png") {
		t.Fatalf("expected .png from content type, got %q", key)
	}
	if strings.Contains(key, "..") {
		t.Fatalf("caller path fragments must not leak into the key: %q", key)
	}

	key = ObjectKey("proofs", "blob", "application/octet-stream", now)
	if !strings.HasSuffix(key, ".bin") {
		t.Fatalf("expected .bin default, got %q", key)
	}
}

func TestObjectKey_Unique(t *testing.T) {
	now := time.Now()
	a := ObjectKey("proofs", "a.jpg", "image/jpeg", now)
	b := ObjectKey("proofs", "a.jpg", "image/jpeg", now)
	if a == b {
		t.Fatal("expected unique keys for identical inputs")
	}
}

func TestLocalStore_SaveDeleteURL(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir, "http://cdn.example.com/files")
	if err != nil {
		t.Fatalf("NewLocalStore returned error: %v", err)
	}

	key := "proofs/2026/09/01/test.jpg"
	data := []byte("fake image bytes")
	if err := store.Save(context.Background(), key, bytes.NewReader(data), int64(len(data)), "image/jpeg"); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	onDisk, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(key)))
	if err != nil {
		t.Fatalf("expected file on disk: %v", err)
	}
	if !bytes.Equal(onDisk, data) {
		t.Fatal("stored bytes differ from input")
	}

	if got := store.URL(key); got != "http://cdn.example.com/files/"+key {
		t.Fatalf("unexpected URL %q", got)
	}

	if err := store.Delete(context.Background(), key); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(key))); !os.IsNotExist(err) {
		t.Fatal("expected file removed")
	}
}

func TestNew_UnknownDriver(t *testing.T) {
	if _, err := New(config.StorageConfig{Driver: "ftp"}); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
