package speech

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}

	if err := store.Put(ctx, "clip.mp3", []byte("mp3-bytes")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	data, err := store.Get(ctx, "clip.mp3")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(data) != "mp3-bytes" {
		t.Errorf("Get: got %q", data)
	}

	if err := store.Delete(ctx, "clip.mp3"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(ctx, "clip.mp3"); !errors.Is(err, ErrAudioNotFound) {
		t.Fatalf("Get after Delete: got %v, want ErrAudioNotFound", err)
	}
	if err := store.Delete(ctx, "clip.mp3"); err != nil {
		t.Fatalf("Delete of absent clip should be a no-op, got %v", err)
	}
}

func TestLocalStoreCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "audio")
	if _, err := NewLocalStore(dir); err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("directory not created: %v", err)
	}
}

func TestLocalStoreRejectsEmptyDir(t *testing.T) {
	if _, err := NewLocalStore("  "); err == nil {
		t.Fatal("expected error for empty dir")
	}
}

// A name carrying path separators must not escape the scratch directory.
func TestLocalStoreSanitizesNames(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	store, err := NewLocalStore(filepath.Join(base, "audio"))
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}

	if err := store.Put(ctx, "../escape.mp3", []byte("x")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := os.Stat(filepath.Join(base, "escape.mp3")); err == nil {
		t.Fatal("clip written outside the scratch directory")
	}
	if _, err := os.Stat(filepath.Join(base, "audio", "escape.mp3")); err != nil {
		t.Fatalf("sanitized clip missing: %v", err)
	}
}
