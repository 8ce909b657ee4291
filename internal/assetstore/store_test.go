package assetstore_test

// Notes:
// - The ErrCleanupFailed branch is exercised by removing write permission on
//   the store directory, which root ignores; that test skips under root.
// These are acceptable gaps: we test observable behavior, not syscall internals.

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/alnah/go-web2md/internal/assetstore"
	"github.com/alnah/go-web2md/internal/fileutil"
)

// ---------------------------------------------------------------------------
// TestStore_Put - Writing assets
// ---------------------------------------------------------------------------

func TestStore_Put(t *testing.T) {
	t.Parallel()

	store, err := assetstore.New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	data := []byte("\x89PNG fake")
	h, err := store.Put("run-1", data, "png")
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	if filepath.Dir(h.Path) != store.Dir() {
		t.Errorf("Path dir = %q, want %q", filepath.Dir(h.Path), store.Dir())
	}
	if filepath.Base(h.Path) != "web2md-run-1.png" || h.ID != "run-1" {
		t.Errorf("Put() = id %q path %q, want run-1 and web2md-run-1.png", h.ID, h.Path)
	}
	got, err := os.ReadFile(h.Path)
	if err != nil {
		t.Fatalf("reading stored file: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("stored content = %q, want %q", got, data)
	}
	if store.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", store.Pending())
	}
}

func TestStore_Put_InvalidExtension(t *testing.T) {
	t.Parallel()

	store, err := assetstore.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	_, err = store.Put("run-1", []byte("x"), "../png")
	if !errors.Is(err, assetstore.ErrWriteFailed) {
		t.Errorf("Put() error = %v, want ErrWriteFailed", err)
	}
	if store.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", store.Pending())
	}
}

func TestStore_Put_InvalidID(t *testing.T) {
	t.Parallel()

	store, err := assetstore.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	for _, id := range []string{"", "../escape", "a/b", ".."} {
		if _, err := store.Put(id, []byte("x"), "png"); !errors.Is(err, assetstore.ErrWriteFailed) {
			t.Errorf("Put(%q) error = %v, want ErrWriteFailed", id, err)
		}
	}
	if store.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", store.Pending())
	}
}

func TestStore_Put_CollisionRefused(t *testing.T) {
	t.Parallel()

	store, err := assetstore.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	first, err := store.Put("fixed", []byte("one"), "png")
	if err != nil {
		t.Fatalf("first Put() error = %v", err)
	}
	if _, err := store.Put("fixed", []byte("two"), "png"); !errors.Is(err, assetstore.ErrWriteFailed) {
		t.Errorf("second Put() error = %v, want ErrWriteFailed", err)
	}

	got, _ := os.ReadFile(first.Path)
	if string(got) != "one" {
		t.Errorf("first file overwritten: %q", got)
	}
}

func TestStore_Put_UniqueUnderConcurrency(t *testing.T) {
	t.Parallel()

	store, err := assetstore.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	const n = 32
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		paths = make(map[string]bool)
	)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h, err := store.Put(assetstore.NewV7(), []byte("x"), "png")
			if err != nil {
				t.Errorf("Put() error = %v", err)
				return
			}
			mu.Lock()
			paths[h.Path] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(paths) != n {
		t.Errorf("got %d distinct paths, want %d", len(paths), n)
	}
}

// ---------------------------------------------------------------------------
// TestStore_Release - Cleanup semantics
// ---------------------------------------------------------------------------

func TestStore_Release(t *testing.T) {
	t.Parallel()

	store, err := assetstore.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	h, err := store.Put(assetstore.NewV7(), []byte("x"), "png")
	if err != nil {
		t.Fatal(err)
	}

	if err := store.Release(h); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if fileutil.FileExists(h.Path) {
		t.Error("file still exists after Release()")
	}
	if store.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", store.Pending())
	}

	t.Run("idempotent", func(t *testing.T) {
		if err := store.Release(h); err != nil {
			t.Errorf("second Release() error = %v", err)
		}
	})

	t.Run("nil handle", func(t *testing.T) {
		if err := store.Release(nil); err != nil {
			t.Errorf("Release(nil) error = %v", err)
		}
	})
}

func TestStore_Release_AlreadyRemoved(t *testing.T) {
	t.Parallel()

	store, err := assetstore.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	h, err := store.Put(assetstore.NewV7(), []byte("x"), "png")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(h.Path); err != nil {
		t.Fatal(err)
	}

	if err := store.Release(h); err != nil {
		t.Errorf("Release() after external removal error = %v", err)
	}
	if store.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", store.Pending())
	}
}

func TestStore_Release_Failure(t *testing.T) {
	t.Parallel()

	if os.Geteuid() == 0 {
		t.Skip("root bypasses directory permissions")
	}
	dir := t.TempDir()
	store, err := assetstore.New(dir)
	if err != nil {
		t.Fatal(err)
	}
	h, err := store.Put(assetstore.NewV7(), []byte("x"), "png")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(dir, 0o500); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(dir, 0o700) })

	err = store.Release(h)
	if !errors.Is(err, assetstore.ErrCleanupFailed) {
		t.Errorf("Release() error = %v, want ErrCleanupFailed", err)
	}
	if store.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1 after failed release", store.Pending())
	}
}

// ---------------------------------------------------------------------------
// TestStore_Orphans
// ---------------------------------------------------------------------------

func TestStore_Orphans(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := assetstore.New(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "unrelated.txt"), nil, 0o600); err != nil {
		t.Fatal(err)
	}
	h, err := store.Put(assetstore.NewV7(), []byte("x"), "png")
	if err != nil {
		t.Fatal(err)
	}

	orphans, err := store.Orphans()
	if err != nil {
		t.Fatal(err)
	}
	if len(orphans) != 1 || orphans[0] != h.Path {
		t.Errorf("Orphans() = %v, want [%s]", orphans, h.Path)
	}

	_ = store.Release(h)
	orphans, _ = store.Orphans()
	if len(orphans) != 0 {
		t.Errorf("Orphans() after release = %v, want none", orphans)
	}
}
