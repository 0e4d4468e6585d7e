package store_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"sentinel-go/internal/store"
)

func openRegistry(t *testing.T) *store.Registry {
	t.Helper()
	r, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	return r
}

// registerWithMetadata registers a key and writes a minimal metadata document
// at its storage location so List can summarize it.
func registerWithMetadata(t *testing.T, r *store.Registry, key string) {
	t.Helper()
	if err := store.SaveMetadata(r.PathFor(key), sampleDocument()); err != nil {
		t.Fatalf("SaveMetadata() error = %v", err)
	}
	if err := r.Register(key, key); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
}

func TestRegistryResolve(t *testing.T) {
	t.Parallel()

	r := openRegistry(t)

	t.Run("unknown key is ErrNotFound", func(t *testing.T) {
		if _, err := r.Resolve("hf/org/model@main"); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("Resolve() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("registered key resolves to its storage path", func(t *testing.T) {
		if err := r.Register("hf/org/model@main", "hf/org/model@main"); err != nil {
			t.Fatalf("Register() error = %v", err)
		}
		loc, err := r.Resolve("hf/org/model@main")
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if loc != r.PathFor("hf/org/model@main") {
			t.Errorf("Resolve() = %q, want %q", loc, r.PathFor("hf/org/model@main"))
		}
	})
}

func TestRegistryRegisterIdempotent(t *testing.T) {
	t.Parallel()

	r := openRegistry(t)
	registerWithMetadata(t, r, "hf/a/one@main")
	registerWithMetadata(t, r, "hf/b/two@main")

	// Re-register the first key; order must be preserved.
	if err := r.Register("hf/a/one@main", "hf/a/one@main"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	var keys []string
	for entry, err := range r.List() {
		if err != nil {
			t.Fatalf("List() yielded error: %v", err)
		}
		keys = append(keys, entry.TargetKey)
	}

	if len(keys) != 2 {
		t.Fatalf("List() = %v, want 2 entries", keys)
	}
	if keys[0] != "hf/a/one@main" || keys[1] != "hf/b/two@main" {
		t.Errorf("insertion order not preserved: %v", keys)
	}
}

func TestRegistryListEmptyRoot(t *testing.T) {
	t.Parallel()

	r := openRegistry(t)
	for entry, err := range r.List() {
		t.Errorf("unexpected entry from empty registry: %+v, %v", entry, err)
	}
}

func TestRegistryListSkipsBrokenEntries(t *testing.T) {
	t.Parallel()

	r := openRegistry(t)
	registerWithMetadata(t, r, "hf/a/good@main")

	// Register a key whose metadata document is missing.
	if err := r.Register("hf/b/broken@main", "hf/b/broken@main"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	var good, broken int
	for entry, err := range r.List() {
		if err != nil {
			broken++
			if entry.TargetKey != "hf/b/broken@main" {
				t.Errorf("error attributed to %q", entry.TargetKey)
			}
			continue
		}
		good++
	}
	if good != 1 || broken != 1 {
		t.Errorf("good = %d, broken = %d, want 1 and 1", good, broken)
	}
}

func TestRegistryListIncludesOriginalPath(t *testing.T) {
	t.Parallel()

	r := openRegistry(t)
	key := "local/mymodel_abcd1234"
	registerWithMetadata(t, r, key)
	if err := store.SaveOriginalPath(r.PathFor(key), "/home/user/mymodel"); err != nil {
		t.Fatalf("SaveOriginalPath() error = %v", err)
	}

	for entry, err := range r.List() {
		if err != nil {
			t.Fatalf("List() yielded error: %v", err)
		}
		if entry.OriginalPath != "/home/user/mymodel" {
			t.Errorf("OriginalPath = %q", entry.OriginalPath)
		}
	}
}

func TestRegistryDeleteAll(t *testing.T) {
	t.Parallel()

	r := openRegistry(t)
	registerWithMetadata(t, r, "hf/a/one@main")
	registerWithMetadata(t, r, "local/two_12345678")

	if err := r.DeleteAll(); err != nil {
		t.Fatalf("DeleteAll() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(r.Root(), store.RegistryFileName)); !os.IsNotExist(err) {
		t.Error("registry file survived DeleteAll")
	}
	if _, err := os.Stat(r.PathFor("hf/a/one@main")); !os.IsNotExist(err) {
		t.Error("model storage survived DeleteAll")
	}

	// Deleting an already-empty registry is fine.
	if err := r.DeleteAll(); err != nil {
		t.Errorf("second DeleteAll() error = %v", err)
	}
}

func TestRegistryCorruptFile(t *testing.T) {
	t.Parallel()

	r := openRegistry(t)
	if err := os.MkdirAll(r.Root(), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(r.Root(), store.RegistryFileName), []byte("not json"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := r.Resolve("hf/org/model@main")
	var corrupt *store.CorruptionError
	if !errors.As(err, &corrupt) {
		t.Errorf("Resolve() error = %v, want CorruptionError", err)
	}
}
