package source_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"testing"

	"sentinel-go/internal/sentinel"
	"sentinel-go/internal/source"
)

func localTarget(t *testing.T, dir string) sentinel.TargetRecord {
	t.Helper()
	target, err := sentinel.NewLocalTarget(dir)
	if err != nil {
		t.Fatalf("NewLocalTarget() error = %v", err)
	}
	return target
}

func writeTree(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestLocalProviderResolve(t *testing.T) {
	t.Parallel()

	p := source.NewLocalProvider()
	ctx := context.Background()

	t.Run("existing directory resolves without a revision", func(t *testing.T) {
		dir := t.TempDir()
		target, sha, err := p.Resolve(ctx, localTarget(t, dir))
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if sha != "" {
			t.Errorf("sha = %q, want empty", sha)
		}
		if target.ID != dir {
			t.Errorf("ID = %q, want %q", target.ID, dir)
		}
	})

	t.Run("missing directory is ErrNotFound", func(t *testing.T) {
		missing := filepath.Join(t.TempDir(), "nope")
		if _, _, err := p.Resolve(ctx, localTarget(t, missing)); !errors.Is(err, sentinel.ErrNotFound) {
			t.Errorf("Resolve() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("file instead of directory is an error", func(t *testing.T) {
		dir := t.TempDir()
		file := filepath.Join(dir, "model.py")
		if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
		if _, _, err := p.Resolve(ctx, localTarget(t, file)); err == nil {
			t.Error("Resolve() expected error for non-directory path")
		}
	})
}

func TestLocalProviderListFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"model.py":         "a",
		"config.json":      "{}",
		"utils/helpers.py": "b",
	})

	p := source.NewLocalProvider()
	paths, err := p.ListFiles(context.Background(), localTarget(t, dir))
	if err != nil {
		t.Fatalf("ListFiles() error = %v", err)
	}

	sort.Strings(paths)
	want := []string{"config.json", "model.py", "utils/helpers.py"}
	if !reflect.DeepEqual(paths, want) {
		t.Errorf("ListFiles() = %v, want %v", paths, want)
	}
}

func TestLocalProviderReadFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"sub/model.py": "import torch\n"})

	p := source.NewLocalProvider()
	ctx := context.Background()
	target := localTarget(t, dir)

	t.Run("reads content by relative slash path", func(t *testing.T) {
		data, err := p.ReadFile(ctx, target, "sub/model.py")
		if err != nil {
			t.Fatalf("ReadFile() error = %v", err)
		}
		if !bytes.Equal(data, []byte("import torch\n")) {
			t.Errorf("ReadFile() = %q", data)
		}
	})

	t.Run("missing file is ErrNotFound", func(t *testing.T) {
		if _, err := p.ReadFile(ctx, target, "absent.py"); !errors.Is(err, sentinel.ErrNotFound) {
			t.Errorf("ReadFile() error = %v, want ErrNotFound", err)
		}
	})
}
