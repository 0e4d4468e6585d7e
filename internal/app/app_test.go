package app

import (
	"os"
	"path/filepath"
	"testing"

	"sentinel-go/internal/config"
	"sentinel-go/internal/sentinel"
	"sentinel-go/internal/store"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	base := t.TempDir()
	cfg := config.NewConfig(base)
	cfg.History = config.HistoryConfig{Type: "memory"}
	cfg.Mirror = config.MirrorConfig{Type: "memory"}
	return cfg
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	a, err := NewApp(testConfig(t), "Test")
	if err != nil {
		t.Fatalf("NewApp() error = %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func TestResolveTarget(t *testing.T) {
	t.Run("existing directory becomes a local target", func(t *testing.T) {
		dir := t.TempDir()
		target, err := ResolveTarget(dir, "")
		if err != nil {
			t.Fatalf("ResolveTarget() error = %v", err)
		}
		if target.Kind != sentinel.KindLocal {
			t.Errorf("Kind = %v, want KindLocal", target.Kind)
		}
	})

	t.Run("revision on a local directory is an error", func(t *testing.T) {
		if _, err := ResolveTarget(t.TempDir(), "main"); err == nil {
			t.Error("ResolveTarget() expected error for local target with revision")
		}
	})

	t.Run("org/model becomes a remote target", func(t *testing.T) {
		target, err := ResolveTarget("org/model", "v2")
		if err != nil {
			t.Fatalf("ResolveTarget() error = %v", err)
		}
		if target.Kind != sentinel.KindRemote || target.Revision != "v2" {
			t.Errorf("target = %+v", target)
		}
	})

	t.Run("garbage is an error", func(t *testing.T) {
		if _, err := ResolveTarget("not-a-repo-or-dir", ""); err == nil {
			t.Error("ResolveTarget() expected error")
		}
	})
}

func TestMirrorPushPull(t *testing.T) {
	a := newTestApp(t)

	// Seed some verification state under the base directory.
	modelDir := filepath.Join(a.registry.Root(), "hf", "org", "model@main")
	doc := store.Initial()
	if err := store.SaveMetadata(modelDir, doc); err != nil {
		t.Fatalf("SaveMetadata() error = %v", err)
	}
	if err := a.registry.Register("hf/org/model@main", "hf/org/model@main"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if err := a.MirrorPush(); err != nil {
		t.Fatalf("MirrorPush() error = %v", err)
	}

	t.Run("pull refuses to overwrite without force", func(t *testing.T) {
		if err := a.MirrorPull(false); err == nil {
			t.Error("MirrorPull() expected error with existing local state")
		}
	})

	t.Run("pull restores the pushed state after a local wipe", func(t *testing.T) {
		// Wipe the local state, keeping the vault intact.
		if err := os.Remove(filepath.Join(a.registry.Root(), store.RegistryFileName)); err != nil {
			t.Fatal(err)
		}
		if err := os.RemoveAll(filepath.Join(a.registry.Root(), "hf")); err != nil {
			t.Fatal(err)
		}

		if err := a.MirrorPull(false); err != nil {
			t.Fatalf("MirrorPull() error = %v", err)
		}

		if _, err := a.registry.Resolve("hf/org/model@main"); err != nil {
			t.Errorf("Resolve() after pull error = %v", err)
		}
		if _, err := store.LoadMetadata(modelDir); err != nil {
			t.Errorf("LoadMetadata() after pull error = %v", err)
		}
	})
}

func TestMirrorUnconfigured(t *testing.T) {
	cfg := testConfig(t)
	cfg.Mirror = config.MirrorConfig{Type: "none"}

	a, err := NewApp(cfg, "Test")
	if err != nil {
		t.Fatalf("NewApp() error = %v", err)
	}
	t.Cleanup(func() { a.Close() })

	if err := a.MirrorPush(); err == nil {
		t.Error("MirrorPush() expected error with no mirror configured")
	}
	if err := a.MirrorPull(true); err == nil {
		t.Error("MirrorPull() expected error with no mirror configured")
	}
}

func TestHistoryEmpty(t *testing.T) {
	a := newTestApp(t)

	runs, err := a.History(10)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("History() = %d runs, want 0", len(runs))
	}
}
