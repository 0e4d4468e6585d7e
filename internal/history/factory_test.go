package history_test

import (
	"os"
	"path/filepath"
	"testing"

	"sentinel-go/internal/config"
	"sentinel-go/internal/history"
)

func TestNewRunLogFromConfigCreatesDataDir(t *testing.T) {
	t.Parallel()

	dataDir := filepath.Join(t.TempDir(), "sentinel", "data")
	l, err := history.NewRunLogFromConfig(config.HistoryConfig{Type: "sqlite", DataDir: dataDir})
	if err != nil {
		t.Fatalf("NewRunLogFromConfig() error = %v", err)
	}
	defer l.Close()

	if _, err := os.Stat(filepath.Join(dataDir, "history.db")); err != nil {
		t.Errorf("history.db not created: %v", err)
	}

	if err := l.Record(sampleRun("run-1", history.OutcomeVerified)); err != nil {
		t.Errorf("Record() error = %v", err)
	}
}

func TestNewRunLogFromConfigMemory(t *testing.T) {
	t.Parallel()

	l, err := history.NewRunLogFromConfig(config.HistoryConfig{Type: "memory"})
	if err != nil {
		t.Fatalf("NewRunLogFromConfig() error = %v", err)
	}
	defer l.Close()
}

func TestNewRunLogFromConfigErrors(t *testing.T) {
	t.Parallel()

	if _, err := history.NewRunLogFromConfig(config.HistoryConfig{Type: "sqlite"}); err == nil {
		t.Error("NewRunLogFromConfig() with empty data_dir expected error")
	}
	if _, err := history.NewRunLogFromConfig(config.HistoryConfig{Type: "postgres"}); err == nil {
		t.Error("NewRunLogFromConfig() with unknown type expected error")
	}
}
