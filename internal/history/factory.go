package history

import (
	"fmt"
	"os"
	"path/filepath"

	"sentinel-go/internal/config"
)

// NewRunLogFromConfig creates a RunLog based on the history config type.
func NewRunLogFromConfig(cfg config.HistoryConfig) (RunLog, error) {
	switch cfg.Type {
	case "sqlite", "":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite run history")
		}
		// The run log is the first thing opened on startup, so the data
		// directory may not exist yet on a fresh install.
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("creating data directory %s: %w", cfg.DataDir, err)
		}
		return NewSQLiteRunLog(filepath.Join(cfg.DataDir, "history.db"))
	case "memory":
		return NewSQLiteRunLog(":memory:")
	default:
		return nil, fmt.Errorf("unknown history type: %s", cfg.Type)
	}
}
