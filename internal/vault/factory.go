package vault

import (
	"context"
	"fmt"

	"sentinel-go/internal/config"
)

// NewVaultFromConfig creates a Vault implementation based on the mirror
// config type. Returns (nil, nil) for type "none": mirroring is optional.
func NewVaultFromConfig(ctx context.Context, cfg config.MirrorConfig) (Vault, error) {
	switch cfg.Type {
	case "none", "":
		return nil, nil
	case "memory":
		return NewMemoryVault(), nil
	case "s3":
		return NewS3Vault(ctx, cfg)
	case "filesystem":
		if cfg.FSRoot == "" {
			return nil, fmt.Errorf("filesystem mirror requires fs_root to be set")
		}
		return NewFileSystemVault(cfg.FSRoot)
	default:
		return nil, fmt.Errorf("unknown mirror type: %s", cfg.Type)
	}
}
