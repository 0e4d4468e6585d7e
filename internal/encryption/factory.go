package encryption

import (
	"fmt"

	"sentinel-go/internal/config"
)

// NewEncryptorFromConfig creates an Encryptor based on the mirror
// encryption type.
func NewEncryptorFromConfig(cfg config.MirrorConfig) (Encryptor, error) {
	switch cfg.Encryption {
	case "none", "":
		return NewNopEncryptor(), nil
	case "age":
		return NewAgeEncryptor(cfg.AgeRecipientPath, cfg.AgeIdentityPath), nil
	default:
		return nil, fmt.Errorf("unknown mirror encryption type: %q", cfg.Encryption)
	}
}
