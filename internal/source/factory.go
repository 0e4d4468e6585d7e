package source

import (
	"fmt"

	"sentinel-go/internal/config"
	"sentinel-go/internal/sentinel"
)

// Selector dispatches targets to the provider for their kind.
type Selector struct {
	local *LocalProvider
	hub   *HubProvider
}

// NewSelectorFromConfig creates a Selector wired from the hub configuration.
func NewSelectorFromConfig(cfg config.HubConfig) *Selector {
	return &Selector{
		local: NewLocalProvider(),
		hub:   NewHubProvider(cfg.Endpoint, cfg.Token),
	}
}

var _ sentinel.SourceSelector = (*Selector)(nil)

// ForTarget returns the provider for a target's kind.
func (s *Selector) ForTarget(target sentinel.TargetRecord) (sentinel.SourceProvider, error) {
	switch target.Kind {
	case sentinel.KindLocal:
		return s.local, nil
	case sentinel.KindRemote:
		return s.hub, nil
	case sentinel.KindUnknown:
		return nil, fmt.Errorf("no source provider for unknown target kind")
	default:
		return nil, fmt.Errorf("unhandled target kind %d", target.Kind)
	}
}
