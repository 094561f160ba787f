package generation

import (
	"fmt"
	"log/slog"

	"rapidsite/internal/config"
	domainGen "rapidsite/internal/domain/services/generation"
	"rapidsite/internal/service/generation/providers/anthropic"
	"rapidsite/internal/service/generation/providers/lorem"
)

// ProviderRegistry resolves generation providers by model name.
type ProviderRegistry struct {
	providers []domainGen.Provider
}

// NewProviderRegistry creates an empty registry.
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{}
}

// Register adds a provider. Registration order is lookup order.
func (r *ProviderRegistry) Register(p domainGen.Provider) {
	r.providers = append(r.providers, p)
}

// ForModel returns the first provider that supports the given model.
func (r *ProviderRegistry) ForModel(model string) (domainGen.Provider, error) {
	for _, p := range r.providers {
		if p.SupportsModel(model) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("no provider supports model %q", model)
}

// SetupProviders builds the registry from configuration: Anthropic when an
// API key is configured, and the lorem provider always (dev/test runs
// without keys).
func SetupProviders(cfg *config.Config, logger *slog.Logger) (*ProviderRegistry, error) {
	registry := NewProviderRegistry()

	if cfg.AnthropicAPIKey != "" {
		provider, err := anthropic.NewProvider(cfg.AnthropicAPIKey)
		if err != nil {
			return nil, fmt.Errorf("setup anthropic provider: %w", err)
		}
		registry.Register(provider)
		logger.Info("generation provider registered", "provider", provider.Name())
	}

	loremProvider := lorem.NewProvider()
	registry.Register(loremProvider)
	logger.Info("generation provider registered", "provider", loremProvider.Name())

	if _, err := registry.ForModel(cfg.DefaultModel); err != nil {
		return nil, fmt.Errorf("default model not usable: %w", err)
	}

	return registry, nil
}
