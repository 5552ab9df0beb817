package auth

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// ProviderConfig selects a validator and carries its options.
type ProviderConfig struct {
	Type    string         `yaml:"type" json:"type"`
	Options map[string]any `yaml:"options" json:"options"`
}

// ValidatorFactory creates validators from JSON-encoded options.
type ValidatorFactory func(config json.RawMessage) (Validator, error)

var (
	registry = make(map[string]ValidatorFactory)
	mu       sync.RWMutex
)

func RegisterProvider(providerType string, factory ValidatorFactory) {
	mu.Lock()
	defer mu.Unlock()
	registry[providerType] = factory
}

// NewValidator creates a validator from provider configuration
func NewValidator(providerConfig ProviderConfig) (Validator, error) {
	mu.RLock()
	factory, ok := registry[providerConfig.Type]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown auth provider type: %s", providerConfig.Type)
	}
	raw, err := json.Marshal(providerConfig.Options)
	if err != nil {
		return nil, fmt.Errorf("auth provider %s: encode options: %w", providerConfig.Type, err)
	}
	return factory(raw)
}

// ListProviders returns registered provider types, sorted.
func ListProviders() []string {
	mu.RLock()
	defer mu.RUnlock()

	providers := make([]string, 0, len(registry))
	for name := range registry {
		providers = append(providers, name)
	}
	sort.Strings(providers)
	return providers
}
