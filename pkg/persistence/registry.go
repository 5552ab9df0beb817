package persistence

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// ProviderConfig contains provider-specific configuration
type ProviderConfig struct {
	Type    string         `yaml:"type" json:"type"`
	Options map[string]any `yaml:"options" json:"options"`
}

// PluginConfig provides initialization parameters to persistence plugins
type PluginConfig struct {
	// Config contains plugin-specific configuration (JSON-encoded options)
	Config json.RawMessage

	Timezone *time.Location

	// Redis is an already connected client the redis plugin reuses when set.
	Redis *redis.Client
}

// PluginFactory creates persistence plugins from configuration
type PluginFactory func(config PluginConfig) (PluginPersistence, error)

var (
	registry = make(map[string]PluginFactory)
	mu       sync.RWMutex
)

// RegisterProvider registers a persistence plugin factory for a provider type
func RegisterProvider(providerType string, factory PluginFactory) {
	mu.Lock()
	defer mu.Unlock()
	registry[providerType] = factory
}

// NewPersistence creates a persistence plugin from provider configuration
func NewPersistence(providerConfig ProviderConfig, pluginConfig PluginConfig) (PluginPersistence, error) {
	mu.RLock()
	factory, ok := registry[providerConfig.Type]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown persistence provider type: %s", providerConfig.Type)
	}

	raw, err := json.Marshal(providerConfig.Options)
	if err != nil {
		return nil, fmt.Errorf("persistence %s: encode options: %w", providerConfig.Type, err)
	}
	pluginConfig.Config = raw
	if pluginConfig.Timezone == nil {
		pluginConfig.Timezone = time.UTC
	}

	return factory(pluginConfig)
}

// ListProviders returns registered provider types
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
