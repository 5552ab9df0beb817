package persistence

import (
	"testing"
)

func TestRegisterProvider(t *testing.T) {
	mockFactory := func(config PluginConfig) (PluginPersistence, error) {
		return nil, nil
	}

	RegisterProvider("test", mockFactory)

	providers := ListProviders()
	found := false
	for _, p := range providers {
		if p == "test" {
			found = true
			break
		}
	}

	if !found {
		t.Errorf("Expected to find 'test' provider in list, got: %v", providers)
	}
}

func TestNewPersistenceUnknownProvider(t *testing.T) {
	cfg := ProviderConfig{Type: "unknown_provider"}

	_, err := NewPersistence(cfg, PluginConfig{})
	if err == nil {
		t.Error("Expected error for unknown provider, got nil")
	}
}

func TestNewPersistencePassesOptions(t *testing.T) {
	var got PluginConfig
	RegisterProvider("capture", func(config PluginConfig) (PluginPersistence, error) {
		got = config
		return nil, nil
	})

	_, err := NewPersistence(ProviderConfig{Type: "capture", Options: map[string]any{"addr": "redis:6379"}}, PluginConfig{})
	if err != nil {
		t.Fatalf("NewPersistence: %v", err)
	}
	if string(got.Config) != `{"addr":"redis:6379"}` {
		t.Errorf("unexpected options %s", got.Config)
	}
	if got.Timezone == nil {
		t.Error("expected timezone to default to UTC")
	}
}
