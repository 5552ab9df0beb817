package redis

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/osvaldoandrade/placebench/internal/repository"
	"github.com/osvaldoandrade/placebench/pkg/persistence"

	"github.com/go-redis/redis/v8"
)

// Config holds Redis-specific configuration
type Config struct {
	Addr     string `json:"addr"`
	Password string `json:"password,omitempty"`
}

// Plugin implements PluginPersistence for Redis/KVRocks
type Plugin struct {
	client    *redis.Client
	owned     bool
	scenarios persistence.ScenarioStorage
	runs      persistence.RunStorage
}

// NewPlugin creates a new Redis persistence plugin. A client handed in via
// PluginConfig.Redis is reused and left open on Close.
func NewPlugin(config persistence.PluginConfig) (persistence.PluginPersistence, error) {
	client := config.Redis
	owned := false
	if client == nil {
		var cfg Config
		if raw := strings.TrimSpace(string(config.Config)); raw != "" && raw != "null" {
			if err := json.Unmarshal(config.Config, &cfg); err != nil {
				return nil, err
			}
		}
		if cfg.Addr == "" {
			cfg.Addr = "localhost:6379"
		}
		client = redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
		})
		owned = true
	}

	return &Plugin{
		client:    client,
		owned:     owned,
		scenarios: repository.NewScenarioRepository(client),
		runs:      repository.NewRunRepository(client, config.Timezone),
	}, nil
}

func (p *Plugin) ScenarioStorage() persistence.ScenarioStorage {
	return p.scenarios
}

func (p *Plugin) RunStorage() persistence.RunStorage {
	return p.runs
}

// Health checks if Redis is healthy
func (p *Plugin) Health(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// Close releases the Redis connection when the plugin opened it
func (p *Plugin) Close() error {
	if !p.owned {
		return nil
	}
	return p.client.Close()
}

func init() {
	persistence.RegisterProvider("redis", NewPlugin)
}
