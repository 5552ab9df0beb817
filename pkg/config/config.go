package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/osvaldoandrade/placebench/internal/ratelimit"
	"github.com/osvaldoandrade/placebench/internal/tracing"
	"github.com/osvaldoandrade/placebench/pkg/auth"
	"github.com/osvaldoandrade/placebench/pkg/domain"
	"github.com/osvaldoandrade/placebench/pkg/persistence"

	"gopkg.in/yaml.v3"
)

type SolverConfig struct {
	BaseURL            string           `yaml:"baseUrl"`
	TimeoutSeconds     int              `yaml:"timeoutSeconds"`
	MaxAttempts        int              `yaml:"maxAttempts"`
	BackoffPolicy      string           `yaml:"backoffPolicy"`
	BackoffBaseSeconds int              `yaml:"backoffBaseSeconds"`
	BackoffMaxSeconds  int              `yaml:"backoffMaxSeconds"`
	Concurrency        int              `yaml:"concurrency"`
	RateLimit          ratelimit.Bucket `yaml:"rateLimit"`
}

type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	ServiceName  string  `yaml:"serviceName"`
	OTLPEndpoint string  `yaml:"otlpEndpoint"`
	OTLPInsecure bool    `yaml:"otlpInsecure"`
	SampleRatio  float64 `yaml:"sampleRatio"`
}

type Config struct {
	Port          int    `yaml:"port"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`
	Timezone      string `yaml:"timezone"`
	LogLevel      string `yaml:"logLevel"`
	LogFormat     string `yaml:"logFormat"`
	Env           string `yaml:"env"`

	Persistence persistence.ProviderConfig `yaml:"persistence"`
	Auth        auth.ProviderConfig        `yaml:"auth"`

	Solver  SolverConfig  `yaml:"solver"`
	Tracing TracingConfig `yaml:"tracing"`

	// APIRateLimit throttles batch starts and comparisons per caller.
	APIRateLimit ratelimit.Bucket `yaml:"apiRateLimit"`

	DefaultAlgorithms   []string `yaml:"defaultAlgorithms"`
	DefaultAntennaTypes []string `yaml:"defaultAntennaTypes"`
	DefaultGridSize     int      `yaml:"defaultGridSize"`
	DefaultPattern      string   `yaml:"defaultPattern"`
	ReportsDir          string   `yaml:"reportsDir"`
	MaxRunsListed       int      `yaml:"maxRunsListed"`

	RunRetentionHours      int `yaml:"runRetentionHours"`
	CleanupIntervalSeconds int `yaml:"cleanupIntervalSeconds"`
}

// LoadConfigOptional behaves like LoadConfig but tolerates an empty path or a
// missing file, in which case only env overrides and defaults apply.
func LoadConfigOptional(filePath string) (*Config, error) {
	if strings.TrimSpace(filePath) == "" {
		return finalize(&Config{}), nil
	}
	cfg, err := LoadConfig(filePath)
	if errors.Is(err, fs.ErrNotExist) {
		return finalize(&Config{}), nil
	}
	return cfg, err
}

func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return finalize(&c), nil
}

func finalize(c *Config) *Config {
	applyEnv(c)
	applyDefaults(c)
	log.Printf("Placebench Config: {Port:%d Redis:%s Persistence:%s Solver:%s TZ:%s Concurrency:%d}\n",
		c.Port, c.RedisAddr, c.Persistence.Type, c.Solver.BaseURL, c.Timezone, c.Solver.Concurrency)
	return c
}

func applyEnv(c *Config) {
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Port = p
		}
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.RedisPassword = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("AUTH_PROVIDER"); v != "" {
		c.Auth.Type = v
	}
	if v := os.Getenv("AUTH_STATIC_TOKEN"); v != "" {
		c.Auth.Options = map[string]any{"token": v}
	}
	if v := os.Getenv("PERSISTENCE_TYPE"); v != "" {
		c.Persistence.Type = v
	}
	if v := os.Getenv("SOLVER_BASE_URL"); v != "" {
		c.Solver.BaseURL = v
	}
	if v := os.Getenv("SOLVER_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Solver.TimeoutSeconds = n
		}
	}
	if v := os.Getenv("SOLVER_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Solver.MaxAttempts = n
		}
	}
	if v := os.Getenv("SOLVER_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Solver.Concurrency = n
		}
	}
	if v := os.Getenv("DEFAULT_ALGORITHMS"); v != "" {
		c.DefaultAlgorithms = splitList(v)
	}
	if v := os.Getenv("DEFAULT_ANTENNA_TYPES"); v != "" {
		c.DefaultAntennaTypes = splitList(v)
	}
	if v := os.Getenv("REPORTS_DIR"); v != "" {
		c.ReportsDir = v
	}
	if v := os.Getenv("OTEL_TRACING_ENABLED"); v != "" {
		c.Tracing.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("OTEL_TRACES_SAMPLER_ARG"); v != "" {
		c.Tracing.SampleRatio = tracing.ParseSampleRatio(v)
	}
}

func applyDefaults(c *Config) {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.RedisAddr == "" {
		c.RedisAddr = "localhost:6379"
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "json"
	}
	if c.Env == "" {
		c.Env = "dev"
	}
	if c.Persistence.Type == "" {
		c.Persistence.Type = "redis"
	}
	if c.Solver.BaseURL == "" {
		c.Solver.BaseURL = "http://localhost:8000"
	}
	if c.Solver.TimeoutSeconds <= 0 {
		c.Solver.TimeoutSeconds = 120
	}
	if c.Solver.MaxAttempts <= 0 {
		c.Solver.MaxAttempts = 1
	}
	if c.Solver.BackoffPolicy == "" {
		c.Solver.BackoffPolicy = "exp_full_jitter"
	}
	if c.Solver.BackoffBaseSeconds <= 0 {
		c.Solver.BackoffBaseSeconds = 1
	}
	if c.Solver.BackoffMaxSeconds <= 0 {
		c.Solver.BackoffMaxSeconds = 10
	}
	if c.Solver.Concurrency <= 0 {
		c.Solver.Concurrency = len(domain.KnownAlgorithms)
	}
	if len(c.DefaultAlgorithms) == 0 {
		c.DefaultAlgorithms = []string{"greedy", "genetic", "simulated-annealing"}
	}
	if len(c.DefaultAntennaTypes) == 0 {
		for _, t := range domain.AllAntennaTypes() {
			c.DefaultAntennaTypes = append(c.DefaultAntennaTypes, string(t))
		}
	}
	if c.DefaultGridSize <= 0 {
		c.DefaultGridSize = 20
	}
	if c.DefaultPattern == "" {
		c.DefaultPattern = "random_scattered"
	}
	if c.ReportsDir == "" {
		c.ReportsDir = "/tmp/placebench-reports"
	}
	if c.MaxRunsListed <= 0 {
		c.MaxRunsListed = 50
	}
	if c.RunRetentionHours <= 0 {
		c.RunRetentionHours = 168
	}
	if c.CleanupIntervalSeconds <= 0 {
		c.CleanupIntervalSeconds = 300
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = "placebench"
	}
}

func (c *Config) Validate() error {
	var errs []string
	env := strings.ToLower(strings.TrimSpace(c.Env))
	dev := env == "dev"

	u, err := url.Parse(c.Solver.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, "solver.baseUrl must be a valid http(s) URL")
	}
	switch c.Persistence.Type {
	case "redis", "memory":
	default:
		errs = append(errs, fmt.Sprintf("persistence.type %q is not supported", c.Persistence.Type))
	}
	if _, err := c.AntennaTypes(); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Auth.Type == "" && !dev {
		errs = append(errs, "auth.type is required in non-dev")
	}
	if c.Solver.RateLimit.RequestsPerMinute < 0 || c.Solver.RateLimit.BurstSize < 0 {
		errs = append(errs, "solver.rateLimit values must be >= 0")
	}
	if c.APIRateLimit.RequestsPerMinute < 0 || c.APIRateLimit.BurstSize < 0 {
		errs = append(errs, "apiRateLimit values must be >= 0")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// AntennaTypes parses DefaultAntennaTypes into catalogue types.
func (c *Config) AntennaTypes() ([]domain.AntennaType, error) {
	out := make([]domain.AntennaType, 0, len(c.DefaultAntennaTypes))
	for _, raw := range c.DefaultAntennaTypes {
		t, ok := domain.ParseAntennaType(raw)
		if !ok {
			return nil, fmt.Errorf("defaultAntennaTypes: unknown antenna type %q", raw)
		}
		out = append(out, t)
	}
	return out, nil
}

// DefaultRunConfig is the snapshot used when a request omits algorithms or types.
func (c *Config) DefaultRunConfig() domain.RunConfig {
	types, _ := c.AntennaTypes()
	return domain.RunConfig{
		Algorithms:   append([]string(nil), c.DefaultAlgorithms...),
		AntennaTypes: types,
	}
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
