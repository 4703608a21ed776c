package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sushant23/ai-agent-demo-sub001/internal/flow"
	"github.com/sushant23/ai-agent-demo-sub001/internal/workflow"
	"gopkg.in/yaml.v3"
)

// maxConfigSize caps the size of a config file.
const maxConfigSize = 1 << 20

// Provider names
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Session backends
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config represents the application configuration
type Config struct {
	Assistant     AssistantConfig     `yaml:"assistant"`
	LLM           LLMConfig           `yaml:"llm"`
	Session       SessionConfig       `yaml:"session"`
	Flows         []flow.Flow         `yaml:"flows"`
	Observability ObservabilityConfig `yaml:"observability"`
	Server        ServerConfig        `yaml:"server"`
}

// AssistantConfig selects the enabled patterns. Empty means all built-ins.
type AssistantConfig struct {
	EnabledPatterns []string `yaml:"enabled_patterns"`
}

// LLMConfig lists providers in preference order. The first one answers.
type LLMConfig struct {
	Providers []ProviderConfig `yaml:"providers"`
}

// ProviderConfig holds configuration for a single LLM provider
type ProviderConfig struct {
	Name    string `yaml:"name"`
	Model   string `yaml:"model"`
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	// RateLimit is in requests per second; 0 disables limiting.
	RateLimit float64 `yaml:"rate_limit"`
	Burst     int     `yaml:"burst"`
}

// SessionConfig selects the conversation store
type SessionConfig struct {
	Backend    string        `yaml:"backend"`
	MaxHistory int           `yaml:"max_history"`
	Redis      RedisConfig   `yaml:"redis"`
	TTL        time.Duration `yaml:"ttl"`
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
	PoolSize int    `yaml:"pool_size"`
}

// ObservabilityConfig configures logging and tracing
type ObservabilityConfig struct {
	ServiceName    string `yaml:"service_name"`
	TracesExporter string `yaml:"traces_exporter"`
	OTLPEndpoint   string `yaml:"otlp_endpoint"`
	LogLevel       string `yaml:"log_level"`
	LogFormat      string `yaml:"log_format"`
}

// ServerConfig configures the HTTP server
type ServerConfig struct {
	Port int `yaml:"port"`
	// StatusInterval is a cron schedule for periodic status logging.
	StatusInterval string `yaml:"status_interval"`
}

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadConfig loads configuration from a YAML file, applies defaults and then
// environment overrides.
func LoadConfig(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if info.Size() > maxConfigSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()
	cfg.ApplyEnv()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Session.Backend == "" {
		c.Session.Backend = BackendMemory
	}
	if c.Session.MaxHistory == 0 {
		c.Session.MaxHistory = 50
	}
	if c.Session.Redis.Addr == "" {
		c.Session.Redis.Addr = "localhost:6379"
	}
	if c.Observability.ServiceName == "" {
		c.Observability.ServiceName = "business-assistant"
	}
	if c.Observability.TracesExporter == "" {
		c.Observability.TracesExporter = "none"
	}
	if c.Observability.LogLevel == "" {
		c.Observability.LogLevel = "info"
	}
	if c.Observability.LogFormat == "" {
		c.Observability.LogFormat = "json"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.StatusInterval == "" {
		c.Server.StatusInterval = "@every 1m"
	}
	for i := range c.LLM.Providers {
		if c.LLM.Providers[i].Burst == 0 {
			c.LLM.Providers[i].Burst = 1
		}
	}
}

// ApplyEnv overrides settings from the environment. API keys only fill
// providers that have none. Without any configured provider, a provider is
// added for each API key present.
func (c *Config) ApplyEnv() {
	keys := map[string]string{
		ProviderOpenAI: os.Getenv("OPENAI_API_KEY"),
		ProviderGemini: os.Getenv("GEMINI_API_KEY"),
	}

	if len(c.LLM.Providers) == 0 {
		for _, name := range []string{ProviderOpenAI, ProviderGemini} {
			if keys[name] != "" {
				c.LLM.Providers = append(c.LLM.Providers, ProviderConfig{Name: name, Burst: 1})
			}
		}
	}
	for i := range c.LLM.Providers {
		p := &c.LLM.Providers[i]
		if p.APIKey == "" {
			p.APIKey = keys[p.Name]
		}
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		c.Session.Redis.Addr = addr
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Observability.LogLevel = level
	}
	if port := os.Getenv("PORT"); port != "" {
		if n, err := strconv.Atoi(port); err == nil {
			c.Server.Port = n
		}
	}
}

// SaveConfig saves configuration to a YAML file
func SaveConfig(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if _, err := c.Patterns(); err != nil {
		return err
	}

	for i, p := range c.LLM.Providers {
		switch p.Name {
		case ProviderOpenAI, ProviderGemini:
		default:
			return fmt.Errorf("llm.providers[%d]: unknown provider %q", i, p.Name)
		}
		if p.RateLimit < 0 {
			return fmt.Errorf("llm.providers[%d]: rate_limit must not be negative", i)
		}
	}

	switch c.Session.Backend {
	case BackendMemory, BackendRedis:
	default:
		return fmt.Errorf("session: unknown backend %q", c.Session.Backend)
	}

	for i, f := range c.Flows {
		if f.Name == "" {
			return fmt.Errorf("flows[%d]: name is required", i)
		}
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server: invalid port %d", c.Server.Port)
	}
	if _, err := cron.ParseStandard(c.Server.StatusInterval); err != nil {
		return fmt.Errorf("server: invalid status_interval %q: %w", c.Server.StatusInterval, err)
	}

	return nil
}

// Patterns parses assistant.enabled_patterns
func (c *Config) Patterns() ([]workflow.PatternType, error) {
	out := make([]workflow.PatternType, 0, len(c.Assistant.EnabledPatterns))
	for _, name := range c.Assistant.EnabledPatterns {
		p, err := workflow.ParsePattern(name)
		if err != nil {
			return nil, fmt.Errorf("assistant.enabled_patterns: %w", err)
		}
		out = append(out, p)
	}
	return out, nil
}
