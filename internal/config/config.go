// Package config loads application settings from a YAML file with
// environment variable overrides. A .env file is honored in development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Agent      AgentConfig      `yaml:"agent"`
	Bedrock    BedrockConfig    `yaml:"bedrock"`
	Generation GenerationConfig `yaml:"generation"`
	Gate       GateConfig       `yaml:"gate"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig holds the HTTP listener and public-surface settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// APIKeys is the comma-separated x-api-key allow-list.
	APIKeys        string   `yaml:"api_keys"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	RateLimit      int      `yaml:"rate_limit"`
	RateWindowSecs int      `yaml:"rate_window_seconds"`
	SyncWaitSecs   int      `yaml:"sync_wait_seconds"`
	PublicBaseURL  string   `yaml:"public_base_url"`
}

// GetPort returns the configured port or the 8080 default.
func (s ServerConfig) GetPort() int {
	if s.Port == 0 {
		return 8080
	}
	return s.Port
}

// APIKeyList splits the comma-separated allow-list.
func (s ServerConfig) APIKeyList() []string {
	if s.APIKeys == "" {
		return nil
	}
	var keys []string
	for _, k := range strings.Split(s.APIKeys, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// RateWindow returns the rate-limit window as a duration.
func (s ServerConfig) RateWindow() time.Duration {
	if s.RateWindowSecs <= 0 {
		return time.Minute
	}
	return time.Duration(s.RateWindowSecs) * time.Second
}

// SyncWait returns how long plan requests block before going async.
func (s ServerConfig) SyncWait() time.Duration {
	if s.SyncWaitSecs <= 0 {
		return 25 * time.Second
	}
	return time.Duration(s.SyncWaitSecs) * time.Second
}

// DatabaseConfig holds the Postgres connection. An empty URL runs the
// server on in-memory stores.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// RedisConfig holds the Redis connection. An empty address disables Redis;
// unlock state, job records and locks then live in process memory.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// AgentConfig holds the hosted agent service connection.
type AgentConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	AgentID        string `yaml:"agent_id"`
	RequestTimeout int    `yaml:"request_timeout_seconds"`
}

// BedrockConfig selects the self-hosted Bedrock backend instead of the
// hosted agent service.
type BedrockConfig struct {
	Enabled bool   `yaml:"enabled"`
	ModelID string `yaml:"model_id"`
}

// GenerationConfig tunes the polling loop.
type GenerationConfig struct {
	PollIntervalSecs int `yaml:"poll_interval_seconds"`
	MaxAttempts      int `yaml:"max_attempts"`
	QuickMaxAttempts int `yaml:"quick_max_attempts"`
}

// PollInterval returns the poll interval as a duration.
func (g GenerationConfig) PollInterval() time.Duration {
	if g.PollIntervalSecs <= 0 {
		return 5 * time.Second
	}
	return time.Duration(g.PollIntervalSecs) * time.Second
}

// GateConfig holds the email gate and lead collector settings.
type GateConfig struct {
	CollectorURL       string `yaml:"collector_url"`
	QueueLimit         int    `yaml:"queue_limit"`
	Mode               string `yaml:"mode"`
	BlockFreeProviders bool   `yaml:"block_free_providers"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level     string `yaml:"level"`
	RedactPII *bool  `yaml:"redact_pii"`
}

// Load reads a YAML config file. A missing file is not an error: the
// zero config plus env overrides is a valid local setup.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadFromEnv loads the YAML file then applies environment overrides.
// A .env file in the working directory is read first if present.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT %q: %w", port, err)
		}
		cfg.Server.Port = p
	}
	if v := os.Getenv("API_KEYS"); v != "" {
		cfg.Server.APIKeys = v
	}
	if v := os.Getenv("PUBLIC_BASE_URL"); v != "" {
		cfg.Server.PublicBaseURL = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("AGENT_BASE_URL"); v != "" {
		cfg.Agent.BaseURL = v
	}
	if v := os.Getenv("AGENT_API_KEY"); v != "" {
		cfg.Agent.APIKey = v
	}
	if v := os.Getenv("AGENT_ID"); v != "" {
		cfg.Agent.AgentID = v
	}
	if v := os.Getenv("BEDROCK_MODEL_ID"); v != "" {
		cfg.Bedrock.Enabled = true
		cfg.Bedrock.ModelID = v
	}
	if v := os.Getenv("COLLECTOR_URL"); v != "" {
		cfg.Gate.CollectorURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	return cfg, nil
}
