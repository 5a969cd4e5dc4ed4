package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// FileEnv names the environment variable holding an optional config file path.
const FileEnv = "IPCD_CONFIG"

// Config holds all daemon configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" toml:"server" json:"server"`
	Kernel    KernelConfig    `yaml:"kernel" toml:"kernel" json:"kernel"`
	Logging   LogConfig       `yaml:"logging" toml:"logging" json:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit" toml:"rate_limit" json:"rate_limit"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" yaml:"port" toml:"port" json:"port"`
	Host string `envconfig:"HOST" yaml:"host" toml:"host" json:"host"`
	// MaxConns caps concurrent connections; 0 means unlimited.
	MaxConns int `envconfig:"MAX_CONNS" yaml:"max_conns" toml:"max_conns" json:"max_conns"`
	// CORSOrigins lists browser origins allowed to call the API; "*" allows any.
	CORSOrigins []string `envconfig:"CORS_ORIGINS" yaml:"cors_origins" toml:"cors_origins" json:"cors_origins"`
}

// KernelConfig sizes the IPC core.
type KernelConfig struct {
	PipeCapacity int `envconfig:"IPC_PIPE_CAPACITY" yaml:"pipe_capacity" toml:"pipe_capacity" json:"pipe_capacity"`
	MaxFDs       int `envconfig:"IPC_MAX_FDS" yaml:"max_fds" toml:"max_fds" json:"max_fds"`
	MaxEvents    int `envconfig:"IPC_MAX_EVENTS" yaml:"max_events" toml:"max_events" json:"max_events"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" yaml:"level" toml:"level" json:"level"`
	Development bool   `envconfig:"LOG_DEV" yaml:"development" toml:"development" json:"development"`
	// Outputs are zap sink paths; empty means stdout.
	Outputs  []string `envconfig:"LOG_OUTPUTS" yaml:"outputs" toml:"outputs" json:"outputs"`
	Sampling bool     `envconfig:"LOG_SAMPLING" yaml:"sampling" toml:"sampling" json:"sampling"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" yaml:"rps" toml:"rps" json:"rps"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" yaml:"burst" toml:"burst" json:"burst"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" yaml:"enabled" toml:"enabled" json:"enabled"`
	// GlobalRPS caps requests across all clients; 0 disables it.
	GlobalRPS int `envconfig:"RATE_LIMIT_GLOBAL_RPS" yaml:"global_rps" toml:"global_rps" json:"global_rps"`
}

// Load builds configuration from defaults, then the file named by
// IPCD_CONFIG if set, then environment variables.
func Load() (*Config, error) {
	return LoadWithFile(os.Getenv(FileEnv))
}

// LoadWithFile is Load with an explicit config file path. An empty path skips
// the file layer.
func LoadWithFile(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        "8000",
			Host:        "0.0.0.0",
			MaxConns:    1024,
			CORSOrigins: []string{"*"},
		},
		Kernel: KernelConfig{
			PipeCapacity: 1024,
			MaxFDs:       1024,
			MaxEvents:    1024,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}

// Validate rejects sizes the kernel cannot work with.
func (c *Config) Validate() error {
	if c.Kernel.PipeCapacity <= 0 {
		return fmt.Errorf("invalid pipe capacity %d", c.Kernel.PipeCapacity)
	}
	if c.Kernel.MaxFDs <= 0 {
		return fmt.Errorf("invalid descriptor limit %d", c.Kernel.MaxFDs)
	}
	if c.Kernel.MaxEvents <= 0 {
		return fmt.Errorf("invalid max events %d", c.Kernel.MaxEvents)
	}
	if c.Server.MaxConns < 0 {
		return fmt.Errorf("invalid connection limit %d", c.Server.MaxConns)
	}
	return nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	case ".toml":
		err = toml.Unmarshal(data, c)
	case ".json":
		err = sonic.Unmarshal(data, c)
	default:
		return fmt.Errorf("unsupported config file type %q", ext)
	}
	if err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}
