package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the server configuration, loaded from YAML with environment
// overrides for the values that differ per deployment.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Auth    AuthConfig    `yaml:"auth"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// StorageConfig selects and configures the project store backend.
type StorageConfig struct {
	// Backend is "filesystem" or "postgres".
	Backend string `yaml:"backend"`
	// DataDir holds project documents for the filesystem backend.
	DataDir string `yaml:"data_dir"`
	// DatabaseURL is the connection string for the postgres backend.
	DatabaseURL string `yaml:"database_url"`
	// Compress writes snappy-compressed project documents.
	Compress bool `yaml:"compress"`
}

// AuthConfig configures session tokens. An empty JWTSecret runs the API
// open, which suits single-user desktop deployments.
type AuthConfig struct {
	JWTSecret     string        `yaml:"jwt_secret"`
	TokenLifetime time.Duration `yaml:"token_lifetime"`
	UsersFile     string        `yaml:"users_file"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			Backend: "filesystem",
			DataDir: "./data",
		},
		Auth: AuthConfig{
			TokenLifetime: 12 * time.Hour,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads a YAML config file, applies defaults for unset values, then
// environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PATCHBAY_DATABASE_URL"); v != "" {
		c.Storage.DatabaseURL = v
	}
	if v := os.Getenv("PATCHBAY_JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("PATCHBAY_DATA_DIR"); v != "" {
		c.Storage.DataDir = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// Validate checks the configuration, collecting all problems before
// reporting.
func (c *Config) Validate() error {
	v := NewValidator("Config")
	v.RangeInt("server.port", c.Server.Port, 1, 65535)
	v.MinDuration("server.read_timeout", c.Server.ReadTimeout, time.Second)
	v.MinDuration("server.shutdown_timeout", c.Server.ShutdownTimeout, time.Second)
	v.OneOf("storage.backend", c.Storage.Backend, []string{"filesystem", "postgres"})
	if c.Storage.Backend == "filesystem" {
		v.Required("storage.data_dir", c.Storage.DataDir)
	}
	if c.Storage.Backend == "postgres" {
		v.Required("storage.database_url", c.Storage.DatabaseURL)
	}
	if c.Auth.JWTSecret != "" {
		v.MinDuration("auth.token_lifetime", c.Auth.TokenLifetime, time.Minute)
	}
	v.OneOf("log.level", c.Log.Level, []string{"debug", "info", "warn", "error"})
	return v.Err()
}
