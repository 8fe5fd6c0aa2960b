package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	DB        DBConfig        `yaml:"db"`
	Log       LogConfig       `yaml:"log"`
	Checklist ChecklistConfig `yaml:"checklist"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Activity  ActivityConfig  `yaml:"activity"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// Transport is "stdio" or "http".
	Transport string `yaml:"transport"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path"`
}

type ChecklistConfig struct {
	// CommitConcurrency bounds parallel record commits; 1 is sequential.
	CommitConcurrency int `yaml:"commit_concurrency"`
}

type CatalogConfig struct {
	ID string `yaml:"id"`
}

type ActivityConfig struct {
	// Retention prunes older activity at startup; zero keeps everything.
	Retention time.Duration `yaml:"retention"`
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host:      "127.0.0.1",
			Port:      8080,
			Transport: "stdio",
		},
		DB: DBConfig{
			Path: "sitebook.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Checklist: ChecklistConfig{
			CommitConcurrency: 1,
		},
		Catalog: CatalogConfig{
			ID: "main",
		},
	}

	if path := os.Getenv("SITEBOOK_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if host := os.Getenv("SITEBOOK_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("SITEBOOK_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SITEBOOK_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if transport := os.Getenv("SITEBOOK_TRANSPORT"); transport != "" {
		cfg.Server.Transport = transport
	}
	if dbPath := os.Getenv("SITEBOOK_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if level := os.Getenv("SITEBOOK_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if logPath := os.Getenv("SITEBOOK_LOG_PATH"); logPath != "" {
		cfg.Log.Path = logPath
	}
	if n := os.Getenv("SITEBOOK_COMMIT_CONCURRENCY"); n != "" {
		concurrency, err := strconv.Atoi(n)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SITEBOOK_COMMIT_CONCURRENCY: %w", err)
		}
		cfg.Checklist.CommitConcurrency = concurrency
	}
	if catalogID := os.Getenv("SITEBOOK_CATALOG_ID"); catalogID != "" {
		cfg.Catalog.ID = catalogID
	}
	if retention := os.Getenv("SITEBOOK_ACTIVITY_RETENTION"); retention != "" {
		d, err := time.ParseDuration(retention)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SITEBOOK_ACTIVITY_RETENTION: %w", err)
		}
		cfg.Activity.Retention = d
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Server.Transport {
	case "stdio", "http":
	default:
		return fmt.Errorf("invalid transport %q: want stdio or http", c.Server.Transport)
	}
	if c.Checklist.CommitConcurrency < 1 {
		return fmt.Errorf("invalid commit concurrency %d: must be at least 1", c.Checklist.CommitConcurrency)
	}
	if c.Activity.Retention < 0 {
		return fmt.Errorf("invalid activity retention %s: must not be negative", c.Activity.Retention)
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
