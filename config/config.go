package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete CanvasFlow service configuration.
type Config struct {
	// Server is the HTTP server configuration.
	Server ServerConfig `yaml:"server"`

	// Database is the workflow store configuration.
	Database DatabaseConfig `yaml:"database"`

	// Redis is the optional document cache configuration.
	Redis RedisConfig `yaml:"redis"`

	// Editor tunes the graph-editing core.
	Editor EditorConfig `yaml:"editor"`

	// Log is the logging configuration.
	Log LogConfig `yaml:"log"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string   `yaml:"addr"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	IdleTimeout     Duration `yaml:"idle_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig configures the SQLite workflow store.
type DatabaseConfig struct {
	// Path is the SQLite database file. ":memory:" keeps everything in
	// process, which the tests use.
	Path string `yaml:"path"`
}

// RedisConfig configures the document read cache. Leaving Addr empty
// disables caching.
type RedisConfig struct {
	Addr     string   `yaml:"addr"`
	Password string   `yaml:"password"`
	DB       int      `yaml:"db"`
	TTL      Duration `yaml:"ttl"`
}

// EditorConfig tunes the graph store.
type EditorConfig struct {
	// BumpDelay is the delay before the trailing handle-version bump.
	BumpDelay Duration `yaml:"bump_delay"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
	// Development switches to the human-readable console encoder.
	Development bool `yaml:"development"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     Duration(30 * time.Second),
			WriteTimeout:    Duration(30 * time.Second),
			IdleTimeout:     Duration(120 * time.Second),
			ShutdownTimeout: Duration(30 * time.Second),
		},
		Database: DatabaseConfig{Path: "workflows.db"},
		Redis:    RedisConfig{TTL: Duration(5 * time.Minute)},
		Editor:   EditorConfig{BumpDelay: Duration(60 * time.Millisecond)},
		Log:      LogConfig{Level: "info"},
	}
}

// Load reads configuration with the priority defaults → YAML file →
// environment. An empty path skips the file; a missing file at an explicit
// path is an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

// applyEnv overrides selected fields from CANVASFLOW_* variables.
func (c *Config) applyEnv() {
	if v := os.Getenv("CANVASFLOW_SERVER_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("CANVASFLOW_DATABASE_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("CANVASFLOW_REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("CANVASFLOW_REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			c.Redis.DB = db
		}
	}
	if v := os.Getenv("CANVASFLOW_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}
