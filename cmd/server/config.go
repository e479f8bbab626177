package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/hrnexus/nexus-web-ui/internal/handlers"
	"github.com/hrnexus/nexus-web-ui/internal/services"
	"gopkg.in/yaml.v3"
)

// sessionStore is handlers.Store plus the Close the drivers need on shutdown.
type sessionStore interface {
	handlers.Store
	Close() error
}

// storeConfig builds the session store the config file selected through store.driver.
type storeConfig interface {
	store(ctx context.Context) (sessionStore, error)
}

type config struct {
	Port       string      `yaml:"port"`
	BackendURL string      `yaml:"backendURL"`
	LogLevel   string      `yaml:"logLevel"`
	Store      storeConfig `yaml:"store"`
}

type boltConfig struct {
	Path string `yaml:"path"`
}

type redisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type memoryConfig struct{}

func (c *config) UnmarshalYAML(value *yaml.Node) error {
	var rawConfig struct {
		Port       string         `yaml:"port"`
		BackendURL string         `yaml:"backendURL"`
		LogLevel   string         `yaml:"logLevel"`
		Store      map[string]any `yaml:"store"`
	}

	if err := value.Decode(&rawConfig); err != nil {
		return err
	}

	c.Port = rawConfig.Port
	c.BackendURL = rawConfig.BackendURL
	c.LogLevel = rawConfig.LogLevel

	if rawConfig.Store == nil {
		c.Store = boltConfig{}
		return nil
	}

	driver, ok := rawConfig.Store["driver"].(string)
	if !ok {
		return fmt.Errorf("store driver is required")
	}

	storeRawYAML, err := yaml.Marshal(rawConfig.Store)
	if err != nil {
		return err
	}

	var store storeConfig
	switch driver {
	case "bolt":
		store = &boltConfig{}
	case "redis":
		store = &redisConfig{}
	case "memory":
		store = &memoryConfig{}
	default:
		return fmt.Errorf("unknown store driver: %s", driver)
	}

	if err := yaml.Unmarshal(storeRawYAML, store); err != nil {
		return err
	}

	c.Store = store
	return nil
}

// loadConfig reads the YAML config, looking at NEXUS_CONFIG first and the user config
// directory second. A missing file is not an error: environment variables cover every
// setting the file would.
func loadConfig() (config, error) {
	path := os.Getenv("NEXUS_CONFIG")
	if path == "" {
		cfgDir, err := os.UserConfigDir()
		if err != nil {
			return config{}, fmt.Errorf("error getting user config dir: %w", err)
		}
		path = filepath.Join(cfgDir, "hrnexus", "config.yaml")
	}

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return config{Store: boltConfig{}}, nil
	}
	if err != nil {
		return config{}, fmt.Errorf("error opening config file: %w", err)
	}
	defer f.Close()

	cfg := config{}
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return config{Store: boltConfig{}}, nil
		}
		return config{}, fmt.Errorf("error decoding config file: %w", err)
	}
	if cfg.Store == nil {
		cfg.Store = boltConfig{}
	}
	return cfg, nil
}

func (c config) port() string {
	if c.Port != "" {
		return c.Port
	}
	if port := os.Getenv("NEXUS_PORT"); port != "" {
		return port
	}
	return "8080"
}

func (c config) backendURL() string {
	if c.BackendURL != "" {
		return c.BackendURL
	}
	if u := os.Getenv("NEXUS_BACKEND_URL"); u != "" {
		return u
	}
	return "http://localhost:8000"
}

func (c config) slogLevel() slog.Level {
	level := c.LogLevel
	if level == "" {
		level = os.Getenv("NEXUS_LOG_LEVEL")
	}
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (b boltConfig) store(context.Context) (sessionStore, error) {
	path := b.Path
	if path == "" {
		cfgDir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("error getting user config dir: %w", err)
		}
		dir := filepath.Join(cfgDir, "hrnexus")
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("error creating config directory: %w", err)
		}
		path = filepath.Join(dir, "store.db")
	}
	return services.NewBoltDB(path)
}

func (r redisConfig) store(ctx context.Context) (sessionStore, error) {
	addr := r.Addr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}
	if addr == "" {
		addr = "localhost:6379"
	}
	password := r.Password
	if password == "" {
		password = os.Getenv("REDIS_PASSWORD")
	}
	return services.NewRedis(ctx, addr, password, r.DB)
}

func (memoryConfig) store(context.Context) (sessionStore, error) {
	return services.NewMemory(), nil
}
