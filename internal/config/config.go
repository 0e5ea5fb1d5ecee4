// Package config loads the root service configuration from TOML files and
// environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/panolabel/panolabel/internal/annotations"
	"github.com/panolabel/panolabel/internal/dataset"
	"github.com/panolabel/panolabel/internal/session"
	"github.com/panolabel/panolabel/pkg/blobstore"
	"github.com/panolabel/panolabel/pkg/database"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvPanolabelEnv             = "PANOLABEL_ENV"
	EnvPanolabelShutdownTimeout = "PANOLABEL_SHUTDOWN_TIMEOUT"
	EnvPanolabelVersion         = "PANOLABEL_VERSION"
)

var databaseEnv = &database.Env{
	Host:            "PANOLABEL_DB_HOST",
	Port:            "PANOLABEL_DB_PORT",
	Name:            "PANOLABEL_DB_NAME",
	User:            "PANOLABEL_DB_USER",
	Password:        "PANOLABEL_DB_PASSWORD",
	SSLMode:         "PANOLABEL_DB_SSL_MODE",
	MaxOpenConns:    "PANOLABEL_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "PANOLABEL_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "PANOLABEL_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "PANOLABEL_DB_CONN_TIMEOUT",
}

var archiveEnv = &blobstore.Env{
	Enabled:          "PANOLABEL_ARCHIVE_ENABLED",
	ContainerName:    "PANOLABEL_ARCHIVE_CONTAINER_NAME",
	ConnectionString: "PANOLABEL_ARCHIVE_CONNECTION_STRING",
	MaxListSize:      "PANOLABEL_ARCHIVE_MAX_LIST_SIZE",
}

var datasetEnv = &dataset.Env{
	URL:              "PANOLABEL_DATASET_URL",
	Path:             "PANOLABEL_DATASET_PATH",
	RequestTimeout:   "PANOLABEL_DATASET_REQUEST_TIMEOUT",
	Watch:            "PANOLABEL_DATASET_WATCH",
	PlaceholderCount: "PANOLABEL_DATASET_PLACEHOLDER_COUNT",
}

var annotationsEnv = &annotations.Env{
	Dir:          "PANOLABEL_ANNOTATIONS_DIR",
	Key:          "PANOLABEL_ANNOTATIONS_KEY",
	StoreTimeout: "PANOLABEL_ANNOTATIONS_STORE_TIMEOUT",
}

var sessionEnv = &session.Env{
	AutoSaveDebounce: "PANOLABEL_SESSION_AUTO_SAVE_DEBOUNCE",
	SaveTimeout:      "PANOLABEL_SESSION_SAVE_TIMEOUT",
}

// Config is the root configuration for the annotation service.
type Config struct {
	Server          ServerConfig        `toml:"server"`
	Database        database.Config     `toml:"database"`
	Archive         blobstore.Config    `toml:"archive"`
	Dataset         dataset.Config      `toml:"dataset"`
	Annotations     annotations.Config  `toml:"annotations"`
	Session         session.Config      `toml:"session"`
	API             APIConfig           `toml:"api"`
	ShutdownTimeout string              `toml:"shutdown_timeout"`
	Version         string              `toml:"version"`
}

// Env returns the PANOLABEL_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvPanolabelEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Archive.Merge(&overlay.Archive)
	c.Dataset.Merge(&overlay.Dataset)
	c.Annotations.Merge(&overlay.Annotations)
	c.Session.Merge(&overlay.Session)
	c.API.Merge(&overlay.API)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Archive.Finalize(archiveEnv); err != nil {
		return fmt.Errorf("archive: %w", err)
	}
	if err := c.Dataset.Finalize(datasetEnv); err != nil {
		return fmt.Errorf("dataset: %w", err)
	}
	if err := c.Annotations.Finalize(annotationsEnv); err != nil {
		return fmt.Errorf("annotations: %w", err)
	}
	if err := c.Session.Finalize(sessionEnv); err != nil {
		return fmt.Errorf("session: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvPanolabelShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvPanolabelVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvPanolabelEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
