package annotations

import (
	"fmt"
	"os"
	"time"
)

// Config holds annotation persistence settings.
type Config struct {
	// Dir is the directory holding the local annotation cache file.
	Dir string `toml:"dir"`
	// Key is the cache file name stem.
	Key string `toml:"key"`
	// StoreTimeout bounds individual remote store operations.
	StoreTimeout string `toml:"store_timeout"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Dir          string
	Key          string
	StoreTimeout string
}

// StoreTimeoutDuration returns StoreTimeout as a time.Duration.
func (c *Config) StoreTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.StoreTimeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Dir != "" {
		c.Dir = overlay.Dir
	}
	if overlay.Key != "" {
		c.Key = overlay.Key
	}
	if overlay.StoreTimeout != "" {
		c.StoreTimeout = overlay.StoreTimeout
	}
}

func (c *Config) loadDefaults() {
	if c.Dir == "" {
		c.Dir = "data"
	}
	if c.Key == "" {
		c.Key = "vqa_annotations"
	}
	if c.StoreTimeout == "" {
		c.StoreTimeout = "10s"
	}
}

func (c *Config) loadEnv(env *Env) {
	if v := os.Getenv(env.Dir); v != "" {
		c.Dir = v
	}
	if v := os.Getenv(env.Key); v != "" {
		c.Key = v
	}
	if v := os.Getenv(env.StoreTimeout); v != "" {
		c.StoreTimeout = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.StoreTimeout); err != nil {
		return fmt.Errorf("invalid store_timeout: %w", err)
	}
	return nil
}
