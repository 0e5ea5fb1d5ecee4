package session

import (
	"fmt"
	"os"
	"time"
)

// Config holds annotation session settings.
type Config struct {
	// AutoSaveDebounce is how long a session waits after the last edit
	// before persisting automatically.
	AutoSaveDebounce string `toml:"auto_save_debounce"`
	// SaveTimeout bounds each background save operation.
	SaveTimeout string `toml:"save_timeout"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	AutoSaveDebounce string
	SaveTimeout      string
}

// AutoSaveDebounceDuration returns AutoSaveDebounce as a time.Duration.
func (c *Config) AutoSaveDebounceDuration() time.Duration {
	d, _ := time.ParseDuration(c.AutoSaveDebounce)
	return d
}

// SaveTimeoutDuration returns SaveTimeout as a time.Duration.
func (c *Config) SaveTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.SaveTimeout)
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
	if overlay.AutoSaveDebounce != "" {
		c.AutoSaveDebounce = overlay.AutoSaveDebounce
	}
	if overlay.SaveTimeout != "" {
		c.SaveTimeout = overlay.SaveTimeout
	}
}

func (c *Config) loadDefaults() {
	if c.AutoSaveDebounce == "" {
		c.AutoSaveDebounce = "3s"
	}
	if c.SaveTimeout == "" {
		c.SaveTimeout = "10s"
	}
}

func (c *Config) loadEnv(env *Env) {
	if v := os.Getenv(env.AutoSaveDebounce); v != "" {
		c.AutoSaveDebounce = v
	}
	if v := os.Getenv(env.SaveTimeout); v != "" {
		c.SaveTimeout = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.AutoSaveDebounce); err != nil {
		return fmt.Errorf("invalid auto_save_debounce: %w", err)
	}
	if _, err := time.ParseDuration(c.SaveTimeout); err != nil {
		return fmt.Errorf("invalid save_timeout: %w", err)
	}
	return nil
}
