package dataset

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds canonical dataset source settings. URL takes precedence over
// Path when both are set; neither being set means every load falls through
// to placeholder data.
type Config struct {
	URL              string `toml:"url"`
	Path             string `toml:"path"`
	RequestTimeout   string `toml:"request_timeout"`
	Watch            bool   `toml:"watch"`
	PlaceholderCount int    `toml:"placeholder_count"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	URL              string
	Path             string
	RequestTimeout   string
	Watch            string
	PlaceholderCount string
}

// RequestTimeoutDuration returns RequestTimeout as a time.Duration.
func (c *Config) RequestTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.RequestTimeout)
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

// Merge overwrites non-zero fields from overlay. Watch always applies.
func (c *Config) Merge(overlay *Config) {
	c.Watch = overlay.Watch

	if overlay.URL != "" {
		c.URL = overlay.URL
	}
	if overlay.Path != "" {
		c.Path = overlay.Path
	}
	if overlay.RequestTimeout != "" {
		c.RequestTimeout = overlay.RequestTimeout
	}
	if overlay.PlaceholderCount != 0 {
		c.PlaceholderCount = overlay.PlaceholderCount
	}
}

func (c *Config) loadDefaults() {
	if c.URL == "" && c.Path == "" {
		c.Path = "assets/captions_v1.json"
	}
	if c.RequestTimeout == "" {
		c.RequestTimeout = "10s"
	}
	if c.PlaceholderCount == 0 {
		c.PlaceholderCount = DefaultPlaceholderCount
	}
}

func (c *Config) loadEnv(env *Env) {
	if v := os.Getenv(env.URL); v != "" {
		c.URL = v
	}
	if v := os.Getenv(env.Path); v != "" {
		c.Path = v
	}
	if v := os.Getenv(env.RequestTimeout); v != "" {
		c.RequestTimeout = v
	}
	if env.Watch != "" {
		if v := os.Getenv(env.Watch); v != "" {
			if watch, err := strconv.ParseBool(v); err == nil {
				c.Watch = watch
			}
		}
	}
	if env.PlaceholderCount != "" {
		if v := os.Getenv(env.PlaceholderCount); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				c.PlaceholderCount = n
			}
		}
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.RequestTimeout); err != nil {
		return fmt.Errorf("invalid request_timeout: %w", err)
	}
	if c.PlaceholderCount < 1 {
		return fmt.Errorf("placeholder_count must be positive")
	}
	return nil
}
