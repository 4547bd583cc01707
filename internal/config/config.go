package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config represents the application configuration
type Config struct {
	Storage     StorageConfig     `mapstructure:"storage" yaml:"storage"`
	Concurrency ConcurrencyConfig `mapstructure:"concurrency" yaml:"concurrency"`
	Cache       CacheConfig       `mapstructure:"cache" yaml:"cache"`
	Rendering   RenderingConfig   `mapstructure:"rendering" yaml:"rendering"`
	Stealth     StealthConfig     `mapstructure:"stealth" yaml:"stealth"`
	Bridge      BridgeConfig      `mapstructure:"bridge" yaml:"bridge"`
	Exclude     []string          `mapstructure:"exclude" yaml:"exclude"`
	Logging     LoggingConfig     `mapstructure:"logging" yaml:"logging"`
}

// StorageConfig contains persistence settings
type StorageConfig struct {
	DatabasePath  string `mapstructure:"database_path" yaml:"database_path"`
	BlobDirectory string `mapstructure:"blob_directory" yaml:"blob_directory"`
}

// ConcurrencyConfig contains concurrency settings
type ConcurrencyConfig struct {
	Workers int           `mapstructure:"workers" yaml:"workers"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// CacheConfig contains fetch cache settings
type CacheConfig struct {
	Enabled   bool          `mapstructure:"enabled" yaml:"enabled"`
	TTL       time.Duration `mapstructure:"ttl" yaml:"ttl"`
	Directory string        `mapstructure:"directory" yaml:"directory"`
}

// RenderingConfig contains JavaScript rendering settings
type RenderingConfig struct {
	ForceJS     bool          `mapstructure:"force_js" yaml:"force_js"`
	JSTimeout   time.Duration `mapstructure:"js_timeout" yaml:"js_timeout"`
	ScrollToEnd bool          `mapstructure:"scroll_to_end" yaml:"scroll_to_end"`
}

// StealthConfig contains stealth mode settings
type StealthConfig struct {
	UserAgent      string        `mapstructure:"user_agent" yaml:"user_agent"`
	RandomDelayMin time.Duration `mapstructure:"random_delay_min" yaml:"random_delay_min"`
	RandomDelayMax time.Duration `mapstructure:"random_delay_max" yaml:"random_delay_max"`
}

// BridgeConfig contains child interpreter settings for the ML-backed
// extractor wrappers
type BridgeConfig struct {
	Interpreter string        `mapstructure:"interpreter" yaml:"interpreter"`
	ScriptDir   string        `mapstructure:"script_dir" yaml:"script_dir"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxPayload  string        `mapstructure:"max_payload" yaml:"max_payload"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Storage.DatabasePath == "" {
		c.Storage.DatabasePath = DatabasePath()
	}
	if c.Storage.BlobDirectory == "" {
		c.Storage.BlobDirectory = BlobDir()
	}
	if c.Concurrency.Workers < 1 {
		c.Concurrency.Workers = DefaultWorkers
	}
	if c.Concurrency.Timeout < time.Second {
		c.Concurrency.Timeout = DefaultTimeout
	}
	if c.Cache.TTL < time.Minute {
		c.Cache.TTL = DefaultCacheTTL
	}
	if c.Rendering.JSTimeout < time.Second {
		c.Rendering.JSTimeout = DefaultJSTimeout
	}
	if c.Bridge.Interpreter == "" {
		c.Bridge.Interpreter = DefaultBridgeInterpreter
	}
	if c.Bridge.Timeout < time.Second {
		c.Bridge.Timeout = DefaultBridgeTimeout
	}
	if c.Bridge.MaxPayload == "" {
		c.Bridge.MaxPayload = DefaultBridgeMaxPayload
	} else {
		if _, err := ParseSize(c.Bridge.MaxPayload); err != nil {
			return fmt.Errorf("invalid bridge.max_payload: %w", err)
		}
	}
	return nil
}

// MaxPayloadBytes returns the parsed bridge payload limit in bytes.
// Validate must have been called first.
func (c *Config) MaxPayloadBytes() int64 {
	n, err := ParseSize(c.Bridge.MaxPayload)
	if err != nil {
		n, _ = ParseSize(DefaultBridgeMaxPayload)
	}
	return n
}

func ParseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return 0, fmt.Errorf("empty size string")
	}

	var multiplier int64 = 1
	if strings.HasSuffix(s, "GB") {
		multiplier = 1024 * 1024 * 1024
		s = strings.TrimSuffix(s, "GB")
	} else if strings.HasSuffix(s, "MB") {
		multiplier = 1024 * 1024
		s = strings.TrimSuffix(s, "MB")
	} else if strings.HasSuffix(s, "KB") {
		multiplier = 1024
		s = strings.TrimSuffix(s, "KB")
	}

	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("no numeric value in size string")
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid numeric value: %w", err)
	}

	if n < 0 {
		return 0, fmt.Errorf("negative size not allowed")
	}

	return n * multiplier, nil
}
