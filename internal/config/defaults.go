package config

import (
	"os"
	"path/filepath"
	"time"
)

// Default values
const (
	// Concurrency defaults
	DefaultWorkers = 5
	DefaultTimeout = 30 * time.Second

	// Cache defaults
	DefaultCacheEnabled = true
	DefaultCacheTTL     = 24 * time.Hour

	// Rendering defaults
	DefaultJSTimeout   = 60 * time.Second
	DefaultScrollToEnd = true

	// Stealth defaults
	DefaultRandomDelayMin = 1 * time.Second
	DefaultRandomDelayMax = 3 * time.Second

	// Bridge defaults
	DefaultBridgeInterpreter = "python3"
	DefaultBridgeTimeout     = 2 * time.Minute
	DefaultBridgeMaxPayload  = "50MB"

	// Logging defaults
	DefaultLogLevel  = "info"
	DefaultLogFormat = "pretty"
)

// Default exclude patterns
var DefaultExcludePatterns = []string{
	`.*/login.*`,
	`.*/logout.*`,
	`.*/admin.*`,
	`.*/sign-in.*`,
	`.*/sign-up.*`,
}

// ConfigDir returns the config directory path
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".kbingest"
	}
	return filepath.Join(home, ".kbingest")
}

// CacheDir returns the cache directory path
func CacheDir() string {
	return filepath.Join(ConfigDir(), "cache")
}

// DatabasePath returns the default knowledge base database path
func DatabasePath() string {
	return filepath.Join(ConfigDir(), "kbingest.db")
}

// BlobDir returns the default raw content blob directory
func BlobDir() string {
	return filepath.Join(ConfigDir(), "blobs")
}

// ConfigFilePath returns the config file path
func ConfigFilePath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			DatabasePath:  DatabasePath(),
			BlobDirectory: BlobDir(),
		},
		Concurrency: ConcurrencyConfig{
			Workers: DefaultWorkers,
			Timeout: DefaultTimeout,
		},
		Cache: CacheConfig{
			Enabled:   DefaultCacheEnabled,
			TTL:       DefaultCacheTTL,
			Directory: CacheDir(),
		},
		Rendering: RenderingConfig{
			ForceJS:     false,
			JSTimeout:   DefaultJSTimeout,
			ScrollToEnd: DefaultScrollToEnd,
		},
		Stealth: StealthConfig{
			UserAgent:      "",
			RandomDelayMin: DefaultRandomDelayMin,
			RandomDelayMax: DefaultRandomDelayMax,
		},
		Bridge: BridgeConfig{
			Interpreter: DefaultBridgeInterpreter,
			ScriptDir:   "",
			Timeout:     DefaultBridgeTimeout,
			MaxPayload:  DefaultBridgeMaxPayload,
		},
		Exclude: DefaultExcludePatterns,
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
