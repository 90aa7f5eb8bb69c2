// Package config holds the rtjson configuration file format, its defaults
// and its validation rules.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/FocuswithJustin/rtjson/core/errors"
	"github.com/FocuswithJustin/rtjson/core/rtjson"
)

// CurrentConfigVersion marks the supported config version.
const CurrentConfigVersion = 1

// Config is the top-level application configuration.
type Config struct {
	ConfigVersion int            `mapstructure:"config_version" yaml:"config_version"`
	Encoding      EncodingConfig `mapstructure:"encoding" yaml:"encoding"`
	Library       LibraryConfig  `mapstructure:"library" yaml:"library"`
	Server        ServerConfig   `mapstructure:"server" yaml:"server"`
	Logging       LoggingConfig  `mapstructure:"logging" yaml:"logging"`
}

// EncodingConfig mirrors rtjson.Options plus an input size cap.
type EncodingConfig struct {
	TagFilter      bool `mapstructure:"tag_filter" yaml:"tag_filter"`
	HardBreaks     bool `mapstructure:"hard_breaks" yaml:"hard_breaks"`
	SplitCodeLines bool `mapstructure:"split_code_lines" yaml:"split_code_lines"`
	MaxDepth       int  `mapstructure:"max_depth" yaml:"max_depth"`
	MaxInputBytes  int  `mapstructure:"max_input_bytes" yaml:"max_input_bytes"`
}

// Options converts the section into encoder options.
func (e EncodingConfig) Options() rtjson.Options {
	return rtjson.Options{
		TagFilter:      e.TagFilter,
		HardBreaks:     e.HardBreaks,
		SplitCodeLines: e.SplitCodeLines,
		MaxDepth:       e.MaxDepth,
	}
}

// LibraryConfig locates the document library and sizes its read cache.
type LibraryConfig struct {
	Dir                 string `mapstructure:"dir" yaml:"dir"`
	CacheTTLSeconds     int    `mapstructure:"cache_ttl_seconds" yaml:"cache_ttl_seconds"`
	CacheCleanupSeconds int    `mapstructure:"cache_cleanup_seconds" yaml:"cache_cleanup_seconds"`
}

// ServerConfig configures the HTTP and WebSocket server.
type ServerConfig struct {
	Addr                string     `mapstructure:"addr" yaml:"addr"`
	ReadTimeoutSeconds  int        `mapstructure:"read_timeout_seconds" yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int        `mapstructure:"write_timeout_seconds" yaml:"write_timeout_seconds"`
	RateLimitRequests   int        `mapstructure:"rate_limit_requests" yaml:"rate_limit_requests"`
	RateLimitBurst      int        `mapstructure:"rate_limit_burst" yaml:"rate_limit_burst"`
	WSMessagesPerSecond int        `mapstructure:"ws_messages_per_second" yaml:"ws_messages_per_second"`
	AllowedOrigins      []string   `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	Auth                AuthConfig `mapstructure:"auth" yaml:"auth"`
	TLS                 TLSConfig  `mapstructure:"tls" yaml:"tls"`
}

// AuthConfig enables API key authentication.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	APIKey  string `mapstructure:"api_key" yaml:"api_key"`
}

// TLSConfig holds TLS/HTTPS configuration.
type TLSConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	CertFile string `mapstructure:"cert_file" yaml:"cert_file"`
	KeyFile  string `mapstructure:"key_file" yaml:"key_file"`
}

// LoggingConfig selects the log level and format, and optionally a
// rotating log file.
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	Format     string `mapstructure:"format" yaml:"format"`
	File       string `mapstructure:"file" yaml:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// Default returns a config with sensible defaults.
func Default() Config {
	return Config{
		ConfigVersion: CurrentConfigVersion,
		Encoding: EncodingConfig{
			SplitCodeLines: true,
			MaxDepth:       rtjson.DefaultMaxDepth,
			MaxInputBytes:  10 << 20,
		},
		Library: LibraryConfig{
			Dir:                 filepath.Join(dataHome(), "rtjson"),
			CacheTTLSeconds:     300,
			CacheCleanupSeconds: 600,
		},
		Server: ServerConfig{
			Addr:                "127.0.0.1:8080",
			ReadTimeoutSeconds:  15,
			WriteTimeoutSeconds: 15,
			RateLimitRequests:   120,
			RateLimitBurst:      20,
			WSMessagesPerSecond: 10,
			AllowedOrigins:      []string{},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// dataHome follows the XDG base directory convention.
func dataHome() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return dir
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share")
	}
	return "."
}

// DefaultConfigPath returns the standard config path.
func DefaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "rtjson", "config.yaml"), nil
}

var (
	validLevels  = []string{"debug", "info", "warn", "error"}
	validFormats = []string{"text", "json"}
)

// Validate reports the first invalid setting as a ValidationError.
func (c Config) Validate() error {
	if c.ConfigVersion != CurrentConfigVersion {
		return invalid("config_version", fmt.Sprintf("unsupported version %d; expected %d", c.ConfigVersion, CurrentConfigVersion))
	}
	if c.Encoding.MaxDepth < 0 {
		return invalid("encoding.max_depth", "must not be negative")
	}
	if c.Encoding.MaxInputBytes < 0 {
		return invalid("encoding.max_input_bytes", "must not be negative")
	}
	if strings.TrimSpace(c.Library.Dir) == "" {
		return invalid("library.dir", "is required")
	}
	if c.Library.CacheTTLSeconds < 0 {
		return invalid("library.cache_ttl_seconds", "must not be negative")
	}
	if strings.TrimSpace(c.Server.Addr) == "" {
		return invalid("server.addr", "is required")
	}
	if c.Server.RateLimitRequests < 0 || c.Server.RateLimitBurst < 0 {
		return invalid("server.rate_limit_requests", "rate limits must not be negative")
	}
	if c.Server.WSMessagesPerSecond < 0 {
		return invalid("server.ws_messages_per_second", "must not be negative")
	}
	if c.Server.Auth.Enabled {
		if c.Server.Auth.APIKey == "" {
			return invalid("server.auth.api_key", "is required when authentication is enabled")
		}
		if len(c.Server.Auth.APIKey) < 16 {
			return invalid("server.auth.api_key", fmt.Sprintf("must be at least 16 characters (got %d)", len(c.Server.Auth.APIKey)))
		}
	}
	if c.Server.TLS.Enabled && (c.Server.TLS.CertFile == "" || c.Server.TLS.KeyFile == "") {
		return invalid("server.tls", "cert_file and key_file are required when TLS is enabled")
	}
	if !contains(validLevels, c.Logging.Level) {
		return invalid("logging.level", fmt.Sprintf("must be one of %s", strings.Join(validLevels, ", ")))
	}
	if !contains(validFormats, c.Logging.Format) {
		return invalid("logging.format", fmt.Sprintf("must be one of %s", strings.Join(validFormats, ", ")))
	}
	return nil
}

func invalid(field, msg string) error {
	return errors.NewValidation(field, msg)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
