package config

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides: RTJSON_SERVER_ADDR sets
// server.addr.
const EnvPrefix = "RTJSON"

// DotEnvFile is read, when present, before environment overrides are
// applied. Variables already set in the environment win.
var DotEnvFile = ".env"

// Load reads configuration from path, falling back to DefaultConfigPath
// when path is empty. A missing file yields the defaults. Environment
// variables override file values.
func Load(path string) (Config, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return Config{}, err
		}
		path = defaultPath
	}

	if err := loadDotEnv(DotEnvFile); err != nil {
		return Config{}, err
	}

	cfg := Default()
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !stderrors.As(err, &notFound) && !stderrors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	cfg.Library.Dir = expandEnv(cfg.Library.Dir)
	cfg.Logging.File = expandEnv(cfg.Logging.File)
	cfg.Server.TLS.CertFile = expandEnv(cfg.Server.TLS.CertFile)
	cfg.Server.TLS.KeyFile = expandEnv(cfg.Server.TLS.KeyFile)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// setDefaults registers every key so that AutomaticEnv can override keys
// that the file does not mention.
func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("config_version", cfg.ConfigVersion)
	v.SetDefault("encoding.tag_filter", cfg.Encoding.TagFilter)
	v.SetDefault("encoding.hard_breaks", cfg.Encoding.HardBreaks)
	v.SetDefault("encoding.split_code_lines", cfg.Encoding.SplitCodeLines)
	v.SetDefault("encoding.max_depth", cfg.Encoding.MaxDepth)
	v.SetDefault("encoding.max_input_bytes", cfg.Encoding.MaxInputBytes)
	v.SetDefault("library.dir", cfg.Library.Dir)
	v.SetDefault("library.cache_ttl_seconds", cfg.Library.CacheTTLSeconds)
	v.SetDefault("library.cache_cleanup_seconds", cfg.Library.CacheCleanupSeconds)
	v.SetDefault("server.addr", cfg.Server.Addr)
	v.SetDefault("server.read_timeout_seconds", cfg.Server.ReadTimeoutSeconds)
	v.SetDefault("server.write_timeout_seconds", cfg.Server.WriteTimeoutSeconds)
	v.SetDefault("server.rate_limit_requests", cfg.Server.RateLimitRequests)
	v.SetDefault("server.rate_limit_burst", cfg.Server.RateLimitBurst)
	v.SetDefault("server.ws_messages_per_second", cfg.Server.WSMessagesPerSecond)
	v.SetDefault("server.allowed_origins", cfg.Server.AllowedOrigins)
	v.SetDefault("server.auth.enabled", cfg.Server.Auth.Enabled)
	v.SetDefault("server.auth.api_key", cfg.Server.Auth.APIKey)
	v.SetDefault("server.tls.enabled", cfg.Server.TLS.Enabled)
	v.SetDefault("server.tls.cert_file", cfg.Server.TLS.CertFile)
	v.SetDefault("server.tls.key_file", cfg.Server.TLS.KeyFile)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.max_size_mb", cfg.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", cfg.Logging.MaxBackups)
	v.SetDefault("logging.max_age_days", cfg.Logging.MaxAgeDays)
	v.SetDefault("logging.compress", cfg.Logging.Compress)
}

func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func expandEnv(value string) string {
	if value == "" {
		return value
	}
	return os.Expand(value, func(key string) string {
		if val, ok := os.LookupEnv(key); ok {
			return val
		}
		return "$" + key
	})
}

// Write writes cfg to path as YAML. An existing file is replaced only when
// overwrite is set.
func Write(path string, cfg Config, overwrite bool) (string, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return "", err
		}
		path = defaultPath
	}

	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("config already exists at %s", path)
		}
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}
