package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"finance/internal/core"
	applog "finance/internal/log"
)

// EnvConfigFile names the environment variable pointing at a TOML config file.
const EnvConfigFile = "FINANCE_CONFIG"

var validBackends = []string{"memory", "file", "sqlite"}

type Config struct {
	// HTTP Server
	Port            string
	ShutdownTimeout time.Duration
	// TrustedProxies are CIDRs whose forwarding headers are believed, in
	// addition to loopback and private ranges.
	TrustedProxies []string

	// Storage
	DataBackend   string
	StorageKey    string
	SQLiteDBPath  string
	DataDirectory string

	// Ledger
	SpendingCap      string
	DescriptionRules string

	// Filter pattern cache
	PatternCacheSize int
	PatternCacheTTL  time.Duration

	LogLevel string

	// File is the config file that was read, if any.
	File string
}

// fileConfig mirrors Config as it appears in the TOML file. Durations are
// strings such as "10m".
type fileConfig struct {
	Port             string   `toml:"port"`
	ShutdownTimeout  string   `toml:"shutdown_timeout"`
	TrustedProxies   []string `toml:"trusted_proxies"`
	DataBackend      string   `toml:"data_backend"`
	StorageKey       string   `toml:"storage_key"`
	SQLiteDBPath     string   `toml:"sqlite_db_path"`
	DataDirectory    string   `toml:"data_directory"`
	SpendingCap      string   `toml:"spending_cap"`
	DescriptionRules string   `toml:"description_rules"`
	PatternCacheSize int      `toml:"pattern_cache_size"`
	PatternCacheTTL  string   `toml:"pattern_cache_ttl"`
	LogLevel         string   `toml:"log_level"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	return &Config{
		Port:             "8081",
		ShutdownTimeout:  10 * time.Second,
		DataBackend:      "file",
		StorageKey:       "finance:data",
		SQLiteDBPath:     "./data/finance.db",
		DataDirectory:    "./data",
		SpendingCap:      "500",
		DescriptionRules: core.RulesStandard,
		PatternCacheSize: 128,
		PatternCacheTTL:  10 * time.Minute,
		LogLevel:         "info",
	}
}

// Load builds the configuration from defaults, then the TOML file named by
// FINANCE_CONFIG (or the user config directory), then environment variables.
func Load() (*Config, error) {
	return LoadFrom(os.Getenv(EnvConfigFile))
}

// LoadFrom is Load with an explicit config file path. An empty path falls
// back to the default location, which may be absent. An explicit path must
// exist.
func LoadFrom(path string) (*Config, error) {
	cfg := Defaults()

	explicit := path != ""
	if !explicit {
		path = DefaultFilePath()
	}
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			if explicit || !errors.Is(err, fs.ErrNotExist) {
				return nil, err
			}
		} else {
			cfg.File = path
		}
	}

	cfg.mergeEnv()
	return cfg, nil
}

// DefaultFilePath returns <user config dir>/finance/config.toml.
func DefaultFilePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "finance", "config.toml")
}

func (c *Config) mergeFile(path string) error {
	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	setString(&c.Port, fc.Port)
	setString(&c.DataBackend, fc.DataBackend)
	setString(&c.StorageKey, fc.StorageKey)
	setString(&c.SQLiteDBPath, fc.SQLiteDBPath)
	setString(&c.DataDirectory, fc.DataDirectory)
	setString(&c.SpendingCap, fc.SpendingCap)
	setString(&c.DescriptionRules, fc.DescriptionRules)
	setString(&c.LogLevel, fc.LogLevel)
	if len(fc.TrustedProxies) > 0 {
		c.TrustedProxies = fc.TrustedProxies
	}
	if fc.PatternCacheSize != 0 {
		c.PatternCacheSize = fc.PatternCacheSize
	}

	var errs []error
	if fc.ShutdownTimeout != "" {
		d, err := time.ParseDuration(fc.ShutdownTimeout)
		if err != nil {
			errs = append(errs, fmt.Errorf("shutdown_timeout: %w", err))
		}
		c.ShutdownTimeout = d
	}
	if fc.PatternCacheTTL != "" {
		d, err := time.ParseDuration(fc.PatternCacheTTL)
		if err != nil {
			errs = append(errs, fmt.Errorf("pattern_cache_ttl: %w", err))
		}
		c.PatternCacheTTL = d
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) mergeEnv() {
	c.Port = getEnv("PORT", c.Port)
	c.ShutdownTimeout = getEnvDuration("SHUTDOWN_TIMEOUT", c.ShutdownTimeout)
	c.DataBackend = getEnv("DATA_BACKEND", c.DataBackend)
	c.StorageKey = getEnv("STORAGE_KEY", c.StorageKey)
	c.SQLiteDBPath = getEnv("SQLITE_DB_PATH", c.SQLiteDBPath)
	c.DataDirectory = getEnv("DATA_DIRECTORY", c.DataDirectory)
	c.SpendingCap = getEnv("SPENDING_CAP", c.SpendingCap)
	c.DescriptionRules = getEnv("DESCRIPTION_RULES", c.DescriptionRules)
	c.PatternCacheSize = getEnvInt("PATTERN_CACHE_SIZE", c.PatternCacheSize)
	c.PatternCacheTTL = getEnvDuration("PATTERN_CACHE_TTL", c.PatternCacheTTL)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.TrustedProxies = getEnvList("TRUSTED_PROXIES", c.TrustedProxies)
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}
	switch c.DataBackend {
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		}
	case "file":
		if c.DataDirectory == "" {
			errors = append(errors, "data directory cannot be empty when using file backend")
		}
	}

	if strings.TrimSpace(c.StorageKey) == "" {
		errors = append(errors, "storage key cannot be empty")
	}

	if _, err := c.SpendingCapMoney(); err != nil {
		errors = append(errors, fmt.Sprintf("invalid spending cap '%s': must be a non-negative amount", c.SpendingCap))
	}

	if _, ok := core.RulesByName(c.DescriptionRules); !ok {
		errors = append(errors, fmt.Sprintf("invalid description rules '%s': must be one of [%s %s]",
			c.DescriptionRules, core.RulesStandard, core.RulesStrict))
	}

	if c.PatternCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid pattern cache size %d: must be at least 1", c.PatternCacheSize))
	}
	if c.PatternCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid pattern cache ttl %v: must not be negative", c.PatternCacheTTL))
	}

	if _, err := applog.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of [debug info warn error]", c.LogLevel))
	}

	for _, cidr := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			errors = append(errors, fmt.Sprintf("invalid trusted proxy '%s': must be a CIDR such as 203.0.113.0/24", cidr))
		}
	}

	if c.ShutdownTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid shutdown timeout %v: must be at least 1 second", c.ShutdownTimeout))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// SpendingCapMoney parses the spending cap.
func (c *Config) SpendingCapMoney() (core.Money, error) {
	m, err := core.ParseAmount(strings.TrimSpace(c.SpendingCap))
	if err != nil {
		return core.Zero, err
	}
	if m.IsNegative() {
		return core.Zero, fmt.Errorf("%w: negative spending cap", core.ErrInvalidAmount)
	}
	return m, nil
}

// Rules returns the configured description rule set, falling back to the
// standard rules for unknown names.
func (c *Config) Rules() core.RuleSet {
	rs, ok := core.RulesByName(c.DescriptionRules)
	if !ok {
		return core.DefaultRules()
	}
	return rs
}

// Level returns the configured slog level.
func (c *Config) Level() slog.Level {
	lvl, _ := applog.ParseLevel(c.LogLevel)
	return lvl
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList splits a comma-separated variable, dropping empty items.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
