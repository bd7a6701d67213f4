// Package config provides configuration management for the application.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/amaumene/gotpb/internal/constants"
	"github.com/amaumene/gotpb/pkg/logger"
	"github.com/amaumene/gotpb/pkg/security"
	"github.com/amaumene/gotpb/pkg/tpb"
	"github.com/amaumene/gotpb/pkg/tpb/query"
)

const (
	// Default configuration file name
	defaultConfigFile = "config.json"
)

// Duration reads "90s"-style strings or a number of seconds from JSON.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := parseDuration(s)
		if err != nil {
			return err
		}
		*d = Duration(parsed)
		return nil
	}

	var secs float64
	if err := json.Unmarshal(data, &secs); err != nil {
		return fmt.Errorf("duration must be a string or a number of seconds: %s", data)
	}
	*d = Duration(time.Duration(secs * float64(time.Second)))
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Config holds the application configuration.
// Values come from defaults, then an optional JSON file, then the environment.
type Config struct {
	// Site
	BaseURL   string   `json:"TPB_BASE_URL"`
	Dialect   string   `json:"TPB_DIALECT"`
	Timeout   Duration `json:"TPB_TIMEOUT"`
	UserAgent string   `json:"TPB_USER_AGENT"`

	// Server
	Port      string `json:"PORT"`
	RateLimit int    `json:"RATE_LIMIT"`
	RateBurst int    `json:"RATE_BURST"`
	// APIKey protects the HTTP API when set
	APIKey    string `json:"API_KEY"`

	// Storage settings
	CacheSize int      `json:"CACHE_SIZE"`
	CacheTTL  Duration `json:"CACHE_TTL"`
	// CacheDB is a BoltDB file keeping results across restarts; empty disables it
	CacheDB   string   `json:"CACHE_DB"`

	LogLevel string `json:"LOG_LEVEL"`
	// LogFile also writes logs to a rotated file when set
	LogFile string `json:"LOG_FILE"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Dialect:   constants.DefaultDialect,
		Timeout:   Duration(constants.DefaultTimeout),
		Port:      constants.DefaultPort,
		RateLimit: constants.DefaultRateLimit,
		RateBurst: constants.DefaultRateBurst,
		CacheSize: constants.DefaultCacheSize,
		CacheTTL:  Duration(constants.DefaultCacheTTL),
		LogLevel:  constants.DefaultLogLevel,
	}
}

// Load reads configuration from an optional JSON file and the environment.
// Environment variables take precedence over file values.
// Returns an error if the configuration is invalid.
func Load() (*Config, error) {
	cfg := Default()

	configFile := getEnvOrDefault("CONFIG_FILE", defaultConfigFile)
	if err := cfg.loadFromFile(configFile); err != nil {
		// Ignore file not found errors
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := cfg.loadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// loadFromEnv loads configuration from environment variables.
func (c *Config) loadFromEnv() error {
	c.BaseURL = getEnvOrDefault("TPB_BASE_URL", c.BaseURL)
	c.Dialect = getEnvOrDefault("TPB_DIALECT", c.Dialect)
	c.UserAgent = getEnvOrDefault("TPB_USER_AGENT", c.UserAgent)
	c.Port = getEnvOrDefault("PORT", c.Port)
	c.LogLevel = getEnvOrDefault("LOG_LEVEL", c.LogLevel)
	c.APIKey = getEnvOrDefault("API_KEY", c.APIKey)
	c.CacheDB = getEnvOrDefault("CACHE_DB", c.CacheDB)
	c.LogFile = getEnvOrDefault("LOG_FILE", c.LogFile)

	durations := map[string]*Duration{
		"TPB_TIMEOUT": &c.Timeout,
		"CACHE_TTL":   &c.CacheTTL,
	}
	for key, dst := range durations {
		if value := os.Getenv(key); value != "" {
			d, err := parseDuration(value)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = Duration(d)
		}
	}

	ints := map[string]*int{
		"CACHE_SIZE": &c.CacheSize,
		"RATE_LIMIT": &c.RateLimit,
		"RATE_BURST": &c.RateBurst,
	}
	for key, dst := range ints {
		if value := os.Getenv(key); value != "" {
			n, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("%s: %q is not an integer", key, value)
			}
			*dst = n
		}
	}
	return nil
}

// loadFromFile loads configuration from a JSON file.
func (c *Config) loadFromFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}

	return json.Unmarshal(data, c)
}

// Validate checks if the configuration is valid.
// Sets default values for missing optional fields.
func (c *Config) Validate() error {
	dialect, err := query.ParseDialect(c.Dialect)
	if err != nil {
		return err
	}
	c.Dialect = string(dialect)

	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("TPB_BASE_URL must be an http(s) URL, got %q", c.BaseURL)
		}
		c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	}

	if c.APIKey != "" && !security.NewAPIKeyValidator().ValidateAPIKey(c.APIKey) {
		return fmt.Errorf("API_KEY must be 8 to 128 letters, digits, '-' or '_'")
	}

	defaults := Default()
	if c.Timeout <= 0 {
		c.Timeout = defaults.Timeout
	}
	if c.Port == "" {
		c.Port = defaults.Port
	}
	if c.CacheSize <= 0 {
		c.CacheSize = defaults.CacheSize
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = defaults.CacheTTL
	}
	if c.RateLimit <= 0 {
		c.RateLimit = defaults.RateLimit
	}
	if c.RateBurst <= 0 {
		c.RateBurst = defaults.RateBurst
	}

	return nil
}

// ClientOptions turns the site settings into client options.
func (c *Config) ClientOptions(log logger.Logger) []tpb.Option {
	opts := []tpb.Option{
		tpb.WithDialect(query.Dialect(c.Dialect)),
		tpb.WithTimeout(time.Duration(c.Timeout)),
		tpb.WithLogger(log),
	}
	if c.BaseURL != "" {
		opts = append(opts, tpb.WithBaseURL(c.BaseURL))
	}
	if c.UserAgent != "" {
		opts = append(opts, tpb.WithUserAgent(c.UserAgent))
	}
	return opts
}

// parseDuration accepts Go durations ("30s", "10m") or plain seconds.
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if secs, err := strconv.Atoi(s); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return d, nil
}

// getEnvOrDefault returns environment variable value or default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
