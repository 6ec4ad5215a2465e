// Package config loads server configuration from command-line flags,
// environment variables and an optional .env file.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Store backends.
const (
	StoreBadger = "badger"
	StoreSQLite = "sqlite"
)

// Geocoder providers.
const (
	GeocoderGoogle = "google"
	GeocoderFixed  = "fixed"
)

// Config holds the application configuration.
type Config struct {
	App       AppConfig
	Logger    LoggerConfig
	Data      DataConfig
	Store     StoreConfig
	Server    ServerConfig
	Auth      AuthConfig
	Geocoder  GeocoderConfig
	RateLimit RateLimitConfig
	Telemetry TelemetryConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
	Version     string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DataConfig locates on-disk state.
type DataConfig struct {
	BasePath string // Holds the database, search index and token key
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Backend string // badger or sqlite
}

// StorePath returns the database location for the configured backend.
func (c *Config) StorePath() string {
	if c.Store.Backend == StoreSQLite {
		return filepath.Join(c.Data.BasePath, "places.sqlite")
	}
	return filepath.Join(c.Data.BasePath, "db")
}

// SearchPath returns the search index directory.
func (c *Config) SearchPath() string {
	return filepath.Join(c.Data.BasePath, "search")
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	CORSOrigins  []string
}

// AuthConfig holds access token configuration.
type AuthConfig struct {
	// Hex-encoded PASETO v4 key. Loaded from the data directory when empty.
	TokenKey            string
	AccessTokenDuration time.Duration
}

// GeocoderConfig configures address resolution.
type GeocoderConfig struct {
	Provider          string // google or fixed
	APIKey            string
	BaseURL           string
	RequestsPerSecond float64
	Timeout           time.Duration
	CacheSize         int64
	CacheTTL          time.Duration

	// Coordinates returned by the fixed provider.
	FixedLat float64
	FixedLng float64
}

// RateLimitConfig limits mutating requests per acting user.
type RateLimitConfig struct {
	Enabled            bool
	MutationsPerMinute int
	Burst              int
}

// TelemetryConfig configures OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled     bool
	Endpoint    string
	Insecure    bool
	SampleRatio float64
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig(args []string) (*Config, error) {
	fs := flag.NewFlagSet("places-server", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := fs.String("data-path", "", "Directory for database, search index and keys")
	storeBackend := fs.String("store", "", "Store backend (badger, sqlite)")

	serverPort := fs.String("port", "", "Server port (default: 8080)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	corsOrigins := fs.String("cors-origins", "", "Comma-separated allowed CORS origins (default: *)")

	accessTokenDuration := fs.String("access-token-duration", "", "Access token lifetime (default: 24h)")

	geocoderProvider := fs.String("geocoder", "", "Geocoder provider (google, fixed)")
	geocoderAPIKey := fs.String("geocoder-api-key", "", "Google Geocoding API key")

	otelEnabled := fs.String("otel-enabled", "", "Export traces over OTLP (default: false)")
	otelEndpoint := fs.String("otel-endpoint", "", "OTLP/HTTP collector URL")

	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
			Version:     getConfigValue("", "APP_VERSION", "dev"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Data: DataConfig{
			BasePath: getConfigValue(*dataPath, "DATA_PATH", ""),
		},
		Store: StoreConfig{
			Backend: strings.ToLower(getConfigValue(*storeBackend, "STORE_BACKEND", StoreBadger)),
		},
		Server: ServerConfig{
			Port:        getConfigValue(*serverPort, "SERVER_PORT", "8080"),
			CORSOrigins: splitList(getConfigValue(*corsOrigins, "CORS_ORIGINS", "*")),
		},
		Auth: AuthConfig{
			TokenKey: getConfigValue("", "TOKEN_KEY", ""),
		},
		Geocoder: GeocoderConfig{
			APIKey:            getConfigValue(*geocoderAPIKey, "GOOGLE_API_KEY", ""),
			BaseURL:           getConfigValue("", "GEOCODER_BASE_URL", ""),
			RequestsPerSecond: getFloatConfigValue("", "GEOCODER_RPS", 10),
			CacheSize:         int64(getIntConfigValue("", "GEOCODER_CACHE_SIZE", 10000)),
			FixedLat:          getFloatConfigValue("", "GEOCODER_FIXED_LAT", 40.7484405),
			FixedLng:          getFloatConfigValue("", "GEOCODER_FIXED_LNG", -73.9856644),
		},
		RateLimit: RateLimitConfig{
			Enabled:            getBoolConfigValue("", "RATE_LIMIT_ENABLED", true),
			MutationsPerMinute: getIntConfigValue("", "RATE_LIMIT_MUTATIONS_PER_MINUTE", 60),
			Burst:              getIntConfigValue("", "RATE_LIMIT_BURST", 10),
		},
		Telemetry: TelemetryConfig{
			Enabled:     getBoolConfigValue(*otelEnabled, "OTEL_ENABLED", false),
			Endpoint:    getConfigValue(*otelEndpoint, "OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Insecure:    getBoolConfigValue("", "OTEL_EXPORTER_OTLP_INSECURE", false),
			SampleRatio: getFloatConfigValue("", "OTEL_SAMPLER_RATIO", 0.1),
		},
	}

	// Without an API key the fixed provider is the only one that can work.
	defaultProvider := GeocoderFixed
	if cfg.Geocoder.APIKey != "" {
		defaultProvider = GeocoderGoogle
	}
	cfg.Geocoder.Provider = strings.ToLower(getConfigValue(*geocoderProvider, "GEOCODER_PROVIDER", defaultProvider))

	durations := []struct {
		dest               *time.Duration
		flagValue, envKey  string
		defaultValue, name string
	}{
		{&cfg.Auth.AccessTokenDuration, *accessTokenDuration, "ACCESS_TOKEN_DURATION", "24h", "access token duration"},
		{&cfg.Server.ReadTimeout, *readTimeout, "SERVER_READ_TIMEOUT", "15s", "read timeout"},
		{&cfg.Server.WriteTimeout, *writeTimeout, "SERVER_WRITE_TIMEOUT", "15s", "write timeout"},
		{&cfg.Server.IdleTimeout, *idleTimeout, "SERVER_IDLE_TIMEOUT", "60s", "idle timeout"},
		{&cfg.Geocoder.Timeout, "", "GEOCODER_TIMEOUT", "10s", "geocoder timeout"},
		{&cfg.Geocoder.CacheTTL, "", "GEOCODER_CACHE_TTL", "24h", "geocoder cache TTL"},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flagValue, d.envKey, d.defaultValue)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.name, raw, err)
		}
		*d.dest = parsed
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	switch c.App.Environment {
	case "development", "staging", "production":
	case "":
		return errors.New("ENV is required")
	default:
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	switch strings.ToLower(c.Logger.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Data.BasePath == "" {
		return errors.New("data path cannot be empty after expansion")
	}

	switch c.Store.Backend {
	case StoreBadger, StoreSQLite:
	default:
		return fmt.Errorf("invalid store backend: %s (must be badger or sqlite)", c.Store.Backend)
	}

	switch c.Geocoder.Provider {
	case GeocoderGoogle:
		if c.Geocoder.APIKey == "" {
			return errors.New("GOOGLE_API_KEY is required for the google geocoder")
		}
	case GeocoderFixed:
		if c.App.Environment == "production" {
			return errors.New("the fixed geocoder cannot be used in production")
		}
	default:
		return fmt.Errorf("invalid geocoder provider: %s (must be google or fixed)", c.Geocoder.Provider)
	}

	if c.Auth.AccessTokenDuration <= 0 {
		return errors.New("access token duration must be positive")
	}

	if c.RateLimit.Enabled && (c.RateLimit.MutationsPerMinute <= 0 || c.RateLimit.Burst <= 0) {
		return errors.New("rate limit mutations per minute and burst must be positive")
	}

	if c.Telemetry.Enabled && c.Telemetry.Endpoint == "" {
		return errors.New("OTEL_EXPORTER_OTLP_ENDPOINT is required when tracing is enabled")
	}

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandDataPath defaults the data path to ~/.places.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	expanded, err := expandPath(c.Data.BasePath, filepath.Join(homeDir, ".places"))
	if err != nil {
		return err
	}
	c.Data.BasePath = expanded
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getBoolConfigValue accepts "true", "1" and "yes" (case-insensitive) as true.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	v, err := strconv.Atoi(getConfigValue(flagValue, envKey, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getFloatConfigValue(flagValue, envKey string, defaultValue float64) float64 {
	v, err := strconv.ParseFloat(getConfigValue(flagValue, envKey, ""), 64)
	if err != nil {
		return defaultValue
	}
	return v
}

func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		// Real environment variables win over the file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
