package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App:      AppConfig{Environment: "development"},
		Logger:   LoggerConfig{Level: "info"},
		Data:     DataConfig{BasePath: "/some/path"},
		Store:    StoreConfig{Backend: StoreBadger},
		Auth:     AuthConfig{AccessTokenDuration: time.Hour},
		Geocoder: GeocoderConfig{Provider: GeocoderFixed},
		RateLimit: RateLimitConfig{
			Enabled:            true,
			MutationsPerMinute: 60,
			Burst:              10,
		},
	}
}

// isolateEnv clears the variables LoadConfig reads so the host environment
// cannot leak into a test.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ENV", "LOG_LEVEL", "DATA_PATH", "STORE_BACKEND", "SERVER_PORT", "CORS_ORIGINS",
		"TOKEN_KEY", "ACCESS_TOKEN_DURATION", "GOOGLE_API_KEY", "GEOCODER_PROVIDER",
		"OTEL_ENABLED", "OTEL_EXPORTER_OTLP_ENDPOINT", "RATE_LIMIT_ENABLED",
	} {
		t.Setenv(key, "")
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown environment", func(c *Config) { c.App.Environment = "test" }},
		{"empty environment", func(c *Config) { c.App.Environment = "" }},
		{"case sensitive environment", func(c *Config) { c.App.Environment = "DEVELOPMENT" }},
		{"log level", func(c *Config) { c.Logger.Level = "verbose" }},
		{"empty data path", func(c *Config) { c.Data.BasePath = "" }},
		{"store backend", func(c *Config) { c.Store.Backend = "mongo" }},
		{"google without key", func(c *Config) { c.Geocoder.Provider = GeocoderGoogle }},
		{"fixed in production", func(c *Config) { c.App.Environment = "production" }},
		{"geocoder provider", func(c *Config) { c.Geocoder.Provider = "osm" }},
		{"token duration", func(c *Config) { c.Auth.AccessTokenDuration = 0 }},
		{"rate limit", func(c *Config) { c.RateLimit.Burst = 0 }},
		{"telemetry endpoint", func(c *Config) { c.Telemetry.Enabled = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	isolateEnv(t)
	dataPath := t.TempDir()

	cfg, err := LoadConfig([]string{"-env-file", filepath.Join(dataPath, "missing.env"), "-data-path", dataPath})
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, StoreBadger, cfg.Store.Backend)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 24*time.Hour, cfg.Auth.AccessTokenDuration)
	assert.Equal(t, GeocoderFixed, cfg.Geocoder.Provider)
	assert.Equal(t, 60, cfg.RateLimit.MutationsPerMinute)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.Equal(t, filepath.Join(dataPath, "db"), cfg.StorePath())
	assert.Equal(t, filepath.Join(dataPath, "search"), cfg.SearchPath())
}

func TestLoadConfig_FlagsOverrideEnv(t *testing.T) {
	isolateEnv(t)
	dataPath := t.TempDir()
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("STORE_BACKEND", "badger")
	t.Setenv("GOOGLE_API_KEY", "key-123")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := LoadConfig([]string{
		"-env-file", filepath.Join(dataPath, "missing.env"),
		"-data-path", dataPath,
		"-log-level", "debug",
		"-store", "sqlite",
	})
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, StoreSQLite, cfg.Store.Backend)
	assert.Equal(t, filepath.Join(dataPath, "places.sqlite"), cfg.StorePath())
	assert.Equal(t, GeocoderGoogle, cfg.Geocoder.Provider, "an API key selects the google provider")
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
}

func TestLoadConfig_InvalidDuration(t *testing.T) {
	isolateEnv(t)
	dataPath := t.TempDir()
	t.Setenv("ACCESS_TOKEN_DURATION", "forever")

	_, err := LoadConfig([]string{"-env-file", filepath.Join(dataPath, "missing.env"), "-data-path", dataPath})
	assert.ErrorContains(t, err, "access token duration")
}

func TestExpandPath(t *testing.T) {
	homeDir, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := expandPath("", "/default")
	require.NoError(t, err)
	assert.Equal(t, "/default", got)

	got, err = expandPath("~/places", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(homeDir, "places"), got)

	got, err = expandPath("/abs/../path", "")
	require.NoError(t, err)
	assert.Equal(t, "/path", got)

	got, err = expandPath("relative", "")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))
}

func TestGetConfigValue_Precedence(t *testing.T) {
	t.Setenv("TEST_ENV_KEY", "env-value")

	assert.Equal(t, "flag-value", getConfigValue("flag-value", "TEST_ENV_KEY", "default-value"))
	assert.Equal(t, "env-value", getConfigValue("", "TEST_ENV_KEY", "default-value"))
	assert.Equal(t, "default-value", getConfigValue("", "NONEXISTENT_KEY", "default-value"))
}

func TestTypedConfigValues(t *testing.T) {
	t.Setenv("TEST_BOOL", "YES")
	t.Setenv("TEST_INT", "not-a-number")
	t.Setenv("TEST_FLOAT", "0.25")

	assert.True(t, getBoolConfigValue("", "TEST_BOOL", false))
	assert.Equal(t, 7, getIntConfigValue("", "TEST_INT", 7))
	assert.Equal(t, 0.25, getFloatConfigValue("", "TEST_FLOAT", 1))
	assert.Nil(t, splitList(" , "))
}

func TestLoadEnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	content := `# Test env file
PLACES_TEST_LEVEL=debug

QUOTED_VALUE="some value"
  SPACED_KEY  =  value with spaces  
PRESET=from-file
`
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o644))

	t.Setenv("PLACES_TEST_LEVEL", "")
	t.Setenv("QUOTED_VALUE", "")
	t.Setenv("SPACED_KEY", "")
	t.Setenv("PRESET", "from-env")

	require.NoError(t, loadEnvFile(envFile))

	assert.Equal(t, "debug", os.Getenv("PLACES_TEST_LEVEL"))
	assert.Equal(t, "some value", os.Getenv("QUOTED_VALUE"))
	assert.Equal(t, "value with spaces", os.Getenv("SPACED_KEY"))
	assert.Equal(t, "from-env", os.Getenv("PRESET"), "real environment wins over the file")
}

func TestLoadEnvFile_Errors(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("VALID=1\nINVALID LINE\n"), 0o644))

	assert.ErrorContains(t, loadEnvFile(envFile), "invalid format")
	assert.Error(t, loadEnvFile("/nonexistent/file/.env"))
}
