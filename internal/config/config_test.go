package config

import (
	"encoding/base64"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.Equal(t, ProviderOpenAI, cfg.AIProvider)
	assert.Equal(t, 30*time.Second, cfg.AITimeout)
	assert.Equal(t, "gpt-4o", cfg.OpenAIModel)
	assert.False(t, cfg.CookieSecure)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins())
}

func TestLoadRequiresSecret(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PORT", "9000")
	t.Setenv("APP_ENV", "production")
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", "file:test.db")
	t.Setenv("AI_PROVIDER", "huggingface")
	t.Setenv("AI_TIMEOUT", "5s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, DriverSQLite, cfg.StoreDriver)
	assert.Equal(t, ProviderHuggingFace, cfg.AIProvider)
	assert.Equal(t, 5*time.Second, cfg.AITimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins())
}

func TestValidate(t *testing.T) {
	validKey := base64.StdEncoding.EncodeToString([]byte(strings.Repeat("k", 32)))
	base := func() Config {
		return Config{
			JWTSecret:   "s3cret",
			SessionTTL:  time.Hour,
			StoreDriver: DriverMemory,
			AIProvider:  ProviderOpenAI,
			AITimeout:   time.Second,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing secret", func(c *Config) { c.JWTSecret = "" }, "JWT_SECRET"},
		{"unknown driver", func(c *Config) { c.StoreDriver = "mongo" }, "STORE_DRIVER"},
		{"postgres without url", func(c *Config) { c.StoreDriver = DriverPostgres }, "DATABASE_URL"},
		{"bolt needs no url", func(c *Config) { c.StoreDriver = DriverBolt }, ""},
		{"unknown provider", func(c *Config) { c.AIProvider = "cohere" }, "AI_PROVIDER"},
		{"zero timeout", func(c *Config) { c.AITimeout = 0 }, "AI_TIMEOUT"},
		{"valid key", func(c *Config) { c.EncryptionKey = validKey }, ""},
		{"short key", func(c *Config) { c.EncryptionKey = base64.StdEncoding.EncodeToString([]byte("short")) }, "ENCRYPTION_KEY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestKey(t *testing.T) {
	cfg := Config{}
	key, err := cfg.Key()
	require.NoError(t, err)
	assert.Nil(t, key)

	raw := []byte(strings.Repeat("k", 32))
	cfg.EncryptionKey = base64.StdEncoding.EncodeToString(raw)
	key, err = cfg.Key()
	require.NoError(t, err)
	assert.Equal(t, raw, key)
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
