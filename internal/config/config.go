package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"

	"moodcircle/internal/crypto"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverBolt     = "bolt"

	ProviderOpenAI      = "openai"
	ProviderHuggingFace = "huggingface"
)

type Config struct {
	Port     string `env:"PORT,default=8080"`
	AppEnv   string `env:"APP_ENV,default=development"`
	LogLevel string `env:"LOG_LEVEL,default=info"`

	JWTSecret    string        `env:"JWT_SECRET,required"`
	SessionTTL   time.Duration `env:"SESSION_TTL,default=24h"`
	CookieSecure bool          `env:"COOKIE_SECURE,default=false"`
	CORSOrigins  string        `env:"CORS_ALLOWED_ORIGINS,default=*"`

	StoreDriver string `env:"STORE_DRIVER,default=memory"`
	DatabaseURL string `env:"DATABASE_URL"`
	BoltPath    string `env:"BOLT_PATH,default=moodcircle.db"`

	EncryptionKey string `env:"ENCRYPTION_KEY"`

	AIProvider         string        `env:"AI_PROVIDER,default=openai"`
	AITimeout          time.Duration `env:"AI_TIMEOUT,default=30s"`
	OpenAIAPIKey       string        `env:"OPENAI_API_KEY"`
	OpenAIModel        string        `env:"OPENAI_MODEL,default=gpt-4o"`
	OpenAIBaseURL      string        `env:"OPENAI_BASE_URL"`
	HuggingFaceAPIKey  string        `env:"HUGGINGFACE_API_KEY"`
	HuggingFaceBaseURL string        `env:"HUGGINGFACE_BASE_URL"`
}

// Load reads an optional .env file and decodes the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	switch c.StoreDriver {
	case DriverMemory, DriverBolt:
	case DriverPostgres, DriverSQLite:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for store driver %q", c.StoreDriver)
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	switch c.AIProvider {
	case ProviderOpenAI, ProviderHuggingFace:
	default:
		return fmt.Errorf("unknown AI_PROVIDER %q", c.AIProvider)
	}
	if c.AITimeout <= 0 {
		return errors.New("AI_TIMEOUT must be positive")
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	if c.EncryptionKey != "" {
		if _, err := crypto.ParseKey(c.EncryptionKey); err != nil {
			return fmt.Errorf("ENCRYPTION_KEY: %w", err)
		}
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS on commas.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

// Key returns the decoded encryption key, or nil when encryption is disabled.
func (c *Config) Key() ([]byte, error) {
	if c.EncryptionKey == "" {
		return nil, nil
	}
	return crypto.ParseKey(c.EncryptionKey)
}
