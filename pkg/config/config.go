package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Supported AI providers
const (
	ProviderOpenAI = "openai"
	ProviderArk    = "ark"
)

// Supported database drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds all application configuration. It is loaded once in main
// and passed down; nothing reads the environment afterwards.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	AI        AIConfig
	Redis     RedisConfig
	Vault     VaultConfig
	Security  SecurityConfig
	Logging   LoggingConfig
	Telemetry TelemetryConfig

	OpenAPISchemaPath string `env:"OPENAPI_SCHEMA_PATH"`
}

type ServerConfig struct {
	Port            string        `env:"PORT" envDefault:"8081"`
	Env             string        `env:"APP_ENV" envDefault:"development"`
	Version         string        `env:"APP_VERSION" envDefault:"dev"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

type DatabaseConfig struct {
	Driver     string `env:"DB_DRIVER" envDefault:"postgres"`
	DSN        string `env:"DB_DSN"`
	Host       string `env:"DB_HOST" envDefault:"localhost"`
	Port       string `env:"DB_PORT" envDefault:"5432"`
	User       string `env:"DB_USER" envDefault:"postgres"`
	Password   string `env:"DB_PASSWORD" envDefault:"postgres"`
	Name       string `env:"DB_NAME" envDefault:"casino_simulator"`
	SSLMode    string `env:"DB_SSL_MODE" envDefault:"disable"`
	SQLitePath string `env:"DB_SQLITE_PATH" envDefault:"casino.db"`
	MaxConns   int    `env:"DB_MAX_CONNS" envDefault:"20"`
}

type AIConfig struct {
	Provider     string        `env:"AI_PROVIDER" envDefault:"openai"`
	OpenAIAPIKey string        `env:"OPENAI_API_KEY"`
	ArkAPIKey    string        `env:"ARK_API_KEY"`
	Model        string        `env:"AI_MODEL"`
	BaseURL      string        `env:"AI_BASE_URL"`
	ArkRegion    string        `env:"ARK_REGION" envDefault:"cn-beijing"`
	Timeout      time.Duration `env:"AI_TIMEOUT" envDefault:"30s"`

	BreakerEnabled  bool          `env:"AI_BREAKER_ENABLED" envDefault:"true"`
	BreakerFailures uint          `env:"AI_BREAKER_FAILURES" envDefault:"5"`
	BreakerCooldown time.Duration `env:"AI_BREAKER_COOLDOWN" envDefault:"30s"`
}

// APIKeyName is the secret name holding the credential of the selected
// provider.
func (c AIConfig) APIKeyName() string {
	if c.Provider == ProviderArk {
		return "ARK_API_KEY"
	}
	return "OPENAI_API_KEY"
}

// APIKey returns the credential of the selected provider.
func (c AIConfig) APIKey() string {
	if c.Provider == ProviderArk {
		return c.ArkAPIKey
	}
	return c.OpenAIAPIKey
}

// SetAPIKey stores a credential resolved after Load, e.g. from Vault.
func (c *AIConfig) SetAPIKey(key string) {
	if c.Provider == ProviderArk {
		c.ArkAPIKey = key
		return
	}
	c.OpenAIAPIKey = key
}

type RedisConfig struct {
	URL      string        `env:"REDIS_URL"`
	CacheTTL time.Duration `env:"CACHE_TTL" envDefault:"5m"`
}

type VaultConfig struct {
	Enabled     bool          `env:"VAULT_ENABLED" envDefault:"false"`
	Address     string        `env:"VAULT_ADDR"`
	Token       string        `env:"VAULT_TOKEN"`
	Namespace   string        `env:"VAULT_NAMESPACE"`
	MountPath   string        `env:"VAULT_MOUNT_PATH" envDefault:"secret"`
	SecretsPath string        `env:"VAULT_SECRETS_PATH" envDefault:"casino-simulator"`
	Timeout     time.Duration `env:"VAULT_TIMEOUT" envDefault:"10s"`
}

type SecurityConfig struct {
	RateLimit      float64  `env:"RATE_LIMIT" envDefault:"5"`
	RateLimitBurst int      `env:"RATE_LIMIT_BURST" envDefault:"10"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	MaxBodySize    int64    `env:"MAX_BODY_SIZE" envDefault:"1048576"`
}

type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type TelemetryConfig struct {
	ServiceName    string `env:"OTEL_SERVICE_NAME" envDefault:"casino-simulator-api"`
	TracingEnabled bool   `env:"TRACING_ENABLED" envDefault:"false"`
	MetricsEnabled bool   `env:"METRICS_ENABLED" envDefault:"true"`
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	normalize(cfg)
	return cfg, nil
}

// LoadFrom parses configuration from an explicit environment map.
func LoadFrom(environ map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	normalize(cfg)
	return cfg, nil
}

func normalize(cfg *Config) {
	cfg.AI.Provider = strings.ToLower(strings.TrimSpace(cfg.AI.Provider))
	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	cfg.AI.OpenAIAPIKey = strings.TrimSpace(cfg.AI.OpenAIAPIKey)
	cfg.AI.ArkAPIKey = strings.TrimSpace(cfg.AI.ArkAPIKey)
}

// Validate reports every invalid setting, including a provider API key
// that neither the environment nor Vault supplied.
func (c *Config) Validate() error {
	var keyErr error
	if c.AI.APIKey() == "" {
		keyErr = fmt.Errorf("%s is required", c.AI.APIKeyName())
	}
	return errors.Join(c.ValidateSettings(), keyErr)
}

// ValidateSettings checks everything that does not depend on secrets. It
// runs before Vault is contacted so a bad Vault setup is reported together
// with the rest.
func (c *Config) ValidateSettings() error {
	var errs []error

	switch c.AI.Provider {
	case ProviderOpenAI:
	case ProviderArk:
		if c.AI.Model == "" {
			errs = append(errs, errors.New("AI_MODEL is required for the ark provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported AI_PROVIDER %q", c.AI.Provider))
	}
	if c.AI.Timeout <= 0 {
		errs = append(errs, errors.New("AI_TIMEOUT must be positive"))
	}

	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver))
	}

	if c.Vault.Enabled && (c.Vault.Address == "" || c.Vault.Token == "") {
		errs = append(errs, errors.New("VAULT_ADDR and VAULT_TOKEN are required when VAULT_ENABLED is set"))
	}

	return errors.Join(errs...)
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}
