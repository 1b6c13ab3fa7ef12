package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Storage  StorageConfig
	Renderer RendererConfig
	Email    EmailConfig
	Cache    CacheConfig
	Badges   BadgeConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            string
	Host            string
	Environment     string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	GracefulTimeout time.Duration
	// PublicBaseURL is the externally visible origin used to build award
	// page links embedded in notification emails.
	PublicBaseURL string
}

// DatabaseConfig holds Postgres configuration
type DatabaseConfig struct {
	URL                string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetime    time.Duration
	ConnMaxIdleTime    time.Duration
	SlowQueryThreshold time.Duration
	MigrationsPath     string
}

// StorageConfig holds object storage configuration for certificate artifacts
type StorageConfig struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	UseSSL        bool
	Bucket        string
	TemplateKey   string
	PublicBaseURL string
	UploadTimeout time.Duration
	MaxRetries    int
}

// RendererConfig holds headless rendering configuration
type RendererConfig struct {
	// Width/Height are the fixed certificate dimensions in CSS pixels.
	Width  int
	Height int
	// Timeout bounds a single rasterization call; a hung browser must not
	// pin a webhook request forever.
	Timeout time.Duration
	// AssetDir is the local directory searched when inlining template
	// assets; AssetBaseURL is the remote fallback for missing files.
	AssetDir     string
	AssetBaseURL string
	// TemplatePath is the bundled fallback template used when the
	// versioned template object is missing from storage.
	TemplatePath string
}

// EmailConfig holds outbound email provider configuration. An empty APIKey
// disables delivery entirely; the pipeline then reports "skipped".
type EmailConfig struct {
	APIKey      string
	FromAddress string
	FromName    string
	ReplyTo     string
	SendTimeout time.Duration
}

// CacheConfig holds read-cache configuration
type CacheConfig struct {
	Provider      string // "memory" or "redis"
	RedisURL      string
	RedisPassword string
	RedisDB       int
	DefaultTTL    time.Duration
}

// BadgeConfig holds badge resolution configuration
type BadgeConfig struct {
	// DefaultSlug is issued when a completion signal carries a course
	// identifier the alias table does not recognize.
	DefaultSlug string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads configuration from the environment, loading a .env file first
// when one exists for the current GO_ENV.
func Load() (*Config, error) {
	env := getEnv("GO_ENV", "development")
	if env != "production" {
		envFile := fmt.Sprintf(".env.%s", env)
		if _, err := os.Stat(envFile); err == nil {
			_ = godotenv.Load(envFile)
		} else {
			_ = godotenv.Load() // fallback to .env
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Environment:     env,
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
			IdleTimeout:     getEnvDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			GracefulTimeout: getEnvDuration("SERVER_GRACEFUL_TIMEOUT", 30*time.Second),
			PublicBaseURL:   strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		},
		Database: DatabaseConfig{
			URL:                getEnv("DATABASE_URL", ""),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime:    getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime:    getEnvDuration("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
			SlowQueryThreshold: getEnvDuration("DB_SLOW_QUERY_THRESHOLD", 100*time.Millisecond),
			MigrationsPath:     getEnv("DB_MIGRATIONS_PATH", "migrations"),
		},
		Storage: StorageConfig{
			Endpoint:      getEnv("STORAGE_ENDPOINT", "localhost:9000"),
			AccessKey:     getEnv("STORAGE_ACCESS_KEY", ""),
			SecretKey:     getEnv("STORAGE_SECRET_KEY", ""),
			UseSSL:        getEnvBool("STORAGE_USE_SSL", false),
			Bucket:        getEnv("STORAGE_BUCKET", "certificates"),
			TemplateKey:   getEnv("STORAGE_TEMPLATE_KEY", "templates/certificate-preview.html"),
			PublicBaseURL: strings.TrimRight(getEnv("STORAGE_PUBLIC_BASE_URL", ""), "/"),
			UploadTimeout: getEnvDuration("STORAGE_UPLOAD_TIMEOUT", 30*time.Second),
			MaxRetries:    getEnvInt("STORAGE_MAX_RETRIES", 3),
		},
		Renderer: RendererConfig{
			Width:        getEnvInt("RENDERER_WIDTH", 1200),
			Height:       getEnvInt("RENDERER_HEIGHT", 675),
			Timeout:      getEnvDuration("RENDERER_TIMEOUT", 45*time.Second),
			AssetDir:     getEnv("RENDERER_ASSET_DIR", "assets"),
			AssetBaseURL: strings.TrimRight(getEnv("RENDERER_ASSET_BASE_URL", ""), "/"),
			TemplatePath: getEnv("RENDERER_TEMPLATE_PATH", "assets/templates/certificate-preview.html"),
		},
		Email: EmailConfig{
			APIKey:      getEnv("EMAIL_API_KEY", ""),
			FromAddress: getEnv("EMAIL_FROM_ADDRESS", "badges@example.com"),
			FromName:    getEnv("EMAIL_FROM_NAME", "BadgeHub"),
			ReplyTo:     getEnv("EMAIL_REPLY_TO", ""),
			SendTimeout: getEnvDuration("EMAIL_SEND_TIMEOUT", 15*time.Second),
		},
		Cache: CacheConfig{
			Provider:      getEnv("CACHE_PROVIDER", "memory"),
			RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvInt("REDIS_DB", 0),
			DefaultTTL:    getEnvDuration("CACHE_DEFAULT_TTL", 5*time.Minute),
		},
		Badges: BadgeConfig{
			DefaultSlug: getEnv("BADGE_DEFAULT_SLUG", "green-software-practitioner"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks configuration invariants that would otherwise surface as
// confusing runtime failures.
func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if _, err := url.Parse(c.Database.URL); err != nil {
		return fmt.Errorf("DATABASE_URL is not a valid URL: %w", err)
	}
	if c.Storage.Bucket == "" {
		return fmt.Errorf("STORAGE_BUCKET must not be empty")
	}
	if c.Badges.DefaultSlug == "" {
		return fmt.Errorf("BADGE_DEFAULT_SLUG must not be empty")
	}
	if c.Renderer.Width <= 0 || c.Renderer.Height <= 0 {
		return fmt.Errorf("renderer dimensions must be positive (got %dx%d)", c.Renderer.Width, c.Renderer.Height)
	}
	switch c.Cache.Provider {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown cache provider %q", c.Cache.Provider)
	}
	return nil
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// ===============================
// ENVIRONMENT HELPERS
// ===============================

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
