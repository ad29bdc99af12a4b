package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	StorePostgres = "postgres"
	StoreRedis    = "redis"
	StoreMemory   = "memory"
)

type Config struct {
	Addr               string        `envconfig:"APP_ADDR" default:":8080"`
	Environment        string        `envconfig:"APP_ENV" default:"development"`
	LogFormat          string        `envconfig:"LOG_FORMAT" default:"text"`
	DatabaseURL        string        `envconfig:"DATABASE_URL"`
	RedisAddr          string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	RedisPassword      string        `envconfig:"REDIS_PASSWORD"`
	RedisDB            int           `envconfig:"REDIS_DB" default:"0"`
	PermissionStore    string        `envconfig:"PERMISSION_STORE" default:"postgres"`
	JWTSecret          string        `envconfig:"JWT_SECRET"`
	TokenTTL           time.Duration `envconfig:"TOKEN_TTL" default:"12h"`
	FrontendDir        string        `envconfig:"FRONTEND_DIR" default:"frontend/dist"`
	MaxBodyBytes       int64         `envconfig:"MAX_BODY_BYTES" default:"1048576"`
	RateLimitPerMinute int           `envconfig:"RATE_LIMIT_PER_MINUTE" default:"60"`
	RunMigrations      bool          `envconfig:"RUN_MIGRATIONS" default:"true"`
	MetricsEnabled     bool          `envconfig:"METRICS_ENABLED" default:"true"`
	ReadTimeout        time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	WriteTimeout       time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout    time.Duration `envconfig:"APP_SHUTDOWN_TIMEOUT" default:"10s"`

	SeedAdminEmail      string `envconfig:"SEED_ADMIN_EMAIL"`
	SeedAdminPassword   string `envconfig:"SEED_ADMIN_PASSWORD"`
	SeedAdminName       string `envconfig:"SEED_ADMIN_NAME" default:"Super Admin"`
	SeedAdminDepartment string `envconfig:"SEED_ADMIN_DEPARTMENT"`
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return Config{}, fmt.Errorf("load .env file: %w", err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.PermissionStore = strings.ToLower(strings.TrimSpace(cfg.PermissionStore))
	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c Config) Validate() error {
	switch c.PermissionStore {
	case StorePostgres, StoreRedis, StoreMemory:
	default:
		return fmt.Errorf("PERMISSION_STORE must be one of postgres, redis, memory")
	}
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.PermissionStore == StoreRedis && strings.TrimSpace(c.RedisAddr) == "" {
		return fmt.Errorf("REDIS_ADDR is required when PERMISSION_STORE is redis")
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		if c.IsProduction() {
			return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
		}
	}
	if c.IsProduction() && c.PermissionStore == StoreMemory {
		return fmt.Errorf("PERMISSION_STORE=memory is not shared between instances and is not allowed in production")
	}
	if c.SeedAdminEmail != "" && len(c.SeedAdminPassword) < 6 {
		return fmt.Errorf("SEED_ADMIN_PASSWORD must be at least 6 characters when SEED_ADMIN_EMAIL is set")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	return nil
}
