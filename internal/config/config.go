package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const EnvProduction = "production"

type Config struct {
	Port        string        `env:"PORT" envDefault:"8080"`
	Environment string        `env:"APP_ENV" envDefault:"development"`
	DatabaseURL string        `env:"DATABASE_URL"`
	RedisURL    string        `env:"REDIS_URL"`
	Session     SessionConfig `envPrefix:"SESSION_"`
	GitHub      GitHubConfig
	Storage     StorageConfig
}

type SessionConfig struct {
	Secret     string        `env:"SECRET"`
	TTL        time.Duration `env:"TTL" envDefault:"336h"`
	CookieName string        `env:"COOKIE_NAME" envDefault:"wetube_session"`
}

type GitHubConfig struct {
	ClientID     string        `env:"GH_CLIENT"`
	ClientSecret string        `env:"GH_SECRET"`
	Timeout      time.Duration `env:"GITHUB_TIMEOUT" envDefault:"10s"`
}

// StorageConfig: локальная папка в dev, S3 в production
type StorageConfig struct {
	UploadsDir  string `env:"UPLOADS_DIR" envDefault:"uploads"`
	S3Bucket    string `env:"S3_BUCKET"`
	S3Region    string `env:"S3_REGION" envDefault:"us-east-1"`
	S3Endpoint  string `env:"S3_ENDPOINT"`
	S3AccessKey string `env:"S3_ACCESS_KEY"`
	S3SecretKey string `env:"S3_SECRET_KEY"`
	S3PublicURL string `env:"S3_PUBLIC_URL"`
}

// Load читает .env.local/.env и переменные окружения
func Load() (*Config, error) {
	if err := godotenv.Load(".env.local"); err != nil {
		if err := godotenv.Load(); err != nil {
			slog.Debug(".env not found, using environment variables")
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

func (c *Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is not set"))
	}
	if c.Session.Secret == "" {
		errs = append(errs, errors.New("SESSION_SECRET is not set"))
	}
	if c.IsProduction() {
		if c.Storage.S3Bucket == "" {
			errs = append(errs, errors.New("S3_BUCKET is required in production"))
		}
		if c.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL is required in production"))
		}
	}
	return errors.Join(errs...)
}
