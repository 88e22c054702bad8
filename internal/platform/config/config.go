package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

const (
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

type Config struct {
	AppEnv         string `env:"APP_ENV" default:"development"`
	Port           string `env:"PORT" default:"8080"`
	LogLevel       string `env:"LOG_LEVEL" default:"info"`
	LogFormat      string `env:"LOG_FORMAT" default:"text"`
	StorageBackend string `env:"STORAGE_BACKEND" default:"file"`
	DataDir        string `env:"DATA_DIR" default:"data/polls"`
	RedisURL       string `env:"REDIS_URL"`
	DatabaseURL    string `env:"DATABASE_URL"`

	AutosaveInterval time.Duration `env:"AUTOSAVE_INTERVAL" default:"5m"`
	SaveMaxAttempts  int           `env:"SAVE_MAX_ATTEMPTS" default:"3"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	switch cfg.StorageBackend {
	case BackendFile:
		if cfg.DataDir == "" {
			return errors.New("DATA_DIR is required for the file backend")
		}
	case BackendRedis:
		if cfg.RedisURL == "" {
			return errors.New("REDIS_URL is required for the redis backend")
		}
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres backend")
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND must be one of file, redis, postgres, got %q", cfg.StorageBackend)
	}

	if cfg.AutosaveInterval < time.Second {
		return fmt.Errorf("AUTOSAVE_INTERVAL must be at least 1s, got %s", cfg.AutosaveInterval)
	}
	if cfg.SaveMaxAttempts < 1 {
		return fmt.Errorf("SAVE_MAX_ATTEMPTS must be at least 1, got %d", cfg.SaveMaxAttempts)
	}

	return nil
}
