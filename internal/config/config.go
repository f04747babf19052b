package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

const (
	StorageBackendMemory   = "memory"
	StorageBackendPostgres = "postgres"
	StorageBackendRedis    = "redis"
)

type Config struct {
	Port               int      `env:"PORT" envDefault:"8080"`
	StorageBackend     string   `env:"STORAGE_BACKEND" envDefault:"memory"`
	DatabaseURL        string   `env:"DATABASE_URL"`
	RedisURL           string   `env:"REDIS_URL"`
	PredictURL         string   `env:"PREDICT_URL" envDefault:"https://evelnap-dee-find.hf.space/predict"`
	PredictTimeoutSecs int      `env:"PREDICT_TIMEOUT_SECONDS" envDefault:"60"`
	FreeDetectionLimit int      `env:"FREE_DETECTION_LIMIT" envDefault:"5"`
	MaxUploadBytes     int64    `env:"MAX_UPLOAD_BYTES" envDefault:"52428800"`
	AllowedOrigins     []string `env:"ALLOWED_ORIGINS" envDefault:"*"`
	LogLevel           string   `env:"LOG_LEVEL" envDefault:"info"`
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) Validate() error {
	switch c.StorageBackend {
	case StorageBackendMemory:
		log.Warn().Msg("STORAGE_BACKEND is memory: accounts and usage counters will not survive a restart")
	case StorageBackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORAGE_BACKEND is postgres")
		}
	case StorageBackendRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when STORAGE_BACKEND is redis")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q (expected memory, postgres or redis)", c.StorageBackend)
	}

	if c.PredictURL == "" {
		return fmt.Errorf("PREDICT_URL must not be empty")
	}
	if !strings.HasPrefix(c.PredictURL, "https://") {
		log.Warn().Str("url", c.PredictURL).Msg("PREDICT_URL is not https: uploads will be sent in the clear")
	}

	if c.FreeDetectionLimit < 0 {
		return fmt.Errorf("FREE_DETECTION_LIMIT must not be negative")
	}

	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
