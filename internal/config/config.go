package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	HTTPPort       int           `env:"HTTP_PORT" env-default:"8080"`
	BackendURL     string        `env:"BACKEND_URL" env-required:"true"`
	BackendTimeout time.Duration `env:"BACKEND_TIMEOUT" env-default:"15s"`
	JWTSecret      string        `env:"JWT_SECRET" env-required:"true"`
	LoginURL       string        `env:"LOGIN_URL" env-default:"/login"`
	RedisURL       string        `env:"REDIS_URL"`
	ListCacheTTL   time.Duration `env:"LIST_CACHE_TTL" env-default:"30s"`
	KafkaBrokers   []string      `env:"KAFKA_BROKERS" env-separator:","`
	AuditTopic     string        `env:"AUDIT_TOPIC" env-default:"lms.admin.actions"`
	LogLevel       string        `env:"LOG_LEVEL" env-default:"info"`
}

func New() (*Config, error) {
	return Load("./config/.env")
}

func Load(path string) (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.BackendURL == "" {
		return errors.New("BACKEND_URL is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.ListCacheTTL < 0 {
		return fmt.Errorf("LIST_CACHE_TTL must not be negative, got %s", c.ListCacheTTL)
	}
	if c.BackendTimeout <= 0 {
		return fmt.Errorf("BACKEND_TIMEOUT must be positive, got %s", c.BackendTimeout)
	}
	return nil
}
