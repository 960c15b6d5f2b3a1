package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/samber/lo"

	"Agora/internal/storage"
)

type Config struct {
	DBConn           string        `env:"AGORA_DB_CONN"`
	StorageDriver    string        `env:"AGORA_STORAGE_DRIVER,default=postgres"`
	BadgerPath       string        `env:"AGORA_BADGER_PATH,default=data/badger"`
	HTTPAddr         string        `env:"AGORA_HTTP_ADDR,default=:8080"`
	GRPCAddr         string        `env:"AGORA_GRPC_ADDR,default=:9090"`
	StaticDir        string        `env:"AGORA_STATIC_DIR,default=web/static"`
	StaticURL        string        `env:"AGORA_STATIC_URL,default=/static"`
	AllowedOrigins   string        `env:"AGORA_ALLOWED_ORIGINS"`
	MaxContentLength int           `env:"AGORA_MAX_CONTENT_LENGTH,default=1000"`
	PageSize         int           `env:"AGORA_PAGE_SIZE,default=20"`
	ShutdownTimeout  time.Duration `env:"AGORA_SHUTDOWN_TIMEOUT,default=5s"`
	LogLevel         string        `env:"LOG_LEVEL,default=INFO"`
}

// Load reads path (usually ".env") when it exists, then decodes the
// environment. Variables already set win over the file.
func Load(path string) (Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", path, err)
		}
	}
	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	switch c.StorageDriver {
	case storage.DriverPostgres:
		if c.DBConn == "" {
			errs = append(errs, errors.New("AGORA_DB_CONN is required with the postgres driver"))
		}
	case storage.DriverBadger:
		if c.BadgerPath == "" {
			errs = append(errs, errors.New("AGORA_BADGER_PATH is required with the badger driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("AGORA_STORAGE_DRIVER must be %q or %q, got %q",
			storage.DriverPostgres, storage.DriverBadger, c.StorageDriver))
	}
	if c.HTTPAddr == "" {
		errs = append(errs, errors.New("AGORA_HTTP_ADDR must not be empty"))
	}
	if c.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("AGORA_PAGE_SIZE must be positive, got %d", c.PageSize))
	}
	if c.MaxContentLength < 0 {
		errs = append(errs, fmt.Errorf("AGORA_MAX_CONTENT_LENGTH must not be negative, got %d", c.MaxContentLength))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("AGORA_SHUTDOWN_TIMEOUT must be positive, got %s", c.ShutdownTimeout))
	}
	return errors.Join(errs...)
}

// DSN is what storage.Open expects for the configured driver.
func (c Config) DSN() string {
	if c.StorageDriver == storage.DriverBadger {
		return c.BadgerPath
	}
	return c.DBConn
}

// Origins splits AllowedOrigins on commas. Empty means same-origin only.
func (c Config) Origins() []string {
	return lo.Compact(lo.Map(strings.Split(c.AllowedOrigins, ","), func(o string, _ int) string {
		return strings.TrimSpace(o)
	}))
}
