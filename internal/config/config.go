package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	DBDriver         string        `env:"DB_DRIVER" envDefault:"postgres"`
	DBHost           string        `env:"DB_HOST" envDefault:"localhost"`
	DBPort           string        `env:"DB_PORT" envDefault:"5432"`
	DBUser           string        `env:"DB_USER" envDefault:"postgres"`
	DBPassword       string        `env:"DB_PASSWORD" envDefault:"postgres"`
	DBName           string        `env:"DB_NAME" envDefault:"focus"`
	SQLitePath       string        `env:"SQLITE_PATH" envDefault:"focus.db"`
	JWTSecret        string        `env:"JWT_SECRET" envDefault:"super-secret-key-change-me"`
	ServerPort       string        `env:"SERVER_PORT" envDefault:"8080"`
	CORSOrigins      []string      `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`
	RoomCodeAttempts int           `env:"ROOM_CODE_ATTEMPTS" envDefault:"10"`
	SweepInterval    time.Duration `env:"DEADLINE_SWEEP_INTERVAL" envDefault:"0s"`
	ShutdownTimeout  time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.DBDriver != DriverPostgres && cfg.DBDriver != DriverSQLite {
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	if cfg.RoomCodeAttempts <= 0 {
		return nil, fmt.Errorf("ROOM_CODE_ATTEMPTS must be positive, got %d", cfg.RoomCodeAttempts)
	}
	return &cfg, nil
}

// PostgresDSN builds the connection string for the postgres driver.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName,
	)
}
