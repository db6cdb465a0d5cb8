package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

type Store string

const (
	StoreMemory Store = "memory"
	StoreSQLite Store = "sqlite"
)

type Config struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"payflow"`
	Env         string `env:"ENV" envDefault:"dev"`

	HTTPAddr        string        `env:"HTTP_ADDR" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	Store      Store  `env:"STORE" envDefault:"memory"`
	SQLitePath string `env:"SQLITE_PATH" envDefault:"payflow.db"`

	GatewaySuccessRate float64       `env:"GATEWAY_SUCCESS_RATE" envDefault:"0.9"`
	GatewayLatency     time.Duration `env:"GATEWAY_LATENCY" envDefault:"50ms"`
}

// Load reads configuration from environment variables.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.HTTPAddr == "" {
		return fmt.Errorf("config: HTTP_ADDR is required")
	}
	if c.Store != StoreMemory && c.Store != StoreSQLite {
		return fmt.Errorf("config: invalid STORE %q (must be %q or %q)", c.Store, StoreMemory, StoreSQLite)
	}
	if c.Store == StoreSQLite && c.SQLitePath == "" {
		return fmt.Errorf("config: SQLITE_PATH is required when STORE=sqlite")
	}
	if c.GatewaySuccessRate < 0 || c.GatewaySuccessRate > 1 {
		return fmt.Errorf("config: GATEWAY_SUCCESS_RATE must be within [0, 1]")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("config: SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}
