// Package config reads process settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath   string     `env:"DB_PATH" envDefault:"data/treesleuth.db"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	SPADir   string     `env:"SPA_DIR" envDefault:"../web/dist"`
	// RedisURL enables the shared leaderboard. Empty keeps it in memory.
	RedisURL string `env:"REDIS_URL"`

	CaseSeconds  int           `env:"CASE_SECONDS" envDefault:"120"`
	TickInterval time.Duration `env:"TICK_INTERVAL" envDefault:"1s"`
	SessionTTL   time.Duration `env:"SESSION_TTL" envDefault:"2h"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c Config) validate() error {
	switch {
	case c.CaseSeconds <= 0:
		return fmt.Errorf("CASE_SECONDS must be positive, got %d", c.CaseSeconds)
	case c.TickInterval <= 0:
		return fmt.Errorf("TICK_INTERVAL must be positive, got %s", c.TickInterval)
	case c.SessionTTL <= 0:
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	return nil
}
