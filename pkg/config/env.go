package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// ServerConfig holds the process level settings of the game server.
type ServerConfig struct {
	Port         int           `env:"HEXPHASE_PORT" envDefault:"8080"`
	DatabaseURL  string        `env:"HEXPHASE_DATABASE_URL" envDefault:"sqlite://hexphase.db"`
	LogLevel     string        `env:"HEXPHASE_LOG_LEVEL" envDefault:"info"`
	TickInterval time.Duration `env:"HEXPHASE_TICK_INTERVAL" envDefault:"50ms"`
	SaveInterval time.Duration `env:"HEXPHASE_SAVE_INTERVAL" envDefault:"30s"`
	GameConfig   string        `env:"HEXPHASE_GAME_CONFIG" envDefault:"game.json"`
}

// ParseServerEnv loads the server configuration from environment variables.
func ParseServerEnv() (ServerConfig, error) {
	cfg := ServerConfig{}
	if err := env.Parse(&cfg); err != nil {
		return ServerConfig{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.TickInterval <= 0 {
		return ServerConfig{}, fmt.Errorf("tick interval must be positive")
	}
	return cfg, nil
}
