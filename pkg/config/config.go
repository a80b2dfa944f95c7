package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/cbodonnell/hexphase/pkg/players"
)

const (
	DefaultHazardDie       = 6
	DefaultHazardThreshold = 6
	DefaultInitiativeDie   = 20
)

// Config is the immutable game configuration handed to the GameManager.
type Config struct {
	Version   string         `json:"version"`
	DebugMode bool           `json:"debugMode"`
	Rules     Rules          `json:"rules"`
	Players   []PlayerConfig `json:"players"`
}

// Rules tune the phase cycle. Durations are expressed in milliseconds.
type Rules struct {
	// TurnTimeLimitMS bounds the input phase. Zero disables the timer.
	TurnTimeLimitMS int64 `json:"turnTimeLimit,omitempty"`
	// MaxTurns ends the game after that many turns. Zero plays forever.
	MaxTurns int `json:"maxTurns,omitempty"`
	// HazardDie is the number of sides of the hazard die.
	HazardDie int `json:"hazardDie,omitempty"`
	// HazardThreshold is the lowest hazard roll that hits.
	HazardThreshold int `json:"hazardThreshold,omitempty"`
	// HazardRollDelayMS defers hazard processing after the phase starts.
	HazardRollDelayMS int64 `json:"hazardRollDelay,omitempty"`
	// InitiativeDie is the number of sides of the initiative die.
	InitiativeDie int `json:"initiativeDie,omitempty"`
	// MoveRange is the furthest a single move action may travel. Zero means unlimited.
	MoveRange int `json:"moveRange,omitempty"`
}

func (r Rules) TurnTimeLimit() time.Duration {
	return time.Duration(r.TurnTimeLimitMS) * time.Millisecond
}

func (r Rules) HazardRollDelay() time.Duration {
	return time.Duration(r.HazardRollDelayMS) * time.Millisecond
}

type PlayerConfig struct {
	Name  string        `json:"name"`
	Color string        `json:"color"`
	Start players.Coord `json:"start"`
}

// Load reads a JSON game configuration from path, applies defaults and validates it.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %v", path, err)
	}
	return Parse(b)
}

// Parse decodes a JSON game configuration, applies defaults and validates it.
func Parse(b []byte) (Config, error) {
	cfg := Config{}
	if err := json.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %v", err)
	}
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// WithDefaults returns a copy of c with zero-valued dice filled in.
func (c Config) WithDefaults() Config {
	if c.Rules.HazardDie == 0 {
		c.Rules.HazardDie = DefaultHazardDie
	}
	if c.Rules.HazardThreshold == 0 {
		c.Rules.HazardThreshold = DefaultHazardThreshold
	}
	if c.Rules.InitiativeDie == 0 {
		c.Rules.InitiativeDie = DefaultInitiativeDie
	}
	players := make([]PlayerConfig, len(c.Players))
	copy(players, c.Players)
	c.Players = players
	return c
}

func (c Config) Validate() error {
	if len(c.Players) == 0 {
		return fmt.Errorf("at least one player is required")
	}
	for i, p := range c.Players {
		if p.Name == "" {
			return fmt.Errorf("player %d has no name", i)
		}
	}
	if c.Rules.TurnTimeLimitMS < 0 {
		return fmt.Errorf("turnTimeLimit must not be negative")
	}
	if c.Rules.HazardRollDelayMS < 0 {
		return fmt.Errorf("hazardRollDelay must not be negative")
	}
	if c.Rules.MaxTurns < 0 {
		return fmt.Errorf("maxTurns must not be negative")
	}
	if c.Rules.MoveRange < 0 {
		return fmt.Errorf("moveRange must not be negative")
	}
	if c.Rules.HazardDie < 2 {
		return fmt.Errorf("hazardDie must have at least 2 sides")
	}
	if c.Rules.InitiativeDie < 2 {
		return fmt.Errorf("initiativeDie must have at least 2 sides")
	}
	if c.Rules.HazardThreshold < 1 {
		return fmt.Errorf("hazardThreshold must be positive")
	}
	return nil
}
