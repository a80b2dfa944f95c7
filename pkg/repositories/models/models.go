package models

import (
	"encoding/json"
	"time"

	"github.com/cbodonnell/hexphase/pkg/players"
)

// SaveGame is everything needed to resume a game: the turn, the current
// phase, the players and each phase's own save data keyed by phase name.
type SaveGame struct {
	ID      string                     `json:"id"`
	Version string                     `json:"version"`
	Turn    int                        `json:"turn"`
	State   string                     `json:"state"`
	Players []players.Player           `json:"players"`
	States  map[string]json.RawMessage `json:"states,omitempty"`
	SavedAt time.Time                  `json:"savedAt"`
}

// SaveSummary describes a stored save without its payload.
type SaveSummary struct {
	ID      string    `json:"id"`
	Turn    int       `json:"turn"`
	State   string    `json:"state"`
	SavedAt time.Time `json:"savedAt"`
}
