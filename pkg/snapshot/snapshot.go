package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/cbodonnell/hexphase/pkg/players"
	"github.com/cbodonnell/hexphase/pkg/repositories/models"
)

// ErrNoSnapshot is returned by Get before the game published its first snapshot.
var ErrNoSnapshot = errors.New("no snapshot published")

// Snapshot is a point-in-time copy of the game published by the game loop.
type Snapshot struct {
	GameID         string           `json:"gameID"`
	Version        string           `json:"version"`
	Turn           int              `json:"turn"`
	State          string           `json:"state"`
	ActivePlayerID string           `json:"activePlayerID,omitempty"`
	TimeRemaining  time.Duration    `json:"timeRemaining,omitempty"`
	Players        []players.Player `json:"players"`
	PublishedAt    time.Time        `json:"publishedAt"`
	// States holds each phase's save data so a snapshot can be persisted as is.
	States map[string]json.RawMessage `json:"-"`
}

// SaveGame converts the snapshot into a save.
func (s *Snapshot) SaveGame() *models.SaveGame {
	return &models.SaveGame{
		ID:      s.GameID,
		Version: s.Version,
		Turn:    s.Turn,
		State:   s.State,
		Players: s.Players,
		States:  s.States,
		SavedAt: s.PublishedAt,
	}
}

// Copy returns a deep copy of s.
func (s *Snapshot) Copy() *Snapshot {
	c := *s
	c.Players = make([]players.Player, len(s.Players))
	for i := range s.Players {
		c.Players[i] = s.Players[i].Copy()
	}
	if s.States != nil {
		c.States = make(map[string]json.RawMessage, len(s.States))
		for k, v := range s.States {
			c.States[k] = append(json.RawMessage(nil), v...)
		}
	}
	return &c
}

// Store provides shared access to the latest snapshot.
// Implementations must be thread-safe.
type Store interface {
	// Get returns a copy of the latest snapshot.
	Get(ctx context.Context) (*Snapshot, error)
	// Set replaces the latest snapshot.
	Set(ctx context.Context, snapshot *Snapshot) error
}
