package players

import (
	"fmt"

	"github.com/cbodonnell/hexphase/pkg/log"
	"github.com/google/uuid"
)

const noActivePlayer = -1

// Manager holds the ordered players and which of them is active.
// It is a passive data holder: the phase logic decides when flags are reset.
type Manager struct {
	players     []*Player
	activeIndex int
	logger      *log.Logger
}

func NewManager() *Manager {
	return &Manager{
		activeIndex: noActivePlayer,
		logger:      log.Default().With("players"),
	}
}

// AddPlayer appends a new player with a generated ID and returns a copy of it.
func (m *Manager) AddPlayer(name, color string) Player {
	p := &Player{
		ID:    uuid.NewString(),
		Name:  name,
		Color: color,
	}
	m.players = append(m.players, p)
	return p.Copy()
}

// Restore replaces every player, e.g. when loading a saved game. No player is active afterwards.
func (m *Manager) Restore(players []Player) {
	m.players = make([]*Player, 0, len(players))
	for _, p := range players {
		c := p.Copy()
		m.players = append(m.players, &c)
	}
	m.activeIndex = noActivePlayer
}

func (m *Manager) Len() int {
	return len(m.players)
}

// GetAllPlayers returns copies of the players in turn order.
func (m *Manager) GetAllPlayers() []Player {
	all := make([]Player, 0, len(m.players))
	for _, p := range m.players {
		all = append(all, p.Copy())
	}
	return all
}

func (m *Manager) Player(id string) (Player, bool) {
	p := m.find(id)
	if p == nil {
		return Player{}, false
	}
	return p.Copy(), true
}

// SetFirstPlayerActive makes the player at index 0 active. Nothing else is reset.
func (m *Manager) SetFirstPlayerActive() {
	if len(m.players) == 0 {
		m.activeIndex = noActivePlayer
		return
	}
	m.activeIndex = 0
}

// ClearActivePlayer leaves the manager with no active player.
func (m *Manager) ClearActivePlayer() {
	m.activeIndex = noActivePlayer
}

// ActiveIndex returns the index of the active player, or -1 when none is active.
func (m *Manager) ActiveIndex() int {
	return m.activeIndex
}

func (m *Manager) ActivePlayer() (Player, bool) {
	if m.activeIndex == noActivePlayer {
		return Player{}, false
	}
	return m.players[m.activeIndex].Copy(), true
}

func (m *Manager) HasPlayerCompletedActions(id string) bool {
	p := m.find(id)
	return p != nil && p.ActionsCompleted
}

// MarkActivePlayerActionsCompleted flags the active player. With no active
// player it logs a warning and returns false.
func (m *Manager) MarkActivePlayerActionsCompleted() bool {
	if m.activeIndex == noActivePlayer {
		m.logger.Warn("Cannot mark actions completed: no active player")
		return false
	}
	m.players[m.activeIndex].ActionsCompleted = true
	return true
}

// MarkPlayerActionsCompleted flags the player with the given id.
func (m *Manager) MarkPlayerActionsCompleted(id string) bool {
	p := m.find(id)
	if p == nil {
		m.logger.Warn("Cannot mark actions completed: unknown player %s", id)
		return false
	}
	p.ActionsCompleted = true
	return true
}

// AdvanceToNextPlayer moves the active index forward, wrapping after the last player.
func (m *Manager) AdvanceToNextPlayer() {
	if len(m.players) == 0 {
		return
	}
	if m.activeIndex == noActivePlayer {
		m.activeIndex = 0
		return
	}
	m.activeIndex = (m.activeIndex + 1) % len(m.players)
}

// AreAllPlayerActionsCompleted reports whether every player is flagged.
// It is vacuously true with no players.
func (m *Manager) AreAllPlayerActionsCompleted() bool {
	for _, p := range m.players {
		if !p.ActionsCompleted {
			return false
		}
	}
	return true
}

// ResetActionsCompleted clears every player's completion flag.
func (m *Manager) ResetActionsCompleted() {
	for _, p := range m.players {
		p.ActionsCompleted = false
	}
}

// SetActions replaces the queued actions of a player.
func (m *Manager) SetActions(id string, actions []Action) error {
	p := m.find(id)
	if p == nil {
		return fmt.Errorf("unknown player %s", id)
	}
	for i, a := range actions {
		if err := a.Validate(); err != nil {
			return fmt.Errorf("invalid action %d: %v", i, err)
		}
	}
	p.Actions = make([]Action, len(actions))
	copy(p.Actions, actions)
	return nil
}

// SetPosition moves a player to c.
func (m *Manager) SetPosition(id string, c Coord) error {
	p := m.find(id)
	if p == nil {
		return fmt.Errorf("unknown player %s", id)
	}
	p.Position = c
	return nil
}

// TakeActions returns and clears the queued actions of a player.
func (m *Manager) TakeActions(id string) []Action {
	p := m.find(id)
	if p == nil {
		return nil
	}
	actions := p.Actions
	p.Actions = nil
	return actions
}

// Reorder sets the turn order. ids must be a permutation of the current player IDs.
// The active player, if any, keeps being active at its new index.
func (m *Manager) Reorder(ids []string) error {
	if len(ids) != len(m.players) {
		return fmt.Errorf("expected %d player ids, got %d", len(m.players), len(ids))
	}

	var activeID string
	if m.activeIndex != noActivePlayer {
		activeID = m.players[m.activeIndex].ID
	}

	ordered := make([]*Player, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return fmt.Errorf("duplicate player id %s", id)
		}
		p := m.find(id)
		if p == nil {
			return fmt.Errorf("unknown player %s", id)
		}
		seen[id] = true
		ordered = append(ordered, p)
	}
	m.players = ordered

	if activeID != "" {
		for i, p := range m.players {
			if p.ID == activeID {
				m.activeIndex = i
			}
		}
	}
	return nil
}

func (m *Manager) find(id string) *Player {
	for _, p := range m.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}
