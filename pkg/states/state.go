package states

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cbodonnell/hexphase/pkg/config"
	"github.com/cbodonnell/hexphase/pkg/events"
	"github.com/cbodonnell/hexphase/pkg/players"
	"github.com/cbodonnell/hexphase/pkg/timers"
)

// ErrUnknownState is returned when a transition names a state that was never registered.
var ErrUnknownState = errors.New("unknown state")

// StateID names one phase of the turn cycle.
type StateID int

const (
	StatePlayerInput StateID = iota
	StateHazardRolls
	StateTurnOrder
	StateActionResolution
	StateEndTurn
	StateGameOver
)

var stateNames = map[StateID]string{
	StatePlayerInput:      "PLAYER_INPUT",
	StateHazardRolls:      "HAZARD_ROLLS",
	StateTurnOrder:        "TURN_ORDER",
	StateActionResolution: "ACTION_RESOLUTION",
	StateEndTurn:          "END_TURN",
	StateGameOver:         "GAME_OVER",
}

func (id StateID) String() string {
	if s, ok := stateNames[id]; ok {
		return s
	}
	return "UNKNOWN"
}

// ParseStateID returns the StateID whose String form is s.
func ParseStateID(s string) (StateID, error) {
	for id, name := range stateNames {
		if name == s {
			return id, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownState, s)
}

func (id StateID) MarshalText() ([]byte, error) {
	if _, ok := stateNames[id]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownState, int(id))
	}
	return []byte(id.String()), nil
}

func (id *StateID) UnmarshalText(b []byte) error {
	parsed, err := ParseStateID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Data is the optional bag handed to a state when it is entered.
type Data map[string]any

// DataKeyReason carries a human readable reason for the transition.
const DataKeyReason = "reason"

// GameState is one phase of the turn cycle. A state instance lives as long as
// its StateManager and may be entered many times.
type GameState interface {
	ID() StateID
	// EnterState is called when the state becomes current.
	EnterState(data Data) error
	// UpdateState is called every tick while the state is current.
	UpdateState(dt time.Duration) error
	// ExitState is called when another state replaces this one.
	ExitState() error
	// GetSaveData returns the state's own fields, independent of enter/exit.
	GetSaveData() (json.RawMessage, error)
	// LoadSaveData restores fields written by GetSaveData.
	LoadSaveData(data json.RawMessage) error
}

// Game is what states need from the game that owns them.
type Game interface {
	Players() *players.Manager
	Events() *events.System
	Scheduler() *timers.Scheduler
	Rules() config.Rules
	CurrentTurn() int
	// AdvanceTurn increments the turn counter and returns the new turn.
	AdvanceTurn() int
	ChangeState(id StateID, data Data) error
}

// BaseState provides no-op implementations for states without per-tick work or save data.
type BaseState struct{}

func (BaseState) UpdateState(dt time.Duration) error {
	return nil
}

func (BaseState) ExitState() error {
	return nil
}

func (BaseState) GetSaveData() (json.RawMessage, error) {
	return nil, nil
}

func (BaseState) LoadSaveData(data json.RawMessage) error {
	return nil
}
