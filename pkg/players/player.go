package players

import "fmt"

// Coord is an axial hex grid coordinate.
type Coord struct {
	Q int `json:"q"`
	R int `json:"r"`
}

// Distance returns the number of hex steps between c and other.
func (c Coord) Distance(other Coord) int {
	dq := c.Q - other.Q
	dr := c.R - other.R
	return (abs(dq) + abs(dr) + abs(dq+dr)) / 2
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

type ActionKind string

const (
	ActionKindMove   ActionKind = "move"
	ActionKindAttack ActionKind = "attack"
	ActionKindWait   ActionKind = "wait"
)

// Action is a single order queued by a player during the input phase.
type Action struct {
	Kind   ActionKind `json:"kind"`
	Target Coord      `json:"target"`
}

func (a Action) Validate() error {
	switch a.Kind {
	case ActionKindMove, ActionKindAttack, ActionKindWait:
		return nil
	default:
		return fmt.Errorf("unknown action kind %q", a.Kind)
	}
}

type Player struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	// Position is the player's current hex on the board.
	Position Coord `json:"position"`
	// ActionsCompleted is set once the player finished the current input phase.
	ActionsCompleted bool `json:"actionsCompleted"`
	// Actions are the orders queued for the next resolution phase.
	Actions []Action `json:"actions,omitempty"`
}

// Copy returns a copy of the player that shares no memory with p.
func (p *Player) Copy() Player {
	c := *p
	if p.Actions != nil {
		c.Actions = make([]Action, len(p.Actions))
		copy(c.Actions, p.Actions)
	}
	return c
}
