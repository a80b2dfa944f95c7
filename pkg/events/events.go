package events

import (
	"time"

	"github.com/cbodonnell/hexphase/pkg/players"
)

// Name identifies an event on the bus and on the wire.
type Name string

const (
	NameGameStarted              Name = "onGameStarted"
	NameStateChanged             Name = "onStateChanged"
	NamePhaseFailed              Name = "onPhaseFailed"
	NamePlayerInputPhaseStart    Name = "onPlayerInputPhaseStart"
	NameActivePlayerInputTurn    Name = "onActivePlayerInputTurn"
	NamePlayerActionsCompleted   Name = "onPlayerActionsCompleted"
	NamePlayerInputPhaseComplete Name = "onPlayerInputPhaseComplete"
	NameHazardRollsComplete      Name = "onHazardRollsComplete"
	NameTurnOrderDetermined      Name = "onTurnOrderDetermined"
	NameActionResolved           Name = "onActionResolved"
	NameActionResolutionComplete Name = "onActionResolutionComplete"
	NameTurnComplete             Name = "onTurnComplete"
	NameGameOver                 Name = "onGameOver"
)

// Event is a named event carrying a payload of type P.
// The name is unexported so the set of events is closed to this package.
type Event[P any] struct {
	name Name
}

func (e Event[P]) Name() Name {
	return e.name
}

var (
	GameStarted              = Event[GameStartedPayload]{name: NameGameStarted}
	StateChanged             = Event[StateChangedPayload]{name: NameStateChanged}
	PhaseFailed              = Event[PhaseFailedPayload]{name: NamePhaseFailed}
	PlayerInputPhaseStart    = Event[PlayerInputPhaseStartPayload]{name: NamePlayerInputPhaseStart}
	ActivePlayerInputTurn    = Event[ActivePlayerInputTurnPayload]{name: NameActivePlayerInputTurn}
	PlayerActionsCompleted   = Event[PlayerActionsCompletedPayload]{name: NamePlayerActionsCompleted}
	PlayerInputPhaseComplete = Event[PlayerInputPhaseCompletePayload]{name: NamePlayerInputPhaseComplete}
	HazardRollsComplete      = Event[HazardRollsCompletePayload]{name: NameHazardRollsComplete}
	TurnOrderDetermined      = Event[TurnOrderDeterminedPayload]{name: NameTurnOrderDetermined}
	ActionResolved           = Event[ActionResolvedPayload]{name: NameActionResolved}
	ActionResolutionComplete = Event[ActionResolutionCompletePayload]{name: NameActionResolutionComplete}
	TurnComplete             = Event[TurnCompletePayload]{name: NameTurnComplete}
	GameOver                 = Event[GameOverPayload]{name: NameGameOver}
)

type GameStartedPayload struct {
	Turn    int              `json:"turn"`
	Players []players.Player `json:"players"`
}

type StateChangedPayload struct {
	From string `json:"from,omitempty"`
	To   string `json:"to"`
}

type PhaseFailedPayload struct {
	State string `json:"state"`
	Error string `json:"error"`
}

type PlayerInputPhaseStartPayload struct {
	Turn         int            `json:"turn"`
	TimeLimit    time.Duration  `json:"timeLimit"`
	ActivePlayer players.Player `json:"activePlayer"`
}

type ActivePlayerInputTurnPayload struct {
	Turn   int            `json:"turn"`
	Player players.Player `json:"player"`
}

type PlayerActionsCompletedPayload struct {
	PlayerID string `json:"playerID"`
}

type PlayerInputPhaseCompletePayload struct {
	Turn          int      `json:"turn"`
	TimedOut      bool     `json:"timedOut"`
	AutoCompleted []string `json:"autoCompleted,omitempty"`
}

// HazardRoll is the outcome of one player's hazard roll.
type HazardRoll struct {
	PlayerID string `json:"playerID"`
	Roll     int    `json:"roll"`
	Hit      bool   `json:"hit"`
}

type HazardRollsCompletePayload struct {
	Turn  int          `json:"turn"`
	Rolls []HazardRoll `json:"rolls"`
	// Error is set when hazard processing failed and the phase was skipped.
	Error string `json:"error,omitempty"`
}

type TurnOrderDeterminedPayload struct {
	Turn  int            `json:"turn"`
	Order []string       `json:"order"`
	Rolls map[string]int `json:"rolls"`
}

type ActionResolvedPayload struct {
	Turn     int            `json:"turn"`
	PlayerID string         `json:"playerID"`
	Action   players.Action `json:"action"`
	Rejected bool           `json:"rejected,omitempty"`
	Reason   string         `json:"reason,omitempty"`
}

type ActionResolutionCompletePayload struct {
	Turn     int `json:"turn"`
	Resolved int `json:"resolved"`
}

type TurnCompletePayload struct {
	Turn int `json:"turn"`
	// NextTurn is zero when no turn follows.
	NextTurn int `json:"nextTurn,omitempty"`
}

type GameOverPayload struct {
	Turn   int    `json:"turn"`
	Reason string `json:"reason,omitempty"`
}
