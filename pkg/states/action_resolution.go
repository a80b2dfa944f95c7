package states

import (
	"fmt"

	"github.com/cbodonnell/hexphase/pkg/events"
	"github.com/cbodonnell/hexphase/pkg/log"
	"github.com/cbodonnell/hexphase/pkg/players"
)

// ActionResolutionState applies every queued action in turn order.
type ActionResolutionState struct {
	BaseState
	game   Game
	logger *log.Logger
}

var _ GameState = &ActionResolutionState{}

func NewActionResolutionState(game Game) *ActionResolutionState {
	return &ActionResolutionState{
		game:   game,
		logger: log.Default().With("action-resolution"),
	}
}

func (s *ActionResolutionState) ID() StateID {
	return StateActionResolution
}

func (s *ActionResolutionState) EnterState(data Data) error {
	pm := s.game.Players()
	turn := s.game.CurrentTurn()

	resolved := 0
	for _, p := range pm.GetAllPlayers() {
		position := p.Position
		for _, action := range pm.TakeActions(p.ID) {
			payload := events.ActionResolvedPayload{
				Turn:     turn,
				PlayerID: p.ID,
				Action:   action,
			}
			if reason := s.rejection(position, action); reason != "" {
				payload.Rejected = true
				payload.Reason = reason
			} else {
				resolved++
				if action.Kind == players.ActionKindMove {
					position = action.Target
					if err := pm.SetPosition(p.ID, position); err != nil {
						s.logger.Error("Failed to move player %s: %v", p.ID, err)
					}
				}
			}
			events.Trigger(s.game.Events(), events.ActionResolved, payload)
		}
	}

	events.Trigger(s.game.Events(), events.ActionResolutionComplete, events.ActionResolutionCompletePayload{
		Turn:     turn,
		Resolved: resolved,
	})

	if err := s.game.ChangeState(StateEndTurn, nil); err != nil {
		return fmt.Errorf("failed to change to %s: %v", StateEndTurn, err)
	}
	return nil
}

// rejection returns why action cannot be applied from position, or "" when it can.
func (s *ActionResolutionState) rejection(position players.Coord, action players.Action) string {
	switch action.Kind {
	case players.ActionKindMove:
		moveRange := s.game.Rules().MoveRange
		if moveRange > 0 && position.Distance(action.Target) > moveRange {
			return "target out of range"
		}
	case players.ActionKindAttack:
		if position.Distance(action.Target) != 1 {
			return "target not adjacent"
		}
	}
	return ""
}
