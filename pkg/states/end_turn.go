package states

import (
	"fmt"

	"github.com/cbodonnell/hexphase/pkg/events"
)

// EndTurnState closes the cycle: it advances the turn counter and returns to
// player input, or ends the game once the turn limit is reached.
type EndTurnState struct {
	BaseState
	game Game
}

var _ GameState = &EndTurnState{}

func NewEndTurnState(game Game) *EndTurnState {
	return &EndTurnState{
		game: game,
	}
}

func (s *EndTurnState) ID() StateID {
	return StateEndTurn
}

func (s *EndTurnState) EnterState(data Data) error {
	finished := s.game.CurrentTurn()

	if maxTurns := s.game.Rules().MaxTurns; maxTurns > 0 && finished >= maxTurns {
		events.Trigger(s.game.Events(), events.TurnComplete, events.TurnCompletePayload{
			Turn: finished,
		})
		if err := s.game.ChangeState(StateGameOver, Data{DataKeyReason: "turn limit reached"}); err != nil {
			return fmt.Errorf("failed to change to %s: %v", StateGameOver, err)
		}
		return nil
	}

	next := s.game.AdvanceTurn()
	events.Trigger(s.game.Events(), events.TurnComplete, events.TurnCompletePayload{
		Turn:     finished,
		NextTurn: next,
	})

	if err := s.game.ChangeState(StatePlayerInput, nil); err != nil {
		return fmt.Errorf("failed to change to %s: %v", StatePlayerInput, err)
	}
	return nil
}
