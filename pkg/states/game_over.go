package states

import (
	"github.com/cbodonnell/hexphase/pkg/events"
)

// GameOverState is terminal: it announces the end of the game and never transitions.
type GameOverState struct {
	BaseState
	game Game
}

var _ GameState = &GameOverState{}

func NewGameOverState(game Game) *GameOverState {
	return &GameOverState{
		game: game,
	}
}

func (s *GameOverState) ID() StateID {
	return StateGameOver
}

func (s *GameOverState) EnterState(data Data) error {
	s.game.Players().ClearActivePlayer()

	reason, _ := data[DataKeyReason].(string)
	events.Trigger(s.game.Events(), events.GameOver, events.GameOverPayload{
		Turn:   s.game.CurrentTurn(),
		Reason: reason,
	})
	return nil
}
