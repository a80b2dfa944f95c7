package states

import (
	"fmt"
	"sort"

	"github.com/cbodonnell/hexphase/pkg/events"
	"github.com/cbodonnell/hexphase/pkg/log"
)

// TurnOrderState rolls initiative and reorders the players, highest roll first.
// Ties keep the previous order.
type TurnOrderState struct {
	BaseState
	game   Game
	roller Roller
	logger *log.Logger
}

var _ GameState = &TurnOrderState{}

func NewTurnOrderState(game Game, roller Roller) *TurnOrderState {
	return &TurnOrderState{
		game:   game,
		roller: roller,
		logger: log.Default().With("turn-order"),
	}
}

func (s *TurnOrderState) ID() StateID {
	return StateTurnOrder
}

func (s *TurnOrderState) EnterState(data Data) error {
	pm := s.game.Players()
	sides := s.game.Rules().InitiativeDie

	rolls := make(map[string]int, pm.Len())
	order := make([]string, 0, pm.Len())
	for _, p := range pm.GetAllPlayers() {
		rolls[p.ID] = s.roller.Roll(sides)
		order = append(order, p.ID)
	}
	sort.SliceStable(order, func(i, j int) bool {
		return rolls[order[i]] > rolls[order[j]]
	})

	if err := pm.Reorder(order); err != nil {
		return fmt.Errorf("failed to apply turn order: %v", err)
	}
	s.logger.Debug("Turn order for turn %d: %v", s.game.CurrentTurn(), order)

	events.Trigger(s.game.Events(), events.TurnOrderDetermined, events.TurnOrderDeterminedPayload{
		Turn:  s.game.CurrentTurn(),
		Order: order,
		Rolls: rolls,
	})

	if err := s.game.ChangeState(StateActionResolution, nil); err != nil {
		return fmt.Errorf("failed to change to %s: %v", StateActionResolution, err)
	}
	return nil
}
