package states

import (
	"fmt"

	"github.com/cbodonnell/hexphase/pkg/events"
	"github.com/cbodonnell/hexphase/pkg/log"
	"github.com/cbodonnell/hexphase/pkg/timers"
)

// HazardRollsState rolls the hazard die for every player and moves on to turn order.
// With a hazard roll delay configured the work runs once the delay elapsed.
type HazardRollsState struct {
	BaseState
	game   Game
	roller Roller
	logger *log.Logger

	timer     *timers.Timer
	completed bool
}

var _ GameState = &HazardRollsState{}

func NewHazardRollsState(game Game, roller Roller) *HazardRollsState {
	return &HazardRollsState{
		game:   game,
		roller: roller,
		logger: log.Default().With("hazard-rolls"),
	}
}

func (s *HazardRollsState) ID() StateID {
	return StateHazardRolls
}

func (s *HazardRollsState) EnterState(data Data) error {
	s.timer.Stop()
	s.timer = nil
	s.completed = false

	if delay := s.game.Rules().HazardRollDelay(); delay > 0 {
		s.timer = s.game.Scheduler().AfterFunc(delay, s.run)
		return nil
	}
	s.run()
	return nil
}

func (s *HazardRollsState) ExitState() error {
	s.timer.Stop()
	s.timer = nil
	return nil
}

func (s *HazardRollsState) run() {
	s.timer = nil
	rolls, err := s.processHazardRolls()
	s.complete(rolls, err)
}

func (s *HazardRollsState) processHazardRolls() (rolls []events.HazardRoll, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("hazard processing panicked: %v", r)
		}
	}()

	rules := s.game.Rules()
	for _, p := range s.game.Players().GetAllPlayers() {
		roll := s.roller.Roll(rules.HazardDie)
		if roll < 1 || roll > rules.HazardDie {
			return nil, fmt.Errorf("hazard roll %d out of range for d%d", roll, rules.HazardDie)
		}
		rolls = append(rolls, events.HazardRoll{
			PlayerID: p.ID,
			Roll:     roll,
			Hit:      roll >= rules.HazardThreshold,
		})
	}
	return rolls, nil
}

// complete emits the completion event and moves to turn order. A failed
// roll skips the phase rather than stalling the cycle.
func (s *HazardRollsState) complete(rolls []events.HazardRoll, err error) {
	if s.completed {
		return
	}
	s.completed = true

	payload := events.HazardRollsCompletePayload{
		Turn:  s.game.CurrentTurn(),
		Rolls: rolls,
	}
	if err != nil {
		s.logger.Error("Failed to process hazard rolls: %v", err)
		payload.Rolls = nil
		payload.Error = err.Error()
	}
	events.Trigger(s.game.Events(), events.HazardRollsComplete, payload)

	if err := s.game.ChangeState(StateTurnOrder, nil); err != nil {
		s.logger.Error("Failed to change to %s: %v", StateTurnOrder, err)
	}
}
