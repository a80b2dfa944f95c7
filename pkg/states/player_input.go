package states

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/cbodonnell/hexphase/pkg/events"
	"github.com/cbodonnell/hexphase/pkg/log"
	"github.com/cbodonnell/hexphase/pkg/timers"
)

// PlayerInputState collects every player's actions, one active player at a time.
// It finishes when all players completed or when the turn time limit expires,
// whichever comes first.
type PlayerInputState struct {
	game         Game
	autoComplete AutoCompletePolicy
	logger       *log.Logger

	// allInputsReceived latches once the phase has been finalized.
	allInputsReceived bool
	timer             *timers.Timer
	completedHandle   events.Handle
}

var _ GameState = &PlayerInputState{}

type playerInputSaveData struct {
	AllInputsReceived bool `json:"allInputsReceived"`
}

// NewPlayerInputState creates the input phase. A nil policy defaults to SkipTurn.
func NewPlayerInputState(game Game, policy AutoCompletePolicy) *PlayerInputState {
	if policy == nil {
		policy = SkipTurn{}
	}
	return &PlayerInputState{
		game:         game,
		autoComplete: policy,
		logger:       log.Default().With("player-input"),
	}
}

func (s *PlayerInputState) ID() StateID {
	return StatePlayerInput
}

func (s *PlayerInputState) EnterState(data Data) error {
	// drop anything left armed by an activation that was never exited
	s.release()
	s.allInputsReceived = false

	pm := s.game.Players()
	pm.ResetActionsCompleted()
	pm.SetFirstPlayerActive()

	s.completedHandle = events.On(s.game.Events(), events.PlayerActionsCompleted, s.handlePlayerActionsCompleted)

	limit := s.game.Rules().TurnTimeLimit()
	if limit > 0 {
		s.timer = s.game.Scheduler().AfterFunc(limit, s.handleTimeout)
	}

	active, _ := pm.ActivePlayer()
	events.Trigger(s.game.Events(), events.PlayerInputPhaseStart, events.PlayerInputPhaseStartPayload{
		Turn:         s.game.CurrentTurn(),
		TimeLimit:    limit,
		ActivePlayer: active,
	})

	if pm.Len() == 0 {
		s.logger.Warn("No players in game, completing input phase")
		s.completeInputPhase(false, nil)
	}

	return nil
}

func (s *PlayerInputState) UpdateState(dt time.Duration) error {
	return nil
}

func (s *PlayerInputState) ExitState() error {
	s.release()
	return nil
}

func (s *PlayerInputState) GetSaveData() (json.RawMessage, error) {
	b, err := json.Marshal(playerInputSaveData{
		AllInputsReceived: s.allInputsReceived,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal player input save data: %v", err)
	}
	return b, nil
}

// LoadSaveData restores the finalize latch only. The timer and listener are
// armed again when the state is entered.
func (s *PlayerInputState) LoadSaveData(data json.RawMessage) error {
	if len(data) == 0 {
		return nil
	}
	saved := playerInputSaveData{}
	if err := json.Unmarshal(data, &saved); err != nil {
		return fmt.Errorf("failed to unmarshal player input save data: %v", err)
	}
	s.allInputsReceived = saved.AllInputsReceived
	return nil
}

// TimeRemaining returns how long until the input timer fires, or zero when no timer is armed.
func (s *PlayerInputState) TimeRemaining() time.Duration {
	return s.timer.Remaining()
}

func (s *PlayerInputState) handlePlayerActionsCompleted(p events.PlayerActionsCompletedPayload) {
	if s.allInputsReceived {
		return
	}

	pm := s.game.Players()
	if !pm.MarkPlayerActionsCompleted(p.PlayerID) {
		return
	}

	if pm.AreAllPlayerActionsCompleted() {
		s.completeInputPhase(false, nil)
		return
	}

	active, ok := pm.ActivePlayer()
	if !ok || active.ID != p.PlayerID {
		s.logger.Debug("Player %s completed out of turn", p.PlayerID)
		return
	}

	// skip players who already completed out of turn
	pm.AdvanceToNextPlayer()
	for i := 1; i < pm.Len(); i++ {
		next, _ := pm.ActivePlayer()
		if !next.ActionsCompleted {
			break
		}
		pm.AdvanceToNextPlayer()
	}

	next, _ := pm.ActivePlayer()
	events.Trigger(s.game.Events(), events.ActivePlayerInputTurn, events.ActivePlayerInputTurnPayload{
		Turn:   s.game.CurrentTurn(),
		Player: next,
	})
}

func (s *PlayerInputState) handleTimeout() {
	s.timer = nil
	if s.allInputsReceived {
		return
	}

	pm := s.game.Players()
	var autoCompleted []string
	for _, p := range pm.GetAllPlayers() {
		if p.ActionsCompleted {
			continue
		}
		s.autoComplete.AutoComplete(pm, p)
		pm.MarkPlayerActionsCompleted(p.ID)
		autoCompleted = append(autoCompleted, p.ID)

		if active, ok := pm.ActivePlayer(); ok && active.ID == p.ID {
			pm.AdvanceToNextPlayer()
		}
	}

	s.logger.Info("Input phase timed out, auto-completed %d player(s)", len(autoCompleted))
	s.completeInputPhase(true, autoCompleted)
}

// completeInputPhase finalizes the phase. It runs at most once per activation.
func (s *PlayerInputState) completeInputPhase(timedOut bool, autoCompleted []string) {
	if s.allInputsReceived {
		return
	}
	s.allInputsReceived = true
	s.release()
	s.game.Players().ClearActivePlayer()

	events.Trigger(s.game.Events(), events.PlayerInputPhaseComplete, events.PlayerInputPhaseCompletePayload{
		Turn:          s.game.CurrentTurn(),
		TimedOut:      timedOut,
		AutoCompleted: autoCompleted,
	})

	if err := s.game.ChangeState(StateHazardRolls, nil); err != nil {
		s.logger.Error("Failed to change to %s: %v", StateHazardRolls, err)
	}
}

// release cancels the timer and unregisters the completion listener. Safe to call repeatedly.
func (s *PlayerInputState) release() {
	s.timer.Stop()
	s.timer = nil
	s.game.Events().Off(s.completedHandle)
	s.completedHandle = events.Handle{}
}
