package game

import (
	"fmt"

	"github.com/cbodonnell/hexphase/pkg/events"
	"github.com/cbodonnell/hexphase/pkg/players"
	"github.com/cbodonnell/hexphase/pkg/states"
)

// SubmitPlayerActions queues actions for the next resolution phase, replacing
// any the player queued before. With complete set the player also finishes
// their input for this turn.
func (gm *GameManager) SubmitPlayerActions(playerID string, actions []players.Action, complete bool) error {
	if err := gm.checkAcceptingInput(playerID); err != nil {
		return err
	}
	if err := gm.players.SetActions(playerID, actions); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidActions, err)
	}
	gm.logger.Debug("Player %s queued %d action(s)", playerID, len(actions))

	if complete {
		gm.completePlayerActions(playerID)
	}
	return nil
}

// CompletePlayerActions finishes the player's input for this turn with whatever they queued.
func (gm *GameManager) CompletePlayerActions(playerID string) error {
	if err := gm.checkAcceptingInput(playerID); err != nil {
		return err
	}
	gm.completePlayerActions(playerID)
	return nil
}

// CompleteActivePlayerActions finishes the input of whichever player is active.
func (gm *GameManager) CompleteActivePlayerActions() error {
	active, ok := gm.players.ActivePlayer()
	if !ok {
		return ErrNotAcceptingInput
	}
	return gm.CompletePlayerActions(active.ID)
}

func (gm *GameManager) checkAcceptingInput(playerID string) error {
	if current, ok := gm.stateManager.Current(); !ok || current != states.StatePlayerInput {
		return ErrNotAcceptingInput
	}
	p, ok := gm.players.Player(playerID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPlayer, playerID)
	}
	if p.ActionsCompleted {
		return ErrActionsAlreadyCompleted
	}
	return nil
}

func (gm *GameManager) completePlayerActions(playerID string) {
	events.Trigger(gm.events, events.PlayerActionsCompleted, events.PlayerActionsCompletedPayload{
		PlayerID: playerID,
	})
}
