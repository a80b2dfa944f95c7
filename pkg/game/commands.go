package game

import (
	"github.com/cbodonnell/hexphase/pkg/players"
)

// Command is a request from another goroutine, applied on the game loop at
// the start of the next Update. Result channels must be buffered; the loop
// never blocks on them.
type Command interface {
	apply(gm *GameManager) error
	result() chan<- error
}

type SubmitActionsCommand struct {
	PlayerID string
	Actions  []players.Action
	Complete bool
	Result   chan<- error
}

func (c SubmitActionsCommand) apply(gm *GameManager) error {
	return gm.SubmitPlayerActions(c.PlayerID, c.Actions, c.Complete)
}

func (c SubmitActionsCommand) result() chan<- error { return c.Result }

type CompleteActionsCommand struct {
	PlayerID string
	Result   chan<- error
}

func (c CompleteActionsCommand) apply(gm *GameManager) error {
	return gm.CompletePlayerActions(c.PlayerID)
}

func (c CompleteActionsCommand) result() chan<- error { return c.Result }

// SaveCommand hands the current save to the save worker. Result reports the
// hand-off, not the write.
type SaveCommand struct {
	Result chan<- error
}

func (c SaveCommand) apply(gm *GameManager) error {
	return gm.requestSave(nil)
}

func (c SaveCommand) result() chan<- error { return c.Result }

type EndGameCommand struct {
	Reason string
	Result chan<- error
}

func (c EndGameCommand) apply(gm *GameManager) error {
	return gm.EndGame(c.Reason)
}

func (c EndGameCommand) result() chan<- error { return c.Result }

// Enqueue schedules cmd for the next tick. It is safe to call from any goroutine.
func (gm *GameManager) Enqueue(cmd Command) error {
	return gm.commandQueue.Enqueue(cmd)
}

func (gm *GameManager) processCommands() {
	for _, cmd := range gm.commandQueue.ReadAllMessages() {
		err := cmd.apply(gm)
		if err != nil {
			gm.logger.Debug("Command %T failed: %v", cmd, err)
		}
		if ch := cmd.result(); ch != nil {
			select {
			case ch <- err:
			default:
				gm.logger.Warn("Dropped result of %T: result channel not ready", cmd)
			}
		}
	}
}
