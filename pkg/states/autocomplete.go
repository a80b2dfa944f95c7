package states

import (
	"github.com/cbodonnell/hexphase/pkg/players"
)

// AutoCompletePolicy decides what happens to a player who had not finished
// when the input phase timed out.
type AutoCompletePolicy interface {
	AutoComplete(pm *players.Manager, p players.Player)
}

// SkipTurn discards any actions the player queued without confirming them.
type SkipTurn struct{}

func (SkipTurn) AutoComplete(pm *players.Manager, p players.Player) {
	pm.TakeActions(p.ID)
}

// KeepQueuedActions resolves whatever the player queued before the timeout.
type KeepQueuedActions struct{}

func (KeepQueuedActions) AutoComplete(pm *players.Manager, p players.Player) {}
