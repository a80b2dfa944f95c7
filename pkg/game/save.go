package game

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cbodonnell/hexphase/pkg/repositories/models"
	"github.com/cbodonnell/hexphase/pkg/snapshot"
	"github.com/cbodonnell/hexphase/pkg/states"
	"github.com/cbodonnell/hexphase/pkg/workers"
)

// timeRemainer is implemented by phases that run against a deadline.
type timeRemainer interface {
	TimeRemaining() time.Duration
}

// Snapshot returns a copy of the game as it is now.
func (gm *GameManager) Snapshot() (*snapshot.Snapshot, error) {
	snap := &snapshot.Snapshot{
		GameID:      gm.id,
		Version:     gm.config.Version,
		Turn:        gm.turn,
		Players:     gm.players.GetAllPlayers(),
		PublishedAt: time.Now().UTC(),
		States:      make(map[string]json.RawMessage),
	}

	if current, ok := gm.stateManager.Current(); ok {
		snap.State = current.String()
		if s, ok := gm.stateManager.State(current); ok {
			if tr, ok := s.(timeRemainer); ok {
				snap.TimeRemaining = tr.TimeRemaining()
			}
		}
	}
	if active, ok := gm.players.ActivePlayer(); ok {
		snap.ActivePlayerID = active.ID
	}

	for _, s := range gm.stateManager.States() {
		data, err := s.GetSaveData()
		if err != nil {
			return nil, fmt.Errorf("failed to get save data of %s: %v", s.ID(), err)
		}
		if len(data) > 0 {
			snap.States[s.ID().String()] = data
		}
	}

	return snap, nil
}

// Save returns the game as a save.
func (gm *GameManager) Save() (*models.SaveGame, error) {
	if !gm.started {
		return nil, ErrNotInitialized
	}
	snap, err := gm.Snapshot()
	if err != nil {
		return nil, err
	}
	return snap.SaveGame(), nil
}

// Load replaces the running game with save and enters the saved phase again.
// Phases restart on entry, so a save taken mid input phase resumes with that
// phase's completion flags cleared.
func (gm *GameManager) Load(save *models.SaveGame) error {
	if !gm.initialized {
		return ErrNotInitialized
	}
	if save == nil {
		return fmt.Errorf("save is nil")
	}
	stateID, err := states.ParseStateID(save.State)
	if err != nil {
		return fmt.Errorf("invalid save: %w", err)
	}
	if save.Version != gm.config.Version {
		gm.logger.Warn("Loading save from version %q into version %q", save.Version, gm.config.Version)
	}

	gm.stateManager.Stop()

	for name, data := range save.States {
		id, err := states.ParseStateID(name)
		if err != nil {
			return fmt.Errorf("invalid save: %w", err)
		}
		s, ok := gm.stateManager.State(id)
		if !ok {
			return fmt.Errorf("invalid save: %w: %s", states.ErrUnknownState, name)
		}
		if err := s.LoadSaveData(data); err != nil {
			return fmt.Errorf("failed to load save data of %s: %v", name, err)
		}
	}

	gm.id = save.ID
	gm.turn = save.Turn
	gm.players.Restore(save.Players)
	gm.started = true

	gm.logger.Info("Loaded game %s at turn %d (%s)", gm.id, gm.turn, stateID)
	return gm.ChangeState(stateID, nil)
}

// requestSave hands the current save to the save worker without blocking the loop.
func (gm *GameManager) requestSave(result chan<- error) error {
	if gm.saveRequestChan == nil {
		return fmt.Errorf("saving is not configured")
	}
	save, err := gm.Save()
	if err != nil {
		return fmt.Errorf("failed to build save: %w", err)
	}

	select {
	case gm.saveRequestChan <- workers.SaveRequest{Save: save, Result: result}:
		return nil
	default:
		return fmt.Errorf("save request channel is full")
	}
}

func (gm *GameManager) publishSnapshot() {
	if gm.snapshots == nil {
		return
	}
	snap, err := gm.Snapshot()
	if err != nil {
		gm.logger.Error("Failed to build snapshot: %v", err)
		return
	}
	if err := gm.snapshots.Set(context.Background(), snap); err != nil {
		gm.logger.Error("Failed to publish snapshot: %v", err)
	}
}
