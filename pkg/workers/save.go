package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/cbodonnell/hexphase/pkg/log"
	"github.com/cbodonnell/hexphase/pkg/repositories"
	"github.com/cbodonnell/hexphase/pkg/repositories/models"
	"github.com/cbodonnell/hexphase/pkg/snapshot"
)

type SaveGameWorker struct {
	repository      repositories.Repository
	saveRequestChan <-chan SaveRequest
	snapshots       snapshot.Store
	interval        time.Duration
	// lastSaved is the turn and state of the last periodic save
	lastSaved string
}

type NewSaveGameWorkerOptions struct {
	Repository      repositories.Repository
	SaveRequestChan <-chan SaveRequest
	Snapshots       snapshot.Store
	Interval        time.Duration
}

// SaveRequest asks the worker to persist a save produced by the game loop.
type SaveRequest struct {
	Save *models.SaveGame
	// Result receives the outcome when set. It must be buffered.
	Result chan<- error
}

// NewSaveGameWorker creates a new SaveGameWorker.
// The worker processes save requests from the game loop and
// periodically saves the latest snapshot to the repository.
func NewSaveGameWorker(opts NewSaveGameWorkerOptions) *SaveGameWorker {
	return &SaveGameWorker{
		repository:      opts.Repository,
		saveRequestChan: opts.SaveRequestChan,
		snapshots:       opts.Snapshots,
		interval:        opts.Interval,
	}
}

func (w *SaveGameWorker) Start(ctx context.Context) {
	var tick <-chan time.Time
	if w.interval > 0 && w.snapshots != nil {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case saveRequest := <-w.saveRequestChan:
			err := w.saveGame(ctx, saveRequest.Save)
			if saveRequest.Result != nil {
				saveRequest.Result <- err
			}
		case <-tick:
			w.savePeriodic(ctx)
		}
	}
}

// savePeriodic saves the latest snapshot unless the game has not moved since the last periodic save.
func (w *SaveGameWorker) savePeriodic(ctx context.Context) {
	snap, err := w.snapshots.Get(ctx)
	if err != nil {
		if err != snapshot.ErrNoSnapshot {
			log.Error("Failed to get current snapshot: %v", err)
		}
		return
	}

	key := fmt.Sprintf("%s/%d/%s", snap.GameID, snap.Turn, snap.State)
	if key == w.lastSaved {
		log.Trace("Game %s unchanged since last save", snap.GameID)
		return
	}
	if err := w.saveGame(ctx, snap.SaveGame()); err == nil {
		w.lastSaved = key
	}
}

func (w *SaveGameWorker) saveGame(ctx context.Context, save *models.SaveGame) error {
	err := w.repository.SaveGame(ctx, save)
	if err != nil {
		log.Error("Failed to save game %s: %v", save.ID, err)
		return err
	}
	log.Debug("Saved game %s at turn %d (%s)", save.ID, save.Turn, save.State)
	return nil
}
