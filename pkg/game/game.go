package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cbodonnell/hexphase/pkg/config"
	"github.com/cbodonnell/hexphase/pkg/events"
	"github.com/cbodonnell/hexphase/pkg/log"
	"github.com/cbodonnell/hexphase/pkg/players"
	"github.com/cbodonnell/hexphase/pkg/queue"
	"github.com/cbodonnell/hexphase/pkg/snapshot"
	"github.com/cbodonnell/hexphase/pkg/states"
	"github.com/cbodonnell/hexphase/pkg/timers"
	"github.com/cbodonnell/hexphase/pkg/workers"
	"github.com/google/uuid"
)

var (
	ErrNotInitialized          = errors.New("game is not initialized")
	ErrAlreadyStarted          = errors.New("game already started")
	ErrUnknownPlayer           = errors.New("unknown player")
	ErrNotAcceptingInput       = errors.New("game is not accepting player input")
	ErrActionsAlreadyCompleted = errors.New("player actions already completed")
	ErrInvalidActions          = errors.New("invalid actions")
)

const commandQueueSize = 1024

// GameManager is the root of a game session. It owns the players, the event
// bus, the phase state machine, the scheduler and the turn counter. All of
// its methods must be called from the game loop goroutine; other goroutines
// talk to it through Enqueue.
type GameManager struct {
	id          string
	config      config.Config
	initialized bool
	started     bool
	turn        int

	players      *players.Manager
	events       *events.System
	scheduler    *timers.Scheduler
	stateManager *states.StateManager

	commandQueue         queue.Queue[Command]
	snapshots            snapshot.Store
	saveRequestChan      chan<- workers.SaveRequest
	broadcastMessageChan chan<- workers.BroadcastMessage
	logger               *log.Logger
}

// NewGameManagerOptions contains options for creating a new GameManager.
type NewGameManagerOptions struct {
	// Roller rolls every die in the game. Defaults to a time-seeded roller.
	Roller states.Roller
	// AutoCompletePolicy is applied to players who did not finish before the
	// input phase timed out. Defaults to states.SkipTurn.
	AutoCompletePolicy states.AutoCompletePolicy
	// CommandQueue receives commands from other goroutines. Defaults to an in-memory queue.
	CommandQueue queue.Queue[Command]
	// Snapshots, when set, receives a snapshot after every Update.
	Snapshots snapshot.Store
	// SaveRequestChan, when set, receives saves requested through SaveCommand and on game over.
	SaveRequestChan chan<- workers.SaveRequest
	// BroadcastMessageChan, when set, receives every triggered event.
	BroadcastMessageChan chan<- workers.BroadcastMessage
}

func NewGameManager(opts NewGameManagerOptions) *GameManager {
	roller := opts.Roller
	if roller == nil {
		roller = states.NewRandRoller(uint64(time.Now().UnixNano()))
	}
	commandQueue := opts.CommandQueue
	if commandQueue == nil {
		commandQueue = queue.NewInMemoryQueue[Command](commandQueueSize)
	}

	eventSystem := events.NewSystem()
	gm := &GameManager{
		players:              players.NewManager(),
		events:               eventSystem,
		scheduler:            timers.NewScheduler(),
		stateManager:         states.NewStateManager(states.NewStateManagerOptions{Events: eventSystem}),
		commandQueue:         commandQueue,
		snapshots:            opts.Snapshots,
		saveRequestChan:      opts.SaveRequestChan,
		broadcastMessageChan: opts.BroadcastMessageChan,
		logger:               log.Default().With("game"),
	}

	gm.stateManager.Register(
		states.NewPlayerInputState(gm, opts.AutoCompletePolicy),
		states.NewHazardRollsState(gm, roller),
		states.NewTurnOrderState(gm, roller),
		states.NewActionResolutionState(gm),
		states.NewEndTurnState(gm),
		states.NewGameOverState(gm),
	)

	if gm.broadcastMessageChan != nil {
		gm.events.Observe(gm.broadcast)
	}
	if gm.saveRequestChan != nil {
		events.On(gm.events, events.GameOver, func(events.GameOverPayload) {
			if err := gm.requestSave(nil); err != nil {
				gm.logger.Error("Failed to save finished game: %v", err)
			}
		})
	}

	return gm
}

// Initialize validates cfg and creates the players it lists.
// It must be called once, before StartGame or Load.
func (gm *GameManager) Initialize(cfg config.Config) error {
	if gm.initialized {
		return fmt.Errorf("game %s is already initialized", gm.id)
	}
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if cfg.DebugMode {
		log.SetLevel(log.LogLevelDebug)
	}

	gm.id = uuid.New().String()
	gm.config = cfg
	for _, pc := range cfg.Players {
		p := gm.players.AddPlayer(pc.Name, pc.Color)
		if err := gm.players.SetPosition(p.ID, pc.Start); err != nil {
			return fmt.Errorf("failed to place player %s: %v", pc.Name, err)
		}
	}
	gm.initialized = true

	gm.logger.Info("Initialized game %s (version %s) with %d player(s)", gm.id, cfg.Version, gm.players.Len())
	return nil
}

// StartGame begins turn 1 with the player input phase.
func (gm *GameManager) StartGame() error {
	if !gm.initialized {
		return ErrNotInitialized
	}
	if gm.started {
		return ErrAlreadyStarted
	}
	gm.started = true
	gm.turn = 1

	events.Trigger(gm.events, events.GameStarted, events.GameStartedPayload{
		Turn:    gm.turn,
		Players: gm.players.GetAllPlayers(),
	})
	return gm.ChangeState(states.StatePlayerInput, nil)
}

// Start runs the game loop until ctx is done, calling Update once per interval.
func (gm *GameManager) Start(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			gm.Stop()
			return nil
		case t := <-ticker.C:
			gm.Update(t.Sub(last))
			last = t
		}
	}
}

// Stop exits the current phase, cancelling its timers and listeners.
// The last published snapshot is left as it was so it can still be saved.
func (gm *GameManager) Stop() {
	gm.stateManager.Stop()
}

// Update runs one tick: pending commands first, then due timers, then the current phase.
func (gm *GameManager) Update(dt time.Duration) {
	gm.processCommands()
	gm.scheduler.Advance(dt)
	gm.stateManager.Update(dt)
	gm.publishSnapshot()
}

// EndGame moves straight to the game over phase.
func (gm *GameManager) EndGame(reason string) error {
	if !gm.started {
		return ErrNotInitialized
	}
	if current, ok := gm.stateManager.Current(); ok && current == states.StateGameOver {
		return nil
	}
	return gm.ChangeState(states.StateGameOver, states.Data{states.DataKeyReason: reason})
}

func (gm *GameManager) ID() string {
	return gm.id
}

func (gm *GameManager) Config() config.Config {
	return gm.config
}

// CurrentState returns the current phase, if any.
func (gm *GameManager) CurrentState() (states.StateID, bool) {
	return gm.stateManager.Current()
}

// Players implements states.Game.
func (gm *GameManager) Players() *players.Manager {
	return gm.players
}

func (gm *GameManager) Events() *events.System {
	return gm.events
}

func (gm *GameManager) Scheduler() *timers.Scheduler {
	return gm.scheduler
}

func (gm *GameManager) Rules() config.Rules {
	return gm.config.Rules
}

func (gm *GameManager) CurrentTurn() int {
	return gm.turn
}

func (gm *GameManager) AdvanceTurn() int {
	gm.turn++
	return gm.turn
}

func (gm *GameManager) ChangeState(id states.StateID, data states.Data) error {
	return gm.stateManager.ChangeState(id, data)
}

// broadcast forwards every triggered event to the broadcast worker without blocking the loop.
func (gm *GameManager) broadcast(name events.Name, payload any) {
	select {
	case gm.broadcastMessageChan <- workers.BroadcastMessage{Turn: gm.turn, Name: name, Payload: payload}:
	default:
		gm.logger.Warn("Broadcast channel full, dropped %s", name)
	}
}
