package game

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	mocks "github.com/cbodonnell/hexphase/mocks/github.com/cbodonnell/hexphase/pkg/queue"
	"github.com/cbodonnell/hexphase/pkg/config"
	"github.com/cbodonnell/hexphase/pkg/events"
	"github.com/cbodonnell/hexphase/pkg/players"
	"github.com/cbodonnell/hexphase/pkg/snapshot"
	"github.com/cbodonnell/hexphase/pkg/states"
	"github.com/cbodonnell/hexphase/pkg/workers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(rules config.Rules, names ...string) config.Config {
	cfg := config.Config{
		Version: "test",
		Rules:   rules,
	}
	for i, name := range names {
		cfg.Players = append(cfg.Players, config.PlayerConfig{
			Name:  name,
			Color: "#ffffff",
			Start: players.Coord{Q: i, R: 0},
		})
	}
	return cfg
}

func fixedRoller(roll int) states.Roller {
	return states.RollerFunc(func(int) int { return roll })
}

func newStartedGame(t *testing.T, opts NewGameManagerOptions, cfg config.Config) *GameManager {
	t.Helper()
	if opts.Roller == nil {
		opts.Roller = fixedRoller(1)
	}
	gm := NewGameManager(opts)
	require.NoError(t, gm.Initialize(cfg))
	require.NoError(t, gm.StartGame())
	return gm
}

func playerIDs(gm *GameManager) []string {
	var ids []string
	for _, p := range gm.Players().GetAllPlayers() {
		ids = append(ids, p.ID)
	}
	return ids
}

func TestGameManager_Initialize(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Config
		wantErr bool
	}{
		{name: "valid", cfg: testConfig(config.Rules{}, "alice", "bob")},
		{name: "no players", cfg: testConfig(config.Rules{}), wantErr: true},
		{name: "negative time limit", cfg: testConfig(config.Rules{TurnTimeLimitMS: -1}, "alice"), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gm := NewGameManager(NewGameManagerOptions{})
			err := gm.Initialize(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, gm.ID())
			assert.Equal(t, len(tt.cfg.Players), gm.Players().Len())
			assert.Equal(t, config.DefaultHazardDie, gm.Rules().HazardDie)

			p := gm.Players().GetAllPlayers()[1]
			assert.Equal(t, players.Coord{Q: 1, R: 0}, p.Position)

			assert.Error(t, gm.Initialize(tt.cfg), "initialize runs once")
		})
	}
}

func TestGameManager_StartGame(t *testing.T) {
	gm := NewGameManager(NewGameManagerOptions{Roller: fixedRoller(1)})
	assert.ErrorIs(t, gm.StartGame(), ErrNotInitialized)

	require.NoError(t, gm.Initialize(testConfig(config.Rules{}, "alice", "bob")))
	var started []events.GameStartedPayload
	events.On(gm.Events(), events.GameStarted, func(p events.GameStartedPayload) {
		started = append(started, p)
	})

	require.NoError(t, gm.StartGame())
	assert.ErrorIs(t, gm.StartGame(), ErrAlreadyStarted)

	require.Len(t, started, 1)
	assert.Equal(t, 1, started[0].Turn)
	assert.Len(t, started[0].Players, 2)
	assert.Equal(t, 1, gm.CurrentTurn())
	current, ok := gm.CurrentState()
	require.True(t, ok)
	assert.Equal(t, states.StatePlayerInput, current)
	assert.Equal(t, 0, gm.Players().ActiveIndex())
}

func TestGameManager_SubmitPlayerActions(t *testing.T) {
	move := []players.Action{{Kind: players.ActionKindMove, Target: players.Coord{Q: 1, R: 0}}}

	tests := []struct {
		name     string
		setup    func(gm *GameManager) string
		actions  []players.Action
		complete bool
		wantErr  error
	}{
		{
			name:    "queued",
			setup:   func(gm *GameManager) string { return playerIDs(gm)[0] },
			actions: move,
		},
		{
			name:    "unknown player",
			setup:   func(gm *GameManager) string { return "nobody" },
			actions: move,
			wantErr: ErrUnknownPlayer,
		},
		{
			name: "already completed",
			setup: func(gm *GameManager) string {
				id := playerIDs(gm)[0]
				require.NoError(t, gm.CompletePlayerActions(id))
				return id
			},
			actions: move,
			wantErr: ErrActionsAlreadyCompleted,
		},
		{
			name:    "invalid action",
			setup:   func(gm *GameManager) string { return playerIDs(gm)[0] },
			actions: []players.Action{{Kind: "teleport"}},
			wantErr: ErrInvalidActions,
		},
		{
			name: "not accepting input",
			setup: func(gm *GameManager) string {
				require.NoError(t, gm.EndGame("abandoned"))
				return playerIDs(gm)[0]
			},
			actions: move,
			wantErr: ErrNotAcceptingInput,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gm := newStartedGame(t, NewGameManagerOptions{}, testConfig(config.Rules{}, "alice", "bob"))
			playerID := tt.setup(gm)

			err := gm.SubmitPlayerActions(playerID, tt.actions, tt.complete)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			p, ok := gm.Players().Player(playerID)
			require.True(t, ok)
			assert.Equal(t, tt.actions, p.Actions)
		})
	}
}

func TestGameManager_twoPlayerTurn(t *testing.T) {
	gm := newStartedGame(t, NewGameManagerOptions{}, testConfig(config.Rules{HazardRollDelayMS: 1000}, "alice", "bob"))
	ids := playerIDs(gm)

	require.NoError(t, gm.SubmitPlayerActions(ids[0], nil, true))
	active, ok := gm.Players().ActivePlayer()
	require.True(t, ok)
	assert.Equal(t, ids[1], active.ID)

	require.NoError(t, gm.CompleteActivePlayerActions())
	current, _ := gm.CurrentState()
	assert.Equal(t, states.StateHazardRolls, current)
	assert.Equal(t, 1, gm.CurrentTurn())

	// the hazard delay elapses on the game loop and the cycle returns to input
	gm.Update(time.Second)
	current, _ = gm.CurrentState()
	assert.Equal(t, states.StatePlayerInput, current)
	assert.Equal(t, 2, gm.CurrentTurn())
}

func TestGameManager_timeoutThroughUpdate(t *testing.T) {
	gm := newStartedGame(t, NewGameManagerOptions{}, testConfig(config.Rules{TurnTimeLimitMS: 100, HazardRollDelayMS: 1000}, "solo"))
	id := playerIDs(gm)[0]

	gm.Update(60 * time.Millisecond)
	current, _ := gm.CurrentState()
	assert.Equal(t, states.StatePlayerInput, current)

	gm.Update(40 * time.Millisecond)
	current, _ = gm.CurrentState()
	assert.Equal(t, states.StateHazardRolls, current)
	assert.True(t, gm.Players().HasPlayerCompletedActions(id))
}

func TestGameManager_gameOverRequestsSave(t *testing.T) {
	saveRequests := make(chan workers.SaveRequest, 1)
	gm := newStartedGame(t, NewGameManagerOptions{SaveRequestChan: saveRequests}, testConfig(config.Rules{MaxTurns: 1}, "alice"))

	require.NoError(t, gm.CompletePlayerActions(playerIDs(gm)[0]))

	current, _ := gm.CurrentState()
	assert.Equal(t, states.StateGameOver, current)
	select {
	case req := <-saveRequests:
		assert.Equal(t, gm.ID(), req.Save.ID)
		assert.Equal(t, "GAME_OVER", req.Save.State)
		assert.Equal(t, 1, req.Save.Turn)
	default:
		t.Fatal("expected a save request on game over")
	}
}

func TestGameManager_processCommands(t *testing.T) {
	mockQueue := mocks.NewQueue[Command](t)
	gm := newStartedGame(t, NewGameManagerOptions{CommandQueue: mockQueue}, testConfig(config.Rules{}, "alice", "bob"))
	ids := playerIDs(gm)

	submitted := make(chan error, 1)
	rejected := make(chan error, 1)
	mockQueue.EXPECT().ReadAllMessages().Return([]Command{
		SubmitActionsCommand{
			PlayerID: ids[0],
			Actions:  []players.Action{{Kind: players.ActionKindWait}},
			Complete: true,
			Result:   submitted,
		},
		CompleteActionsCommand{PlayerID: "nobody", Result: rejected},
		// a command without a result channel is applied all the same
		CompleteActionsCommand{PlayerID: ids[1]},
	}).Once()

	gm.Update(0)

	assert.NoError(t, <-submitted)
	assert.ErrorIs(t, <-rejected, ErrUnknownPlayer)
	assert.Equal(t, 2, gm.CurrentTurn(), "both players completed so the turn resolved")
}

func TestGameManager_Enqueue(t *testing.T) {
	gm := newStartedGame(t, NewGameManagerOptions{}, testConfig(config.Rules{}, "alice"))
	result := make(chan error, 1)

	require.NoError(t, gm.Enqueue(EndGameCommand{Reason: "host left", Result: result}))
	current, _ := gm.CurrentState()
	assert.Equal(t, states.StatePlayerInput, current, "nothing runs before the next tick")

	gm.Update(time.Millisecond)
	assert.NoError(t, <-result)
	current, _ = gm.CurrentState()
	assert.Equal(t, states.StateGameOver, current)
}

func TestGameManager_SaveCommand(t *testing.T) {
	gm := newStartedGame(t, NewGameManagerOptions{}, testConfig(config.Rules{}, "alice"))
	result := make(chan error, 1)
	require.NoError(t, gm.Enqueue(SaveCommand{Result: result}))

	gm.Update(0)

	assert.Error(t, <-result, "saving without a save worker fails")
}

func TestGameManager_SaveLoad(t *testing.T) {
	cfg := testConfig(config.Rules{HazardRollDelayMS: 1000}, "alice", "bob")
	gm := newStartedGame(t, NewGameManagerOptions{}, cfg)
	ids := playerIDs(gm)

	// play one turn, then queue actions in the second
	require.NoError(t, gm.CompletePlayerActions(ids[0]))
	require.NoError(t, gm.CompletePlayerActions(ids[1]))
	gm.Update(time.Second)
	require.Equal(t, 2, gm.CurrentTurn())
	wait := []players.Action{{Kind: players.ActionKindWait}}
	require.NoError(t, gm.SubmitPlayerActions(ids[0], wait, false))

	save, err := gm.Save()
	require.NoError(t, err)
	assert.Equal(t, gm.ID(), save.ID)
	assert.Equal(t, "test", save.Version)
	assert.Equal(t, "PLAYER_INPUT", save.State)
	assert.JSONEq(t, `{"allInputsReceived":false}`, string(save.States["PLAYER_INPUT"]))

	loaded := NewGameManager(NewGameManagerOptions{Roller: fixedRoller(1)})
	assert.ErrorIs(t, loaded.Load(save), ErrNotInitialized)
	require.NoError(t, loaded.Initialize(cfg))
	require.NoError(t, loaded.Load(save))

	assert.Equal(t, gm.ID(), loaded.ID())
	assert.Equal(t, 2, loaded.CurrentTurn())
	current, ok := loaded.CurrentState()
	require.True(t, ok)
	assert.Equal(t, states.StatePlayerInput, current)
	assert.Equal(t, ids, playerIDs(loaded))
	p, _ := loaded.Players().Player(ids[0])
	assert.Equal(t, wait, p.Actions)
	assert.Equal(t, 0, loaded.Players().ActiveIndex())
}

func TestGameManager_LoadInvalid(t *testing.T) {
	gm := NewGameManager(NewGameManagerOptions{})
	require.NoError(t, gm.Initialize(testConfig(config.Rules{}, "alice")))

	save, err := newStartedGame(t, NewGameManagerOptions{}, testConfig(config.Rules{}, "alice")).Save()
	require.NoError(t, err)

	badState := *save
	badState.State = "LOBBY"
	assert.ErrorIs(t, gm.Load(&badState), states.ErrUnknownState)

	badData := *save
	badData.States = map[string]json.RawMessage{"PLAYER_INPUT": json.RawMessage(`{`)}
	assert.Error(t, gm.Load(&badData))

	assert.Error(t, gm.Load(nil))
}

func TestGameManager_Save_notStarted(t *testing.T) {
	gm := NewGameManager(NewGameManagerOptions{})
	_, err := gm.Save()
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestGameManager_publishesSnapshots(t *testing.T) {
	store := snapshot.NewInMemoryStore()
	gm := newStartedGame(t, NewGameManagerOptions{Snapshots: store}, testConfig(config.Rules{TurnTimeLimitMS: 100}, "alice", "bob"))

	gm.Update(30 * time.Millisecond)

	snap, err := store.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, gm.ID(), snap.GameID)
	assert.Equal(t, "PLAYER_INPUT", snap.State)
	assert.Equal(t, 1, snap.Turn)
	assert.Equal(t, playerIDs(gm)[0], snap.ActivePlayerID)
	assert.Equal(t, 70*time.Millisecond, snap.TimeRemaining)
	assert.Len(t, snap.Players, 2)
}

func TestGameManager_broadcastsEvents(t *testing.T) {
	broadcasts := make(chan workers.BroadcastMessage, 16)
	newStartedGame(t, NewGameManagerOptions{BroadcastMessageChan: broadcasts}, testConfig(config.Rules{}, "alice"))

	var names []events.Name
	for len(broadcasts) > 0 {
		names = append(names, (<-broadcasts).Name)
	}
	assert.Equal(t, []events.Name{
		events.NameGameStarted,
		events.NameStateChanged,
		events.NamePlayerInputPhaseStart,
	}, names)
}

func TestGameManager_broadcastDoesNotBlock(t *testing.T) {
	broadcasts := make(chan workers.BroadcastMessage)
	gm := newStartedGame(t, NewGameManagerOptions{BroadcastMessageChan: broadcasts}, testConfig(config.Rules{}, "alice"))

	// nobody reads the channel; the loop keeps running
	require.NoError(t, gm.CompletePlayerActions(playerIDs(gm)[0]))
	assert.Equal(t, 2, gm.CurrentTurn())
}

func TestGameManager_EndGame(t *testing.T) {
	gm := NewGameManager(NewGameManagerOptions{})
	assert.ErrorIs(t, gm.EndGame("early"), ErrNotInitialized)

	gm = newStartedGame(t, NewGameManagerOptions{}, testConfig(config.Rules{TurnTimeLimitMS: 100}, "alice"))
	var over []events.GameOverPayload
	events.On(gm.Events(), events.GameOver, func(p events.GameOverPayload) {
		over = append(over, p)
	})

	require.NoError(t, gm.EndGame("host left"))
	require.NoError(t, gm.EndGame("again"))

	require.Len(t, over, 1)
	assert.Equal(t, "host left", over[0].Reason)
	assert.Equal(t, 0, gm.Scheduler().Pending(), "the input timer is cancelled")
}

func TestGameManager_Start(t *testing.T) {
	gm := newStartedGame(t, NewGameManagerOptions{}, testConfig(config.Rules{TurnTimeLimitMS: 20, HazardRollDelayMS: 60_000}, "alice"))

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	require.NoError(t, gm.Start(ctx, 5*time.Millisecond))

	// the loop ran the input timer out, then Stop exited the current phase
	assert.True(t, gm.Players().HasPlayerCompletedActions(playerIDs(gm)[0]))
	_, ok := gm.CurrentState()
	assert.False(t, ok)
	assert.True(t, errors.Is(gm.CompletePlayerActions(playerIDs(gm)[0]), ErrNotAcceptingInput))
}
