package states

import (
	"testing"
	"time"

	"github.com/cbodonnell/hexphase/pkg/config"
	"github.com/cbodonnell/hexphase/pkg/events"
	"github.com/cbodonnell/hexphase/pkg/players"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// holdInHazardRolls keeps the game in HAZARD_ROLLS after input so tests can observe the transition.
const holdInHazardRolls = 60_000

func TestPlayerInputState_enterResetsPlayers(t *testing.T) {
	for _, n := range []int{1, 2, 3, 5} {
		names := make([]string, n)
		for i := range names {
			names[i] = "player"
		}
		g := newTestGame(t, config.Rules{}, names...)
		g.registerAll(sequenceRoller(1))

		// leave state behind from a previous phase
		g.players.SetFirstPlayerActive()
		g.players.AdvanceToNextPlayer()
		for _, id := range g.playerIDs() {
			g.players.MarkPlayerActionsCompleted(id)
		}

		require.NoError(t, g.manager.ChangeState(StatePlayerInput, nil))

		assert.Equal(t, 0, g.players.ActiveIndex(), "players=%d", n)
		for _, p := range g.players.GetAllPlayers() {
			assert.False(t, p.ActionsCompleted, "players=%d", n)
		}
	}
}

func TestPlayerInputState_twoPlayersNoTimeLimit(t *testing.T) {
	g := newTestGame(t, config.Rules{HazardRollDelayMS: holdInHazardRolls}, "alice", "bob")
	g.registerAll(sequenceRoller(1))
	ids := g.playerIDs()

	starts := record(g, events.PlayerInputPhaseStart)
	turns := record(g, events.ActivePlayerInputTurn)
	completes := record(g, events.PlayerInputPhaseComplete)
	changes := record(g, events.StateChanged)

	require.NoError(t, g.manager.ChangeState(StatePlayerInput, nil))
	require.Len(t, *starts, 1)
	assert.Equal(t, ids[0], (*starts)[0].ActivePlayer.ID)
	assert.Equal(t, time.Duration(0), (*starts)[0].TimeLimit)
	assert.Equal(t, 0, g.scheduler.Pending(), "no timer without a time limit")

	g.complete(ids[0])
	active, ok := g.players.ActivePlayer()
	require.True(t, ok)
	assert.Equal(t, ids[1], active.ID)
	require.Len(t, *turns, 1)
	assert.Equal(t, ids[1], (*turns)[0].Player.ID)
	assert.Empty(t, *completes)

	g.complete(ids[1])
	require.Len(t, *completes, 1)
	assert.False(t, (*completes)[0].TimedOut)
	assert.Equal(t, StateHazardRolls, g.current(t))
	assert.Equal(t, 1, g.CurrentTurn())

	hazardEntries := 0
	for _, c := range *changes {
		if c.To == StateHazardRolls.String() {
			hazardEntries++
		}
	}
	assert.Equal(t, 1, hazardEntries)
	assert.Equal(t, 0, g.events.ListenerCount(events.NamePlayerActionsCompleted))
}

func TestPlayerInputState_timeoutSinglePlayer(t *testing.T) {
	g := newTestGame(t, config.Rules{TurnTimeLimitMS: 100, HazardRollDelayMS: holdInHazardRolls}, "solo")
	g.registerAll(sequenceRoller(1))
	id := g.playerIDs()[0]
	completes := record(g, events.PlayerInputPhaseComplete)

	require.NoError(t, g.manager.ChangeState(StatePlayerInput, nil))
	input, _ := g.manager.State(StatePlayerInput)
	assert.Equal(t, 100*time.Millisecond, input.(*PlayerInputState).TimeRemaining())

	g.scheduler.Advance(99 * time.Millisecond)
	assert.Equal(t, StatePlayerInput, g.current(t))
	assert.False(t, g.players.HasPlayerCompletedActions(id))

	g.scheduler.Advance(time.Millisecond)
	assert.True(t, g.players.HasPlayerCompletedActions(id))
	require.Len(t, *completes, 1)
	assert.True(t, (*completes)[0].TimedOut)
	assert.Equal(t, []string{id}, (*completes)[0].AutoCompleted)
	assert.Equal(t, StateHazardRolls, g.current(t))
}

func TestPlayerInputState_timeoutAfterPartialCompletion(t *testing.T) {
	g := newTestGame(t, config.Rules{TurnTimeLimitMS: 100, HazardRollDelayMS: holdInHazardRolls}, "a", "b", "c")
	g.registerAll(sequenceRoller(1))
	ids := g.playerIDs()
	completes := record(g, events.PlayerInputPhaseComplete)

	require.NoError(t, g.manager.ChangeState(StatePlayerInput, nil))
	g.complete(ids[0])
	g.complete(ids[1])
	assert.Equal(t, 2, g.players.ActiveIndex())

	g.scheduler.Advance(100 * time.Millisecond)
	require.Len(t, *completes, 1)
	assert.Equal(t, []string{ids[2]}, (*completes)[0].AutoCompleted)

	// a late completion and further ticks must not finalize again
	g.complete(ids[2])
	g.scheduler.Advance(time.Second)
	assert.Len(t, *completes, 1)
}

func TestPlayerInputState_naturalCompletionCancelsTimer(t *testing.T) {
	g := newTestGame(t, config.Rules{TurnTimeLimitMS: 100, HazardRollDelayMS: holdInHazardRolls}, "a", "b")
	g.registerAll(sequenceRoller(1))
	ids := g.playerIDs()
	completes := record(g, events.PlayerInputPhaseComplete)

	require.NoError(t, g.manager.ChangeState(StatePlayerInput, nil))
	g.complete(ids[0])
	g.complete(ids[1])

	// only the hazard delay timer remains armed
	assert.Equal(t, 1, g.scheduler.Pending())
	g.scheduler.Advance(150 * time.Millisecond)
	assert.Len(t, *completes, 1)
	assert.False(t, (*completes)[0].TimedOut)
}

func TestPlayerInputState_reentryDropsStaleTimer(t *testing.T) {
	g := newTestGame(t, config.Rules{TurnTimeLimitMS: 100, HazardRollDelayMS: holdInHazardRolls}, "a")
	g.registerAll(sequenceRoller(1))
	completes := record(g, events.PlayerInputPhaseComplete)

	require.NoError(t, g.manager.ChangeState(StatePlayerInput, nil))
	g.scheduler.Advance(50 * time.Millisecond)

	require.NoError(t, g.manager.ChangeState(StatePlayerInput, nil))
	assert.Equal(t, 1, g.scheduler.Pending())
	assert.Equal(t, 1, g.events.ListenerCount(events.NamePlayerActionsCompleted))

	g.scheduler.Advance(60 * time.Millisecond)
	assert.Empty(t, *completes, "the first activation's timer must not fire")

	g.scheduler.Advance(40 * time.Millisecond)
	assert.Len(t, *completes, 1)
}

func TestPlayerInputState_forcedExitReleases(t *testing.T) {
	g := newTestGame(t, config.Rules{TurnTimeLimitMS: 100}, "a", "b")
	g.registerAll(sequenceRoller(1))
	completes := record(g, events.PlayerInputPhaseComplete)

	require.NoError(t, g.manager.ChangeState(StatePlayerInput, nil))
	require.NoError(t, g.manager.ChangeState(StateGameOver, nil))

	assert.Equal(t, 0, g.scheduler.Pending())
	assert.Equal(t, 0, g.events.ListenerCount(events.NamePlayerActionsCompleted))

	g.complete(g.playerIDs()[0])
	g.scheduler.Advance(time.Second)
	assert.Empty(t, *completes)
	assert.Equal(t, StateGameOver, g.current(t))
}

func TestPlayerInputState_outOfTurnCompletion(t *testing.T) {
	g := newTestGame(t, config.Rules{HazardRollDelayMS: holdInHazardRolls}, "a", "b", "c")
	g.registerAll(sequenceRoller(1))
	ids := g.playerIDs()
	turns := record(g, events.ActivePlayerInputTurn)

	require.NoError(t, g.manager.ChangeState(StatePlayerInput, nil))

	g.complete(ids[1])
	assert.Equal(t, 0, g.players.ActiveIndex())
	assert.Empty(t, *turns)

	g.complete(ids[0])
	assert.Equal(t, 2, g.players.ActiveIndex(), "completed players are skipped")
	require.Len(t, *turns, 1)
	assert.Equal(t, ids[2], (*turns)[0].Player.ID)
}

func TestPlayerInputState_unknownPlayerIgnored(t *testing.T) {
	g := newTestGame(t, config.Rules{}, "a")
	g.registerAll(sequenceRoller(1))

	require.NoError(t, g.manager.ChangeState(StatePlayerInput, nil))
	g.complete("nobody")

	assert.Equal(t, StatePlayerInput, g.current(t))
	assert.Equal(t, 0, g.players.ActiveIndex())
}

func TestPlayerInputState_noPlayers(t *testing.T) {
	g := newTestGame(t, config.Rules{HazardRollDelayMS: holdInHazardRolls})
	g.registerAll(sequenceRoller(1))
	completes := record(g, events.PlayerInputPhaseComplete)

	require.NoError(t, g.manager.ChangeState(StatePlayerInput, nil))

	assert.Len(t, *completes, 1)
	assert.Equal(t, StateHazardRolls, g.current(t))
}

func TestPlayerInputState_autoCompletePolicy(t *testing.T) {
	queued := []players.Action{{Kind: players.ActionKindWait}}

	tests := []struct {
		name   string
		policy AutoCompletePolicy
		want   []players.Action
	}{
		{name: "skip turn", policy: SkipTurn{}, want: nil},
		{name: "keep queued", policy: KeepQueuedActions{}, want: queued},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGame(t, config.Rules{TurnTimeLimitMS: 10, HazardRollDelayMS: holdInHazardRolls}, "a")
			g.manager.Register(NewPlayerInputState(g, tt.policy), NewHazardRollsState(g, sequenceRoller(1)))
			id := g.playerIDs()[0]

			require.NoError(t, g.manager.ChangeState(StatePlayerInput, nil))
			require.NoError(t, g.players.SetActions(id, queued))
			g.scheduler.Advance(10 * time.Millisecond)

			p, _ := g.players.Player(id)
			if tt.want == nil {
				assert.Empty(t, p.Actions)
			} else {
				assert.Equal(t, tt.want, p.Actions)
			}
		})
	}
}

func TestPlayerInputState_saveDataRoundTrip(t *testing.T) {
	g := newTestGame(t, config.Rules{HazardRollDelayMS: holdInHazardRolls}, "a")
	g.registerAll(sequenceRoller(1))
	completes := record(g, events.PlayerInputPhaseComplete)

	require.NoError(t, g.manager.ChangeState(StatePlayerInput, nil))
	g.complete(g.playerIDs()[0])
	require.Len(t, *completes, 1)

	input, _ := g.manager.State(StatePlayerInput)
	saved, err := input.GetSaveData()
	require.NoError(t, err)
	assert.JSONEq(t, `{"allInputsReceived": true}`, string(saved))

	fresh := NewPlayerInputState(g, nil)
	require.NoError(t, fresh.LoadSaveData(saved))
	fresh.completeInputPhase(false, nil)
	assert.Len(t, *completes, 1, "a loaded latch prevents finalizing again")

	empty := NewPlayerInputState(g, nil)
	require.NoError(t, empty.LoadSaveData(nil))
	assert.Error(t, empty.LoadSaveData([]byte(`{`)))
}
