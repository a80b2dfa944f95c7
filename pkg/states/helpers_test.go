package states

import (
	"testing"

	"github.com/cbodonnell/hexphase/pkg/config"
	"github.com/cbodonnell/hexphase/pkg/events"
	"github.com/cbodonnell/hexphase/pkg/players"
	"github.com/cbodonnell/hexphase/pkg/timers"
	"github.com/stretchr/testify/require"
)

// testGame is a minimal Game wiring the real collaborators together.
type testGame struct {
	players   *players.Manager
	events    *events.System
	scheduler *timers.Scheduler
	rules     config.Rules
	turn      int
	manager   *StateManager
}

var _ Game = &testGame{}

func newTestGame(t *testing.T, rules config.Rules, names ...string) *testGame {
	t.Helper()
	g := &testGame{
		players:   players.NewManager(),
		events:    events.NewSystem(),
		scheduler: timers.NewScheduler(),
		rules:     config.Config{Rules: rules}.WithDefaults().Rules,
		turn:      1,
	}
	for _, name := range names {
		g.players.AddPlayer(name, "#000000")
	}
	g.manager = NewStateManager(NewStateManagerOptions{Events: g.events})
	return g
}

// registerAll registers every phase using roller for dice.
func (g *testGame) registerAll(roller Roller) {
	g.manager.Register(
		NewPlayerInputState(g, nil),
		NewHazardRollsState(g, roller),
		NewTurnOrderState(g, roller),
		NewActionResolutionState(g),
		NewEndTurnState(g),
		NewGameOverState(g),
	)
}

func (g *testGame) Players() *players.Manager { return g.players }
func (g *testGame) Events() *events.System { return g.events }
func (g *testGame) Scheduler() *timers.Scheduler { return g.scheduler }
func (g *testGame) Rules() config.Rules { return g.rules }
func (g *testGame) CurrentTurn() int { return g.turn }
func (g *testGame) ChangeState(id StateID, data Data) error {
	return g.manager.ChangeState(id, data)
}

func (g *testGame) AdvanceTurn() int {
	g.turn++
	return g.turn
}

func (g *testGame) current(t *testing.T) StateID {
	t.Helper()
	id, ok := g.manager.Current()
	require.True(t, ok, "expected a current state")
	return id
}

func (g *testGame) playerIDs() []string {
	var ids []string
	for _, p := range g.players.GetAllPlayers() {
		ids = append(ids, p.ID)
	}
	return ids
}

func (g *testGame) complete(playerID string) {
	events.Trigger(g.events, events.PlayerActionsCompleted, events.PlayerActionsCompletedPayload{PlayerID: playerID})
}

// record collects every payload triggered for e.
func record[P any](g *testGame, e events.Event[P]) *[]P {
	var got []P
	events.On(g.events, e, func(p P) { got = append(got, p) })
	return &got
}

// sequenceRoller returns the given rolls in order, repeating the last one.
func sequenceRoller(rolls ...int) Roller {
	i := 0
	return RollerFunc(func(sides int) int {
		r := rolls[i]
		if i < len(rolls)-1 {
			i++
		}
		return r
	})
}
