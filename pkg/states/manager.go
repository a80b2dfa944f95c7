package states

import (
	"fmt"
	"sort"
	"time"

	"github.com/cbodonnell/hexphase/pkg/events"
	"github.com/cbodonnell/hexphase/pkg/log"
	"github.com/cbodonnell/hexphase/pkg/queue"
)

const pendingTransitionsSize = 64

type transition struct {
	id   StateID
	data Data
}

// StateManager owns the registered states and the current one.
// Transitions always run exit(old) to completion before enter(new).
type StateManager struct {
	states  map[StateID]GameState
	current GameState
	events  *events.System
	// pending holds transitions requested while another transition is running
	pending       queue.Queue[transition]
	transitioning bool
	logger        *log.Logger
}

type NewStateManagerOptions struct {
	Events *events.System
}

func NewStateManager(opts NewStateManagerOptions) *StateManager {
	return &StateManager{
		states:  make(map[StateID]GameState),
		events:  opts.Events,
		pending: queue.NewInMemoryQueue[transition](pendingTransitionsSize),
		logger:  log.Default().With("states"),
	}
}

// Register adds a state. Registering an ID twice replaces the earlier state.
func (m *StateManager) Register(states ...GameState) {
	for _, s := range states {
		m.states[s.ID()] = s
	}
}

// State returns the registered state for id.
func (m *StateManager) State(id StateID) (GameState, bool) {
	s, ok := m.states[id]
	return s, ok
}

// States returns every registered state ordered by ID.
func (m *StateManager) States() []GameState {
	states := make([]GameState, 0, len(m.states))
	for _, s := range m.states {
		states = append(states, s)
	}
	sort.Slice(states, func(i, j int) bool {
		return states[i].ID() < states[j].ID()
	})
	return states
}

// Current returns the ID of the current state, if any.
func (m *StateManager) Current() (StateID, bool) {
	if m.current == nil {
		return 0, false
	}
	return m.current.ID(), true
}

// ChangeState exits the current state and enters the one registered for id.
//
// Changing to the state that is already current is not special-cased: it
// exits and re-enters it. A change requested while a transition is running
// (e.g. from inside EnterState) is queued and applied once that transition
// completes, so the caller must not assume the new state has been entered
// when ChangeState returns.
func (m *StateManager) ChangeState(id StateID, data Data) error {
	if _, ok := m.states[id]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownState, id)
	}

	if m.transitioning {
		if err := m.pending.Enqueue(transition{id: id, data: data}); err != nil {
			return fmt.Errorf("failed to queue transition to %s: %v", id, err)
		}
		m.logger.Debug("Queued transition to %s", id)
		return nil
	}

	m.transitioning = true
	defer func() {
		m.transitioning = false
	}()

	m.transition(id, data)
	for {
		next, ok := m.pending.TryDequeue()
		if !ok {
			return nil
		}
		m.transition(next.id, next.data)
	}
}

func (m *StateManager) transition(id StateID, data Data) {
	next := m.states[id]

	var from string
	if m.current != nil {
		from = m.current.ID().String()
		if err := safeCall(m.current.ExitState); err != nil {
			m.logger.Error("Failed to exit state %s: %v", from, err)
		}
	}

	m.current = next
	m.logger.Info("Entering state %s", id)
	events.Trigger(m.events, events.StateChanged, events.StateChangedPayload{
		From: from,
		To:   id.String(),
	})

	if err := safeCall(func() error { return next.EnterState(data) }); err != nil {
		m.logger.Error("Failed to enter state %s: %v", id, err)
		events.Trigger(m.events, events.PhaseFailed, events.PhaseFailedPayload{
			State: id.String(),
			Error: err.Error(),
		})
	}
}

// Update forwards the tick to the current state. It is a no-op without one.
func (m *StateManager) Update(dt time.Duration) {
	if m.current == nil {
		return
	}
	if err := safeCall(func() error { return m.current.UpdateState(dt) }); err != nil {
		m.logger.Error("Failed to update state %s: %v", m.current.ID(), err)
	}
}

// Stop exits the current state, leaving no state current, and drops queued transitions.
func (m *StateManager) Stop() {
	m.pending.ClearQueue()
	if m.current == nil {
		return
	}
	if err := safeCall(m.current.ExitState); err != nil {
		m.logger.Error("Failed to exit state %s: %v", m.current.ID(), err)
	}
	m.current = nil
}

// safeCall turns a panic in a state callback into an error so the game loop keeps running.
func safeCall(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
