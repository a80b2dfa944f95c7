package events

import (
	"github.com/cbodonnell/hexphase/pkg/log"
	"github.com/google/uuid"
)

// Handle identifies a single listener registration.
// The zero Handle identifies nothing and is safe to pass to Off.
type Handle struct {
	id       uuid.UUID
	name     Name
	observer bool
}

// Valid reports whether the handle was returned by a registration.
func (h Handle) Valid() bool {
	return h.id != uuid.Nil
}

// Observer receives every triggered event after the event's own listeners ran.
type Observer func(name Name, payload any)

type listener struct {
	id uuid.UUID
	fn func(payload any)
}

type observer struct {
	id uuid.UUID
	fn Observer
}

// System is a synchronous named pub/sub bus.
// It is not safe for concurrent use: every call is expected to come from the game loop goroutine.
type System struct {
	listeners map[Name][]*listener
	observers []*observer
	logger    *log.Logger
}

func NewSystem() *System {
	return &System{
		listeners: make(map[Name][]*listener),
		logger:    log.Default().With("events"),
	}
}

// On appends fn to the listeners of e. Listeners run in registration order.
func On[P any](s *System, e Event[P], fn func(P)) Handle {
	l := &listener{
		id: uuid.New(),
		fn: func(payload any) {
			fn(payload.(P))
		},
	}
	s.listeners[e.name] = append(s.listeners[e.name], l)
	s.logger.Trace("Registered listener %s for %s", l.id, e.name)
	return Handle{id: l.id, name: e.name}
}

// Trigger synchronously invokes every listener registered for e when the call starts.
// Listeners added or removed during dispatch only affect later triggers.
func Trigger[P any](s *System, e Event[P], payload P) {
	s.dispatch(e.name, payload)
}

// Observe registers fn to receive every event.
func (s *System) Observe(fn Observer) Handle {
	o := &observer{id: uuid.New(), fn: fn}
	s.observers = append(s.observers, o)
	return Handle{id: o.id, observer: true}
}

// Off removes the registration identified by h. Removing twice is a no-op.
func (s *System) Off(h Handle) {
	if !h.Valid() {
		return
	}

	if h.observer {
		for i, o := range s.observers {
			if o.id == h.id {
				s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
				return
			}
		}
		return
	}

	list := s.listeners[h.name]
	for i, l := range list {
		if l.id != h.id {
			continue
		}
		// build a new slice so an in-flight snapshot keeps its backing array
		remaining := append(list[:i:i], list[i+1:]...)
		if len(remaining) == 0 {
			delete(s.listeners, h.name)
		} else {
			s.listeners[h.name] = remaining
		}
		s.logger.Trace("Unregistered listener %s for %s", h.id, h.name)
		return
	}
}

// ListenerCount returns the number of listeners currently registered for name.
func (s *System) ListenerCount(name Name) int {
	return len(s.listeners[name])
}

func (s *System) dispatch(name Name, payload any) {
	s.logger.Debug("Triggering %s", name)

	snapshot := make([]*listener, len(s.listeners[name]))
	copy(snapshot, s.listeners[name])
	for _, l := range snapshot {
		s.safeInvoke(name, func() { l.fn(payload) })
	}

	observers := make([]*observer, len(s.observers))
	copy(observers, s.observers)
	for _, o := range observers {
		s.safeInvoke(name, func() { o.fn(name, payload) })
	}
}

func (s *System) safeInvoke(name Name, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Listener for %s failed: %v", name, r)
		}
	}()
	fn()
}
