package timers

import (
	"sort"
	"time"
)

// Scheduler runs delayed callbacks on the goroutine that calls Advance.
// The game loop advances it once per tick with the elapsed time, so timers
// fire in between frames and never concurrently with game logic.
type Scheduler struct {
	now    time.Duration
	seq    uint64
	timers []*Timer
}

// Timer is a callback armed on a Scheduler.
type Timer struct {
	scheduler *Scheduler
	at        time.Duration
	seq       uint64
	fn        func()
	done      bool
}

func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Now returns the total time the scheduler has been advanced by.
func (s *Scheduler) Now() time.Duration {
	return s.now
}

// AfterFunc arms fn to run once d has elapsed. A non-positive d fires on the next Advance.
func (s *Scheduler) AfterFunc(d time.Duration, fn func()) *Timer {
	if d < 0 {
		d = 0
	}
	s.seq++
	t := &Timer{
		scheduler: s,
		at:        s.now + d,
		seq:       s.seq,
		fn:        fn,
	}
	s.timers = append(s.timers, t)
	return t
}

// Pending returns the number of armed timers.
func (s *Scheduler) Pending() int {
	return len(s.timers)
}

// Advance moves time forward by dt and fires every timer that became due,
// earliest deadline first. Timers armed by a callback with a deadline inside
// the window fire during the same call.
func (s *Scheduler) Advance(dt time.Duration) {
	if dt > 0 {
		s.now += dt
	}
	for {
		t := s.nextDue()
		if t == nil {
			return
		}
		s.remove(t)
		t.done = true
		t.fn()
	}
}

func (s *Scheduler) nextDue() *Timer {
	if len(s.timers) == 0 {
		return nil
	}
	sort.SliceStable(s.timers, func(i, j int) bool {
		if s.timers[i].at == s.timers[j].at {
			return s.timers[i].seq < s.timers[j].seq
		}
		return s.timers[i].at < s.timers[j].at
	})
	if s.timers[0].at > s.now {
		return nil
	}
	return s.timers[0]
}

func (s *Scheduler) remove(t *Timer) {
	for i, other := range s.timers {
		if other == t {
			s.timers = append(s.timers[:i], s.timers[i+1:]...)
			return
		}
	}
}

// Stop prevents the timer from firing. It reports whether the call stopped
// the timer; stopping a fired or already stopped timer is a no-op. A nil
// Timer is safe to stop.
func (t *Timer) Stop() bool {
	if t == nil || t.done {
		return false
	}
	t.done = true
	t.scheduler.remove(t)
	return true
}

// Remaining returns the time left until the timer fires, or zero once it fired or was stopped.
func (t *Timer) Remaining() time.Duration {
	if t == nil || t.done {
		return 0
	}
	return t.at - t.scheduler.now
}
