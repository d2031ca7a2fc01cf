package eventloop

import (
	"sort"
	"time"
)

// Manual is a deterministic scheduler for tests. Time only moves when
// Advance is called, and work passed to Go is parked until the test runs
// it with RunNext, Run or RunAll.
//
// Manual is not safe for concurrent use; it is the loop.
type Manual struct {
	now    time.Duration
	seq    int
	timers []*manualTimer
	tasks  []*task
	stops  int
}

// NewManual creates a Manual scheduler at virtual time zero.
func NewManual() *Manual {
	return &Manual{}
}

type manualTimer struct {
	m     *Manual
	seq   int
	when  time.Duration
	every time.Duration
	fn    func()
	done  bool
}

func (t *manualTimer) Stop() bool {
	if t.done {
		return false
	}
	t.done = true
	t.m.stops++
	return true
}

type task struct {
	work func()
	done func()
}

// Now returns the virtual time elapsed since creation.
func (m *Manual) Now() time.Duration { return m.now }

// AfterFunc schedules fn once, d from now.
func (m *Manual) AfterFunc(d time.Duration, fn func()) Timer {
	return m.add(d, 0, fn)
}

// Every schedules fn every d.
func (m *Manual) Every(d time.Duration, fn func()) Timer {
	return m.add(d, d, fn)
}

func (m *Manual) add(d, every time.Duration, fn func()) *manualTimer {
	m.seq++
	t := &manualTimer{m: m, seq: m.seq, when: m.now + d, every: every, fn: fn}
	m.timers = append(m.timers, t)
	return t
}

// Go parks work and done until the test runs them.
func (m *Manual) Go(work func(), done func()) {
	m.tasks = append(m.tasks, &task{work: work, done: done})
}

// Advance moves the clock forward by d, firing due timers in deadline
// order. Callbacks scheduled by a firing timer fire too if they fall due
// within the window.
func (m *Manual) Advance(d time.Duration) {
	target := m.now + d
	for {
		t := m.nextDue(target)
		if t == nil {
			break
		}
		m.now = t.when
		if t.every > 0 {
			t.when += t.every
		} else {
			t.done = true
		}
		t.fn()
	}
	m.now = target
	m.compact()
}

func (m *Manual) nextDue(target time.Duration) *manualTimer {
	var due []*manualTimer
	for _, t := range m.timers {
		if !t.done && t.when <= target {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].when != due[j].when {
			return due[i].when < due[j].when
		}
		return due[i].seq < due[j].seq
	})
	return due[0]
}

func (m *Manual) compact() {
	live := m.timers[:0]
	for _, t := range m.timers {
		if !t.done {
			live = append(live, t)
		}
	}
	m.timers = live
}

// ActiveTimers returns how many timers can still fire.
func (m *Manual) ActiveTimers() int {
	n := 0
	for _, t := range m.timers {
		if !t.done {
			n++
		}
	}
	return n
}

// Stops returns how many Stop calls actually cancelled a timer.
func (m *Manual) Stops() int { return m.stops }

// Pending returns the number of parked Go tasks.
func (m *Manual) Pending() int { return len(m.tasks) }

// Run runs the i-th parked task (work, then done) and removes it.
func (m *Manual) Run(i int) {
	t := m.tasks[i]
	m.tasks = append(m.tasks[:i:i], m.tasks[i+1:]...)
	t.work()
	if t.done != nil {
		t.done()
	}
}

// RunNext runs the oldest parked task. It returns false when none is parked.
func (m *Manual) RunNext() bool {
	if len(m.tasks) == 0 {
		return false
	}
	m.Run(0)
	return true
}

// RunAll runs parked tasks, including ones they park, until none remain.
// It returns the number of tasks run.
func (m *Manual) RunAll() int {
	n := 0
	for m.RunNext() {
		n++
	}
	return n
}
