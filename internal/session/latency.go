package session

import (
	"time"

	"github.com/handiism/spotidown/internal/eventloop"
)

// slowSignal raises a flag when a request outlives a threshold. It never
// affects the request itself.
type slowSignal struct {
	raised bool
	timer  eventloop.Timer
}

// arm clears the flag and starts the countdown.
func (s *slowSignal) arm(sched Scheduler, after time.Duration, fire func()) {
	s.disarm()
	s.timer = sched.AfterFunc(after, func() {
		s.timer = nil
		s.raised = true
		fire()
	})
}

// disarm cancels the countdown and clears the flag.
func (s *slowSignal) disarm() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.raised = false
}
