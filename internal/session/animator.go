package session

import (
	"time"

	"github.com/handiism/spotidown/internal/eventloop"
)

const (
	progressStart   = 10
	progressKnee    = 50
	progressCeiling = 90
	progressDone    = 100
)

// progressAnimator is the simulated fetch progress. It only gives
// feedback while waiting and never reflects server data.
type progressAnimator struct {
	value int
	timer eventloop.Timer
}

func (a *progressAnimator) start(sched Scheduler, every time.Duration, changed func()) {
	a.stop()
	a.value = progressStart
	a.timer = sched.Every(every, func() {
		next := nextProgress(a.value)
		if next == a.value {
			return
		}
		a.value = next
		changed()
	})
}

// finish snaps to 100 and stops ticking.
func (a *progressAnimator) finish() {
	a.stop()
	a.value = progressDone
}

func (a *progressAnimator) reset() {
	a.stop()
	a.value = 0
}

func (a *progressAnimator) stop() {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}

// nextProgress advances by 5 below the knee and by 1 after it, never
// passing the ceiling.
func nextProgress(p int) int {
	if p >= progressCeiling {
		return progressCeiling
	}
	if p < progressKnee {
		p += 5
	} else {
		p++
	}
	return min(p, progressCeiling)
}
