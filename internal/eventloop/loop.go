package eventloop

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"
)

// Timer is a handle to a scheduled callback.
type Timer interface {
	// Stop cancels the timer. It returns true only when this call
	// cancelled a timer that could still fire. Stop must be called on
	// the loop goroutine.
	Stop() bool
}

// Dispatcher runs fn on the loop goroutine at some later point.
type Dispatcher func(fn func())

// Loop schedules timers and background work whose callbacks run on a
// single loop goroutine.
type Loop struct {
	ctx      context.Context
	dispatch Dispatcher
	workers  *semaphore.Weighted
}

// New creates a Loop. maxWorkers bounds how many Go work functions run at
// once; values below 1 are treated as 1. Cancelling ctx stops repeating
// timers and prevents queued work from starting.
func New(ctx context.Context, dispatch Dispatcher, maxWorkers int) *Loop {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &Loop{
		ctx:      ctx,
		dispatch: dispatch,
		workers:  semaphore.NewWeighted(int64(maxWorkers)),
	}
}

// timer is shared by single-shot and repeating timers. stopped is only
// read and written on the loop goroutine.
type timer struct {
	stopped bool
	rt      *time.Timer
	done    chan struct{}
}

func (t *timer) Stop() bool {
	if t.stopped {
		return false
	}
	t.stopped = true
	if t.rt != nil {
		t.rt.Stop()
	}
	if t.done != nil {
		close(t.done)
	}
	return true
}

// AfterFunc runs fn on the loop once, after d.
func (l *Loop) AfterFunc(d time.Duration, fn func()) Timer {
	t := &timer{}
	t.rt = time.AfterFunc(d, func() {
		l.dispatch(func() {
			if t.stopped {
				return
			}
			t.stopped = true
			fn()
		})
	})
	return t
}

// Every runs fn on the loop every d until the timer is stopped.
func (l *Loop) Every(d time.Duration, fn func()) Timer {
	t := &timer{done: make(chan struct{})}
	ticker := time.NewTicker(d)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.dispatch(func() {
					if !t.stopped {
						fn()
					}
				})
			case <-t.done:
				return
			case <-l.ctx.Done():
				return
			}
		}
	}()
	return t
}

// Go runs work on a worker goroutine and then dispatches done onto the
// loop. work must not touch loop-owned state; pass results to done through
// captured variables.
func (l *Loop) Go(work func(), done func()) {
	go func() {
		if err := l.workers.Acquire(l.ctx, 1); err != nil {
			return
		}
		work()
		l.workers.Release(1)
		if done != nil {
			l.dispatch(done)
		}
	}()
}
