package eventloop

import (
	"context"
	"sync"
)

// Queue is a channel-backed loop. Callbacks posted to it run one at a time
// on the goroutine that calls Run.
type Queue struct {
	fns      chan func()
	done     chan struct{}
	stopOnce sync.Once
}

// NewQueue creates an idle Queue.
func NewQueue() *Queue {
	return &Queue{
		fns:  make(chan func(), 64),
		done: make(chan struct{}),
	}
}

// Post schedules fn. Posts after Run has returned are dropped.
func (q *Queue) Post(fn func()) {
	select {
	case q.fns <- fn:
	case <-q.done:
	}
}

// Call runs fn on the loop and waits for it to finish.
func (q *Queue) Call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	q.Post(func() {
		defer close(finished)
		fn()
	})
	select {
	case <-finished:
		return nil
	case <-q.done:
		return context.Canceled
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes callbacks until ctx is cancelled. It returns nil on a
// clean shutdown.
func (q *Queue) Run(ctx context.Context) error {
	defer q.stopOnce.Do(func() { close(q.done) })
	for {
		select {
		case <-ctx.Done():
			return nil
		case fn := <-q.fns:
			fn()
		}
	}
}
