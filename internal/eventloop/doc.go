// Package eventloop provides the single-threaded scheduling model the
// session runs on.
//
// Every piece of session state is touched from exactly one goroutine, the
// loop. Timers and background work never mutate state directly: they
// dispatch a callback onto the loop.
//
// # Timers
//
// Timers are cancellable handles. Once Stop returns on the loop goroutine
// the callback will not run, even if the runtime timer already fired and
// its dispatch is queued behind the current callback:
//
//	t := loop.AfterFunc(5*time.Second, func() { slow = true })
//	...
//	t.Stop()
//
// # Loops
//
// Loop turns a dispatcher (any "run this on the loop" function) into a
// scheduler. Queue is a channel-backed dispatcher for headless use; the TUI
// dispatches through the Bubble Tea program instead.
//
//	q := eventloop.NewQueue()
//	loop := eventloop.New(ctx, q.Post, 4)
//	go q.Run(ctx)
//
// # Testing
//
// Manual is a deterministic scheduler with a virtual clock. Background work
// is parked until the test resolves it, in any order.
package eventloop
