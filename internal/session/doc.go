// Package session orchestrates the asynchronous work behind one view:
// a metadata fetch, per-item downloads of its result, and a server-side
// archive job driven by polling.
//
// # Event Loop
//
// A Session runs on a single loop (see package eventloop). Requests run on
// worker goroutines and their continuations are dispatched back onto the
// loop, so no state is ever locked. Because responses and timer ticks may
// arrive in any order, every continuation first checks that what it
// belongs to is still current:
//
//   - a metadata response checks the fetch sequence
//   - an item response checks the result generation and its attempt token
//   - an archive response checks the job epoch and the slot state
//
// # Fetching
//
//	s := session.New(settings, session.Deps{Scheduler: loop, Backend: client})
//	if err := s.Fetch("https://open.spotify.com/album/xyz"); err != nil {
//	    var verr *session.ValidationError
//	    ...
//	}
//
// While a fetch is processing a simulated progress value ticks from 10
// toward 90, and a slow-response flag is raised if the server has not
// answered within the threshold. Both timers are stopped on every exit.
//
// # Downloads
//
// DownloadItem moves one track through unstarted, in-progress, then
// succeeded or failed. StartArchive submits at most one archive job at a
// time and polls it until it completes or fails. Poll failures are
// reported and polling goes on, unless PollFailureLimit consecutive ticks
// have failed.
//
// Successful downloads hand the resolved location to the Saver; the
// outcome is reported as EventSaved or EventSaveFailed.
package session
