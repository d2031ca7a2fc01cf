package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/handiism/spotidown/internal/api"
	"github.com/handiism/spotidown/internal/model"
)

const (
	msgInvalidLink = "Invalid link! Paste a Spotify link."
	msgConnecting  = "Connecting to server..."
	msgServerError = "Server error."
	msgUnreachable = "Cannot reach the server. Try again in a moment (a sleeping server can take a while to wake up)."
	msgTakingLong  = "The server is taking longer than usual, it may be waking up..."
)

// Fetch validates locator and requests its metadata. An invalid locator
// fails with *ValidationError and makes no request; the current result is
// left untouched. A valid one clears the item statuses, discards any
// archive job and supersedes an in-flight fetch.
func (s *Session) Fetch(locator string) error {
	if s.closed {
		return ErrClosed
	}
	locator = strings.TrimSpace(locator)

	if !strings.Contains(locator, s.settings.LinkMarker) {
		s.abortFetch()
		s.endFetch(StatusError, msgInvalidLink)
		err := &ValidationError{Locator: locator, Marker: s.settings.LinkMarker}
		s.emit(Event{Kind: EventFetch, Level: LevelError, Message: msgInvalidLink})
		s.changed()
		return err
	}

	s.abortFetch()
	s.newGeneration()

	s.status = StatusProcessing
	s.message = msgConnecting
	s.locator = locator
	s.animator.start(s.sched, s.settings.ProgressTickDuration(), s.changed)
	s.slow.arm(s.sched, s.settings.SlowResponseDuration(), func() {
		s.emit(Event{Kind: EventSlow, Level: LevelWarning, Message: msgTakingLong})
		s.changed()
	})

	seq := s.fetchSeq
	ctx, cancel := context.WithCancel(s.genCtx)
	s.cancelFetch = cancel

	s.emit(Event{Kind: EventFetch, Level: LevelVerbose, Message: "Fetching info: " + locator})
	s.changed()

	var (
		result *model.Result
		err    error
	)
	s.sched.Go(func() {
		result, err = s.backend.FetchInfo(ctx, locator)
	}, func() {
		if s.closed || seq != s.fetchSeq {
			return
		}
		cancel()
		s.cancelFetch = nil
		s.finishFetch(result, err)
	})
	return nil
}

func (s *Session) finishFetch(result *model.Result, err error) {
	if err != nil {
		msg := api.ServerMessage(err, msgServerError)
		if api.IsTransport(err) {
			msg = msgUnreachable
		}
		s.endFetch(StatusError, msg)
		s.emit(Event{Kind: EventFetch, Level: LevelError, Message: msg})
		s.emit(Event{Kind: EventFetch, Level: LevelVerbose, Message: err.Error()})
		s.changed()
		return
	}

	s.result = result
	s.endFetch(StatusSuccess, "")
	s.emit(Event{Kind: EventFetch, Level: LevelSuccess, Message: describe(result)})
	s.changed()
}

// endFetch leaves processing. The observers are stopped before anything
// else changes.
func (s *Session) endFetch(status Status, message string) {
	s.slow.disarm()
	s.animator.finish()
	s.status = status
	s.message = message
}

func describe(r *model.Result) string {
	if !r.IsCollection() {
		return "Found track: " + r.Artist() + " - " + r.Name()
	}
	unit := "tracks"
	if r.Len() == 1 {
		unit = "track"
	}
	return fmt.Sprintf("Found %s: %s (%d %s)", r.Type(), r.Name(), r.Len(), unit)
}
