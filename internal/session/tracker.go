package session

import (
	"fmt"
	"maps"

	"github.com/handiism/spotidown/internal/api"
	"github.com/handiism/spotidown/internal/history"
	"github.com/handiism/spotidown/internal/model"
)

// itemTracker is the per-item status map. Every attempt gets a token from
// a counter that is never reset, so a response only lands on the attempt
// that issued it.
type itemTracker struct {
	statuses map[string]model.ItemStatus
	tokens   map[string]uint64
	next     uint64
}

func newItemTracker() *itemTracker {
	return &itemTracker{
		statuses: make(map[string]model.ItemStatus),
		tokens:   make(map[string]uint64),
	}
}

// begin marks id in progress and returns the attempt's token.
func (t *itemTracker) begin(id string) uint64 {
	t.next++
	t.statuses[id] = model.ItemInProgress
	t.tokens[id] = t.next
	return t.next
}

// resolve settles the attempt identified by token. It reports false when
// the attempt was superseded or the map was cleared.
func (t *itemTracker) resolve(id string, token uint64, ok bool) bool {
	if t.tokens[id] != token || t.statuses[id] != model.ItemInProgress {
		return false
	}
	if ok {
		t.statuses[id] = model.ItemSucceeded
	} else {
		t.statuses[id] = model.ItemFailed
	}
	return true
}

func (t *itemTracker) status(id string) model.ItemStatus {
	if st, ok := t.statuses[id]; ok {
		return st
	}
	return model.ItemUnstarted
}

func (t *itemTracker) inProgress() int {
	n := 0
	for _, st := range t.statuses {
		if st == model.ItemInProgress {
			n++
		}
	}
	return n
}

func (t *itemTracker) clear() {
	clear(t.statuses)
	clear(t.tokens)
}

func (t *itemTracker) snapshot() map[string]model.ItemStatus {
	return maps.Clone(t.statuses)
}

// DownloadItem asks the backend for one track of the current result and
// saves the produced file. Items download independently; calling it again
// for a finished item starts a new attempt.
func (s *Session) DownloadItem(trackID string) error {
	if s.closed {
		return ErrClosed
	}
	if s.result == nil {
		return ErrNoResult
	}
	track, ok := s.result.Item(trackID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownItem, trackID)
	}

	token := s.items.begin(track.ID)
	s.record(history.Entry{
		ID:     track.ID,
		Name:   track.Name,
		Artist: track.Artist,
		Cover:  track.Cover,
		URL:    track.SourceURL,
	})
	s.emit(Event{Kind: EventItem, Level: LevelInfo, ItemID: track.ID, Message: "Downloading " + track.DisplayName()})
	s.changed()

	gen, ctx := s.gen, s.genCtx
	var (
		location string
		err      error
	)
	s.sched.Go(func() {
		location, err = s.backend.DownloadTrack(ctx, track.SourceURL)
	}, func() {
		if s.closed || gen != s.gen {
			return
		}
		if !s.items.resolve(track.ID, token, err == nil) {
			return
		}
		if err != nil {
			msg := api.ServerMessage(err, "download failed")
			s.emit(Event{Kind: EventItem, Level: LevelError, ItemID: track.ID, Message: track.DisplayName() + ": " + msg})
			s.emit(Event{Kind: EventItem, Level: LevelVerbose, ItemID: track.ID, Message: err.Error()})
			s.changed()
			return
		}
		s.emit(Event{Kind: EventItem, Level: LevelSuccess, ItemID: track.ID, Message: "Ready: " + track.DisplayName()})
		s.changed()
		s.save(location, &track)
	})
	return nil
}

// ItemsInProgress returns how many item downloads are outstanding.
func (s *Session) ItemsInProgress() int { return s.items.inProgress() }
