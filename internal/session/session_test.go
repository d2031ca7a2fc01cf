package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/handiism/spotidown/internal/api"
	"github.com/handiism/spotidown/internal/config"
	"github.com/handiism/spotidown/internal/eventloop"
	"github.com/handiism/spotidown/internal/history"
	"github.com/handiism/spotidown/internal/model"
)

type pollReply struct {
	update model.JobUpdate
	err    error
}

// fakeBackend answers from scripted functions and counts calls.
type fakeBackend struct {
	info     func(locator string) (*model.Result, error)
	download func(locator string) (string, error)
	start    func(locator string) (string, error)
	polls    []pollReply

	infoCalls, downloadCalls, startCalls, statusCalls int
}

func (b *fakeBackend) FetchInfo(_ context.Context, locator string) (*model.Result, error) {
	b.infoCalls++
	return b.info(locator)
}

func (b *fakeBackend) DownloadTrack(_ context.Context, locator string) (string, error) {
	b.downloadCalls++
	return b.download(locator)
}

func (b *fakeBackend) StartArchive(_ context.Context, locator string) (string, error) {
	b.startCalls++
	if b.start == nil {
		return "job-1", nil
	}
	return b.start(locator)
}

func (b *fakeBackend) ArchiveStatus(_ context.Context, jobID string) (model.JobUpdate, error) {
	b.statusCalls++
	if len(b.polls) == 0 {
		return model.JobUpdate{Phase: model.PhaseProcessing}, nil
	}
	r := b.polls[0]
	b.polls = b.polls[1:]
	return r.update, r.err
}

type fakeSaver struct {
	locations []string
	tracks    []*model.Track
}

func (f *fakeSaver) Save(_ context.Context, location string, track *model.Track) (string, error) {
	f.locations = append(f.locations, location)
	f.tracks = append(f.tracks, track)
	return "/music/saved", nil
}

type fakeRecorder struct {
	entries []history.Entry
}

func (f *fakeRecorder) Record(e history.Entry) error {
	f.entries = append(f.entries, e)
	return nil
}

type harness struct {
	t        *testing.T
	m        *eventloop.Manual
	backend  *fakeBackend
	saver    *fakeSaver
	recorder *fakeRecorder
	events   []Event
	s        *Session
}

func newHarness(t *testing.T, mutate ...func(*config.Settings)) *harness {
	t.Helper()
	settings := config.DefaultSettings()
	for _, fn := range mutate {
		fn(settings)
	}

	h := &harness{
		t:        t,
		m:        eventloop.NewManual(),
		saver:    &fakeSaver{},
		recorder: &fakeRecorder{},
		backend: &fakeBackend{
			info: func(string) (*model.Result, error) {
				return nil, errors.New("unexpected fetch")
			},
			download: func(string) (string, error) {
				return "", errors.New("unexpected download")
			},
		},
	}
	h.s = New(settings, Deps{
		Scheduler: h.m,
		Backend:   h.backend,
		Saver:     h.saver,
		Recorder:  h.recorder,
		OnEvent:   func(e Event) { h.events = append(h.events, e) },
	})
	return h
}

func collection(ids ...string) *model.Result {
	tracks := make([]model.Track, len(ids))
	for i, id := range ids {
		tracks[i] = model.Track{ID: id, Name: "Track " + id, Artist: "Band", SourceURL: "https://open.spotify.com/track/" + id}
	}
	return model.NewCollectionResult(model.CollectionInfo{
		Type:      "album",
		ID:        "lp",
		Name:      "LP",
		Artist:    "Band",
		SourceURL: "https://open.spotify.com/album/lp",
	}, tracks)
}

// load fetches r and resolves the request.
func (h *harness) load(r *model.Result) {
	h.t.Helper()
	h.backend.info = func(string) (*model.Result, error) { return r, nil }
	if err := h.s.Fetch(r.SourceURL()); err != nil {
		h.t.Fatalf("Fetch: %v", err)
	}
	h.m.RunAll()
	if got := h.s.Status(); got != StatusSuccess {
		h.t.Fatalf("Status() = %v, want success", got)
	}
}

func (h *harness) count(kind EventKind, level Level) int {
	n := 0
	for _, e := range h.events {
		if e.Kind == kind && e.Level == level {
			n++
		}
	}
	return n
}

func TestFetch_TrackSucceeds(t *testing.T) {
	h := newHarness(t)
	h.backend.info = func(locator string) (*model.Result, error) {
		return model.NewTrackResult(model.Track{ID: "abc", Name: "X", Artist: "Y", SourceURL: locator}), nil
	}

	if err := h.s.Fetch("https://open.spotify.com/track/abc"); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	snap := h.s.Snapshot()
	if snap.Status != StatusProcessing || snap.Progress != 10 {
		t.Fatalf("after Fetch: status %v progress %d, want processing 10", snap.Status, snap.Progress)
	}
	if snap.Message != msgConnecting {
		t.Errorf("Message = %q", snap.Message)
	}

	h.m.RunAll()

	snap = h.s.Snapshot()
	if snap.Status != StatusSuccess {
		t.Fatalf("Status = %v, want success", snap.Status)
	}
	if snap.Result.Kind() != model.KindTrack || snap.Result.ID() != "abc" {
		t.Errorf("Result = %v %q", snap.Result.Kind(), snap.Result.ID())
	}
	if snap.Progress != 100 || snap.TakingLong {
		t.Errorf("progress %d takingLong %v, want 100 false", snap.Progress, snap.TakingLong)
	}
	if h.m.ActiveTimers() != 0 {
		t.Errorf("ActiveTimers() = %d, want 0", h.m.ActiveTimers())
	}
	if h.m.Stops() != 2 {
		t.Errorf("Stops() = %d, want animator and slow timer stopped", h.m.Stops())
	}
}

func TestFetch_ValidationMakesNoRequest(t *testing.T) {
	for _, locator := range []string{"not-a-link", "", "https://youtube.com/watch?v=1"} {
		t.Run(locator, func(t *testing.T) {
			h := newHarness(t)

			err := h.s.Fetch(locator)

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Fetch() error = %v, want *ValidationError", err)
			}
			if h.m.Pending() != 0 || h.backend.infoCalls != 0 {
				t.Errorf("request issued: pending %d, calls %d", h.m.Pending(), h.backend.infoCalls)
			}
			snap := h.s.Snapshot()
			if snap.Status != StatusError || snap.Message != msgInvalidLink {
				t.Errorf("status %v message %q", snap.Status, snap.Message)
			}
			if h.m.ActiveTimers() != 0 {
				t.Errorf("ActiveTimers() = %d, want 0", h.m.ActiveTimers())
			}
		})
	}
}

func TestFetch_InvalidLinkKeepsResult(t *testing.T) {
	h := newHarness(t)
	h.load(collection("1"))

	h.s.Fetch("nope")

	if h.s.Result() == nil {
		t.Fatal("result dropped by a rejected link")
	}
	if err := h.s.DownloadItem("1"); err != nil {
		t.Errorf("DownloadItem after rejected link: %v", err)
	}
}

func TestFetch_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"server message", &api.ServiceError{Op: api.OpFetchInfo, StatusCode: 400, Message: "Playlist is private"}, "Playlist is private"},
		{"server without message", &api.ServiceError{Op: api.OpFetchInfo, StatusCode: 502}, msgServerError},
		{"unreachable", &api.TransportError{Op: api.OpFetchInfo, Err: errors.New("connection refused")}, msgUnreachable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.backend.info = func(string) (*model.Result, error) { return nil, tt.err }

			h.s.Fetch("https://open.spotify.com/track/abc")
			h.m.RunAll()

			snap := h.s.Snapshot()
			if snap.Status != StatusError {
				t.Fatalf("Status = %v, want error", snap.Status)
			}
			if snap.Message != tt.want {
				t.Errorf("Message = %q, want %q", snap.Message, tt.want)
			}
			if snap.Progress != 100 || h.m.ActiveTimers() != 0 {
				t.Errorf("progress %d, active timers %d", snap.Progress, h.m.ActiveTimers())
			}
		})
	}
}

func TestFetch_NewFetchSupersedesOld(t *testing.T) {
	h := newHarness(t)
	first := model.NewTrackResult(model.Track{ID: "old"})
	second := model.NewTrackResult(model.Track{ID: "new"})
	h.backend.info = func(locator string) (*model.Result, error) {
		if locator == "https://open.spotify.com/track/old" {
			return first, nil
		}
		return second, nil
	}

	h.s.Fetch("https://open.spotify.com/track/old")
	h.s.Fetch("https://open.spotify.com/track/new")

	// The second request answers first; the first must not overwrite it.
	h.m.Run(1)
	h.m.Run(0)

	if got := h.s.Result().ID(); got != "new" {
		t.Errorf("Result().ID() = %q, want new", got)
	}
}

func TestAnimator_Sequence(t *testing.T) {
	h := newHarness(t)
	h.backend.info = func(string) (*model.Result, error) { return model.NewTrackResult(model.Track{ID: "a"}), nil }
	h.s.Fetch("https://open.spotify.com/track/a")

	want := []int{15, 20, 25, 30, 35, 40, 45, 50, 51, 52}
	for i, w := range want {
		h.m.Advance(300 * time.Millisecond)
		if got := h.s.Snapshot().Progress; got != w {
			t.Fatalf("tick %d: progress %d, want %d", i+1, got, w)
		}
	}

	h.m.Advance(time.Minute)
	if got := h.s.Snapshot().Progress; got != 90 {
		t.Errorf("progress after a minute = %d, want ceiling 90", got)
	}

	h.m.RunAll()
	if got := h.s.Snapshot().Progress; got != 100 {
		t.Errorf("progress after response = %d, want 100", got)
	}
	h.m.Advance(time.Minute)
	if got := h.s.Snapshot().Progress; got != 100 {
		t.Errorf("animator kept ticking: %d", got)
	}
}

func TestNextProgress(t *testing.T) {
	tests := []struct{ in, want int }{
		{10, 15},
		{45, 50},
		{48, 53},
		{50, 51},
		{89, 90},
		{90, 90},
		{95, 90},
	}
	for _, tt := range tests {
		if got := nextProgress(tt.in); got != tt.want {
			t.Errorf("nextProgress(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestSlowSignal(t *testing.T) {
	h := newHarness(t)
	h.backend.info = func(string) (*model.Result, error) { return model.NewTrackResult(model.Track{ID: "a"}), nil }
	h.s.Fetch("https://open.spotify.com/track/a")

	h.m.Advance(4900 * time.Millisecond)
	if h.s.Snapshot().TakingLong {
		t.Fatal("raised before the threshold")
	}
	h.m.Advance(100 * time.Millisecond)
	if !h.s.Snapshot().TakingLong {
		t.Fatal("not raised at the threshold")
	}
	if h.count(EventSlow, LevelWarning) != 1 {
		t.Errorf("slow warnings = %d, want 1", h.count(EventSlow, LevelWarning))
	}

	h.m.RunAll()
	if h.s.Snapshot().TakingLong {
		t.Error("flag not cleared when the response arrived")
	}
}

func TestSlowSignal_ClearedOnNewFetch(t *testing.T) {
	h := newHarness(t)
	h.backend.info = func(string) (*model.Result, error) { return model.NewTrackResult(model.Track{ID: "a"}), nil }

	h.s.Fetch("https://open.spotify.com/track/a")
	h.m.Advance(6 * time.Second)
	h.s.Fetch("https://open.spotify.com/track/b")

	if h.s.Snapshot().TakingLong {
		t.Error("flag carried over to the new fetch")
	}
	if h.m.ActiveTimers() != 2 {
		t.Errorf("ActiveTimers() = %d, want a fresh animator and slow timer", h.m.ActiveTimers())
	}
}

func TestReset_TearsEverythingDown(t *testing.T) {
	h := newHarness(t)
	h.load(collection("1", "2"))
	h.backend.download = func(string) (string, error) { return "http://x/1.mp3", nil }

	h.s.DownloadItem("1")
	h.s.StartArchive()
	h.m.Run(1) // job submitted, ticker armed
	h.m.Advance(2 * time.Second)

	h.s.Reset()

	if h.m.ActiveTimers() != 0 {
		t.Errorf("ActiveTimers() = %d after Reset", h.m.ActiveTimers())
	}
	h.m.RunAll()

	snap := h.s.Snapshot()
	if snap.Status != StatusIdle || snap.Result != nil || snap.Progress != 0 {
		t.Errorf("snapshot after Reset: %+v", snap)
	}
	if len(snap.Items) != 0 {
		t.Errorf("Items = %v, want empty", snap.Items)
	}
	if snap.Archive.State != ArchiveIdle {
		t.Errorf("archive state = %v, want idle", snap.Archive.State)
	}
	if len(h.saver.locations) != 0 {
		t.Errorf("stale responses triggered saves: %v", h.saver.locations)
	}
}

func TestClose(t *testing.T) {
	h := newHarness(t)
	h.backend.info = func(string) (*model.Result, error) { return model.NewTrackResult(model.Track{ID: "a"}), nil }
	h.s.Fetch("https://open.spotify.com/track/a")

	h.s.Close()

	if h.m.ActiveTimers() != 0 {
		t.Errorf("ActiveTimers() = %d after Close", h.m.ActiveTimers())
	}
	h.m.RunAll()
	if h.s.Status() != StatusProcessing {
		t.Errorf("late response applied after Close: %v", h.s.Status())
	}
	if err := h.s.Fetch("https://open.spotify.com/track/a"); !errors.Is(err, ErrClosed) {
		t.Errorf("Fetch after Close = %v, want ErrClosed", err)
	}
}

func TestOnChange_ReceivesSnapshots(t *testing.T) {
	m := eventloop.NewManual()
	var statuses []Status
	s := New(nil, Deps{
		Scheduler: m,
		Backend: &fakeBackend{info: func(string) (*model.Result, error) {
			return model.NewTrackResult(model.Track{ID: "a"}), nil
		}},
		OnChange: func(snap Snapshot) { statuses = append(statuses, snap.Status) },
	})

	s.Fetch("https://open.spotify.com/track/a")
	m.RunAll()

	if len(statuses) < 2 || statuses[0] != StatusProcessing || statuses[len(statuses)-1] != StatusSuccess {
		t.Errorf("statuses = %v", statuses)
	}
}
