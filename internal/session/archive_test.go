package session

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/handiism/spotidown/internal/api"
	"github.com/handiism/spotidown/internal/config"
	"github.com/handiism/spotidown/internal/model"
)

func percent(p int) *int { return &p }

func processing(p int) pollReply {
	return pollReply{update: model.JobUpdate{Phase: model.PhaseProcessing, Percent: percent(p), Message: "Zipping"}}
}

func completed(location string) pollReply {
	return pollReply{update: model.JobUpdate{Phase: model.PhaseCompleted, ResultLocation: location}}
}

func jobError(detail string) pollReply {
	return pollReply{update: model.JobUpdate{Phase: model.PhaseError, ErrorDetail: detail}}
}

// startPolling loads a collection, submits a job and resolves the
// submission.
func startPolling(t *testing.T, h *harness) {
	t.Helper()
	h.load(collection("1", "2"))
	started, err := h.s.StartArchive()
	if err != nil || !started {
		t.Fatalf("StartArchive() = %v, %v", started, err)
	}
	h.m.RunAll()
	if st := h.s.Snapshot().Archive.State; st != ArchivePolling {
		t.Fatalf("archive state = %v, want polling", st)
	}
}

func TestArchive_CompletesAfterProgress(t *testing.T) {
	h := newHarness(t)
	h.load(collection("1", "2"))
	h.backend.polls = []pollReply{processing(40), completed("http://backend/f/1.zip")}

	started, err := h.s.StartArchive()
	if err != nil || !started {
		t.Fatalf("StartArchive() = %v, %v", started, err)
	}
	snap := h.s.Snapshot().Archive
	if snap.State != ArchiveSubmitting || snap.Job.Percent != 5 || snap.Job.Message != msgArchiveInit {
		t.Fatalf("after submit: %+v", snap)
	}

	h.m.RunAll()
	if h.s.Snapshot().Archive.Job.ID != "job-1" {
		t.Fatalf("job id = %q", h.s.Snapshot().Archive.Job.ID)
	}

	h.m.Advance(2 * time.Second)
	h.m.RunAll()
	snap = h.s.Snapshot().Archive
	if snap.Job.Percent != 40 || snap.Job.Message != "Zipping" || snap.State != ArchivePolling {
		t.Fatalf("after processing poll: %+v", snap)
	}

	h.m.Advance(2 * time.Second)
	h.m.RunAll()
	snap = h.s.Snapshot().Archive
	if snap.State != ArchiveCompleted || snap.Job.Percent != 100 || snap.Job.Message != msgArchiveDone {
		t.Fatalf("after completed poll: %+v", snap)
	}
	if !snap.Busy() {
		t.Error("slot must stay busy during the grace period")
	}
	if len(h.saver.locations) != 1 || h.saver.locations[0] != "http://backend/f/1.zip" {
		t.Errorf("saves = %v, want exactly the archive", h.saver.locations)
	}
	if h.saver.tracks[0] != nil {
		t.Error("archive save should carry no track")
	}
	if h.m.Stops() != 3 {
		// animator + slow timer from the fetch, then the ticker
		t.Errorf("Stops() = %d, want 3", h.m.Stops())
	}

	if started, _ := h.s.StartArchive(); started {
		t.Error("new job accepted during the grace period")
	}

	h.m.Advance(3 * time.Second)
	snap = h.s.Snapshot().Archive
	if snap.State != ArchiveIdle || snap.Busy() {
		t.Errorf("after grace: %+v", snap)
	}
	if h.backend.statusCalls != 2 {
		t.Errorf("status calls = %d, want 2", h.backend.statusCalls)
	}
	if h.m.ActiveTimers() != 0 {
		t.Errorf("ActiveTimers() = %d", h.m.ActiveTimers())
	}
}

func TestArchive_ErrorFreesSlotImmediately(t *testing.T) {
	h := newHarness(t)
	startPolling(t, h)
	h.backend.polls = []pollReply{jobError("disk full")}

	h.m.Advance(2 * time.Second)
	h.m.RunAll()

	snap := h.s.Snapshot().Archive
	if snap.State != ArchiveError || snap.Busy() {
		t.Fatalf("state = %v busy %v, want error and free", snap.State, snap.Busy())
	}
	if snap.Job.Message != "disk full" || snap.Job.ErrorDetail != "disk full" {
		t.Errorf("message %q detail %q", snap.Job.Message, snap.Job.ErrorDetail)
	}
	if snap.Job.Percent != 0 {
		t.Errorf("percent = %d, want cleared", snap.Job.Percent)
	}
	var jf *JobFailure
	if !errors.As(snap.Err, &jf) || jf.JobID != "job-1" {
		t.Errorf("Err = %v, want *JobFailure for job-1", snap.Err)
	}
	if h.m.ActiveTimers() != 0 {
		t.Errorf("ActiveTimers() = %d, want 0", h.m.ActiveTimers())
	}
	if len(h.saver.locations) != 0 {
		t.Errorf("failed job saved %v", h.saver.locations)
	}

	if started, err := h.s.StartArchive(); !started || err != nil {
		t.Errorf("retry after error = %v, %v", started, err)
	}
}

func TestArchive_CompletedWithoutFileFails(t *testing.T) {
	h := newHarness(t)
	startPolling(t, h)
	h.backend.polls = []pollReply{completed(""), completed("")}

	h.m.Advance(2 * time.Second)
	h.m.RunAll()

	snap := h.s.Snapshot().Archive
	if snap.State != ArchiveError || snap.Busy() {
		t.Fatalf("state = %v busy %v, want error and free", snap.State, snap.Busy())
	}
	if snap.Job.Message != msgArchiveNoFile {
		t.Errorf("message = %q", snap.Job.Message)
	}
	var jf *JobFailure
	if !errors.As(snap.Err, &jf) || jf.JobID != "job-1" {
		t.Errorf("Err = %v, want *JobFailure for job-1", snap.Err)
	}
	if h.m.ActiveTimers() != 0 {
		t.Errorf("ActiveTimers() = %d, want 0", h.m.ActiveTimers())
	}

	h.m.Advance(10 * time.Second)
	h.m.RunAll()
	if h.backend.statusCalls != 1 {
		t.Errorf("status calls = %d, want 1", h.backend.statusCalls)
	}
	if len(h.saver.locations) != 0 {
		t.Errorf("saved %v", h.saver.locations)
	}
}

func TestArchive_UnknownPhaseKeepsPolling(t *testing.T) {
	h := newHarness(t, func(s *config.Settings) { s.PollFailureLimit = 1 })
	startPolling(t, h)
	unknown := pollReply{err: &api.TransportError{Op: api.OpArchiveStatus, Err: fmt.Errorf("%w %q", api.ErrUnknownPhase, "exploded")}}
	h.backend.polls = []pollReply{unknown, unknown, processing(60)}

	for i := 0; i < 3; i++ {
		h.m.Advance(2 * time.Second)
		h.m.RunAll()
	}

	snap := h.s.Snapshot().Archive
	if snap.State != ArchivePolling || snap.Job.Percent != 60 {
		t.Fatalf("after unknown phases: %+v", snap)
	}
	if n := h.count(EventPoll, LevelWarning); n != 0 {
		t.Errorf("poll warnings = %d, want 0", n)
	}
	if n := h.count(EventPoll, LevelVerbose); n < 2 {
		t.Errorf("verbose poll events = %d, want at least 2", n)
	}
}

func TestArchive_SecondSubmissionIsNoop(t *testing.T) {
	h := newHarness(t)
	h.load(collection("1"))

	if started, _ := h.s.StartArchive(); !started {
		t.Fatal("first submission refused")
	}
	if started, err := h.s.StartArchive(); started || err != nil {
		t.Errorf("while submitting: %v, %v", started, err)
	}
	h.m.RunAll()
	if started, err := h.s.StartArchive(); started || err != nil {
		t.Errorf("while polling: %v, %v", started, err)
	}
	h.m.RunAll()

	if h.backend.startCalls != 1 {
		t.Errorf("start calls = %d, want 1", h.backend.startCalls)
	}
	if got := h.s.Snapshot().Archive.Job.ID; got != "job-1" {
		t.Errorf("job id = %q", got)
	}
}

func TestArchive_TerminalRaceActsOnce(t *testing.T) {
	tests := []struct {
		name  string
		polls []pollReply
	}{
		{"two completions", []pollReply{completed("http://b/1.zip"), completed("http://b/1.zip")}},
		{"completion then error", []pollReply{completed("http://b/1.zip"), jobError("late")}},
		{"two errors", []pollReply{jobError("boom"), jobError("boom")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			startPolling(t, h)
			stopsBefore := h.m.Stops()
			h.backend.polls = tt.polls

			// Two ticks are in flight before either answers.
			h.m.Advance(2 * time.Second)
			h.m.Advance(2 * time.Second)
			if h.m.Pending() != 2 {
				t.Fatalf("Pending() = %d, want 2", h.m.Pending())
			}
			h.m.RunAll()

			if got := h.m.Stops() - stopsBefore; got != 1 {
				t.Errorf("ticker stopped %d times, want 1", got)
			}
			terminal := h.count(EventArchive, LevelSuccess) + h.count(EventArchive, LevelError)
			if terminal != 1 {
				t.Errorf("terminal events = %d, want 1", terminal)
			}
			first := tt.polls[0].update.Phase
			if first == model.PhaseCompleted && len(h.saver.locations) != 1 {
				t.Errorf("saves = %d, want 1", len(h.saver.locations))
			}
			if first == model.PhaseError && len(h.saver.locations) != 0 {
				t.Errorf("saves = %d, want 0", len(h.saver.locations))
			}
		})
	}
}

func TestArchive_PollFailureIsTolerated(t *testing.T) {
	h := newHarness(t)
	startPolling(t, h)
	h.backend.polls = []pollReply{
		{err: &api.TransportError{Op: api.OpArchiveStatus, Err: errors.New("timeout")}},
		{err: &api.ServiceError{Op: api.OpArchiveStatus, StatusCode: 502}},
		completed("http://b/1.zip"),
	}

	h.m.Advance(2 * time.Second)
	h.m.RunAll()
	snap := h.s.Snapshot().Archive
	if snap.State != ArchivePolling || snap.Job.Phase != model.PhaseQueued {
		t.Fatalf("after failed poll: %+v", snap)
	}
	if h.count(EventPoll, LevelWarning) != 1 {
		t.Errorf("poll warnings = %d, want 1", h.count(EventPoll, LevelWarning))
	}

	h.m.Advance(2 * time.Second)
	h.m.RunAll()
	h.m.Advance(2 * time.Second)
	h.m.RunAll()

	if got := h.s.Snapshot().Archive.State; got != ArchiveCompleted {
		t.Errorf("state = %v, want completed", got)
	}
}

func TestArchive_PollFailureLimit(t *testing.T) {
	h := newHarness(t, func(s *config.Settings) { s.PollFailureLimit = 2 })
	startPolling(t, h)
	boom := pollReply{err: errors.New("unreachable")}
	h.backend.polls = []pollReply{boom, processing(30), boom, boom}

	for i := 0; i < 3; i++ {
		h.m.Advance(2 * time.Second)
		h.m.RunAll()
	}
	if got := h.s.Snapshot().Archive.State; got != ArchivePolling {
		t.Fatalf("state = %v after non-consecutive failures, want polling", got)
	}

	h.m.Advance(2 * time.Second)
	h.m.RunAll()
	snap := h.s.Snapshot().Archive
	if snap.State != ArchiveError || snap.Job.Message != msgArchiveLost {
		t.Errorf("after limit: %+v", snap)
	}
	if h.m.ActiveTimers() != 0 {
		t.Errorf("ActiveTimers() = %d", h.m.ActiveTimers())
	}
}

func TestArchive_OutOfOrderProgressIsDropped(t *testing.T) {
	h := newHarness(t)
	startPolling(t, h)

	h.m.Advance(2 * time.Second)
	h.m.Advance(2 * time.Second)

	// Tick 2 answers 60 before tick 1 answers 40. Replies are handed out
	// in resolution order.
	h.backend.polls = []pollReply{processing(60), processing(40)}
	h.m.Run(1)
	h.m.Run(0)

	if got := h.s.Snapshot().Archive.Job.Percent; got != 60 {
		t.Errorf("percent = %d, want 60", got)
	}
}

func TestArchive_MissingFieldsFallBack(t *testing.T) {
	h := newHarness(t)
	startPolling(t, h)
	h.backend.polls = []pollReply{
		{update: model.JobUpdate{Phase: model.PhaseQueued}},
		processing(35),
		{update: model.JobUpdate{Phase: model.PhaseProcessing}},
	}

	h.m.Advance(2 * time.Second)
	h.m.RunAll()
	snap := h.s.Snapshot().Archive
	if snap.Job.Percent != 10 || snap.Job.Message != msgArchiveWorking {
		t.Errorf("first fallback: %d %q", snap.Job.Percent, snap.Job.Message)
	}

	h.m.Advance(2 * time.Second)
	h.m.RunAll()
	h.m.Advance(2 * time.Second)
	h.m.RunAll()
	if got := h.s.Snapshot().Archive.Job.Percent; got != 35 {
		t.Errorf("percent = %d, want 35 kept when the field is missing", got)
	}
}

func TestArchive_SubmissionFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"server message", &api.ServiceError{Op: api.OpStartArchive, StatusCode: 429, Message: "Too many jobs"}, "Too many jobs"},
		{"transport", &api.TransportError{Op: api.OpStartArchive, Err: errors.New("refused")}, msgArchiveStart},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.load(collection("1"))
			h.backend.start = func(string) (string, error) { return "", tt.err }

			h.s.StartArchive()
			h.m.RunAll()

			snap := h.s.Snapshot().Archive
			if snap.State != ArchiveError || snap.Job.Message != tt.want {
				t.Errorf("snapshot = %+v", snap)
			}
			if h.m.ActiveTimers() != 0 || h.backend.statusCalls != 0 {
				t.Errorf("polling started after a failed submission")
			}
		})
	}
}

func TestArchive_Preconditions(t *testing.T) {
	h := newHarness(t)
	if _, err := h.s.StartArchive(); !errors.Is(err, ErrNoResult) {
		t.Errorf("without result: %v", err)
	}

	h.load(model.NewTrackResult(model.Track{ID: "a", SourceURL: "https://open.spotify.com/track/a"}))
	if _, err := h.s.StartArchive(); !errors.Is(err, ErrNotCollection) {
		t.Errorf("with track: %v", err)
	}
}

func TestArchive_RecordsHistory(t *testing.T) {
	h := newHarness(t)
	h.load(collection("1"))
	h.s.StartArchive()

	if len(h.recorder.entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(h.recorder.entries))
	}
	e := h.recorder.entries[0]
	if e.ID != "lp" || e.Name != "LP" || e.URL != "https://open.spotify.com/album/lp" || e.Timestamp.IsZero() {
		t.Errorf("entry = %+v", e)
	}
}

func TestArchive_NewFetchDiscardsJob(t *testing.T) {
	h := newHarness(t)
	startPolling(t, h)
	h.m.Advance(2 * time.Second)

	h.backend.info = func(string) (*model.Result, error) { return collection("9"), nil }
	h.s.Fetch("https://open.spotify.com/album/other")

	if st := h.s.Snapshot().Archive.State; st != ArchiveIdle {
		t.Errorf("state = %v, want idle", st)
	}
	h.backend.polls = []pollReply{completed("http://b/old.zip")}
	h.m.RunAll()
	if len(h.saver.locations) != 0 {
		t.Errorf("stale job saved %v", h.saver.locations)
	}
}
