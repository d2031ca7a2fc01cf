package session

import (
	"context"
	"time"

	"github.com/handiism/spotidown/internal/config"
	"github.com/handiism/spotidown/internal/eventloop"
	"github.com/handiism/spotidown/internal/history"
	"github.com/handiism/spotidown/internal/model"
)

// Scheduler is the event loop a Session runs on. eventloop.Loop and
// eventloop.Manual implement it.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) eventloop.Timer
	Every(d time.Duration, fn func()) eventloop.Timer
	Go(work func(), done func())
}

// Backend is the remote download service. api.Client implements it.
type Backend interface {
	FetchInfo(ctx context.Context, locator string) (*model.Result, error)
	DownloadTrack(ctx context.Context, locator string) (string, error)
	StartArchive(ctx context.Context, locator string) (string, error)
	ArchiveStatus(ctx context.Context, jobID string) (model.JobUpdate, error)
}

// Saver performs the file-save side effect for a resolved location. track
// is nil for archives. It returns the local path written.
type Saver interface {
	Save(ctx context.Context, location string, track *model.Track) (string, error)
}

// Recorder receives a history entry whenever a download is initiated.
type Recorder interface {
	Record(e history.Entry) error
}

// Deps are the collaborators of a Session. Saver, Recorder, OnEvent and
// OnChange may be nil.
type Deps struct {
	Scheduler Scheduler
	Backend   Backend
	Saver     Saver
	Recorder  Recorder

	// OnEvent receives user-facing notifications, on the loop.
	OnEvent func(Event)

	// OnChange is called on the loop after every state change.
	OnChange func(Snapshot)
}

// Status is the overall state of the metadata fetch.
type Status int

const (
	StatusIdle Status = iota
	StatusProcessing
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusProcessing:
		return "processing"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Session orchestrates one view: a metadata fetch, the per-item downloads
// of its result, and at most one archive job.
//
// A Session is not safe for concurrent use. Every method, and every
// callback it schedules, runs on the Scheduler's loop.
type Session struct {
	settings *config.Settings
	sched    Scheduler
	backend  Backend
	saver    Saver
	recorder Recorder
	onEvent  func(Event)
	onChange func(Snapshot)

	// root is cancelled by Close. Saves run under it so a reset does not
	// abort a file transfer the user already asked for.
	root       context.Context
	cancelRoot context.CancelFunc

	// gen identifies the current result. Item and archive callbacks from an
	// older generation are dropped. genCtx is cancelled when gen moves on.
	gen       uint64
	genCtx    context.Context
	cancelGen context.CancelFunc

	// fetchSeq identifies the in-flight metadata request.
	fetchSeq    uint64
	cancelFetch context.CancelFunc

	status  Status
	message string
	locator string
	result  *model.Result

	animator progressAnimator
	slow     slowSignal
	items    *itemTracker
	archive  archivePoller

	closed bool
}

// New creates an idle Session.
func New(settings *config.Settings, deps Deps) *Session {
	if settings == nil {
		settings = config.DefaultSettings()
	}
	root, cancel := context.WithCancel(context.Background())
	s := &Session{
		settings:   settings,
		sched:      deps.Scheduler,
		backend:    deps.Backend,
		saver:      deps.Saver,
		recorder:   deps.Recorder,
		onEvent:    deps.OnEvent,
		onChange:   deps.OnChange,
		root:       root,
		cancelRoot: cancel,
		items:      newItemTracker(),
	}
	s.genCtx, s.cancelGen = context.WithCancel(root)
	return s
}

// Reset returns the session to idle. Every timer is stopped and in-flight
// requests are cancelled; their late responses are ignored.
func (s *Session) Reset() {
	if s.closed {
		return
	}
	s.abortFetch()
	s.newGeneration()

	s.status = StatusIdle
	s.message = ""
	s.locator = ""
	s.animator.reset()
	s.slow.disarm()

	s.emit(Event{Kind: EventFetch, Level: LevelVerbose, Message: "Reset"})
	s.changed()
}

// Close tears the session down. Pending saves are cancelled.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.abortFetch()
	s.animator.stop()
	s.slow.disarm()
	s.archive.discard()
	s.cancelGen()
	s.cancelRoot()
	s.closed = true
}

// Status returns the overall fetch status.
func (s *Session) Status() Status { return s.status }

// Result returns the current result, or nil.
func (s *Session) Result() *model.Result { return s.result }

// Snapshot returns an immutable copy of the session state.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		Status:     s.status,
		Message:    s.message,
		Locator:    s.locator,
		Progress:   s.animator.value,
		TakingLong: s.slow.raised,
		Result:     s.result,
		Items:      s.items.snapshot(),
		Archive: ArchiveSnapshot{
			State: s.archive.state,
			Job:   s.archive.job,
			Err:   s.archive.err,
		},
	}
}

// newGeneration supersedes the current result: item statuses are cleared,
// the archive job is discarded and their in-flight requests cancelled.
func (s *Session) newGeneration() {
	s.gen++
	s.cancelGen()
	s.genCtx, s.cancelGen = context.WithCancel(s.root)

	s.result = nil
	s.items.clear()
	s.archive.discard()
}

func (s *Session) abortFetch() {
	s.fetchSeq++
	if s.cancelFetch != nil {
		s.cancelFetch()
		s.cancelFetch = nil
	}
}

// save runs the file-save side effect in the background and reports the
// outcome as an event.
func (s *Session) save(location string, track *model.Track) {
	if s.saver == nil {
		return
	}
	ctx := s.root
	itemID := ""
	if track != nil {
		itemID = track.ID
	}

	var (
		path string
		err  error
	)
	s.sched.Go(func() {
		path, err = s.saver.Save(ctx, location, track)
	}, func() {
		if s.closed {
			return
		}
		if err != nil {
			s.emit(Event{Kind: EventSaveFailed, Level: LevelError, ItemID: itemID, Message: "Saving " + location + " failed: " + err.Error()})
			return
		}
		s.emit(Event{Kind: EventSaved, Level: LevelSuccess, ItemID: itemID, Path: path, Message: "Saved " + path})
	})
}

func (s *Session) record(e history.Entry) {
	if s.recorder == nil {
		return
	}
	e.Timestamp = time.Now()
	if err := s.recorder.Record(e); err != nil {
		s.emit(Event{Kind: EventHistory, Level: LevelWarning, Message: "Could not update history: " + err.Error()})
	}
}

func (s *Session) emit(e Event) {
	if s.onEvent != nil {
		s.onEvent(e)
	}
}

func (s *Session) changed() {
	if s.onChange != nil {
		s.onChange(s.Snapshot())
	}
}
