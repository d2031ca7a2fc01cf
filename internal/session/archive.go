package session

import (
	"errors"
	"fmt"

	"github.com/handiism/spotidown/internal/api"
	"github.com/handiism/spotidown/internal/eventloop"
	"github.com/handiism/spotidown/internal/history"
	"github.com/handiism/spotidown/internal/model"
)

const (
	msgArchiveInit    = "Initializing session..."
	msgArchiveWorking = "Processing..."
	msgArchiveDone    = "Done! Downloading file..."
	msgArchiveFailed  = "Archive job failed."
	msgArchiveStart   = "Could not start the archive job."
	msgArchiveLost    = "Lost contact with the archive job."
	msgArchiveNoFile  = "Archive completed without a file."

	archiveSubmitPercent   = 5
	archiveFallbackPercent = 10
)

// ArchiveState is the state of the archive job slot.
type ArchiveState int

const (
	ArchiveIdle ArchiveState = iota
	ArchiveSubmitting
	ArchivePolling

	// ArchiveCompleted lasts for the completion grace period. The slot is
	// still taken.
	ArchiveCompleted

	// ArchiveError is a resting state: the slot is free.
	ArchiveError
)

func (s ArchiveState) String() string {
	switch s {
	case ArchiveIdle:
		return "idle"
	case ArchiveSubmitting:
		return "submitting"
	case ArchivePolling:
		return "polling"
	case ArchiveCompleted:
		return "completed"
	case ArchiveError:
		return "error"
	default:
		return "unknown"
	}
}

// Busy reports whether a new job would be refused.
func (s ArchiveState) Busy() bool {
	return s == ArchiveSubmitting || s == ArchivePolling || s == ArchiveCompleted
}

// archivePoller is the single archive job slot.
//
// epoch identifies the job the slot is working on; it moves on whenever a
// job is started or discarded, so callbacks for an older job are dropped.
// Poll ticks are numbered; applied is the newest tick whose non-terminal
// response was applied.
type archivePoller struct {
	state ArchiveState
	job   model.ArchiveJob
	err   error

	epoch    uint64
	tick     uint64
	applied  uint64
	failures int

	ticker eventloop.Timer
	grace  eventloop.Timer
}

// stopTicker stops polling. It is safe to call more than once.
func (a *archivePoller) stopTicker() {
	if a.ticker != nil {
		a.ticker.Stop()
		a.ticker = nil
	}
}

func (a *archivePoller) stopGrace() {
	if a.grace != nil {
		a.grace.Stop()
		a.grace = nil
	}
}

// discard abandons the current job, if any, and frees the slot.
func (a *archivePoller) discard() {
	a.stopTicker()
	a.stopGrace()
	a.epoch++
	a.state = ArchiveIdle
	a.job = model.ArchiveJob{}
	a.err = nil
}

// StartArchive submits an archive job for the current collection. It
// returns false without doing anything while a job occupies the slot.
func (s *Session) StartArchive() (bool, error) {
	if s.closed {
		return false, ErrClosed
	}
	if s.result == nil {
		return false, ErrNoResult
	}
	if !s.result.IsCollection() {
		return false, ErrNotCollection
	}
	a := &s.archive
	if a.state.Busy() {
		return false, nil
	}

	a.discard()
	a.state = ArchiveSubmitting
	a.job = model.ArchiveJob{
		Phase:   model.PhaseQueued,
		Percent: archiveSubmitPercent,
		Message: msgArchiveInit,
	}

	result := s.result
	s.record(history.Entry{
		ID:     result.ID(),
		Name:   result.Name(),
		Artist: result.Artist(),
		Cover:  result.Cover(),
		URL:    result.SourceURL(),
	})
	s.emit(Event{Kind: EventArchive, Level: LevelInfo, Message: fmt.Sprintf("Requesting archive of %s (%d tracks)", result.Name(), result.Len())})
	s.changed()

	epoch, ctx := a.epoch, s.genCtx
	var (
		jobID string
		err   error
	)
	s.sched.Go(func() {
		jobID, err = s.backend.StartArchive(ctx, result.SourceURL())
	}, func() {
		s.archiveStarted(epoch, jobID, err)
	})
	return true, nil
}

func (s *Session) archiveCurrent(epoch uint64) bool {
	return !s.closed && epoch == s.archive.epoch
}

func (s *Session) archiveStarted(epoch uint64, jobID string, err error) {
	a := &s.archive
	if !s.archiveCurrent(epoch) || a.state != ArchiveSubmitting {
		return
	}
	if err != nil {
		msg := api.ServerMessage(err, msgArchiveStart)
		s.emit(Event{Kind: EventArchive, Level: LevelVerbose, Message: err.Error()})
		s.failArchive(err, msg)
		return
	}

	a.state = ArchivePolling
	a.job.ID = jobID
	a.ticker = s.sched.Every(s.settings.PollIntervalDuration(), func() {
		s.pollArchive(epoch)
	})
	s.emit(Event{Kind: EventArchive, Level: LevelVerbose, Message: "Archive job " + jobID + " submitted"})
	s.changed()
}

// pollArchive issues one numbered status request.
func (s *Session) pollArchive(epoch uint64) {
	a := &s.archive
	if !s.archiveCurrent(epoch) || a.state != ArchivePolling {
		return
	}
	a.tick++
	tick, jobID, ctx := a.tick, a.job.ID, s.genCtx

	var (
		update model.JobUpdate
		err    error
	)
	s.sched.Go(func() {
		update, err = s.backend.ArchiveStatus(ctx, jobID)
	}, func() {
		s.archivePolled(epoch, tick, update, err)
	})
}

func (s *Session) archivePolled(epoch, tick uint64, update model.JobUpdate, err error) {
	a := &s.archive
	// A straggler after a terminal response lands here with the slot no
	// longer polling.
	if !s.archiveCurrent(epoch) || a.state != ArchivePolling {
		return
	}

	if errors.Is(err, api.ErrUnknownPhase) {
		s.emit(Event{Kind: EventPoll, Level: LevelVerbose, Message: fmt.Sprintf("Poll %d for job %s: %v", tick, a.job.ID, err)})
		return
	}
	if err != nil {
		a.failures++
		s.emit(Event{Kind: EventPoll, Level: LevelWarning, Message: fmt.Sprintf("Poll %d for job %s failed: %v", tick, a.job.ID, err)})
		if limit := s.settings.PollFailureLimit; limit > 0 && a.failures >= limit {
			s.failArchive(&JobFailure{JobID: a.job.ID, Detail: msgArchiveLost}, msgArchiveLost)
		}
		return
	}
	a.failures = 0

	switch update.Phase {
	case model.PhaseQueued, model.PhaseProcessing:
		if tick < a.applied {
			s.emit(Event{Kind: EventPoll, Level: LevelVerbose, Message: fmt.Sprintf("Dropped out-of-order poll %d", tick)})
			return
		}
		a.applied = tick
		a.job.Phase = update.Phase
		if update.Percent != nil {
			a.job.Percent = model.ClampPercent(*update.Percent)
		} else {
			a.job.Percent = max(a.job.Percent, archiveFallbackPercent)
		}
		a.job.Message = update.Message
		if a.job.Message == "" {
			a.job.Message = msgArchiveWorking
		}
		s.changed()

	case model.PhaseCompleted:
		a.stopTicker()
		if update.ResultLocation == "" {
			s.failArchive(&JobFailure{JobID: a.job.ID, Detail: msgArchiveNoFile}, msgArchiveNoFile)
			return
		}
		a.state = ArchiveCompleted
		a.job.Phase = model.PhaseCompleted
		a.job.Percent = 100
		a.job.Message = msgArchiveDone
		a.job.ResultLocation = update.ResultLocation
		s.emit(Event{Kind: EventArchive, Level: LevelSuccess, Message: "Archive ready: " + update.ResultLocation})
		s.changed()

		s.save(update.ResultLocation, nil)
		a.grace = s.sched.AfterFunc(s.settings.CompletionGraceDuration(), func() {
			if !s.archiveCurrent(epoch) || a.state != ArchiveCompleted {
				return
			}
			a.grace = nil
			a.state = ArchiveIdle
			a.job = model.ArchiveJob{}
			s.changed()
		})

	case model.PhaseError:
		a.stopTicker()
		detail := update.ErrorDetail
		msg := detail
		if msg == "" {
			msg = msgArchiveFailed
		}
		s.failArchive(&JobFailure{JobID: a.job.ID, Detail: detail}, msg)
	}
}

// failArchive frees the slot immediately and clears the progress.
func (s *Session) failArchive(err error, message string) {
	a := &s.archive
	a.stopTicker()
	a.stopGrace()
	a.state = ArchiveError
	a.err = err
	a.job.Phase = model.PhaseError
	a.job.Percent = 0
	a.job.Message = message
	var jf *JobFailure
	if errors.As(err, &jf) {
		a.job.ErrorDetail = jf.Detail
	}
	s.emit(Event{Kind: EventArchive, Level: LevelError, Message: message})
	s.changed()
}
