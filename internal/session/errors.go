package session

import (
	"errors"
	"fmt"
)

var (
	// ErrNoResult is returned by item and archive operations before a
	// successful fetch.
	ErrNoResult = errors.New("no result loaded")

	// ErrNotCollection is returned when an archive is requested for a
	// single track.
	ErrNotCollection = errors.New("result is not an album or playlist")

	// ErrUnknownItem is returned for a track id the result does not carry.
	ErrUnknownItem = errors.New("unknown item")

	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("session closed")
)

// ValidationError means the locator was rejected before any request.
type ValidationError struct {
	Locator string
	Marker  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid link %q: must contain %q", e.Locator, e.Marker)
}

// JobFailure is a terminal error phase reported for an archive job, or the
// job being abandoned after too many failed polls.
type JobFailure struct {
	JobID  string
	Detail string
}

func (e *JobFailure) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("archive job %s failed", e.JobID)
	}
	return fmt.Sprintf("archive job %s failed: %s", e.JobID, e.Detail)
}
