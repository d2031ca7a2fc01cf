package api

import (
	"errors"
	"fmt"

	"github.com/handiism/spotidown/internal/api/dto"
)

// ErrUnknownPhase marks a status poll whose job status was not recognised.
var ErrUnknownPhase = dto.ErrUnknownPhase

// Operation names used in errors.
const (
	OpFetchInfo     = "fetch info"
	OpDownloadTrack = "download track"
	OpStartArchive  = "start archive"
	OpArchiveStatus = "archive status"
)

// ServiceError is a non-2xx response or an explicit error payload.
type ServiceError struct {
	Op         string
	StatusCode int

	// Message is the server-provided text, possibly empty.
	Message string
}

func (e *ServiceError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: HTTP %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s (HTTP %d)", e.Op, e.Message, e.StatusCode)
}

// TransportError means no usable response was obtained: the backend was
// unreachable, the request timed out, or the body could not be decoded.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransport reports whether err is a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// ServerMessage returns the server-provided message carried by err, or
// fallback when there is none.
func ServerMessage(err error, fallback string) string {
	var se *ServiceError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	return fallback
}
