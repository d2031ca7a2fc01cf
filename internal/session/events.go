package session

import "fmt"

// Level indicates the severity/type of an event.
type Level int

const (
	LevelInfo Level = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

// String returns a short prefix for the level.
func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelVerbose:
		return "verbose"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	case LevelSuccess:
		return "success"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// EventKind says which flow produced an event.
type EventKind int

const (
	EventFetch EventKind = iota
	EventSlow
	EventItem
	EventArchive
	EventPoll
	EventSaved
	EventSaveFailed
	EventHistory
)

// Event is a user-facing notification from the session.
type Event struct {
	Kind    EventKind
	Level   Level
	Message string

	// ItemID is set for EventItem and for saves of a single item.
	ItemID string

	// Path is the local file written, set for EventSaved.
	Path string
}
