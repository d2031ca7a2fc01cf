package model

// ItemStatus is the download state of one track, keyed by Track.ID.
type ItemStatus string

const (
	// ItemUnstarted is the implicit status of any key not in the map.
	ItemUnstarted ItemStatus = "unstarted"

	// ItemInProgress means a download request is in flight.
	ItemInProgress ItemStatus = "in-progress"

	// ItemSucceeded means the backend produced a file for the track.
	ItemSucceeded ItemStatus = "succeeded"

	// ItemFailed means the backend refused or the request failed.
	ItemFailed ItemStatus = "failed"
)

// String returns the string representation of ItemStatus.
func (s ItemStatus) String() string {
	return string(s)
}

// IsTerminal reports whether the status is succeeded or failed.
func (s ItemStatus) IsTerminal() bool {
	return s == ItemSucceeded || s == ItemFailed
}

// CanTransition reports whether moving from s to next is a forward step
// within one attempt.
func (s ItemStatus) CanTransition(next ItemStatus) bool {
	switch s {
	case ItemUnstarted:
		return next == ItemInProgress
	case ItemInProgress:
		return next.IsTerminal()
	default:
		return false
	}
}
