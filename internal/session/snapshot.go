package session

import "github.com/handiism/spotidown/internal/model"

// Snapshot is a copy of the session state for rendering.
type Snapshot struct {
	Status  Status
	Message string
	Locator string

	// Progress is the simulated fetch progress, 0-100.
	Progress int

	// TakingLong is raised when the fetch has been processing for longer
	// than the slow-response threshold.
	TakingLong bool

	// Result is the last fetched result, nil after Reset or while a new
	// fetch is processing. It is never mutated.
	Result *model.Result

	// Items holds the statuses of items that were ever started.
	Items map[string]model.ItemStatus

	Archive ArchiveSnapshot
}

// ItemStatus returns the status of one item, unstarted by default.
func (s Snapshot) ItemStatus(id string) model.ItemStatus {
	if st, ok := s.Items[id]; ok {
		return st
	}
	return model.ItemUnstarted
}

// ArchiveSnapshot describes the archive job slot.
type ArchiveSnapshot struct {
	State ArchiveState
	Job   model.ArchiveJob

	// Err is the last submission or job failure, set in ArchiveError.
	Err error
}

// Busy reports whether a new archive job would be refused.
func (a ArchiveSnapshot) Busy() bool { return a.State.Busy() }
