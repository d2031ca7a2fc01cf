package model

import "strings"

// JobPhase is the server-reported phase of an archive job.
type JobPhase string

const (
	PhaseQueued     JobPhase = "queued"
	PhaseProcessing JobPhase = "processing"
	PhaseCompleted  JobPhase = "completed"
	PhaseError      JobPhase = "error"
)

// ParsePhase maps a wire status to a JobPhase. Older backends report
// "done" for a finished job. Unknown values return ok=false.
func ParsePhase(s string) (JobPhase, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "queued", "pending":
		return PhaseQueued, true
	case "processing":
		return PhaseProcessing, true
	case "completed", "done":
		return PhaseCompleted, true
	case "error", "failed":
		return PhaseError, true
	default:
		return "", false
	}
}

// IsTerminal reports whether no further polling is meaningful.
func (p JobPhase) IsTerminal() bool {
	return p == PhaseCompleted || p == PhaseError
}

// ArchiveJob is one bulk archive request as seen by the client.
type ArchiveJob struct {
	// ID is the server-assigned task id used to correlate polls.
	ID string

	Phase JobPhase

	// Percent is 0-100 as reported by the server.
	Percent int

	// Message is the free-text progress description.
	Message string

	// ResultLocation is set only when Phase is PhaseCompleted.
	ResultLocation string

	// ErrorDetail is set only when Phase is PhaseError.
	ErrorDetail string
}

// JobUpdate is one poll response.
type JobUpdate struct {
	Phase JobPhase

	// Percent is nil when the server omitted it.
	Percent *int

	Message        string
	ResultLocation string
	ErrorDetail    string
}

// ClampPercent bounds p to 0-100.
func ClampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
