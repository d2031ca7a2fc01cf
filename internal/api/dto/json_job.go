package dto

import (
	"errors"
	"fmt"
	"math"

	"github.com/handiism/spotidown/internal/model"
)

// ErrUnknownPhase is returned for a job status no backend revision sends.
var ErrUnknownPhase = errors.New("unknown job status")

// JSONDownload is the /api/download_track response.
type JSONDownload struct {
	Status      string `json:"status"`
	DownloadURL string `json:"download_url"`
	Error       string `json:"error"`
}

// Succeeded reports whether the backend produced a file.
func (jd *JSONDownload) Succeeded() bool {
	return jd.Status == "success" && jd.DownloadURL != ""
}

// JSONJobStart is the /api/start_zip response. Some backend revisions
// name the id job_id.
type JSONJobStart struct {
	TaskID string `json:"task_id"`
	JobID  string `json:"job_id"`
}

// ID returns the job id under either name.
func (js *JSONJobStart) ID() string {
	if js.TaskID != "" {
		return js.TaskID
	}
	return js.JobID
}

// JSONJobStatus is one /api/status_zip/{id} response.
type JSONJobStatus struct {
	Status      string   `json:"status"`
	Progress    string   `json:"progress"`
	Percent     *float64 `json:"percent"`
	DownloadURL string   `json:"download_url"`
	Error       string   `json:"error"`
}

// ToUpdate converts the payload. Unknown statuses wrap ErrUnknownPhase.
// A completed job may come back without a download_url; the caller decides
// what that means.
func (js *JSONJobStatus) ToUpdate() (model.JobUpdate, error) {
	phase, ok := model.ParsePhase(js.Status)
	if !ok {
		return model.JobUpdate{}, fmt.Errorf("%w %q", ErrUnknownPhase, js.Status)
	}

	update := model.JobUpdate{
		Phase:   phase,
		Message: js.Progress,
	}
	if js.Percent != nil {
		p := model.ClampPercent(int(math.Round(*js.Percent)))
		update.Percent = &p
	}

	switch phase {
	case model.PhaseCompleted:
		update.ResultLocation = js.DownloadURL
	case model.PhaseError:
		update.ErrorDetail = js.Error
	}
	return update, nil
}
