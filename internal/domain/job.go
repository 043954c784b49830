package domain

import "time"

type JobStatus string

const (
	StatusStarting    JobStatus = "starting"
	StatusDownloading JobStatus = "downloading"
	StatusCompleted   JobStatus = "completed"
	StatusError       JobStatus = "error"
)

// Terminal reports whether no further transitions are allowed.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Progress is the last-known transfer snapshot for a job. Fields are
// pre-formatted strings because they are served to clients verbatim.
type Progress struct {
	Percentage float64 `json:"percentage"`
	Downloaded string  `json:"downloaded"`
	Total      string  `json:"total"`
	Speed      string  `json:"speed"`
	ETA        string  `json:"eta"`
	Filename   string  `json:"filename"`
}

// Artifact describes the file produced by a completed job.
type Artifact struct {
	Filename string `json:"filename"`
	Path     string `json:"file_path"`
	Size     string `json:"file_size"`
}

// Job represents one download/transcode task from submission to terminal state.
// SessionID is a weak back-reference to the owning client and is immutable
// after creation.
type Job struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Quality   string    `json:"quality"`
	SessionID string    `json:"client_id"`
	Status    JobStatus `json:"status"`

	Progress Progress `json:"progress"`
	Artifact Artifact `json:"artifact,omitzero"`
	Error    string   `json:"error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
