package entities

import (
	"fmt"
	"time"
)

// ExportMode selects the deliverable an export job produces
type ExportMode string

const (
	// ExportZip is a zip archive with one JPEG per slide
	ExportZip ExportMode = "zip"

	// ExportGIF is an animated image with one frame per slide
	ExportGIF ExportMode = "gif"

	// ExportPDF is a document with one page per slide
	ExportPDF ExportMode = "pdf"
)

// Validate checks the mode is known
func (m ExportMode) Validate() error {
	switch m {
	case ExportZip, ExportGIF, ExportPDF:
		return nil
	default:
		return NewValidationError("mode", fmt.Sprintf("unsupported export mode %q", m))
	}
}

// Filename returns the fixed download filename for the mode
func (m ExportMode) Filename() string {
	switch m {
	case ExportGIF:
		return "carousel.gif"
	case ExportPDF:
		return "carousel.pdf"
	default:
		return "carousel.zip"
	}
}

// MimeType returns the MIME type of the mode's artifact
func (m ExportMode) MimeType() string {
	switch m {
	case ExportGIF:
		return "image/gif"
	case ExportPDF:
		return "application/pdf"
	default:
		return "application/zip"
	}
}

// JobStatus is the lifecycle state of an export job
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// Artifact is the downloadable result of a successful export
type Artifact struct {
	Filename string `json:"filename"`
	MimeType string `json:"mimeType"`
	Data     []byte `json:"-"`
}

// Size returns the artifact size in bytes
func (a *Artifact) Size() int {
	if a == nil {
		return 0
	}
	return len(a.Data)
}

// ExportJob is one transient invocation of the export pipeline. Jobs live in
// memory only and are discarded when the artifact is collected or dismissed.
type ExportJob struct {
	ID         string        `json:"id"`
	Mode       ExportMode    `json:"mode"`
	Surfaces   []string      `json:"surfaces"`
	FrameDelay time.Duration `json:"frameDelay,omitempty"`
	Progress   float64       `json:"progress"`
	Status     JobStatus     `json:"status"`
	Artifact   *Artifact     `json:"artifact,omitempty"`
	Failure    string        `json:"failure,omitempty"`
	CreatedAt  time.Time     `json:"createdAt"`
	FinishedAt time.Time     `json:"finishedAt,omitempty"`
}

// Done reports whether the job reached a terminal state
func (j *ExportJob) Done() bool {
	return j.Status == JobSucceeded || j.Status == JobFailed
}

// Frame delay bounds for animated exports, in milliseconds
const (
	MinFrameDelayMs     = 100
	MaxFrameDelayMs     = 10000
	DefaultFrameDelayMs = 2000
)

// NormalizeFrameDelay clamps a requested delay into the accepted range.
// Zero selects the default.
func NormalizeFrameDelay(d time.Duration) time.Duration {
	ms := d.Milliseconds()
	switch {
	case ms == 0:
		ms = DefaultFrameDelayMs
	case ms < MinFrameDelayMs:
		ms = MinFrameDelayMs
	case ms > MaxFrameDelayMs:
		ms = MaxFrameDelayMs
	}
	return time.Duration(ms) * time.Millisecond
}
