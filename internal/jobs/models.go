// Package jobs queues long-running work (exports, transcription,
// summarization) in SQLite and runs it in the background, writing results
// back into the editing session.
package jobs

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/trimline/trimline/internal/editor"
)

const (
	TypeExportClip     = "export_clip"
	TypeExportTimeline = "export_timeline"
	TypeTranscribe     = "transcribe"
	TypeSummarize      = "summarize"

	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

const cancelledMessage = "cancelled"

var (
	ErrJobNotFound    = errors.New("job not found")
	ErrJobFinished    = errors.New("job already finished")
	ErrUnknownJobType = errors.New("unknown job type")
)

type Job struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Status    string          `json:"status"`
	VideoPath string          `json:"video_path,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Result    string          `json:"result,omitempty"`
	Progress  int             `json:"progress"`
	Error     string          `json:"error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Finished reports whether the job reached a terminal status.
func (j *Job) Finished() bool {
	return j.Status == StatusCompleted || j.Status == StatusFailed
}

// TimelinePayload freezes the timeline as it was when the export was
// requested, so later edits do not change a queued render.
type TimelinePayload struct {
	Output string             `json:"output"`
	Tracks []editor.Track     `json:"tracks"`
	Videos []editor.Video     `json:"videos"`
	Speeds map[string]float64 `json:"speeds"`
}

func (p TimelinePayload) speed(path string) float64 {
	if s, ok := p.Speeds[path]; ok && s > 0 {
		return s
	}
	return 1.0
}

func NewID() string {
	return uuid.NewString()
}
