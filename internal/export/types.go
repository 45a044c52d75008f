// Package export renders clips and timelines through the encoder: single
// clip exports with trim, speed, scale and codec mapping, and multi-clip
// timelines rendered concurrently and joined with a stream-copy concat.
package export

import (
	"errors"

	"github.com/trimline/trimline/internal/editor"
)

var (
	ErrMissingParameter = errors.New("missing required export parameter")
	ErrUnsupported      = errors.New("unsupported export option")
	ErrInvalidSpeed     = errors.New("playback speed out of range")
	ErrNoClips          = errors.New("timeline has no clips to export")
)

// ProgressFunc receives percent complete in [0, 100].
type ProgressFunc func(percent float64)

// ClipRequest is a single-clip export. Start and Duration are in source
// seconds; zero leaves them unset.
type ClipRequest struct {
	Input         string  `json:"input"`
	Output        string  `json:"output"`
	Start         float64 `json:"start"`
	Duration      float64 `json:"duration"`
	Resolution    string  `json:"resolution"`
	Quality       string  `json:"quality"`
	Format        string  `json:"format"`
	PlaybackSpeed float64 `json:"playback_speed"`
}

// TimelineRequest exports every clip on every track as one file.
type TimelineRequest struct {
	Tracks []editor.Track
	Videos []editor.Video
	// Speed returns the playback speed for a video path.
	Speed  func(path string) float64
	Output string
}

// TimelineEntry is a clip resolved against its video, in export order.
type TimelineEntry struct {
	TrackID string
	Clip    editor.Clip
	Video   editor.Video
	Speed   float64
}

// Duration is the source length the clip covers.
func (e TimelineEntry) Duration() float64 {
	end := e.Video.Duration
	if e.Clip.OutPoint != nil {
		end = *e.Clip.OutPoint
	}
	if d := end - e.Clip.InPoint; d > 0 {
		return d
	}
	return 0
}

// OutputDuration is the rendered length after the speed change.
func (e TimelineEntry) OutputDuration() float64 {
	if e.Speed <= 0 {
		return e.Duration()
	}
	return e.Duration() / e.Speed
}

type Result struct {
	OutputPath string  `json:"output_path"`
	ClipCount  int     `json:"clip_count"`
	Duration   float64 `json:"duration"`
}
