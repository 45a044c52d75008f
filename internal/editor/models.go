// Package editor is the in-memory editing session: the video library, per-video
// trim points, multi-track clip placement, selection, zoom, snapping and a
// bounded undo/redo history of full-state snapshots.
package editor

import (
	"time"

	"github.com/trimline/trimline/internal/suggest"
	"github.com/trimline/trimline/internal/transcript"
)

const (
	MinPlaybackSpeed = 0.5
	MaxPlaybackSpeed = 2.0

	MinZoom  = 0.25
	MaxZoom  = 4.0
	ZoomStep = 0.25

	SnapInterval  = 1.0
	SnapThreshold = 0.5

	MaxHistory = 50

	// suggestionEdgeTolerance is how close a flagged region must come to an
	// in or out point to be trimmed away.
	suggestionEdgeTolerance = 1.0
)

type Video struct {
	ID                   string                 `json:"id"`
	Path                 string                 `json:"path"`
	Name                 string                 `json:"name"`
	Duration             float64                `json:"duration"`
	Size                 int64                  `json:"size,omitempty"`
	MimeType             string                 `json:"mime_type,omitempty"`
	AddedAt              time.Time              `json:"added_at"`
	IsRecording          bool                   `json:"is_recording"`
	RecordingType        string                 `json:"recording_type,omitempty"`
	RecordedAt           *time.Time             `json:"recorded_at,omitempty"`
	Transcript           *transcript.Transcript `json:"transcript,omitempty"`
	Summary              *transcript.Summary    `json:"summary,omitempty"`
	TrimSuggestions      []suggest.Suggestion   `json:"trim_suggestions"`
	SuggestionsGenerated bool                   `json:"suggestions_generated"`
	IsSplit              bool                   `json:"is_split"`
	OriginalPath         string                 `json:"original_path,omitempty"`
	SplitIndex           int                    `json:"split_index,omitempty"`
}

// SourcePath is the file backing the video. Split videos resolve to the file
// they were cut from.
func (v Video) SourcePath() string {
	if v.IsSplit && v.OriginalPath != "" {
		return v.OriginalPath
	}
	return v.Path
}

// Clone returns a copy sharing no mutable state with v.
func (v Video) Clone() Video {
	c := v
	if v.RecordedAt != nil {
		t := *v.RecordedAt
		c.RecordedAt = &t
	}
	c.Transcript = v.Transcript.Clone()
	c.Summary = v.Summary.Clone()
	c.TrimSuggestions = make([]suggest.Suggestion, len(v.TrimSuggestions))
	copy(c.TrimSuggestions, v.TrimSuggestions)
	return c
}

// TrimPoint is the in/out window and playback speed of a video. A nil
// OutPoint means the end of the media.
type TrimPoint struct {
	InPoint       float64  `json:"in_point"`
	OutPoint      *float64 `json:"out_point"`
	PlaybackSpeed float64  `json:"playback_speed"`
}

func DefaultTrimPoint() TrimPoint {
	return TrimPoint{PlaybackSpeed: 1.0}
}

func (t TrimPoint) Clone() TrimPoint {
	c := t
	if t.OutPoint != nil {
		out := *t.OutPoint
		c.OutPoint = &out
	}
	return c
}

// End resolves the out point against the media duration.
func (t TrimPoint) End(duration float64) float64 {
	if t.OutPoint != nil {
		return *t.OutPoint
	}
	return duration
}

type Track struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Clips []Clip `json:"clips"`
}

// Clip places a video on a track. VideoPath is a weak reference: the video may
// be removed while the clip stays.
type Clip struct {
	ID        string   `json:"id"`
	VideoPath string   `json:"video_path"`
	StartTime float64  `json:"start_time"`
	Duration  float64  `json:"duration"`
	InPoint   float64  `json:"in_point"`
	OutPoint  *float64 `json:"out_point"`
}

// ClipSpec describes a clip to place. Nil trim fields are taken from the
// video's current trim point.
type ClipSpec struct {
	VideoPath string   `json:"video_path"`
	StartTime float64  `json:"start_time"`
	InPoint   *float64 `json:"in_point,omitempty"`
	OutPoint  *float64 `json:"out_point,omitempty"`
}

// state is the part of the session captured by history.
type state struct {
	videos        []Video
	tracks        []Track
	trimPoints    map[string]TrimPoint
	selectedVideo string
	selectedClip  string
}

type HistoryEntry struct {
	Action      string    `json:"action"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`

	state state
}

// Snapshot is a detached copy of the whole session.
type Snapshot struct {
	Videos        []Video              `json:"videos"`
	Tracks        []Track              `json:"tracks"`
	TrimPoints    map[string]TrimPoint `json:"trim_points"`
	SelectedVideo string               `json:"selected_video,omitempty"`
	SelectedClip  string               `json:"selected_clip,omitempty"`
	ActiveTrack   string               `json:"active_track"`
	Zoom          float64              `json:"zoom"`
	SnapEnabled   bool                 `json:"snap_enabled"`
	CanUndo       bool                 `json:"can_undo"`
	CanRedo       bool                 `json:"can_redo"`
}

// Video looks up a video by path in the snapshot.
func (s Snapshot) Video(path string) (Video, bool) {
	for _, v := range s.Videos {
		if v.Path == path {
			return v, true
		}
	}
	return Video{}, false
}

// PlaybackSpeed returns the stored speed for path or 1.
func (s Snapshot) PlaybackSpeed(path string) float64 {
	if tp, ok := s.TrimPoints[path]; ok && tp.PlaybackSpeed > 0 {
		return tp.PlaybackSpeed
	}
	return 1.0
}

// Change is delivered to subscribers after every state change.
type Change struct {
	Action      string
	Description string
	// Replay marks changes made by Undo and Redo.
	Replay bool
}
