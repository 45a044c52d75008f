package api

import (
	"github.com/trimline/trimline/internal/editor"
	"github.com/trimline/trimline/internal/jobs"
	"github.com/trimline/trimline/internal/recording"
	"github.com/trimline/trimline/internal/suggest"
)

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	UptimeS int64  `json:"uptime_s"`
}

type StatusResponse struct {
	State       string                 `json:"state"`
	LastError   string                 `json:"last_error,omitempty"`
	VideosCount int                    `json:"videos_count"`
	TracksCount int                    `json:"tracks_count"`
	ClipsCount  int                    `json:"clips_count"`
	JobsActive  int                    `json:"jobs_active"`
	JobsPaused  bool                   `json:"jobs_paused"`
	ActiveJob   *jobs.Job              `json:"active_job,omitempty"`
	Recording   *recording.Status      `json:"recording,omitempty"`
	CanUndo     bool                   `json:"can_undo"`
	CanRedo     bool                   `json:"can_redo"`
	Encoder     *EncoderStatusResponse `json:"encoder,omitempty"`
}

type EncoderStatusResponse struct {
	Ready          bool   `json:"ready"`
	FFmpegVersion  string `json:"ffmpeg_version,omitempty"`
	FFprobeVersion string `json:"ffprobe_version,omitempty"`
	TempFreeBytes  uint64 `json:"temp_free_bytes"`
	LastProbeAt    string `json:"last_probe_at,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type PathRequest struct {
	Path string `json:"path"`
}

type ImportRequest struct {
	Path string `json:"path"`
	// Select defaults to true.
	Select *bool `json:"select,omitempty"`
}

// VideoResponse is a library video with its current trim state.
type VideoResponse struct {
	editor.Video
	Trim              editor.TrimPoint `json:"trim"`
	EffectiveDuration float64          `json:"effective_duration"`
}

type VideosResponse struct {
	Videos   []VideoResponse `json:"videos"`
	Selected string          `json:"selected,omitempty"`
}

type DurationRequest struct {
	Path     string  `json:"path"`
	Duration float64 `json:"duration"`
}

type TimeRequest struct {
	Path string  `json:"path"`
	Time float64 `json:"time"`
}

type SpeedRequest struct {
	Path  string  `json:"path"`
	Speed float64 `json:"speed"`
}

type TrimResponse struct {
	Path              string           `json:"path"`
	Trim              editor.TrimPoint `json:"trim"`
	EffectiveDuration float64          `json:"effective_duration"`
}

type SplitResponse struct {
	Videos [2]editor.Video `json:"videos"`
}

type HistoryResponse struct {
	Entries []editor.HistoryEntry `json:"entries"`
	Index   int                   `json:"index"`
}

type UndoResponse struct {
	Applied bool `json:"applied"`
	CanUndo bool `json:"can_undo"`
	CanRedo bool `json:"can_redo"`
}

type GenerateSuggestionsRequest struct {
	Path               string   `json:"path"`
	MinSilenceDuration *float64 `json:"min_silence_duration,omitempty"`
	HighlightDuration  *float64 `json:"highlight_duration,omitempty"`
	MinConfidence      *float64 `json:"min_confidence,omitempty"`
}

type SuggestionsResponse struct {
	Path        string               `json:"path"`
	Suggestions []suggest.Suggestion `json:"suggestions"`
}

type ApplySuggestionRequest struct {
	Path       string             `json:"path"`
	Suggestion suggest.Suggestion `json:"suggestion"`
}

type ApplySuggestionResponse struct {
	Applied bool             `json:"applied"`
	Trim    editor.TrimPoint `json:"trim"`
}

type TracksResponse struct {
	Tracks      []editor.Track `json:"tracks"`
	ActiveTrack string         `json:"active_track"`
}

type TrackRequest struct {
	Name string `json:"name"`
}

type AddClipRequest struct {
	VideoPath string   `json:"video_path"`
	StartTime float64  `json:"start_time"`
	InPoint   *float64 `json:"in_point,omitempty"`
	OutPoint  *float64 `json:"out_point,omitempty"`
	Snap      bool     `json:"snap"`
}

type ClipPositionRequest struct {
	StartTime float64 `json:"start_time"`
	Snap      bool    `json:"snap"`
}

type MoveClipRequest struct {
	ToTrackID string  `json:"to_track_id"`
	StartTime float64 `json:"start_time"`
	Snap      bool    `json:"snap"`
}

type TimelineDurationResponse struct {
	Duration  float64 `json:"duration"`
	Formatted string  `json:"formatted"`
}

type ZoomRequest struct {
	// Action is "in", "out" or "reset"; Level is used when Action is empty.
	Action string   `json:"action,omitempty"`
	Level  *float64 `json:"level,omitempty"`
}

type ZoomResponse struct {
	Zoom float64 `json:"zoom"`
}

type SnapRequest struct {
	Enabled bool `json:"enabled"`
}

type SnapPositionRequest struct {
	Time          float64 `json:"time"`
	TrackID       string  `json:"track_id,omitempty"`
	ExcludeClipID string  `json:"exclude_clip_id,omitempty"`
}

type SnapPositionResponse struct {
	Time float64 `json:"time"`
}

type ClipExportRequest struct {
	Path       string `json:"path"`
	OutputDir  string `json:"output_dir"`
	Title      string `json:"title,omitempty"`
	Resolution string `json:"resolution,omitempty"`
	Quality    string `json:"quality,omitempty"`
	Format     string `json:"format,omitempty"`
	// UseTrim takes the range and speed from the video's trim point instead
	// of Start, Duration and PlaybackSpeed.
	UseTrim       bool     `json:"use_trim"`
	Start         float64  `json:"start,omitempty"`
	Duration      float64  `json:"duration,omitempty"`
	PlaybackSpeed *float64 `json:"playback_speed,omitempty"`
}

type TimelineExportRequest struct {
	OutputDir string `json:"output_dir"`
	Title     string `json:"title,omitempty"`
}

type EDLExportRequest struct {
	OutputDir string  `json:"output_dir"`
	Title     string  `json:"title,omitempty"`
	FrameRate float64 `json:"frame_rate,omitempty"`
}

type EDLExportResponse struct {
	Status     string `json:"status"`
	Format     string `json:"format"`
	OutputPath string `json:"output_path"`
	ClipCount  int    `json:"clip_count"`
}

type JobsResponse struct {
	Jobs []*jobs.Job `json:"jobs"`
}

type RecordingStartRequest struct {
	Kind     string `json:"kind"`
	SourceID string `json:"source_id,omitempty"`
}
