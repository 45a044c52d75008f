// Package encoder is the invocation contract for the external media encoder
// and its ffmpeg/ffprobe implementation. Callers describe work as a Job and
// observe it through Events; flag syntax stays inside this package.
package encoder

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Encoder runs encode jobs and inspects media files.
type Encoder interface {
	Run(ctx context.Context, job Job, ev Events) error
	Probe(ctx context.Context, path string) (*ProbeResult, error)
}

// Job is one encoder invocation. Zero values mean "not set".
type Job struct {
	Input string
	// InputFormat forces the demuxer; "concat" reads Input as a list file.
	InputFormat string

	Start    float64
	Duration float64

	VideoFilters []string
	AudioFilters []string
	// Size is a direct output scale such as "1280x720".
	Size string

	NoVideo      bool
	StreamCopy   bool
	VideoCodec   string
	AudioCodec   string
	Preset       string
	CRF          int
	VideoBitrate string
	AudioBitrate string
	Format       string
	// OutputOptions are container or codec flags passed through verbatim,
	// e.g. "-movflags", "+faststart".
	OutputOptions []string

	Output string

	// ExpectedDuration is the output length in seconds used to turn encoder
	// time into a percentage.
	ExpectedDuration float64
}

// Events receives the lifecycle of a Run. Nil callbacks are skipped.
type Events struct {
	OnStart    func(command string)
	OnProgress func(percent float64)
	OnEnd      func()
	OnError    func(message, diagnostic string)
}

func (e Events) start(cmd string) {
	if e.OnStart != nil {
		e.OnStart(cmd)
	}
}

func (e Events) progress(pct float64) {
	if e.OnProgress != nil {
		e.OnProgress(pct)
	}
}

func (e Events) end() {
	if e.OnEnd != nil {
		e.OnEnd()
	}
}

func (e Events) fail(msg, diag string) {
	if e.OnError != nil {
		e.OnError(msg, diag)
	}
}

// Error is a failed encoder run. Diagnostic holds the tail of the encoder's
// stderr.
type Error struct {
	Message    string
	Diagnostic string
	ExitCode   int
}

func (e *Error) Error() string {
	if e.ExitCode != 0 {
		return fmt.Sprintf("encoder exited %d: %s", e.ExitCode, e.Message)
	}
	return "encoder: " + e.Message
}

var noAudioMarkers = []string{
	"does not contain any stream",
	"matches no streams",
	"Output file #0 does not contain any stream",
	"Stream map '0:a' matches no streams",
}

// IsNoAudio reports whether diagnostic text says the input had no audio
// stream to work with.
func IsNoAudio(diagnostic string) bool {
	for _, m := range noAudioMarkers {
		if strings.Contains(diagnostic, m) {
			return true
		}
	}
	return false
}

// ProbeResult describes a media file.
type ProbeResult struct {
	Duration   float64 `json:"duration"`
	Width      int     `json:"width,omitempty"`
	Height     int     `json:"height,omitempty"`
	VideoCodec string  `json:"video_codec,omitempty"`
	AudioCodec string  `json:"audio_codec,omitempty"`
	FrameRate  float64 `json:"frame_rate,omitempty"`
	Bitrate    int64   `json:"bitrate,omitempty"`
	HasVideo   bool    `json:"has_video"`
	HasAudio   bool    `json:"has_audio"`
}

// Capabilities is what the doctor found on this machine.
type Capabilities struct {
	FFmpegPath     string    `json:"ffmpeg_path,omitempty"`
	FFmpegVersion  string    `json:"ffmpeg_version,omitempty"`
	FFprobePath    string    `json:"ffprobe_path,omitempty"`
	FFprobeVersion string    `json:"ffprobe_version,omitempty"`
	TempDir        string    `json:"temp_dir"`
	TempFreeBytes  uint64    `json:"temp_free_bytes"`
	Errors         []string  `json:"errors,omitempty"`
	ProbedAt       time.Time `json:"probed_at"`
}

// Ready reports whether both binaries answered.
func (c Capabilities) Ready() bool {
	return c.FFmpegVersion != "" && c.FFprobeVersion != ""
}
