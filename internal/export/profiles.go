package export

import (
	"fmt"
	"math"
	"strconv"
)

type Resolution struct {
	Name   string
	Width  int
	Height int
}

// Scaled reports whether the resolution changes the frame size.
func (r Resolution) Scaled() bool {
	return r.Width > 0 && r.Height > 0
}

type Quality struct {
	Name   string
	Preset string
	CRF    int
}

type Format struct {
	Name       string
	Extension  string
	VideoCodec string
	AudioCodec string
	// UsePreset is false for encoders without x264-style presets.
	UsePreset     bool
	VideoBitrate  string
	OutputOptions []string
}

const (
	DefaultResolution = "source"
	DefaultQuality    = "medium"
	DefaultFormat     = "mp4-h264"
)

var Resolutions = map[string]Resolution{
	"720p":   {Name: "720p", Width: 1280, Height: 720},
	"1080p":  {Name: "1080p", Width: 1920, Height: 1080},
	"4k":     {Name: "4k", Width: 3840, Height: 2160},
	"source": {Name: "source"},
}

var Qualities = map[string]Quality{
	"fast":   {Name: "fast", Preset: "fast", CRF: 28},
	"medium": {Name: "medium", Preset: "medium", CRF: 23},
	"high":   {Name: "high", Preset: "slow", CRF: 18},
}

var Formats = map[string]Format{
	"mp4-h264": {
		Name: "mp4-h264", Extension: ".mp4",
		VideoCodec: "libx264", AudioCodec: "aac", UsePreset: true,
		OutputOptions: []string{"-movflags", "+faststart"},
	},
	"mp4-h265": {
		Name: "mp4-h265", Extension: ".mp4",
		VideoCodec: "libx265", AudioCodec: "aac", UsePreset: true,
		OutputOptions: []string{"-tag:v", "hvc1", "-movflags", "+faststart"},
	},
	"webm": {
		Name: "webm", Extension: ".webm",
		VideoCodec: "libvpx-vp9", AudioCodec: "libopus",
		VideoBitrate: "0",
	},
}

// Normalized timeline segment settings. Every per-clip render uses them so
// the concat pass can copy streams.
const (
	segmentWidth      = 1280
	segmentHeight     = 720
	segmentPreset     = "ultrafast"
	segmentCRF        = 23
	segmentFrameRate  = "30"
	segmentSampleRate = "48000"
	audioBitrate      = "128k"
)

const (
	minSpeed = 0.25
	maxSpeed = 4.0

	// atempo accepts factors in [0.5, 2] per stage.
	minTempoStage = 0.5
	maxTempoStage = 2.0
)

func lookupOptions(resolution, quality, format string) (Resolution, Quality, Format, error) {
	if resolution == "" {
		resolution = DefaultResolution
	}
	if quality == "" {
		quality = DefaultQuality
	}
	if format == "" {
		format = DefaultFormat
	}

	r, ok := Resolutions[resolution]
	if !ok {
		return Resolution{}, Quality{}, Format{}, fmt.Errorf("%w: resolution %q", ErrUnsupported, resolution)
	}
	q, ok := Qualities[quality]
	if !ok {
		return Resolution{}, Quality{}, Format{}, fmt.Errorf("%w: quality %q", ErrUnsupported, quality)
	}
	f, ok := Formats[format]
	if !ok {
		return Resolution{}, Quality{}, Format{}, fmt.Errorf("%w: format %q", ErrUnsupported, format)
	}
	return r, q, f, nil
}

// AtempoChain splits a speed factor into atempo stages. Speeds outside
// [0.5, 2] use two stages: 3 becomes [2, 1.5] and 0.3 becomes [0.5, 0.6].
func AtempoChain(speed float64) []float64 {
	switch {
	case speed > maxTempoStage:
		return []float64{maxTempoStage, round6(speed / maxTempoStage)}
	case speed < minTempoStage:
		return []float64{minTempoStage, round6(speed / minTempoStage)}
	default:
		return []float64{speed}
	}
}

func speedFilters(speed float64) (video []string, audio []string) {
	video = []string{fmt.Sprintf("setpts=%s*PTS", formatFactor(1/speed))}
	for _, f := range AtempoChain(speed) {
		audio = append(audio, "atempo="+formatFactor(f))
	}
	return video, audio
}

func validateSpeed(speed float64) (float64, error) {
	if speed == 0 {
		return 1, nil
	}
	if speed < minSpeed || speed > maxSpeed {
		return 0, fmt.Errorf("%w: %v not in [%v, %v]", ErrInvalidSpeed, speed, minSpeed, maxSpeed)
	}
	return speed, nil
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

func formatFactor(v float64) string {
	return strconv.FormatFloat(round6(v), 'f', -1, 64)
}
