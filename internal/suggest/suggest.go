// Package suggest turns transcript analysis into typed trim suggestions.
package suggest

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/trimline/trimline/internal/timecode"
	"github.com/trimline/trimline/internal/transcript"
)

type Type string

const (
	TypeRemoveSilence   Type = "remove_silence"
	TypeRemoveFiller    Type = "remove_filler"
	TypeCreateHighlight Type = "create_highlight"
)

// Valid reports whether t is one of the known suggestion types.
func (t Type) Valid() bool {
	switch t {
	case TypeRemoveSilence, TypeRemoveFiller, TypeCreateHighlight:
		return true
	}
	return false
}

type Suggestion struct {
	Type       Type    `json:"type"`
	StartTime  float64 `json:"start_time"`
	EndTime    float64 `json:"end_time"`
	Duration   float64 `json:"duration"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
	Suggestion string  `json:"suggestion"`
}

type Options struct {
	MinSilenceDuration float64
	HighlightDuration  float64
	MinConfidence      float64
}

func DefaultOptions() Options {
	return Options{
		MinSilenceDuration: 2,
		HighlightDuration:  transcript.DefaultHighlightDuration,
		MinConfidence:      0.5,
	}
}

const (
	highlightConfidence      = 0.7
	firstHighlightBonus      = 0.2
	mergeGap                 = 1.0
	silenceConfidenceDivisor = 10.0
)

// GenerateTrimSuggestions runs every detector over t and returns the combined
// suggestions sorted by start time. MinConfidence applies to filler
// suggestions only.
func GenerateTrimSuggestions(t transcript.Transcript, opts Options) []Suggestion {
	out := []Suggestion{}

	for _, s := range transcript.DetectSilence(t, opts.MinSilenceDuration) {
		out = append(out, Suggestion{
			Type:       TypeRemoveSilence,
			StartTime:  s.Start,
			EndTime:    s.End,
			Duration:   s.Duration,
			Confidence: math.Min(0.5+s.Duration/silenceConfidenceDivisor*0.5, 1.0),
			Reason:     fmt.Sprintf("%.1fs of silence", s.Duration),
			Suggestion: fmt.Sprintf("Remove silence from %s to %s", timecode.FormatTime(s.Start), timecode.FormatTime(s.End)),
		})
	}

	for _, f := range transcript.DetectFillerWords(t) {
		if f.Confidence < opts.MinConfidence {
			continue
		}
		out = append(out, Suggestion{
			Type:       TypeRemoveFiller,
			StartTime:  f.Start,
			EndTime:    f.End,
			Duration:   f.End - f.Start,
			Confidence: f.Confidence,
			Reason:     fmt.Sprintf("%d filler word(s): %q", f.FillerCount, strings.TrimSpace(f.Text)),
			Suggestion: fmt.Sprintf("Cut filler at %s", timecode.FormatTime(f.Start)),
		})
	}

	for i, h := range transcript.DetectBestSegments(t, opts.HighlightDuration) {
		conf := highlightConfidence
		if i == 0 {
			conf += firstHighlightBonus
		}
		out = append(out, Suggestion{
			Type:       TypeCreateHighlight,
			StartTime:  h.Start,
			EndTime:    h.End,
			Duration:   h.Duration,
			Confidence: conf,
			Reason:     fmt.Sprintf("Dense speech across %d segment(s)", h.SegmentCount),
			Suggestion: fmt.Sprintf("Use %s to %s as a highlight", timecode.FormatTime(h.Start), timecode.FormatTime(h.End)),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartTime < out[j].StartTime
	})
	return out
}

// MergeOverlapping folds each suggestion starting within one second of the
// previous one's end into it. The merged entry keeps the earlier type, takes
// the later end, averages confidence and joins reasons.
func MergeOverlapping(in []Suggestion) []Suggestion {
	if len(in) == 0 {
		return []Suggestion{}
	}

	sorted := make([]Suggestion, len(in))
	copy(sorted, in)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartTime < sorted[j].StartTime
	})

	merged := []Suggestion{sorted[0]}
	for _, s := range sorted[1:] {
		last := &merged[len(merged)-1]
		if s.StartTime <= last.EndTime+mergeGap {
			last.EndTime = math.Max(last.EndTime, s.EndTime)
			last.Duration = last.EndTime - last.StartTime
			last.Confidence = (last.Confidence + s.Confidence) / 2
			last.Reason = last.Reason + "; " + s.Reason
			continue
		}
		merged = append(merged, s)
	}
	return merged
}

func FilterByType(in []Suggestion, t Type) []Suggestion {
	out := []Suggestion{}
	for _, s := range in {
		if s.Type == t {
			out = append(out, s)
		}
	}
	return out
}

func FilterByConfidence(in []Suggestion, min float64) []Suggestion {
	out := []Suggestion{}
	for _, s := range in {
		if s.Confidence >= min {
			out = append(out, s)
		}
	}
	return out
}
