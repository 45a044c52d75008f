package transcript

import (
	"math"
	"sort"
	"strings"
)

const (
	// DefaultHighlightDuration is the target highlight length in seconds.
	DefaultHighlightDuration = 30.0

	minHighlightSegment  = 2.0
	minHighlightDuration = 15.0
	highlightSlack       = 5.0
	maxHighlights        = 3
	commaPauseMaxLength  = 2.0
	fillerRatioThreshold = 0.5
)

// FillerWords is the lexicon used by filler detection and highlight filtering.
var FillerWords = []string{
	"um", "uh", "uhm", "hmm", "er", "erm",
	"like", "you know", "i mean", "so", "well",
	"actually", "literally", "basically", "right", "okay",
}

type SilenceRegion struct {
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
	Duration float64 `json:"duration"`
}

type FillerSegment struct {
	Start       float64 `json:"start"`
	End         float64 `json:"end"`
	Text        string  `json:"text"`
	FillerCount int     `json:"filler_count"`
	FillerRatio float64 `json:"filler_ratio"`
	Confidence  float64 `json:"confidence"`
}

type PauseType string

const (
	PauseSentence PauseType = "sentence"
	PauseComma    PauseType = "comma"
)

type Pause struct {
	Time float64   `json:"time"`
	Type PauseType `json:"type"`
}

type Highlight struct {
	Start        float64 `json:"start"`
	End          float64 `json:"end"`
	Duration     float64 `json:"duration"`
	SegmentCount int     `json:"segment_count"`
}

// DetectSilence reports the gap before the first segment and every gap
// between consecutive segments that lasts at least minSilence seconds.
// Silence after the last segment is not reported: the media length is not
// known here.
func DetectSilence(t Transcript, minSilence float64) []SilenceRegion {
	segs := t.Segments
	if len(segs) == 0 {
		return []SilenceRegion{}
	}

	regions := []SilenceRegion{}
	if segs[0].Start >= minSilence {
		regions = append(regions, SilenceRegion{Start: 0, End: segs[0].Start, Duration: segs[0].Start})
	}

	for i := 1; i < len(segs); i++ {
		prev, next := segs[i-1], segs[i]
		gap := next.Start - prev.End
		if gap >= minSilence {
			regions = append(regions, SilenceRegion{Start: prev.End, End: next.Start, Duration: gap})
		}
	}
	return regions
}

// DetectFillerWords flags segments dominated by, or framed by, filler words.
func DetectFillerWords(t Transcript) []FillerSegment {
	out := []FillerSegment{}
	for _, seg := range t.Segments {
		text := strings.ToLower(strings.TrimSpace(seg.Text))
		tokens := tokenize(text)
		if len(tokens) == 0 {
			continue
		}

		count := 0
		for _, tok := range tokens {
			if isFillerToken(tok) {
				count++
			}
		}
		ratio := float64(count) / float64(len(tokens))

		if ratio >= fillerRatioThreshold || framedByFiller(text) {
			out = append(out, FillerSegment{
				Start:       seg.Start,
				End:         seg.End,
				Text:        seg.Text,
				FillerCount: count,
				FillerRatio: ratio,
				Confidence:  math.Min(0.5+ratio*0.5, 1.0),
			})
		}
	}
	return out
}

// DetectNaturalPauses lists segment ends that fall on sentence punctuation,
// or on a comma inside a short segment.
func DetectNaturalPauses(t Transcript) []Pause {
	out := []Pause{}
	for _, seg := range t.Segments {
		text := strings.TrimSpace(seg.Text)
		switch {
		case strings.HasSuffix(text, ".") || strings.HasSuffix(text, "!") || strings.HasSuffix(text, "?"):
			out = append(out, Pause{Time: seg.End, Type: PauseSentence})
		case strings.Contains(text, ",") && seg.Duration() < commaPauseMaxLength:
			out = append(out, Pause{Time: seg.End, Type: PauseComma})
		}
	}
	return out
}

type scoredSegment struct {
	seg   Segment
	score float64
}

// DetectBestSegments picks up to three highlight windows from the densest
// segments. Windows are built from runs of the score-sorted list, so their
// members need not be adjacent in time; Start and End come from the first
// and last member in score order and Duration is the summed member length.
func DetectBestSegments(t Transcript, highlightDuration float64) []Highlight {
	if highlightDuration <= 0 {
		highlightDuration = DefaultHighlightDuration
	}

	candidates := make([]scoredSegment, 0, len(t.Segments))
	for _, seg := range t.Segments {
		dur := seg.Duration()
		if dur < minHighlightSegment {
			continue
		}
		if startsWithFiller(strings.ToLower(strings.TrimSpace(seg.Text))) {
			continue
		}
		words := float64(len(strings.Fields(seg.Text)))
		wordsPerSecond := words / dur
		candidates = append(candidates, scoredSegment{seg: seg, score: wordsPerSecond * dur})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	limit := highlightDuration + highlightSlack
	highlights := []Highlight{}
	for i := 0; i < len(candidates) && len(highlights) < maxHighlights; i++ {
		var window []Segment
		total := 0.0
		for j := i; j < len(candidates); j++ {
			dur := candidates[j].seg.Duration()
			if total+dur > limit {
				break
			}
			window = append(window, candidates[j].seg)
			total += dur
		}

		if len(window) == 0 || total < minHighlightDuration {
			continue
		}
		highlights = append(highlights, Highlight{
			Start:        window[0].Start,
			End:          window[len(window)-1].End,
			Duration:     total,
			SegmentCount: len(window),
		})
	}
	return highlights
}

func tokenize(text string) []string {
	fields := strings.Fields(text)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		tok := strings.Trim(f, ".,!?;:\"'()[]")
		if tok != "" {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// isFillerToken matches in both directions: the token contains a filler or a
// filler contains the token.
func isFillerToken(tok string) bool {
	for _, f := range FillerWords {
		if strings.Contains(tok, f) || strings.Contains(f, tok) {
			return true
		}
	}
	return false
}

func framedByFiller(text string) bool {
	for _, f := range FillerWords {
		if text == f ||
			strings.HasPrefix(text, f+" ") ||
			strings.HasSuffix(text, " "+f) ||
			strings.Contains(text, " "+f+" ") {
			return true
		}
	}
	return false
}

func startsWithFiller(text string) bool {
	for _, f := range FillerWords {
		if text == f || strings.HasPrefix(text, f+" ") {
			return true
		}
	}
	return false
}
