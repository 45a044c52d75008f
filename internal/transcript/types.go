// Package transcript holds transcript data and the pure analysis functions
// run over it: silence gaps, filler words, natural pauses and highlight
// scoring.
package transcript

import (
	"strings"
	"time"
)

// Segment is one timestamped span of recognized speech.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Duration returns End-Start.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// Transcript is the per-video transcription state.
type Transcript struct {
	Segments     []Segment `json:"segments"`
	FullText     string    `json:"full_text"`
	Duration     float64   `json:"duration"`
	Language     string    `json:"language,omitempty"`
	GeneratedAt  time.Time `json:"generated_at"`
	IsGenerating bool      `json:"is_generating"`
	Error        string    `json:"error,omitempty"`
}

// Clone returns a copy that shares no slices with t.
func (t *Transcript) Clone() *Transcript {
	if t == nil {
		return nil
	}
	c := *t
	if t.Segments != nil {
		c.Segments = make([]Segment, len(t.Segments))
		copy(c.Segments, t.Segments)
	}
	return &c
}

// JoinText concatenates segment texts the way FullText is built when a
// service response omits it.
func JoinText(segments []Segment) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		if txt := strings.TrimSpace(s.Text); txt != "" {
			parts = append(parts, txt)
		}
	}
	return strings.Join(parts, " ")
}

// Summary is the per-video summarization state.
type Summary struct {
	Short        string    `json:"short"`
	Detailed     string    `json:"detailed"`
	KeyTopics    []string  `json:"key_topics"`
	IsGenerating bool      `json:"is_generating"`
	GeneratedAt  time.Time `json:"generated_at"`
}

func (s *Summary) Clone() *Summary {
	if s == nil {
		return nil
	}
	c := *s
	if s.KeyTopics != nil {
		c.KeyTopics = append([]string(nil), s.KeyTopics...)
	}
	return &c
}
