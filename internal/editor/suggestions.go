package editor

import (
	"fmt"

	"github.com/trimline/trimline/internal/suggest"
)

// ApplySuggestion moves the video's trim according to a suggestion and
// reports whether the trim changed.
//
// Silence and filler regions only trim when they touch the current in or out
// point (within one second). Interior regions would need a split and are left
// alone. Highlights replace the trim with their own range.
func (s *Store) ApplySuggestion(path string, sg suggest.Suggestion) (bool, error) {
	applied := false
	err := s.mutate("apply_suggestion", func() (string, error) {
		v, err := s.videoLocked(path)
		if err != nil {
			return "", err
		}
		tp := s.trimLocked(path)

		switch sg.Type {
		case suggest.TypeRemoveSilence, suggest.TypeRemoveFiller:
			end := tp.End(v.Duration)
			// Without an out point or a probed duration the end is unknown.
			endKnown := tp.OutPoint != nil || v.Duration > 0
			switch {
			case sg.StartTime <= tp.InPoint+suggestionEdgeTolerance:
				if end > 0 && sg.EndTime >= end {
					return "", fmt.Errorf("%w: in %.3f, out %.3f", ErrInvalidTrimRange, sg.EndTime, end)
				}
				tp.InPoint = sg.EndTime
			case endKnown && sg.EndTime >= end-suggestionEdgeTolerance:
				if sg.StartTime <= tp.InPoint {
					return "", fmt.Errorf("%w: in %.3f, out %.3f", ErrInvalidTrimRange, tp.InPoint, sg.StartTime)
				}
				out := sg.StartTime
				tp.OutPoint = &out
			default:
				return "", errUnchanged
			}

		case suggest.TypeCreateHighlight:
			if sg.EndTime <= sg.StartTime {
				return "", fmt.Errorf("%w: in %.3f, out %.3f", ErrInvalidTrimRange, sg.StartTime, sg.EndTime)
			}
			out := sg.EndTime
			tp.InPoint = sg.StartTime
			tp.OutPoint = &out

		default:
			return "", fmt.Errorf("%w: %q", ErrUnknownSuggestion, sg.Type)
		}

		s.trimPoints[path] = tp
		applied = true
		return fmt.Sprintf("Applied %s suggestion", sg.Type), nil
	})
	return applied, err
}
