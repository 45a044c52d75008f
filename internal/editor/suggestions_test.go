package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trimline/trimline/internal/suggest"
)

func TestApplySuggestion(t *testing.T) {
	s := newTestStore(t)
	addVideo(t, s, "a", 60)

	applied, err := s.ApplySuggestion("a", suggest.Suggestion{Type: suggest.TypeRemoveSilence, StartTime: 0, EndTime: 3})
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, 3.0, s.TrimPoint("a").InPoint)

	applied, err = s.ApplySuggestion("a", suggest.Suggestion{Type: suggest.TypeRemoveFiller, StartTime: 57, EndTime: 60})
	require.NoError(t, err)
	assert.True(t, applied)
	require.NotNil(t, s.TrimPoint("a").OutPoint)
	assert.Equal(t, 57.0, *s.TrimPoint("a").OutPoint)

	entries, _ := s.History()
	applied, err = s.ApplySuggestion("a", suggest.Suggestion{Type: suggest.TypeRemoveSilence, StartTime: 20, EndTime: 25})
	require.NoError(t, err)
	assert.False(t, applied, "interior regions are left alone")
	after, _ := s.History()
	assert.Len(t, after, len(entries))

	applied, err = s.ApplySuggestion("a", suggest.Suggestion{Type: suggest.TypeCreateHighlight, StartTime: 30, EndTime: 45})
	require.NoError(t, err)
	assert.True(t, applied)
	tp := s.TrimPoint("a")
	assert.Equal(t, 30.0, tp.InPoint)
	assert.Equal(t, 45.0, *tp.OutPoint)
}

func TestApplySuggestion_Errors(t *testing.T) {
	s := newTestStore(t)
	addVideo(t, s, "a", 60)

	_, err := s.ApplySuggestion("a", suggest.Suggestion{Type: suggest.TypeCreateHighlight, StartTime: 45, EndTime: 30})
	assert.ErrorIs(t, err, ErrInvalidTrimRange)

	_, err = s.ApplySuggestion("a", suggest.Suggestion{Type: "split"})
	assert.ErrorIs(t, err, ErrUnknownSuggestion)

	_, err = s.ApplySuggestion("missing", suggest.Suggestion{Type: suggest.TypeRemoveSilence})
	assert.ErrorIs(t, err, ErrVideoNotFound)

	_, err = s.ApplySuggestion("a", suggest.Suggestion{Type: suggest.TypeRemoveSilence, StartTime: 0, EndTime: 60})
	assert.ErrorIs(t, err, ErrInvalidTrimRange)
	assert.Equal(t, 0.0, s.TrimPoint("a").InPoint)
}

func TestApplySuggestion_UnknownDuration(t *testing.T) {
	s := newTestStore(t)
	addVideo(t, s, "a", 0)

	applied, err := s.ApplySuggestion("a", suggest.Suggestion{Type: suggest.TypeRemoveSilence, StartTime: 20, EndTime: 25})
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Nil(t, s.TrimPoint("a").OutPoint)

	applied, err = s.ApplySuggestion("a", suggest.Suggestion{Type: suggest.TypeRemoveSilence, StartTime: 0, EndTime: 3})
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, 3.0, s.TrimPoint("a").InPoint)

	require.NoError(t, s.SetVideoDuration("a", 60))
	applied, err = s.ApplySuggestion("a", suggest.Suggestion{Type: suggest.TypeRemoveFiller, StartTime: 57, EndTime: 60})
	require.NoError(t, err)
	assert.True(t, applied)
	require.NotNil(t, s.TrimPoint("a").OutPoint)
	assert.Equal(t, 57.0, *s.TrimPoint("a").OutPoint)
}
