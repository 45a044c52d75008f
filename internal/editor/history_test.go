package editor

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trimline/trimline/internal/transcript"
)

func TestUndoRedoRoundTrip(t *testing.T) {
	s := newTestStore(t)
	addVideo(t, s, "a", 60)
	require.NoError(t, s.SetInPoint("a", 10))
	require.NoError(t, s.SetOutPoint("a", 40))
	_, err := s.AddClipToTrack(s.ActiveTrack(), ClipSpec{VideoPath: "a", StartTime: 3})
	require.NoError(t, err)

	before := s.Snapshot()

	for i := 0; i < 4; i++ {
		require.True(t, s.Undo(), "undo %d", i)
	}
	assert.False(t, s.Undo())
	assert.Empty(t, s.Videos())
	assert.Empty(t, s.Tracks()[0].Clips)

	for i := 0; i < 4; i++ {
		require.True(t, s.Redo(), "redo %d", i)
	}
	assert.False(t, s.Redo())
	assert.Equal(t, before, s.Snapshot())
}

func TestNewActionTruncatesRedo(t *testing.T) {
	s := newTestStore(t)
	addVideo(t, s, "a", 60)
	require.NoError(t, s.SetPlaybackSpeed("a", 1.5))

	require.True(t, s.Undo())
	assert.True(t, s.CanRedo())
	assert.Equal(t, 1.0, s.PlaybackSpeed("a"))

	require.NoError(t, s.SetPlaybackSpeed("a", 1.2))
	assert.False(t, s.CanRedo())

	entries, idx := s.History()
	require.Len(t, entries, 3)
	assert.Equal(t, 2, idx)
	assert.Equal(t, "initialize", entries[0].Action)
	assert.Equal(t, "set_speed", entries[2].Action)
}

func TestHistoryIsBounded(t *testing.T) {
	s := newTestStore(t)
	addVideo(t, s, "a", 60)
	for i := 0; i < 60; i++ {
		require.NoError(t, s.SetPlaybackSpeed("a", 0.5+float64(i%10)*0.1))
	}

	entries, idx := s.History()
	assert.Len(t, entries, MaxHistory)
	assert.Equal(t, MaxHistory-1, idx)

	undone := 0
	for s.Undo() {
		undone++
	}
	assert.Equal(t, MaxHistory-1, undone)
}

func TestUndoWritesNoHistory(t *testing.T) {
	s := newTestStore(t)
	addVideo(t, s, "a", 60)
	require.NoError(t, s.SetInPoint("a", 5))

	var changes []Change
	s.Subscribe(func(c Change) { changes = append(changes, c) })

	require.True(t, s.Undo())
	require.True(t, s.Redo())

	entries, idx := s.History()
	assert.Len(t, entries, 3)
	assert.Equal(t, 2, idx)
	require.Len(t, changes, 2)
	assert.True(t, changes[0].Replay)
	assert.True(t, changes[1].Replay)
}

func TestUndoKeepsConcurrentWrites(t *testing.T) {
	s := newTestStore(t)
	addVideo(t, s, "a", 60)
	require.NoError(t, s.SetInPoint("a", 10))

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	s.Subscribe(func(c Change) {
		if c.Action == "undo" {
			once.Do(func() {
				close(entered)
				<-release
			})
		}
	})

	undone := make(chan bool, 1)
	go func() { undone <- s.Undo() }()
	<-entered

	// The undo is still notifying when this write lands.
	err := s.SetOutPoint("a", 30)
	close(release)
	require.NoError(t, err)
	require.True(t, <-undone)

	entries, idx := s.History()
	require.Len(t, entries, 3)
	assert.Equal(t, 2, idx)
	assert.Equal(t, "set_out_point", entries[2].Action)

	out := s.TrimPoint("a").OutPoint
	require.NotNil(t, out)
	assert.Equal(t, 30.0, *out)

	require.True(t, s.Undo())
	assert.Nil(t, s.TrimPoint("a").OutPoint)
	assert.Equal(t, 0.0, s.TrimPoint("a").InPoint)
}

func TestUndoKeepsAnalysisResults(t *testing.T) {
	s := newTestStore(t)
	addVideo(t, s, "a", 60)
	require.NoError(t, s.SetTranscript("a", &transcript.Transcript{FullText: "hello"}))
	require.NoError(t, s.SetInPoint("a", 5))

	require.True(t, s.Undo())
	assert.Equal(t, 0.0, s.TrimPoint("a").InPoint)

	v, ok := s.Video("a")
	require.True(t, ok)
	require.NotNil(t, v.Transcript)
	assert.Equal(t, "hello", v.Transcript.FullText)
}

func TestUndoRestoresRemovedTrackAndActive(t *testing.T) {
	s := newTestStore(t)
	second := s.AddTrack("B")
	require.NoError(t, s.SetActiveTrack(second.ID))
	require.True(t, s.Undo())

	assert.Len(t, s.Tracks(), 1)
	assert.Equal(t, s.Tracks()[0].ID, s.ActiveTrack())
}
