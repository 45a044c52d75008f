package editor

import "errors"

var (
	ErrVideoNotFound     = errors.New("video not found")
	ErrMissingPath       = errors.New("video path is required")
	ErrInvalidTrimRange  = errors.New("out point must be after in point")
	ErrSplitOutOfBounds  = errors.New("split time must be inside the trimmed range")
	ErrTrackNotFound     = errors.New("track not found")
	ErrClipNotFound      = errors.New("clip not found")
	ErrLastTrack         = errors.New("cannot remove the last track")
	ErrNoTranscript      = errors.New("video has no transcript")
	ErrUnknownSuggestion = errors.New("unknown suggestion type")
)

// errUnchanged aborts a mutation without error and without a history entry.
var errUnchanged = errors.New("unchanged")
