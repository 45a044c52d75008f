package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/trimline/trimline/internal/editor"
	"github.com/trimline/trimline/internal/export"
	"github.com/trimline/trimline/internal/jobs"
	"github.com/trimline/trimline/internal/media"
	"github.com/trimline/trimline/internal/recording"
)

type errorMapping struct {
	err    error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{editor.ErrVideoNotFound, http.StatusNotFound, "NOT_FOUND"},
	{editor.ErrTrackNotFound, http.StatusNotFound, "NOT_FOUND"},
	{editor.ErrClipNotFound, http.StatusNotFound, "NOT_FOUND"},
	{jobs.ErrJobNotFound, http.StatusNotFound, "NOT_FOUND"},

	{editor.ErrMissingPath, http.StatusBadRequest, "BAD_REQUEST"},
	{editor.ErrInvalidTrimRange, http.StatusBadRequest, "BAD_REQUEST"},
	{editor.ErrSplitOutOfBounds, http.StatusBadRequest, "BAD_REQUEST"},
	{editor.ErrUnknownSuggestion, http.StatusBadRequest, "BAD_REQUEST"},
	{export.ErrMissingParameter, http.StatusBadRequest, "BAD_REQUEST"},
	{export.ErrUnsupported, http.StatusBadRequest, "BAD_REQUEST"},
	{export.ErrInvalidSpeed, http.StatusBadRequest, "BAD_REQUEST"},
	{export.ErrInvalidOutput, http.StatusBadRequest, "BAD_REQUEST"},
	{media.ErrNotMedia, http.StatusBadRequest, "NOT_MEDIA"},
	{recording.ErrUnknownKind, http.StatusBadRequest, "BAD_REQUEST"},
	{recording.ErrUnsupportedSource, http.StatusBadRequest, "BAD_REQUEST"},

	{editor.ErrLastTrack, http.StatusConflict, "LAST_TRACK"},
	{editor.ErrNoTranscript, http.StatusConflict, "NO_TRANSCRIPT"},
	{export.ErrNoClips, http.StatusConflict, "NO_CLIPS"},
	{jobs.ErrJobFinished, http.StatusConflict, "JOB_FINISHED"},
	{recording.ErrAlreadyRecording, http.StatusConflict, "RECORDING_ACTIVE"},
	{recording.ErrNotRecording, http.StatusConflict, "NOT_RECORDING"},

	{media.ErrUnreadable, http.StatusUnprocessableEntity, "UNREADABLE_MEDIA"},
}

// writeServiceError maps a domain error onto a status and error code.
// Unknown errors are logged and reported as 500 without their text.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			WriteError(w, m.status, err.Error(), m.code)
			return
		}
	}
	logger.Error("request failed", "error", err)
	WriteError(w, http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
}
