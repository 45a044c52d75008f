package api

import (
	"net/http"
)

func recordingStatusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, cfg.Recorder.Status())
	}
}

func startRecordingHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RecordingStartRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if err := cfg.Recorder.Start(r.Context(), req.Kind, req.SourceID); err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, cfg.Recorder.Status())
	}
}

func stopRecordingHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := cfg.Recorder.Stop(r.Context())
		if err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusCreated, videoResponse(cfg.Store, v))
	}
}
