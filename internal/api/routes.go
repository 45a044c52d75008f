package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/trimline/trimline/internal/jobs"
	"github.com/trimline/trimline/internal/recording"
)

const maxRequestBody = 1 << 20

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(CORSAllowlist())

	r.Get("/health", healthHandler(cfg))

	// Media elements cannot send an Authorization header, so playback is
	// restricted to loopback callers instead.
	r.Group(func(r chi.Router) {
		r.Use(LoopbackGuard())
		r.Get("/playback", playbackHandler(cfg))
		r.Head("/playback", playbackHandler(cfg))
	})

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Repository, cfg.Logger))

		r.Get("/status", statusHandler(cfg))
		r.Get("/doctor", doctorHandler(cfg))

		r.Get("/session", sessionHandler(cfg))
		r.Get("/session/history", historyHandler(cfg))
		r.Post("/session/undo", undoHandler(cfg))
		r.Post("/session/redo", redoHandler(cfg))

		r.Get("/videos", listVideosHandler(cfg))
		r.Post("/videos", importVideoHandler(cfg))
		r.Delete("/videos", removeVideoHandler(cfg))
		r.Get("/videos/lookup", getVideoHandler(cfg))
		r.Post("/videos/select", selectVideoHandler(cfg))
		r.Post("/videos/duration", videoDurationHandler(cfg))
		r.Post("/videos/split", splitVideoHandler(cfg))

		r.Get("/trim", getTrimHandler(cfg))
		r.Post("/trim/in", setInPointHandler(cfg))
		r.Post("/trim/out", setOutPointHandler(cfg))
		r.Post("/trim/speed", setSpeedHandler(cfg))
		r.Post("/trim/reset", resetTrimHandler(cfg))

		r.Get("/suggestions", listSuggestionsHandler(cfg))
		r.Post("/suggestions/generate", generateSuggestionsHandler(cfg))
		r.Post("/suggestions/apply", applySuggestionHandler(cfg))
		r.Post("/transcriptions", transcribeHandler(cfg))
		r.Post("/summaries", summarizeHandler(cfg))

		r.Get("/tracks", listTracksHandler(cfg))
		r.Post("/tracks", addTrackHandler(cfg))
		r.Delete("/tracks/{trackID}", removeTrackHandler(cfg))
		r.Post("/tracks/{trackID}/activate", activateTrackHandler(cfg))
		r.Post("/tracks/{trackID}/clips", addClipHandler(cfg))
		r.Delete("/tracks/{trackID}/clips/{clipID}", removeClipHandler(cfg))
		r.Put("/tracks/{trackID}/clips/{clipID}/position", clipPositionHandler(cfg))
		r.Post("/tracks/{trackID}/clips/{clipID}/move", moveClipHandler(cfg))
		r.Post("/clips/{clipID}/select", selectClipHandler(cfg))

		r.Get("/timeline/duration", timelineDurationHandler(cfg))
		r.Post("/timeline/zoom", zoomHandler(cfg))
		r.Post("/timeline/snap", snapHandler(cfg))
		r.Post("/timeline/snap/position", snapPositionHandler(cfg))

		r.Post("/exports/clip", exportClipHandler(cfg))
		r.Post("/exports/timeline", exportTimelineHandler(cfg))
		r.Post("/exports/edl", exportEDLHandler(cfg))

		r.Get("/jobs", listJobsHandler(cfg))
		r.Get("/jobs/{id}", getJobHandler(cfg))
		r.Post("/jobs/{id}/cancel", cancelJobHandler(cfg))
		r.Post("/jobs/pause", pauseJobsHandler(cfg))
		r.Post("/jobs/resume", resumeJobsHandler(cfg))

		r.Get("/recording", recordingStatusHandler(cfg))
		r.Post("/recording/start", startRecordingHandler(cfg))
		r.Post("/recording/stop", stopRecordingHandler(cfg))
	})

	return r
}

// decodeJSON reads a JSON body into v and writes a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(v); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
		return false
	}
	return true
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Version: cfg.Version,
			UptimeS: int64(time.Since(cfg.StartTime).Seconds()),
		})
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		snap := cfg.Store.Snapshot()

		resp := StatusResponse{
			State:       "idle",
			VideosCount: len(snap.Videos),
			TracksCount: len(snap.Tracks),
			CanUndo:     snap.CanUndo,
			CanRedo:     snap.CanRedo,
		}
		for _, t := range snap.Tracks {
			resp.ClipsCount += len(t.Clips)
		}

		if cfg.Jobs != nil {
			recent, _ := cfg.Jobs.ListJobs(ctx, 10)
			for _, j := range recent {
				if j.Status == jobs.StatusRunning && resp.ActiveJob == nil {
					resp.State = "working"
					resp.ActiveJob = j
				}
				if j.Status == jobs.StatusFailed && resp.LastError == "" {
					resp.LastError = j.Error
				}
			}
		}
		if cfg.Runner != nil {
			resp.JobsActive = cfg.Runner.ActiveJobCount(ctx)
			resp.JobsPaused = cfg.Runner.IsPaused()
			if resp.JobsPaused {
				resp.State = "paused"
			}
		}
		if cfg.Recorder != nil {
			st := cfg.Recorder.Status()
			resp.Recording = &st
			if st.State == recording.StateRecording {
				resp.State = "recording"
			}
		}

		if cfg.Doctor != nil {
			if caps := cfg.Doctor.Peek(); caps != nil {
				resp.Encoder = &EncoderStatusResponse{
					Ready:          caps.Ready(),
					FFmpegVersion:  caps.FFmpegVersion,
					FFprobeVersion: caps.FFprobeVersion,
					TempFreeBytes:  caps.TempFreeBytes,
					LastProbeAt:    caps.ProbedAt.Format(time.RFC3339),
				}
			}
		}

		WriteJSON(w, http.StatusOK, resp)
	}
}

func doctorHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.Doctor == nil {
			WriteError(w, http.StatusServiceUnavailable, "encoder not configured", "ENCODER_UNAVAILABLE")
			return
		}
		get := cfg.Doctor.Get
		if r.URL.Query().Get("refresh") == "true" {
			get = cfg.Doctor.Refresh
		}
		caps, err := get(r.Context())
		if err != nil {
			WriteError(w, http.StatusServiceUnavailable, err.Error(), "ENCODER_UNAVAILABLE")
			return
		}
		WriteJSON(w, http.StatusOK, caps)
	}
}

func playbackHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Query().Get("path")
		if path == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			if r.Method != http.MethodHead {
				json.NewEncoder(w).Encode(ErrorResponse{Error: "path is required", Code: "BAD_REQUEST"})
			}
			return
		}

		v, ok := cfg.Store.Video(path)
		if !ok {
			WriteError(w, http.StatusNotFound, "video not found", "NOT_FOUND")
			return
		}

		if err := cfg.PlaybackServer.ServeVideo(w, r, v); err != nil {
			cfg.Logger.Error("playback failed", "error", err)
			WriteError(w, http.StatusInternalServerError, "playback failed", "INTERNAL_ERROR")
		}
	}
}
