package api

import (
	"net/http"

	"github.com/trimline/trimline/internal/editor"
)

func sessionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, cfg.Store.Snapshot())
	}
}

func historyHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, index := cfg.Store.History()
		WriteJSON(w, http.StatusOK, HistoryResponse{Entries: entries, Index: index})
	}
}

func undoHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		applied := cfg.Store.Undo()
		WriteJSON(w, http.StatusOK, undoResponse(cfg.Store, applied))
	}
}

func redoHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		applied := cfg.Store.Redo()
		WriteJSON(w, http.StatusOK, undoResponse(cfg.Store, applied))
	}
}

func undoResponse(s *editor.Store, applied bool) UndoResponse {
	return UndoResponse{Applied: applied, CanUndo: s.CanUndo(), CanRedo: s.CanRedo()}
}

func videoResponse(s *editor.Store, v editor.Video) VideoResponse {
	eff, _ := s.EffectiveDuration(v.Path)
	return VideoResponse{Video: v, Trim: s.TrimPoint(v.Path), EffectiveDuration: eff}
}

func listVideosHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		videos := cfg.Store.Videos()
		resp := VideosResponse{Videos: make([]VideoResponse, len(videos))}
		for i, v := range videos {
			resp.Videos[i] = videoResponse(cfg.Store, v)
		}
		if sel, ok := cfg.Store.SelectedVideo(); ok {
			resp.Selected = sel.Path
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func importVideoHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ImportRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.Path == "" {
			WriteError(w, http.StatusBadRequest, "path is required", "BAD_REQUEST")
			return
		}

		v, err := cfg.Importer.Import(r.Context(), req.Path)
		if err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}

		selectIt := req.Select == nil || *req.Select
		if !cfg.Store.AddVideo(v, selectIt) {
			existing, _ := cfg.Store.Video(v.Path)
			WriteJSON(w, http.StatusOK, videoResponse(cfg.Store, existing))
			return
		}
		added, _ := cfg.Store.Video(v.Path)
		WriteJSON(w, http.StatusCreated, videoResponse(cfg.Store, added))
	}
}

func removeVideoHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Query().Get("path")
		if path == "" {
			WriteError(w, http.StatusBadRequest, "path is required", "BAD_REQUEST")
			return
		}
		if err := cfg.Store.RemoveVideo(path); err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func getVideoHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Query().Get("path")
		v, ok := cfg.Store.Video(path)
		if !ok {
			WriteError(w, http.StatusNotFound, "video not found", "NOT_FOUND")
			return
		}
		WriteJSON(w, http.StatusOK, videoResponse(cfg.Store, v))
	}
}

func selectVideoHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PathRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if err := cfg.Store.SelectVideo(req.Path); err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func videoDurationHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DurationRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.Duration < 0 {
			WriteError(w, http.StatusBadRequest, "duration must not be negative", "BAD_REQUEST")
			return
		}
		if err := cfg.Store.SetVideoDuration(req.Path, req.Duration); err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}
		writeTrim(w, cfg, req.Path)
	}
}

func splitVideoHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TimeRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		parts, err := cfg.Store.SplitClip(req.Path, req.Time)
		if err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusCreated, SplitResponse{Videos: parts})
	}
}

func writeTrim(w http.ResponseWriter, cfg ServerConfig, path string) {
	eff, err := cfg.Store.EffectiveDuration(path)
	if err != nil {
		writeServiceError(w, cfg.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, TrimResponse{
		Path:              path,
		Trim:              cfg.Store.TrimPoint(path),
		EffectiveDuration: eff,
	})
}

func getTrimHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeTrim(w, cfg, r.URL.Query().Get("path"))
	}
}

func setInPointHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TimeRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if err := cfg.Store.SetInPoint(req.Path, req.Time); err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}
		writeTrim(w, cfg, req.Path)
	}
}

func setOutPointHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TimeRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if err := cfg.Store.SetOutPoint(req.Path, req.Time); err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}
		writeTrim(w, cfg, req.Path)
	}
}

func setSpeedHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SpeedRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if err := cfg.Store.SetPlaybackSpeed(req.Path, req.Speed); err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}
		writeTrim(w, cfg, req.Path)
	}
}

func resetTrimHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PathRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if err := cfg.Store.ResetTrim(req.Path); err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}
		writeTrim(w, cfg, req.Path)
	}
}
