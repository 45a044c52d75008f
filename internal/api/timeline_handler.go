package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/trimline/trimline/internal/editor"
	"github.com/trimline/trimline/internal/timecode"
)

func listTracksHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, TracksResponse{
			Tracks:      cfg.Store.Tracks(),
			ActiveTrack: cfg.Store.ActiveTrack(),
		})
	}
}

func addTrackHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TrackRequest
		if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
			return
		}
		WriteJSON(w, http.StatusCreated, cfg.Store.AddTrack(req.Name))
	}
}

func removeTrackHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := cfg.Store.RemoveTrack(chi.URLParam(r, "trackID")); err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func activateTrackHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := cfg.Store.SetActiveTrack(chi.URLParam(r, "trackID")); err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func addClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		trackID := chi.URLParam(r, "trackID")
		var req AddClipRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		start := req.StartTime
		if req.Snap {
			start = cfg.Store.SnapPosition(start, trackID, "")
		}
		clip, err := cfg.Store.AddClipToTrack(trackID, editor.ClipSpec{
			VideoPath: req.VideoPath,
			StartTime: start,
			InPoint:   req.InPoint,
			OutPoint:  req.OutPoint,
		})
		if err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusCreated, clip)
	}
}

func removeClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := cfg.Store.RemoveClipFromTrack(chi.URLParam(r, "trackID"), chi.URLParam(r, "clipID"))
		if err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func clipPositionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		trackID, clipID := chi.URLParam(r, "trackID"), chi.URLParam(r, "clipID")
		var req ClipPositionRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		start := req.StartTime
		if req.Snap {
			start = cfg.Store.SnapPosition(start, trackID, clipID)
		}
		if err := cfg.Store.UpdateClipPosition(trackID, clipID, start); err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, SnapPositionResponse{Time: start})
	}
}

func moveClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		trackID, clipID := chi.URLParam(r, "trackID"), chi.URLParam(r, "clipID")
		var req MoveClipRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.ToTrackID == "" {
			WriteError(w, http.StatusBadRequest, "to_track_id is required", "BAD_REQUEST")
			return
		}

		start := req.StartTime
		if req.Snap {
			start = cfg.Store.SnapPosition(start, req.ToTrackID, clipID)
		}
		if err := cfg.Store.MoveClipToTrack(trackID, clipID, req.ToTrackID, start); err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, SnapPositionResponse{Time: start})
	}
}

func selectClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := cfg.Store.SelectClip(chi.URLParam(r, "clipID")); err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func timelineDurationHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d := cfg.Store.TotalDuration()
		WriteJSON(w, http.StatusOK, TimelineDurationResponse{Duration: d, Formatted: timecode.FormatTime(d)})
	}
}

func zoomHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ZoomRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		var z float64
		switch req.Action {
		case "in":
			z = cfg.Store.ZoomIn()
		case "out":
			z = cfg.Store.ZoomOut()
		case "reset":
			z = cfg.Store.ResetZoom()
		case "":
			if req.Level == nil {
				WriteError(w, http.StatusBadRequest, "action or level is required", "BAD_REQUEST")
				return
			}
			z = cfg.Store.SetZoom(*req.Level)
		default:
			WriteError(w, http.StatusBadRequest, "action must be in, out or reset", "BAD_REQUEST")
			return
		}
		WriteJSON(w, http.StatusOK, ZoomResponse{Zoom: z})
	}
}

func snapHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SnapRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		cfg.Store.SetSnapEnabled(req.Enabled)
		w.WriteHeader(http.StatusNoContent)
	}
}

func snapPositionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SnapPositionRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		t := cfg.Store.SnapPosition(req.Time, req.TrackID, req.ExcludeClipID)
		WriteJSON(w, http.StatusOK, SnapPositionResponse{Time: t})
	}
}
