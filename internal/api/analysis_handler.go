package api

import (
	"net/http"
	"strconv"

	"github.com/trimline/trimline/internal/suggest"
)

// listSuggestionsHandler returns the stored suggestions for a video, filtered
// by type and minimum confidence and optionally merged.
func listSuggestionsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		path := q.Get("path")
		v, ok := cfg.Store.Video(path)
		if !ok {
			WriteError(w, http.StatusNotFound, "video not found", "NOT_FOUND")
			return
		}

		out := v.TrimSuggestions
		if t := q.Get("type"); t != "" {
			if !suggest.Type(t).Valid() {
				WriteError(w, http.StatusBadRequest, "unknown suggestion type", "BAD_REQUEST")
				return
			}
			out = suggest.FilterByType(out, suggest.Type(t))
		}
		if raw := q.Get("min_confidence"); raw != "" {
			minConf, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				WriteError(w, http.StatusBadRequest, "min_confidence must be a number", "BAD_REQUEST")
				return
			}
			out = suggest.FilterByConfidence(out, minConf)
		}
		if q.Get("merge") == "true" {
			out = suggest.MergeOverlapping(out)
		}
		if out == nil {
			out = []suggest.Suggestion{}
		}

		WriteJSON(w, http.StatusOK, SuggestionsResponse{Path: path, Suggestions: out})
	}
}

func generateSuggestionsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req GenerateSuggestionsRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		opts := suggest.DefaultOptions()
		if req.MinSilenceDuration != nil {
			opts.MinSilenceDuration = *req.MinSilenceDuration
		}
		if req.HighlightDuration != nil {
			opts.HighlightDuration = *req.HighlightDuration
		}
		if req.MinConfidence != nil {
			opts.MinConfidence = *req.MinConfidence
		}

		out, err := cfg.Store.GenerateSuggestions(req.Path, opts)
		if err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, SuggestionsResponse{Path: req.Path, Suggestions: out})
	}
}

func applySuggestionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ApplySuggestionRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		applied, err := cfg.Store.ApplySuggestion(req.Path, req.Suggestion)
		if err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, ApplySuggestionResponse{
			Applied: applied,
			Trim:    cfg.Store.TrimPoint(req.Path),
		})
	}
}

func transcribeHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PathRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		job, err := cfg.Jobs.EnqueueTranscribe(r.Context(), req.Path)
		if err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusAccepted, job)
	}
}

func summarizeHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PathRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		job, err := cfg.Jobs.EnqueueSummarize(r.Context(), req.Path)
		if err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusAccepted, job)
	}
}
