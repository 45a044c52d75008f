package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/trimline/trimline/internal/export"
)

const (
	defaultEDLTitle  = "trimline_export"
	defaultFrameRate = 30.0
)

func exportClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ClipExportRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		v, ok := cfg.Store.Video(req.Path)
		if !ok {
			WriteError(w, http.StatusNotFound, "video not found", "NOT_FOUND")
			return
		}

		title := req.Title
		if title == "" {
			title = strings.TrimSuffix(v.Name, filepath.Ext(v.Name))
		}
		output, err := export.OutputPath(req.OutputDir, title, req.Format)
		if err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}

		clip := export.ClipRequest{
			Input:      v.SourcePath(),
			Output:     output,
			Resolution: req.Resolution,
			Quality:    req.Quality,
			Format:     req.Format,
		}
		if req.UseTrim {
			tp := cfg.Store.TrimPoint(v.Path)
			clip.Start = tp.InPoint
			if end := tp.End(v.Duration); end > tp.InPoint {
				clip.Duration = end - tp.InPoint
			}
			clip.PlaybackSpeed = tp.PlaybackSpeed
		} else {
			clip.Start = req.Start
			clip.Duration = req.Duration
			if req.PlaybackSpeed != nil {
				clip.PlaybackSpeed = *req.PlaybackSpeed
			}
		}

		job, err := cfg.Jobs.EnqueueClipExport(r.Context(), v.Path, clip)
		if err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusAccepted, job)
	}
}

func exportTimelineHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TimelineExportRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		title := req.Title
		if title == "" {
			title = "timeline"
		}
		output, err := export.OutputPath(req.OutputDir, title, export.DefaultFormat)
		if err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}

		job, err := cfg.Jobs.EnqueueTimelineExport(r.Context(), output)
		if err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusAccepted, job)
	}
}

// exportEDLHandler writes the current timeline as a CMX3600 edit list. It
// runs inline; nothing is rendered.
func exportEDLHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req EDLExportRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		if err := export.ValidateOutputDir(req.OutputDir); err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}

		snap := cfg.Store.Snapshot()
		entries := export.Flatten(snap.Tracks, snap.Videos, snap.PlaybackSpeed)
		if len(entries) == 0 {
			writeServiceError(w, cfg.Logger, export.ErrNoClips)
			return
		}

		title := export.SanitizeName(req.Title, 120)
		if strings.Trim(title, ".") == "" {
			title = defaultEDLTitle
		}
		frameRate := req.FrameRate
		if frameRate <= 0 {
			frameRate = defaultFrameRate
		}

		edl := export.GenerateEDL(export.EDLEvents(entries), title, frameRate)
		outputPath := filepath.Join(req.OutputDir, title+".edl")
		if err := os.WriteFile(outputPath, []byte(edl), 0o644); err != nil {
			cfg.Logger.Error("failed to write edl", "path", outputPath, "error", err)
			WriteError(w, http.StatusInternalServerError, "failed to write export file", "INTERNAL_ERROR")
			return
		}

		WriteJSON(w, http.StatusOK, EDLExportResponse{
			Status:     "ok",
			Format:     "edl",
			OutputPath: outputPath,
			ClipCount:  len(entries),
		})
	}
}
