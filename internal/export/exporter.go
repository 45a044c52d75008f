package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/trimline/trimline/internal/editor"
	"github.com/trimline/trimline/internal/encoder"
)

// Exporter drives the encoder for clip and timeline exports.
type Exporter struct {
	enc     encoder.Encoder
	tempDir string
	// parallel caps concurrent segment renders; 0 renders all at once.
	parallel int
	logger   *slog.Logger
}

func NewExporter(enc encoder.Encoder, tempDir string, parallel int, logger *slog.Logger) *Exporter {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &Exporter{enc: enc, tempDir: tempDir, parallel: parallel, logger: logger.With("component", "export")}
}

// BuildClipJob maps a clip request onto an encoder job.
func BuildClipJob(req ClipRequest) (encoder.Job, error) {
	if strings.TrimSpace(req.Input) == "" {
		return encoder.Job{}, fmt.Errorf("%w: input", ErrMissingParameter)
	}
	if strings.TrimSpace(req.Output) == "" {
		return encoder.Job{}, fmt.Errorf("%w: output", ErrMissingParameter)
	}
	res, quality, format, err := lookupOptions(req.Resolution, req.Quality, req.Format)
	if err != nil {
		return encoder.Job{}, err
	}
	speed, err := validateSpeed(req.PlaybackSpeed)
	if err != nil {
		return encoder.Job{}, err
	}

	job := encoder.Job{
		Input:         req.Input,
		Output:        req.Output,
		VideoCodec:    format.VideoCodec,
		AudioCodec:    format.AudioCodec,
		CRF:           quality.CRF,
		VideoBitrate:  format.VideoBitrate,
		OutputOptions: append([]string(nil), format.OutputOptions...),
	}
	if req.Start > 0 {
		job.Start = req.Start
	}
	if req.Duration > 0 {
		job.Duration = req.Duration
		job.ExpectedDuration = req.Duration / speed
	}
	if format.UsePreset {
		job.Preset = quality.Preset
	}

	if speed != 1 {
		job.VideoFilters, job.AudioFilters = speedFilters(speed)
		if res.Scaled() {
			job.VideoFilters = append(job.VideoFilters, fmt.Sprintf("scale=%d:%d", res.Width, res.Height))
		}
	} else if res.Scaled() {
		job.Size = fmt.Sprintf("%dx%d", res.Width, res.Height)
	}
	return job, nil
}

// ExportClip renders one clip and returns the output path.
func (x *Exporter) ExportClip(ctx context.Context, req ClipRequest, progress ProgressFunc) (string, error) {
	job, err := BuildClipJob(req)
	if err != nil {
		return "", err
	}
	if err := ValidateOutputDir(filepath.Dir(job.Output)); err != nil {
		return "", err
	}

	if job.ExpectedDuration == 0 {
		speed, _ := validateSpeed(req.PlaybackSpeed)
		if probe, err := x.enc.Probe(ctx, job.Input); err != nil {
			x.logger.Warn("cannot probe input for progress", "error", err)
		} else if rest := probe.Duration - job.Start; rest > 0 {
			job.ExpectedDuration = rest / speed
		}
	}

	x.logger.Info("exporting clip",
		"resolution", req.Resolution,
		"quality", req.Quality,
		"format", req.Format,
		"speed", req.PlaybackSpeed,
	)
	if err := x.enc.Run(ctx, job, x.events(progress)); err != nil {
		return "", fmt.Errorf("export clip: %w", err)
	}
	return job.Output, nil
}

// Flatten resolves every clip against its video and orders the result by
// timeline start across all tracks. Clips whose video is gone are skipped.
func Flatten(tracks []editor.Track, videos []editor.Video, speed func(string) float64) []TimelineEntry {
	byPath := make(map[string]editor.Video, len(videos))
	for _, v := range videos {
		byPath[v.Path] = v
	}

	var entries []TimelineEntry
	for _, t := range tracks {
		for _, c := range t.Clips {
			v, ok := byPath[c.VideoPath]
			if !ok {
				continue
			}
			s := 1.0
			if speed != nil {
				if got := speed(c.VideoPath); got > 0 {
					s = got
				}
			}
			entries = append(entries, TimelineEntry{TrackID: t.ID, Clip: c, Video: v, Speed: s})
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Clip.StartTime < entries[j].Clip.StartTime
	})
	return entries
}

// ExportTimeline renders all clips into req.Output in start-time order.
// A single clip is exported directly; several clips are rendered
// concurrently into normalized temp files and joined without re-encoding.
// Only the final pass reports progress.
func (x *Exporter) ExportTimeline(ctx context.Context, req TimelineRequest, progress ProgressFunc) (*Result, error) {
	if strings.TrimSpace(req.Output) == "" {
		return nil, fmt.Errorf("%w: output", ErrMissingParameter)
	}
	entries := Flatten(req.Tracks, req.Videos, req.Speed)
	if len(entries) == 0 {
		return nil, ErrNoClips
	}

	total := 0.0
	for _, e := range entries {
		total += e.OutputDuration()
	}
	result := &Result{OutputPath: req.Output, ClipCount: len(entries), Duration: total}

	if len(entries) == 1 {
		e := entries[0]
		_, err := x.ExportClip(ctx, ClipRequest{
			Input:         e.Video.SourcePath(),
			Output:        req.Output,
			Start:         e.Clip.InPoint,
			Duration:      e.Duration(),
			Resolution:    "720p",
			Quality:       "fast",
			Format:        "mp4-h264",
			PlaybackSpeed: e.Speed,
		}, progress)
		if err != nil {
			return nil, err
		}
		return result, nil
	}

	if err := ValidateOutputDir(filepath.Dir(req.Output)); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	segments := make([]string, len(entries))
	for i := range entries {
		segments[i] = filepath.Join(x.tempDir, fmt.Sprintf("trimline-segment-%s-%03d.mp4", runID, i))
	}
	listPath := filepath.Join(x.tempDir, fmt.Sprintf("trimline-concat-%s.txt", runID))
	defer x.cleanup(append(append([]string{}, segments...), listPath))

	x.logger.Info("exporting timeline", "clips", len(entries), "run_id", runID)

	g, gctx := errgroup.WithContext(ctx)
	if x.parallel > 0 {
		g.SetLimit(x.parallel)
	}
	for i, e := range entries {
		i, e := i, e
		g.Go(func() error {
			if err := x.enc.Run(gctx, segmentJob(e, segments[i]), encoder.Events{}); err != nil {
				return fmt.Errorf("render clip %d (%s): %w", i+1, e.Video.Name, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("export timeline: %w", err)
	}

	if err := writeConcatList(listPath, segments); err != nil {
		return nil, fmt.Errorf("export timeline: %w", err)
	}

	concat := encoder.Job{
		Input:            listPath,
		InputFormat:      "concat",
		StreamCopy:       true,
		OutputOptions:    []string{"-movflags", "+faststart"},
		Output:           req.Output,
		ExpectedDuration: total,
	}
	if err := x.enc.Run(ctx, concat, x.events(progress)); err != nil {
		return nil, fmt.Errorf("export timeline: concat: %w", err)
	}
	return result, nil
}

func segmentJob(e TimelineEntry, output string) encoder.Job {
	job := encoder.Job{
		Input:            e.Video.SourcePath(),
		Start:            e.Clip.InPoint,
		Duration:         e.Duration(),
		VideoCodec:       "libx264",
		Preset:           segmentPreset,
		CRF:              segmentCRF,
		AudioCodec:       "aac",
		AudioBitrate:     audioBitrate,
		Output:           output,
		ExpectedDuration: e.OutputDuration(),
		OutputOptions: []string{
			"-r", segmentFrameRate,
			"-pix_fmt", "yuv420p",
			"-ar", segmentSampleRate,
			"-ac", "2",
		},
	}
	if e.Speed != 1 {
		job.VideoFilters, job.AudioFilters = speedFilters(e.Speed)
	}
	job.VideoFilters = append(job.VideoFilters,
		fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease", segmentWidth, segmentHeight),
		fmt.Sprintf("pad=%d:%d:(ow-iw)/2:(oh-ih)/2", segmentWidth, segmentHeight),
		"setsar=1",
	)
	return job
}

// writeConcatList writes an ffmpeg concat demuxer list.
func writeConcatList(path string, files []string) error {
	var b strings.Builder
	for _, f := range files {
		b.WriteString("file '")
		b.WriteString(strings.ReplaceAll(f, "'", `'\''`))
		b.WriteString("'\n")
	}
	return os.WriteFile(path, []byte(b.String()), 0o600)
}

func (x *Exporter) cleanup(paths []string) {
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			x.logger.Warn("cannot remove temp file", "path", p, "error", err)
		}
	}
}

func (x *Exporter) events(progress ProgressFunc) encoder.Events {
	return encoder.Events{
		OnStart: func(cmd string) {
			x.logger.Debug("encoder started", "command", cmd)
		},
		OnProgress: func(pct float64) {
			if progress != nil {
				progress(pct)
			}
		},
		OnError: func(msg, diag string) {
			x.logger.Debug("encoder reported error", "message", msg)
		},
	}
}
