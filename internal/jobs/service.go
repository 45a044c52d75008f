package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/trimline/trimline/internal/editor"
	"github.com/trimline/trimline/internal/export"
	"github.com/trimline/trimline/internal/suggest"
	"github.com/trimline/trimline/internal/transcript"
)

type Exporter interface {
	ExportClip(ctx context.Context, req export.ClipRequest, progress export.ProgressFunc) (string, error)
	ExportTimeline(ctx context.Context, req export.TimelineRequest, progress export.ProgressFunc) (*export.Result, error)
}

type Transcriber interface {
	TranscribeVideo(ctx context.Context, videoPath string) (*transcript.Transcript, error)
	SummarizeTranscript(ctx context.Context, t *transcript.Transcript) (*transcript.Summary, error)
}

// Service validates and enqueues jobs and executes them on behalf of the
// Runner.
type Service struct {
	repo        Repository
	store       *editor.Store
	exporter    Exporter
	transcriber Transcriber
	logger      *slog.Logger
	now         func() time.Time
	wake        chan struct{}
}

func NewService(repo Repository, store *editor.Store, exporter Exporter, transcriber Transcriber, logger *slog.Logger) *Service {
	return &Service{
		repo:        repo,
		store:       store,
		exporter:    exporter,
		transcriber: transcriber,
		logger:      logger.With("component", "jobs"),
		now:         time.Now,
		wake:        make(chan struct{}, 1),
	}
}

// Wake is signalled whenever a job is enqueued.
func (s *Service) Wake() <-chan struct{} {
	return s.wake
}

func (s *Service) enqueue(ctx context.Context, jobType, videoPath string, payload any) (*Job, error) {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", jobType, err)
		}
		raw = b
	}

	now := s.now()
	job := &Job{
		ID:        NewID(),
		Type:      jobType,
		Status:    StatusPending,
		VideoPath: videoPath,
		Payload:   raw,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	select {
	case s.wake <- struct{}{}:
	default:
	}

	s.logger.Info("job enqueued", "job_id", job.ID, "type", jobType)
	return job, nil
}

// EnqueueClipExport validates req up front so bad parameters fail the API
// call rather than the job.
func (s *Service) EnqueueClipExport(ctx context.Context, videoPath string, req export.ClipRequest) (*Job, error) {
	if _, err := export.BuildClipJob(req); err != nil {
		return nil, err
	}
	if err := export.ValidateOutputDir(filepath.Dir(req.Output)); err != nil {
		return nil, err
	}
	return s.enqueue(ctx, TypeExportClip, videoPath, req)
}

// EnqueueTimelineExport captures the current timeline and queues its render.
func (s *Service) EnqueueTimelineExport(ctx context.Context, output string) (*Job, error) {
	if output == "" {
		return nil, fmt.Errorf("%w: output", export.ErrMissingParameter)
	}
	if err := export.ValidateOutputDir(filepath.Dir(output)); err != nil {
		return nil, err
	}

	snap := s.store.Snapshot()
	p := TimelinePayload{
		Output: output,
		Tracks: snap.Tracks,
		Videos: snap.Videos,
		Speeds: make(map[string]float64, len(snap.TrimPoints)),
	}
	for path := range snap.TrimPoints {
		p.Speeds[path] = snap.PlaybackSpeed(path)
	}
	if len(export.Flatten(p.Tracks, p.Videos, p.speed)) == 0 {
		return nil, export.ErrNoClips
	}
	return s.enqueue(ctx, TypeExportTimeline, "", p)
}

// EnqueueTranscribe marks the video's transcript as generating and queues
// the transcription.
func (s *Service) EnqueueTranscribe(ctx context.Context, videoPath string) (*Job, error) {
	if _, ok := s.store.Video(videoPath); !ok {
		return nil, fmt.Errorf("%w: %s", editor.ErrVideoNotFound, videoPath)
	}
	job, err := s.enqueue(ctx, TypeTranscribe, videoPath, nil)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetTranscript(videoPath, &transcript.Transcript{IsGenerating: true}); err != nil {
		s.logger.Warn("cannot mark transcript generating", "job_id", job.ID, "error", err)
	}
	return job, nil
}

func (s *Service) EnqueueSummarize(ctx context.Context, videoPath string) (*Job, error) {
	v, ok := s.store.Video(videoPath)
	if !ok {
		return nil, fmt.Errorf("%w: %s", editor.ErrVideoNotFound, videoPath)
	}
	if v.Transcript == nil || len(v.Transcript.Segments) == 0 {
		return nil, editor.ErrNoTranscript
	}
	job, err := s.enqueue(ctx, TypeSummarize, videoPath, nil)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetSummary(videoPath, &transcript.Summary{IsGenerating: true}); err != nil {
		s.logger.Warn("cannot mark summary generating", "job_id", job.ID, "error", err)
	}
	return job, nil
}

func (s *Service) GetJob(ctx context.Context, id string) (*Job, error) {
	job, err := s.repo.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return job, nil
}

func (s *Service) ListJobs(ctx context.Context, limit int) ([]*Job, error) {
	return s.repo.ListJobs(ctx, limit)
}

// Execute runs job and returns its result string. progress receives percent
// complete.
func (s *Service) Execute(ctx context.Context, job *Job, progress export.ProgressFunc) (string, error) {
	switch job.Type {
	case TypeExportClip:
		var req export.ClipRequest
		if err := json.Unmarshal(job.Payload, &req); err != nil {
			return "", fmt.Errorf("decode payload: %w", err)
		}
		return s.exporter.ExportClip(ctx, req, progress)

	case TypeExportTimeline:
		var p TimelinePayload
		if err := json.Unmarshal(job.Payload, &p); err != nil {
			return "", fmt.Errorf("decode payload: %w", err)
		}
		res, err := s.exporter.ExportTimeline(ctx, export.TimelineRequest{
			Tracks: p.Tracks,
			Videos: p.Videos,
			Speed:  p.speed,
			Output: p.Output,
		}, progress)
		if err != nil {
			return "", err
		}
		return res.OutputPath, nil

	case TypeTranscribe:
		return "", s.executeTranscribe(ctx, job)

	case TypeSummarize:
		return "", s.executeSummarize(ctx, job)

	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownJobType, job.Type)
	}
}

func (s *Service) executeTranscribe(ctx context.Context, job *Job) error {
	v, ok := s.store.Video(job.VideoPath)
	if !ok {
		return fmt.Errorf("%w: %s", editor.ErrVideoNotFound, job.VideoPath)
	}

	t, err := s.transcriber.TranscribeVideo(ctx, v.SourcePath())
	if err != nil {
		if serr := s.store.SetTranscript(job.VideoPath, &transcript.Transcript{Error: err.Error()}); serr != nil {
			s.logger.Warn("cannot record transcript error", "job_id", job.ID, "error", serr)
		}
		return err
	}
	if err := s.store.SetTranscript(job.VideoPath, t); err != nil {
		return err
	}

	if _, err := s.store.GenerateSuggestions(job.VideoPath, suggest.DefaultOptions()); err != nil {
		s.logger.Warn("suggestion generation failed", "job_id", job.ID, "error", err)
	}
	return nil
}

func (s *Service) executeSummarize(ctx context.Context, job *Job) error {
	v, ok := s.store.Video(job.VideoPath)
	if !ok {
		return fmt.Errorf("%w: %s", editor.ErrVideoNotFound, job.VideoPath)
	}
	if v.Transcript == nil {
		return editor.ErrNoTranscript
	}

	sum, err := s.transcriber.SummarizeTranscript(ctx, v.Transcript)
	if err != nil {
		if serr := s.store.SetSummary(job.VideoPath, nil); serr != nil {
			s.logger.Warn("cannot clear summary", "job_id", job.ID, "error", serr)
		}
		return err
	}
	return s.store.SetSummary(job.VideoPath, sum)
}
