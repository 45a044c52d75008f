package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/trimline/trimline/internal/editor"
	"github.com/trimline/trimline/internal/encoder"
	"github.com/trimline/trimline/internal/export"
	"github.com/trimline/trimline/internal/jobs"
	"github.com/trimline/trimline/internal/playback"
	"github.com/trimline/trimline/internal/recording"
)

// VideoImporter turns a file on disk into a library video.
type VideoImporter interface {
	Import(ctx context.Context, path string) (editor.Video, error)
}

type JobService interface {
	EnqueueClipExport(ctx context.Context, videoPath string, req export.ClipRequest) (*jobs.Job, error)
	EnqueueTimelineExport(ctx context.Context, output string) (*jobs.Job, error)
	EnqueueTranscribe(ctx context.Context, videoPath string) (*jobs.Job, error)
	EnqueueSummarize(ctx context.Context, videoPath string) (*jobs.Job, error)
	GetJob(ctx context.Context, id string) (*jobs.Job, error)
	ListJobs(ctx context.Context, limit int) ([]*jobs.Job, error)
}

type JobRunner interface {
	Pause()
	Resume()
	IsPaused() bool
	Cancel(ctx context.Context, id string) error
	ActiveJobCount(ctx context.Context) int
}

type Recorder interface {
	Start(ctx context.Context, kind, sourceID string) error
	Stop(ctx context.Context) (editor.Video, error)
	Status() recording.Status
}

type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

type ServerConfig struct {
	Port           int
	Version        string
	Store          *editor.Store
	Importer       VideoImporter
	Jobs           JobService
	Runner         JobRunner
	Recorder       Recorder
	PlaybackServer playback.PlaybackService
	Repository     ConfigStore
	Doctor         *encoder.CachedDoctor
	Logger         *slog.Logger
	StartTime      time.Time
}

func NewServer(cfg ServerConfig) *Server {
	router := NewRouter(cfg)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("127.0.0.1:%d", cfg.Port),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 0,
			IdleTimeout:  60 * time.Second,
		},
		logger: cfg.Logger.With("component", "api"),
	}
}

func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Addr() string {
	return s.httpServer.Addr
}
