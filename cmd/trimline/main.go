package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/trimline/trimline/internal/api"
	"github.com/trimline/trimline/internal/config"
	"github.com/trimline/trimline/internal/db"
	"github.com/trimline/trimline/internal/editor"
	"github.com/trimline/trimline/internal/encoder"
	"github.com/trimline/trimline/internal/export"
	"github.com/trimline/trimline/internal/jobs"
	"github.com/trimline/trimline/internal/logging"
	"github.com/trimline/trimline/internal/media"
	"github.com/trimline/trimline/internal/playback"
	"github.com/trimline/trimline/internal/recording"
	"github.com/trimline/trimline/internal/transcribe"
	"github.com/trimline/trimline/internal/ui"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}

func run() error {
	startTime := time.Now()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir(), 0o755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}
	if err := os.MkdirAll(cfg.TempDir(), 0o755); err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting trimline", "version", config.Version, "commit", config.GitCommit, "data_dir", cfg.DataDir())

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	repo := jobs.NewRepository(database.Conn())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	authToken, err := api.EnsureAuthToken(ctx, repo)
	if err != nil {
		return fmt.Errorf("failed to ensure auth token: %w", err)
	}

	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════════════════════════════════════════╗")
	fmt.Printf("║  TRIMLINE v%-67s║\n", config.Version)
	fmt.Printf("║  API URL:    http://127.0.0.1:%-48d║\n", cfg.Port())
	fmt.Printf("║  Auth Token: %-65s║\n", authToken)
	fmt.Println("╚═══════════════════════════════════════════════════════════════════════════════╝")
	fmt.Println()

	store := editor.NewStore(logger)

	enc, err := encoder.NewFFmpeg(encoder.Config{
		FFmpegPath:   cfg.FFmpegPath(),
		FFprobePath:  cfg.FFprobePath(),
		ProbeTimeout: cfg.ProbeTimeout(),
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("encoder unavailable: %w", err)
	}

	doctor := encoder.NewCachedDoctor(enc, cfg.TempDir(), logger)
	probeCtx, probeCancel := context.WithTimeout(ctx, cfg.ProbeTimeout())
	if caps, err := doctor.Refresh(probeCtx); err != nil {
		logger.Warn("initial encoder probe failed", "error", err)
	} else if !caps.Ready() {
		logger.Warn("encoder is not fully usable", "errors", caps.Errors)
	}
	probeCancel()

	exporter := export.NewExporter(enc, cfg.TempDir(), cfg.ExportParallel(), logger)

	clientCfg := transcribe.ClientConfig{
		BaseURL:           cfg.TranscribeURL(),
		APIKey:            cfg.APIKey(),
		TranscribeModel:   cfg.TranscribeModel(),
		SummaryModel:      cfg.SummaryModel(),
		RequestsPerMinute: cfg.RequestsPerMinute(),
		Timeout:           cfg.ServiceTimeout(),
	}
	if clientCfg.APIKey == "" {
		logger.Warn("no transcription API key configured; transcription jobs will fail")
	}
	transcriber := transcribe.NewService(
		transcribe.NewAudioExtractor(enc, cfg.TempDir(), logger),
		transcribe.NewHTTPTranscriber(clientCfg, logger),
		transcribe.NewHTTPSummarizer(clientCfg, logger),
		logger,
	)

	importer := media.NewImporter(enc, logger)

	jobService := jobs.NewService(repo, store, exporter, transcriber, logger)
	runner := jobs.NewRunner(jobService, repo, logger)
	go runner.Start(ctx)

	capturer := recording.NewEncoderCapturer(enc, filepath.Join(cfg.DataDir(), "recordings"), logger)
	recorder := recording.NewRecorder(capturer, importer, store, logger)

	apiServer := api.NewServer(api.ServerConfig{
		Port:           cfg.Port(),
		Version:        config.Version,
		Store:          store,
		Importer:       importer,
		Jobs:           jobService,
		Runner:         runner,
		Recorder:       recorder,
		PlaybackServer: playback.NewServer(logger),
		Repository:     repo,
		Doctor:         doctor,
		Logger:         logger,
		StartTime:      startTime,
	})

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	quitCh := make(chan struct{})
	var quitOnce sync.Once
	quit := func() { quitOnce.Do(func() { close(quitCh) }) }

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", "signal", sig)
			quit()
		case <-quitCh:
		}
	}()

	if cfg.Headless() {
		logger.Info("running in headless mode (no system tray)")
	} else {
		tray := ui.NewTray(ui.TrayConfig{
			Store:    store,
			Runner:   runner,
			Recorder: recorder,
			Logger:   logger,
			OnQuit:   quit,
		})
		go tray.Run()
	}

	<-quitCh

	logger.Info("initiating graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if recorder.State() == recording.StateRecording {
		if _, err := recorder.Stop(shutdownCtx); err != nil {
			logger.Warn("failed to finish recording on shutdown", "error", err)
		}
	}
	cancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}
