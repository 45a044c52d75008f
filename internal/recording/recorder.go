// Package recording drives screen and camera capture through the host shell
// and adds finished recordings to the editing session.
package recording

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/trimline/trimline/internal/editor"
)

type State string

const (
	StateIdle      State = "idle"
	StateRecording State = "recording"
)

const (
	KindScreen = "screen"
	KindWindow = "window"
	KindCamera = "camera"
)

const defaultSampleInterval = time.Second

var (
	ErrAlreadyRecording = errors.New("a recording is already in progress")
	ErrNotRecording     = errors.New("no recording in progress")
	ErrUnknownKind      = errors.New("unknown recording kind")
)

// Capturer is the host shell side of a recording. Stop returns the path of
// the written media file.
type Capturer interface {
	Start(ctx context.Context, kind, sourceID string) error
	Stop(ctx context.Context) (string, error)
}

// Importer turns a finished file into a library video.
type Importer interface {
	Import(ctx context.Context, path string) (editor.Video, error)
}

// Status is a point-in-time view of the recorder.
type Status struct {
	State     State      `json:"state"`
	Kind      string     `json:"kind,omitempty"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	Elapsed   float64    `json:"elapsed"`
}

// Recorder is the Idle -> Recording -> Idle machine. Elapsed time is sampled
// on a ticker while recording and cleared on stop.
type Recorder struct {
	capturer Capturer
	importer Importer
	store    *editor.Store
	logger   *slog.Logger
	interval time.Duration
	now      func() time.Time

	mu        sync.Mutex
	state     State
	kind      string
	startedAt time.Time
	elapsed   time.Duration
	stopTick  chan struct{}
	tickDone  chan struct{}
}

func NewRecorder(capturer Capturer, importer Importer, store *editor.Store, logger *slog.Logger) *Recorder {
	return &Recorder{
		capturer: capturer,
		importer: importer,
		store:    store,
		logger:   logger.With("component", "recording"),
		interval: defaultSampleInterval,
		now:      time.Now,
		state:    StateIdle,
	}
}

func (r *Recorder) Start(ctx context.Context, kind, sourceID string) error {
	switch kind {
	case KindScreen, KindWindow, KindCamera:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateRecording {
		return ErrAlreadyRecording
	}

	if err := r.capturer.Start(ctx, kind, sourceID); err != nil {
		return fmt.Errorf("start capture: %w", err)
	}

	r.state = StateRecording
	r.kind = kind
	r.startedAt = r.now()
	r.elapsed = 0
	r.stopTick = make(chan struct{})
	r.tickDone = make(chan struct{})
	go r.sample(r.startedAt, r.stopTick, r.tickDone)

	r.logger.Info("recording started", "kind", kind)
	return nil
}

func (r *Recorder) sample(started time.Time, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			r.mu.Lock()
			if r.state == StateRecording && r.startedAt.Equal(started) {
				r.elapsed = r.now().Sub(started)
			}
			r.mu.Unlock()
		}
	}
}

// Stop ends the capture and adds the recording to the library, selected.
// The recorder returns to Idle even when the capture fails to finalize.
func (r *Recorder) Stop(ctx context.Context) (editor.Video, error) {
	r.mu.Lock()
	if r.state != StateRecording {
		r.mu.Unlock()
		return editor.Video{}, ErrNotRecording
	}
	kind := r.kind
	startedAt := r.startedAt
	close(r.stopTick)
	done := r.tickDone
	r.state = StateIdle
	r.kind = ""
	r.elapsed = 0
	r.mu.Unlock()
	<-done

	path, err := r.capturer.Stop(ctx)
	if err != nil {
		return editor.Video{}, fmt.Errorf("stop capture: %w", err)
	}
	length := r.now().Sub(startedAt).Seconds()

	video, err := r.importer.Import(ctx, path)
	if err != nil {
		r.logger.Warn("cannot probe recording, using wall-clock length", "path", filepath.Base(path), "error", err)
		video = editor.Video{Path: path, Name: filepath.Base(path), Duration: length}
	}
	video.IsRecording = true
	video.RecordingType = kind
	video.RecordedAt = &startedAt

	r.store.AddVideo(video, true)
	r.logger.Info("recording saved", "kind", kind, "duration", video.Duration)

	added, _ := r.store.Video(video.Path)
	return added, nil
}

func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Elapsed is the last sampled recording length; zero when idle.
func (r *Recorder) Elapsed() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.elapsed
}

func (r *Recorder) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := Status{State: r.state, Kind: r.kind, Elapsed: r.elapsed.Seconds()}
	if r.state == StateRecording {
		t := r.startedAt
		st.StartedAt = &t
	}
	return st
}
