// Package ui is the system tray front of the editor: session status, a
// recording toggle, undo and redo, and pausing the job queue.
package ui

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/getlantern/systray"

	"github.com/trimline/trimline/internal/editor"
	"github.com/trimline/trimline/internal/recording"
)

//go:embed assets/icon.png
var iconBytes []byte

const recorderActionTimeout = 30 * time.Second

type JobRunner interface {
	Pause()
	Resume()
	IsPaused() bool
}

type Recorder interface {
	Start(ctx context.Context, kind, sourceID string) error
	Stop(ctx context.Context) (editor.Video, error)
	Status() recording.Status
}

type Tray struct {
	store    *editor.Store
	runner   JobRunner
	recorder Recorder
	logger   *slog.Logger

	statusItem *systray.MenuItem
	videosItem *systray.MenuItem
	recordItem *systray.MenuItem
	undoItem   *systray.MenuItem
	redoItem   *systray.MenuItem
	pauseItem  *systray.MenuItem

	mu          sync.Mutex
	unsubscribe func()

	onQuit func()
}

type TrayConfig struct {
	Store    *editor.Store
	Runner   JobRunner
	Recorder Recorder
	Logger   *slog.Logger
	OnQuit   func()
}

func NewTray(cfg TrayConfig) *Tray {
	return &Tray{
		store:    cfg.Store,
		runner:   cfg.Runner,
		recorder: cfg.Recorder,
		logger:   cfg.Logger.With("component", "tray"),
		onQuit:   cfg.OnQuit,
	}
}

func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetIcon(iconBytes)
	systray.SetTitle("Trimline")
	systray.SetTooltip("Trimline")

	t.statusItem = systray.AddMenuItem("Status: Idle", "Current editor status")
	t.statusItem.Disable()
	t.videosItem = systray.AddMenuItem("Videos: 0", "Videos in the library")
	t.videosItem.Disable()

	systray.AddSeparator()

	t.recordItem = systray.AddMenuItem("Start Recording", "Record the screen")
	t.undoItem = systray.AddMenuItem("Undo", "Undo the last edit")
	t.redoItem = systray.AddMenuItem("Redo", "Redo the last undone edit")
	t.pauseItem = systray.AddMenuItem("Pause Jobs", "Pause exports and transcription")

	systray.AddSeparator()

	quitItem := systray.AddMenuItem("Quit", "Quit Trimline")

	t.unsubscribe = t.store.Subscribe(func(editor.Change) { t.refresh() })
	t.refresh()

	go func() {
		for {
			select {
			case <-t.recordItem.ClickedCh:
				go t.toggleRecording()
			case <-t.undoItem.ClickedCh:
				t.store.Undo()
			case <-t.redoItem.ClickedCh:
				t.store.Redo()
			case <-t.pauseItem.ClickedCh:
				t.togglePause()
			case <-quitItem.ClickedCh:
				t.logger.Info("quit requested from tray")
				if t.onQuit != nil {
					t.onQuit()
				}
				systray.Quit()
				return
			}
		}
	}()

	t.logger.Info("system tray ready")
}

func (t *Tray) onExit() {
	if t.unsubscribe != nil {
		t.unsubscribe()
	}
	t.logger.Info("system tray exiting")
}

// menuState is what the tray shows for a given session.
type menuState struct {
	status  string
	videos  string
	record  string
	pause   string
	canUndo bool
	canRedo bool
}

func computeMenu(snap editor.Snapshot, rec recording.Status, paused bool) menuState {
	m := menuState{
		status:  "Status: Idle",
		videos:  fmt.Sprintf("Videos: %d", len(snap.Videos)),
		record:  "Start Recording",
		pause:   "Pause Jobs",
		canUndo: snap.CanUndo,
		canRedo: snap.CanRedo,
	}
	if paused {
		m.status = "Status: Jobs Paused"
		m.pause = "Resume Jobs"
	}
	if rec.State == recording.StateRecording {
		m.status = fmt.Sprintf("Status: Recording %s", formatElapsed(rec.Elapsed))
		m.record = "Stop Recording"
	}
	return m
}

func formatElapsed(sec float64) string {
	total := int(sec)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

func (t *Tray) refresh() {
	t.mu.Lock()
	defer t.mu.Unlock()

	var rec recording.Status
	if t.recorder != nil {
		rec = t.recorder.Status()
	}
	paused := t.runner != nil && t.runner.IsPaused()
	m := computeMenu(t.store.Snapshot(), rec, paused)

	t.statusItem.SetTitle(m.status)
	t.videosItem.SetTitle(m.videos)
	t.recordItem.SetTitle(m.record)
	t.pauseItem.SetTitle(m.pause)
	setEnabled(t.undoItem, m.canUndo)
	setEnabled(t.redoItem, m.canRedo)
	if t.recorder == nil {
		t.recordItem.Disable()
	}
}

func setEnabled(item *systray.MenuItem, enabled bool) {
	if enabled {
		item.Enable()
	} else {
		item.Disable()
	}
}

func (t *Tray) toggleRecording() {
	if t.recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), recorderActionTimeout)
	defer cancel()

	if t.recorder.Status().State == recording.StateRecording {
		if _, err := t.recorder.Stop(ctx); err != nil {
			t.logger.Error("failed to stop recording", "error", err)
		}
	} else if err := t.recorder.Start(ctx, recording.KindScreen, ""); err != nil {
		t.logger.Error("failed to start recording", "error", err)
	}
	t.refresh()
}

func (t *Tray) togglePause() {
	if t.runner == nil {
		return
	}
	if t.runner.IsPaused() {
		t.runner.Resume()
	} else {
		t.runner.Pause()
	}
	t.refresh()
}

func (t *Tray) Quit() {
	systray.Quit()
}
