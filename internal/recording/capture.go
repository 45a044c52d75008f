package recording

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/trimline/trimline/internal/encoder"
)

var ErrUnsupportedSource = errors.New("capture source not supported on this platform")

// captureSource is the encoder input for one kind of capture.
type captureSource struct {
	format string
	input  string
}

// EncoderCapturer records the screen or a camera by running the encoder
// against the platform's capture device until Stop. Output is Matroska so
// that a killed encoder still leaves a readable file.
type EncoderCapturer struct {
	enc    encoder.Encoder
	outDir string
	goos   string
	now    func() time.Time
	logger *slog.Logger

	mu     sync.Mutex
	output string
	cancel context.CancelFunc
	done   chan error
}

func NewEncoderCapturer(enc encoder.Encoder, outDir string, logger *slog.Logger) *EncoderCapturer {
	return &EncoderCapturer{
		enc:    enc,
		outDir: outDir,
		goos:   runtime.GOOS,
		now:    time.Now,
		logger: logger.With("component", "capture"),
	}
}

func (c *EncoderCapturer) source(kind, sourceID string) (captureSource, error) {
	pick := func(def string) string {
		if sourceID != "" {
			return sourceID
		}
		return def
	}

	switch c.goos {
	case "linux":
		if kind == KindCamera {
			return captureSource{"v4l2", pick("/dev/video0")}, nil
		}
		display := os.Getenv("DISPLAY")
		if display == "" {
			display = ":0"
		}
		return captureSource{"x11grab", pick(display)}, nil
	case "darwin":
		if kind == KindCamera {
			return captureSource{"avfoundation", pick("0:none")}, nil
		}
		return captureSource{"avfoundation", pick("1:none")}, nil
	case "windows":
		switch kind {
		case KindCamera:
			if sourceID == "" {
				return captureSource{}, fmt.Errorf("%w: camera needs a device name", ErrUnsupportedSource)
			}
			return captureSource{"dshow", "video=" + sourceID}, nil
		case KindWindow:
			if sourceID != "" {
				return captureSource{"gdigrab", "title=" + sourceID}, nil
			}
		}
		return captureSource{"gdigrab", "desktop"}, nil
	}
	return captureSource{}, fmt.Errorf("%w: %s", ErrUnsupportedSource, c.goos)
}

func (c *EncoderCapturer) Start(ctx context.Context, kind, sourceID string) error {
	src, err := c.source(kind, sourceID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(c.outDir, 0o755); err != nil {
		return fmt.Errorf("create recordings dir: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		return ErrAlreadyRecording
	}

	output := filepath.Join(c.outDir, fmt.Sprintf("recording-%s-%s.mkv", kind, c.now().Format("20060102-150405")))
	job := encoder.Job{
		InputFormat: src.format,
		Input:       src.input,
		VideoCodec:  "libx264",
		Preset:      "ultrafast",
		CRF:         23,
		Format:      "matroska",
		Output:      output,
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan error, 1)
	go func() {
		done <- c.enc.Run(runCtx, job, encoder.Events{})
	}()

	c.output, c.cancel, c.done = output, cancel, done
	c.logger.Info("capture started", "kind", kind, "format", src.format, "output", filepath.Base(output))
	return nil
}

// Stop ends the capture and returns the written file. An encoder that failed
// on its own before Stop is reported as an error.
func (c *EncoderCapturer) Stop(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.cancel == nil {
		c.mu.Unlock()
		return "", ErrNotRecording
	}
	output, cancel, done := c.output, c.cancel, c.done
	c.output, c.cancel, c.done = "", nil, nil
	c.mu.Unlock()

	cancel()
	var runErr error
	select {
	case runErr = <-done:
	case <-ctx.Done():
		return "", ctx.Err()
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return "", fmt.Errorf("capture ended early: %w", runErr)
	}
	info, err := os.Stat(output)
	if err != nil {
		return "", fmt.Errorf("capture output: %w", err)
	}
	if info.Size() == 0 {
		return "", fmt.Errorf("capture output %s is empty", filepath.Base(output))
	}
	return output, nil
}
