package encoder

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/disk"
)

const defaultCacheTTL = 5 * time.Minute

// Prober produces a fresh capabilities report.
type Prober interface {
	Doctor(ctx context.Context) (*Capabilities, error)
}

// CachedDoctor caches encoder capability probes and adds free space in the
// temp directory, where exports stage their intermediate files.
type CachedDoctor struct {
	prober  Prober
	tempDir string
	ttl     time.Duration
	logger  *slog.Logger

	mu     sync.RWMutex
	cached *Capabilities
}

func NewCachedDoctor(prober Prober, tempDir string, logger *slog.Logger) *CachedDoctor {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &CachedDoctor{
		prober:  prober,
		tempDir: tempDir,
		ttl:     defaultCacheTTL,
		logger:  logger,
	}
}

// Get returns cached capabilities if fresh, otherwise re-probes.
func (d *CachedDoctor) Get(ctx context.Context) (*Capabilities, error) {
	d.mu.RLock()
	if d.cached != nil && time.Since(d.cached.ProbedAt) < d.ttl {
		caps := d.cached
		d.mu.RUnlock()
		return caps, nil
	}
	d.mu.RUnlock()

	return d.Refresh(ctx)
}

func (d *CachedDoctor) Peek() *Capabilities {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cached
}

// Refresh forces a new probe regardless of cache freshness.
func (d *CachedDoctor) Refresh(ctx context.Context) (*Capabilities, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	caps, err := d.prober.Doctor(ctx)
	if err != nil {
		d.logger.Warn("encoder probe failed", "error", err)
		if d.cached != nil {
			d.logger.Info("returning stale capabilities cache")
			return d.cached, nil
		}
		return nil, err
	}

	caps.TempDir = d.tempDir
	if usage, err := disk.UsageWithContext(ctx, d.tempDir); err != nil {
		d.logger.Warn("cannot read temp dir usage", "path", d.tempDir, "error", err)
	} else {
		caps.TempFreeBytes = usage.Free
	}
	caps.ProbedAt = time.Now()

	d.logger.Info("encoder probe complete",
		"ffmpeg", caps.FFmpegVersion,
		"ffprobe", caps.FFprobeVersion,
		"temp_free_mb", caps.TempFreeBytes/(1024*1024),
	)

	d.cached = caps
	return caps, nil
}

// Invalidate clears the cached capabilities.
func (d *CachedDoctor) Invalidate() {
	d.mu.Lock()
	d.cached = nil
	d.mu.Unlock()
}
