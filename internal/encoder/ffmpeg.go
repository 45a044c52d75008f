package encoder

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const (
	maxStderrBytes = 8 * 1024 // 8 KB tail of stderr kept for diagnostics
)

// Config holds the encoder's configuration.
type Config struct {
	FFmpegPath   string        // empty = look up "ffmpeg" on PATH
	FFprobePath  string        // empty = look up "ffprobe" on PATH
	ProbeTimeout time.Duration // timeout for ffprobe and -version calls
	Logger       *slog.Logger
}

func DefaultConfig(logger *slog.Logger) Config {
	return Config{
		ProbeTimeout: 30 * time.Second,
		Logger:       logger,
	}
}

// FFmpeg is the production Encoder backed by the ffmpeg and ffprobe CLIs.
type FFmpeg struct {
	cfg     Config
	ffmpeg  string
	ffprobe string
}

// NewFFmpeg resolves both binaries.
func NewFFmpeg(cfg Config) (*FFmpeg, error) {
	ffmpeg, err := resolveBinary(cfg.FFmpegPath, "ffmpeg")
	if err != nil {
		return nil, err
	}
	ffprobe, err := resolveBinary(cfg.FFprobePath, "ffprobe")
	if err != nil {
		return nil, err
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = 30 * time.Second
	}

	cfg.Logger.Info("encoder initialised", "ffmpeg", ffmpeg, "ffprobe", ffprobe)
	return &FFmpeg{cfg: cfg, ffmpeg: ffmpeg, ffprobe: ffprobe}, nil
}

// Run executes job and blocks until the encoder exits. Cancelling ctx kills
// the process.
func (f *FFmpeg) Run(ctx context.Context, job Job, ev Events) error {
	args := job.Args()
	cmd := exec.CommandContext(ctx, f.ffmpeg, args...)

	var stderrBuf bytes.Buffer
	cmd.Stderr = &limitedWriter{w: &stderrBuf, limit: maxStderrBytes}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("encoder stdout: %w", err)
	}

	start := time.Now()
	ev.start(f.ffmpeg + " " + strings.Join(args, " "))
	f.cfg.Logger.Debug("executing encoder command", "args", args)

	if err := cmd.Start(); err != nil {
		e := &Error{Message: err.Error(), ExitCode: -1}
		ev.fail(e.Message, "")
		return e
	}

	readProgress(stdout, job.ExpectedDuration, ev.progress)
	err = cmd.Wait()
	elapsed := time.Since(start)

	if err != nil {
		diag := stderrBuf.String()
		if ctx.Err() != nil {
			ev.fail("cancelled", diag)
			return fmt.Errorf("encoder cancelled: %w", ctx.Err())
		}

		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		e := &Error{Message: lastLine(diag, err.Error()), Diagnostic: diag, ExitCode: exitCode}

		f.cfg.Logger.Warn("encoder command failed",
			"exit_code", exitCode,
			"duration_ms", elapsed.Milliseconds(),
			"stderr_tail", truncate(diag, 512),
		)
		ev.fail(e.Message, diag)
		return e
	}

	f.cfg.Logger.Info("encoder command succeeded",
		"duration_ms", elapsed.Milliseconds(),
		"output", job.Output,
	)
	ev.progress(100)
	ev.end()
	return nil
}

// Probe reads container and stream information with ffprobe.
func (f *FFmpeg) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, f.cfg.ProbeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, f.ffprobe,
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	var stderrBuf bytes.Buffer
	cmd.Stderr = &limitedWriter{w: &stderrBuf, limit: maxStderrBytes}

	out, err := cmd.Output()
	if err != nil {
		return nil, &Error{Message: "probe failed: " + lastLine(stderrBuf.String(), err.Error()), Diagnostic: stderrBuf.String()}
	}
	return parseProbe(out)
}

// Doctor reports encoder versions. It satisfies Prober for CachedDoctor.
func (f *FFmpeg) Doctor(ctx context.Context) (*Capabilities, error) {
	ctx, cancel := context.WithTimeout(ctx, f.cfg.ProbeTimeout)
	defer cancel()

	caps := &Capabilities{FFmpegPath: f.ffmpeg, FFprobePath: f.ffprobe}
	var err error
	if caps.FFmpegVersion, err = version(ctx, f.ffmpeg); err != nil {
		caps.Errors = append(caps.Errors, "ffmpeg: "+err.Error())
	}
	if caps.FFprobeVersion, err = version(ctx, f.ffprobe); err != nil {
		caps.Errors = append(caps.Errors, "ffprobe: "+err.Error())
	}
	return caps, nil
}

func version(ctx context.Context, bin string) (string, error) {
	out, err := exec.CommandContext(ctx, bin, "-version").Output()
	if err != nil {
		return "", err
	}
	return parseVersion(string(out)), nil
}

// parseVersion pulls "6.1.1" out of "ffmpeg version 6.1.1 Copyright ...".
func parseVersion(out string) string {
	line, _, _ := strings.Cut(out, "\n")
	fields := strings.Fields(line)
	for i, f := range fields {
		if f == "version" && i+1 < len(fields) {
			return fields[i+1]
		}
	}
	return strings.TrimSpace(line)
}

// readProgress consumes ffmpeg's -progress output and reports percentages
// of expected seconds.
func readProgress(r io.Reader, expected float64, report func(float64)) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		key, val, ok := strings.Cut(strings.TrimSpace(sc.Text()), "=")
		if !ok {
			continue
		}
		switch key {
		case "out_time_us", "out_time_ms":
			// Both keys carry microseconds.
			us, err := strconv.ParseInt(val, 10, 64)
			if err != nil || expected <= 0 || us < 0 {
				continue
			}
			pct := float64(us) / 1e6 / expected * 100
			report(math.Min(math.Round(pct*10)/10, 100))
		case "progress":
			if val == "end" {
				report(100)
			}
		}
	}
	// Drain so the process never blocks on a full pipe.
	_, _ = io.Copy(io.Discard, r)
}

type probeJSON struct {
	Format struct {
		Duration string `json:"duration"`
		BitRate  string `json:"bit_rate"`
	} `json:"format"`
	Streams []struct {
		CodecType  string `json:"codec_type"`
		CodecName  string `json:"codec_name"`
		Width      int    `json:"width"`
		Height     int    `json:"height"`
		RFrameRate string `json:"r_frame_rate"`
		Duration   string `json:"duration"`
	} `json:"streams"`
}

func parseProbe(data []byte) (*ProbeResult, error) {
	var raw probeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("cannot parse probe JSON: %w", err)
	}

	res := &ProbeResult{}
	res.Duration, _ = strconv.ParseFloat(raw.Format.Duration, 64)
	res.Bitrate, _ = strconv.ParseInt(raw.Format.BitRate, 10, 64)

	for _, s := range raw.Streams {
		switch s.CodecType {
		case "video":
			if res.HasVideo {
				continue
			}
			res.HasVideo = true
			res.VideoCodec = s.CodecName
			res.Width, res.Height = s.Width, s.Height
			res.FrameRate = parseRate(s.RFrameRate)
			if res.Duration == 0 {
				res.Duration, _ = strconv.ParseFloat(s.Duration, 64)
			}
		case "audio":
			if res.HasAudio {
				continue
			}
			res.HasAudio = true
			res.AudioCodec = s.CodecName
		}
	}
	return res, nil
}

// parseRate turns "30000/1001" into 29.97.
func parseRate(r string) float64 {
	num, den, ok := strings.Cut(r, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !ok {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return math.Round(n/d*100) / 100
}

func resolveBinary(preferred, name string) (string, error) {
	if preferred != "" {
		if p, err := exec.LookPath(preferred); err == nil {
			return p, nil
		}
		return "", fmt.Errorf("configured %s %q not found", name, preferred)
	}
	p, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("no %s binary found on PATH", name)
	}
	return p, nil
}

func lastLine(s, fallback string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return fallback
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return "..." + s[len(s)-maxLen:]
}

// limitedWriter is an io.Writer that keeps only the last `limit` bytes.
type limitedWriter struct {
	w     *bytes.Buffer
	limit int
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)
	lw.w.Write(p)
	if lw.w.Len() > lw.limit {
		b := lw.w.Bytes()
		tail := append([]byte(nil), b[len(b)-lw.limit:]...)
		lw.w.Reset()
		lw.w.Write(tail)
	}
	return n, nil
}
