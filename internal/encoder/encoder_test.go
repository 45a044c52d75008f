package encoder

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestJobArgs_TrimSpeedScale(t *testing.T) {
	job := Job{
		Input:         "/in.mp4",
		Start:         1.5,
		Duration:      10,
		VideoFilters:  []string{"setpts=0.5*PTS", "scale=1280:720"},
		AudioFilters:  []string{"atempo=2"},
		VideoCodec:    "libx264",
		AudioCodec:    "aac",
		Preset:        "fast",
		CRF:           28,
		OutputOptions: []string{"-movflags", "+faststart"},
		Output:        "/out.mp4",
	}

	want := []string{
		"-hide_banner", "-y",
		"-ss", "1.500", "-i", "/in.mp4", "-t", "10.000",
		"-filter:v", "setpts=0.5*PTS,scale=1280:720",
		"-filter:a", "atempo=2",
		"-c:v", "libx264", "-preset", "fast", "-crf", "28", "-c:a", "aac",
		"-movflags", "+faststart",
		"-progress", "pipe:1", "-nostats", "/out.mp4",
	}
	if got := job.Args(); !reflect.DeepEqual(got, want) {
		t.Errorf("Args() =\n%q\nwant\n%q", got, want)
	}
}

func TestJobArgs_Concat(t *testing.T) {
	job := Job{Input: "/tmp/list.txt", InputFormat: "concat", StreamCopy: true, VideoCodec: "ignored", Output: "/out.mp4"}

	want := []string{
		"-hide_banner", "-y",
		"-f", "concat", "-safe", "0", "-i", "/tmp/list.txt",
		"-c", "copy",
		"-progress", "pipe:1", "-nostats", "/out.mp4",
	}
	if got := job.Args(); !reflect.DeepEqual(got, want) {
		t.Errorf("Args() =\n%q\nwant\n%q", got, want)
	}
}

func TestJobArgs_AudioOnlyAndDirectSize(t *testing.T) {
	audio := Job{Input: "/in.mov", NoVideo: true, AudioCodec: "libmp3lame", AudioBitrate: "128k", Format: "mp3", Output: "/a.mp3"}
	got := strings.Join(audio.Args(), " ")
	for _, part := range []string{"-vn", "-c:a libmp3lame", "-b:a 128k", "-f mp3"} {
		if !strings.Contains(got, part) {
			t.Errorf("audio args %q missing %q", got, part)
		}
	}
	if strings.Contains(got, "-ss") || strings.Contains(got, "-t ") {
		t.Errorf("audio args %q should not trim", got)
	}

	scaled := Job{Input: "/in.mov", Size: "1920x1080", Output: "/o.mp4"}
	if got := strings.Join(scaled.Args(), " "); !strings.Contains(got, "-s 1920x1080") {
		t.Errorf("scaled args %q missing direct size", got)
	}
}

func TestReadProgress(t *testing.T) {
	input := strings.Join([]string{
		"frame=10",
		"out_time_us=2500000",
		"out_time_ms=5000000",
		"out_time_ms=N/A",
		"progress=continue",
		"out_time_us=20000000",
		"progress=end",
	}, "\n")

	var got []float64
	readProgress(strings.NewReader(input), 10, func(p float64) { got = append(got, p) })

	want := []float64{25, 50, 100, 100}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("progress = %v, want %v", got, want)
	}
}

func TestReadProgress_NoExpectedDuration(t *testing.T) {
	var got []float64
	readProgress(strings.NewReader("out_time_us=1000000\nprogress=end\n"), 0, func(p float64) { got = append(got, p) })

	if !reflect.DeepEqual(got, []float64{100}) {
		t.Errorf("progress = %v, want only the end marker", got)
	}
}

func TestParseProbe(t *testing.T) {
	data := []byte(`{
		"streams": [
			{"codec_type": "video", "codec_name": "h264", "width": 1920, "height": 1080, "r_frame_rate": "30000/1001"},
			{"codec_type": "audio", "codec_name": "aac"}
		],
		"format": {"duration": "61.250000", "bit_rate": "4000000"}
	}`)

	res, err := parseProbe(data)
	if err != nil {
		t.Fatalf("parseProbe: %v", err)
	}
	if res.Duration != 61.25 {
		t.Errorf("Duration = %v, want 61.25", res.Duration)
	}
	if !res.HasVideo || !res.HasAudio {
		t.Errorf("HasVideo=%v HasAudio=%v, want both", res.HasVideo, res.HasAudio)
	}
	if res.Width != 1920 || res.Height != 1080 {
		t.Errorf("size = %dx%d", res.Width, res.Height)
	}
	if res.FrameRate != 29.97 {
		t.Errorf("FrameRate = %v, want 29.97", res.FrameRate)
	}
	if res.VideoCodec != "h264" || res.AudioCodec != "aac" {
		t.Errorf("codecs = %q/%q", res.VideoCodec, res.AudioCodec)
	}
	if res.Bitrate != 4000000 {
		t.Errorf("Bitrate = %d", res.Bitrate)
	}
}

func TestParseProbe_Invalid(t *testing.T) {
	if _, err := parseProbe([]byte("not json")); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestParseRate(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"25/1", 25},
		{"30000/1001", 29.97},
		{"24", 24},
		{"0/0", 0},
		{"", 0},
	}
	for _, tt := range tests {
		if got := parseRate(tt.in); got != tt.want {
			t.Errorf("parseRate(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseVersion(t *testing.T) {
	got := parseVersion("ffmpeg version 6.1.1-3ubuntu5 Copyright (c) 2000-2023 the FFmpeg developers\nbuilt with gcc")
	if got != "6.1.1-3ubuntu5" {
		t.Errorf("parseVersion = %q", got)
	}
}

func TestIsNoAudio(t *testing.T) {
	if !IsNoAudio("[out#0/mp3] Output file #0 does not contain any stream\n") {
		t.Error("expected no-audio marker to match")
	}
	if !IsNoAudio("Stream map '0:a' matches no streams.") {
		t.Error("expected stream map marker to match")
	}
	if IsNoAudio("Invalid data found when processing input") {
		t.Error("generic failure must not be reported as no-audio")
	}
}

func TestError(t *testing.T) {
	var err error = &Error{Message: "boom", ExitCode: 1}
	if err.Error() != "encoder exited 1: boom" {
		t.Errorf("Error() = %q", err.Error())
	}

	var encErr *Error
	if !errors.As(err, &encErr) || encErr.ExitCode != 1 {
		t.Error("errors.As should find *Error")
	}
}

func TestEventsNilSafe(t *testing.T) {
	var ev Events
	ev.start("x")
	ev.progress(1)
	ev.end()
	ev.fail("a", "b")
}

func TestLimitedWriter_KeepsOnlyTail(t *testing.T) {
	var buf bytes.Buffer
	lw := &limitedWriter{w: &buf, limit: 10}

	lw.Write([]byte("hello"))
	if buf.String() != "hello" {
		t.Errorf("after short write got %q, want %q", buf.String(), "hello")
	}

	lw.Write([]byte(" world of test data"))
	if got, want := buf.String(), " test data"; got != want {
		t.Errorf("after overflow got %q, want %q", got, want)
	}
}

func TestLastLine(t *testing.T) {
	if got := lastLine("a\nb\n\n", "x"); got != "b" {
		t.Errorf("lastLine = %q", got)
	}
	if got := lastLine("  ", "x"); got != "x" {
		t.Errorf("lastLine fallback = %q", got)
	}
}

type fakeProber struct {
	calls int
	caps  *Capabilities
	err   error
}

func (f *fakeProber) Doctor(ctx context.Context) (*Capabilities, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	c := *f.caps
	return &c, nil
}

func TestCachedDoctor(t *testing.T) {
	prober := &fakeProber{caps: &Capabilities{FFmpegVersion: "6.1", FFprobeVersion: "6.1"}}
	d := NewCachedDoctor(prober, t.TempDir(), testLogger())

	caps, err := d.Get(context.Background())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !caps.Ready() {
		t.Error("expected Ready")
	}
	if caps.TempFreeBytes == 0 {
		t.Error("expected temp dir free space")
	}

	if _, err := d.Get(context.Background()); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if prober.calls != 1 {
		t.Errorf("calls = %d, want cached result", prober.calls)
	}

	prober.err = errors.New("gone")
	stale, err := d.Refresh(context.Background())
	if err != nil || stale != caps {
		t.Errorf("Refresh on failure should return stale cache, got %v, %v", stale, err)
	}

	d.Invalidate()
	if d.Peek() != nil {
		t.Error("Invalidate should clear cache")
	}
	if _, err := d.Get(context.Background()); err == nil {
		t.Error("expected error without cache")
	}
}
