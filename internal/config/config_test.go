package config

import (
	"os"
	"path/filepath"
	"testing"
)

// isolate points the data directory at an empty temp dir and clears every
// variable New reads.
func isolate(t *testing.T) string {
	t.Helper()
	for _, name := range []string{
		EnvPort, EnvLogLevel, EnvFFmpegPath, EnvFFprobePath, EnvTempDir, EnvHeadless,
		EnvTranscribeURL, EnvTranscribeModel, EnvSummaryModel, EnvAPIKey,
		EnvRequestsPerMinute, EnvExportParallel,
	} {
		t.Setenv(name, "")
	}
	dir := t.TempDir()
	t.Setenv(EnvDataDir, dir)
	return dir
}

func TestNew_Defaults(t *testing.T) {
	dir := isolate(t)

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port() != DefaultPort {
		t.Errorf("Port() = %d, want %d", cfg.Port(), DefaultPort)
	}
	if cfg.DBPath() != filepath.Join(dir, DBFilename) {
		t.Errorf("DBPath() = %q", cfg.DBPath())
	}
	if cfg.TempDir() != filepath.Join(dir, "tmp") {
		t.Errorf("TempDir() = %q", cfg.TempDir())
	}
	if cfg.TranscribeModel() != DefaultTranscribeModel {
		t.Errorf("TranscribeModel() = %q", cfg.TranscribeModel())
	}
	if cfg.APIKey() != "" {
		t.Errorf("APIKey() = %q, want empty", cfg.APIKey())
	}
	if cfg.Headless() {
		t.Error("Headless() = true, want false")
	}
}

func TestNew_FileThenEnv(t *testing.T) {
	dir := isolate(t)
	yaml := `
port: 9000
log_level: debug
headless: true
encoder:
  ffmpeg_path: /opt/ffmpeg/bin/ffmpeg
  parallel: 2
transcription:
  url: http://localhost:9999/v1
  api_key: file-key
  requests_per_minute: 5
`
	if err := os.WriteFile(filepath.Join(dir, ConfigFilename), []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvPort, "9100")
	t.Setenv(EnvAPIKey, "env-key")

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port() != 9100 {
		t.Errorf("Port() = %d, want env override 9100", cfg.Port())
	}
	if cfg.APIKey() != "env-key" {
		t.Errorf("APIKey() = %q, want env-key", cfg.APIKey())
	}
	if cfg.LogLevel() != "debug" {
		t.Errorf("LogLevel() = %q, want debug", cfg.LogLevel())
	}
	if !cfg.Headless() {
		t.Error("Headless() = false, want true from file")
	}
	if cfg.FFmpegPath() != "/opt/ffmpeg/bin/ffmpeg" {
		t.Errorf("FFmpegPath() = %q", cfg.FFmpegPath())
	}
	if cfg.ExportParallel() != 2 {
		t.Errorf("ExportParallel() = %d, want 2", cfg.ExportParallel())
	}
	if cfg.TranscribeURL() != "http://localhost:9999/v1" {
		t.Errorf("TranscribeURL() = %q", cfg.TranscribeURL())
	}
	if cfg.RequestsPerMinute() != 5 {
		t.Errorf("RequestsPerMinute() = %d, want 5", cfg.RequestsPerMinute())
	}
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		file string
	}{
		{name: "port not a number", env: map[string]string{EnvPort: "abc"}},
		{name: "port out of range", env: map[string]string{EnvPort: "70000"}},
		{name: "negative rate limit", env: map[string]string{EnvRequestsPerMinute: "-1"}},
		{name: "bad headless flag", env: map[string]string{EnvHeadless: "sometimes"}},
		{name: "negative parallel", env: map[string]string{EnvExportParallel: "-2"}},
		{name: "malformed yaml", file: "port: [1, 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if tt.file != "" {
				if err := os.WriteFile(filepath.Join(dir, ConfigFilename), []byte(tt.file), 0o600); err != nil {
					t.Fatal(err)
				}
			}
			if _, err := New(); err == nil {
				t.Error("New() error = nil, want error")
			}
		})
	}
}
