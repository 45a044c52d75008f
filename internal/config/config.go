// Package config provides configuration management for the Trimline agent.
// Values come from defaults, then an optional YAML file in the data
// directory, then environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// Default values
	DefaultPort              = 8787
	DefaultLogLevel          = "info"
	DefaultDataDir           = ".trimline"
	DefaultTranscribeURL     = "https://api.openai.com/v1"
	DefaultTranscribeModel   = "whisper-1"
	DefaultSummaryModel      = "gpt-4o-mini"
	DefaultRequestsPerMinute = 20
	DefaultServiceTimeout    = 5 * time.Minute
	DefaultProbeTimeout      = 30 * time.Second

	// Environment variable names
	EnvPort              = "TRIMLINE_PORT"
	EnvLogLevel          = "TRIMLINE_LOG_LEVEL"
	EnvDataDir           = "TRIMLINE_DATA_DIR"
	EnvFFmpegPath        = "TRIMLINE_FFMPEG_PATH"
	EnvFFprobePath       = "TRIMLINE_FFPROBE_PATH"
	EnvTempDir           = "TRIMLINE_TEMP_DIR"
	EnvHeadless          = "TRIMLINE_HEADLESS"
	EnvTranscribeURL     = "TRIMLINE_TRANSCRIBE_URL"
	EnvTranscribeModel   = "TRIMLINE_TRANSCRIBE_MODEL"
	EnvSummaryModel      = "TRIMLINE_SUMMARY_MODEL"
	EnvAPIKey            = "OPENAI_API_KEY"
	EnvRequestsPerMinute = "TRIMLINE_REQUESTS_PER_MINUTE"
	EnvExportParallel    = "TRIMLINE_EXPORT_PARALLEL"

	DBFilename     = "trimline.db"
	ConfigFilename = "config.yaml"
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	TempDir() string
	FFmpegPath() string
	FFprobePath() string
	ProbeTimeout() time.Duration
	Headless() bool
	TranscribeURL() string
	TranscribeModel() string
	SummaryModel() string
	APIKey() string
	RequestsPerMinute() int
	ServiceTimeout() time.Duration
	ExportParallel() int
}

// fileConfig is the YAML file layout. Zero values leave defaults in place.
type fileConfig struct {
	Port     int    `yaml:"port"`
	LogLevel string `yaml:"log_level"`
	TempDir  string `yaml:"temp_dir"`
	Headless *bool  `yaml:"headless"`

	Encoder struct {
		FFmpegPath  string `yaml:"ffmpeg_path"`
		FFprobePath string `yaml:"ffprobe_path"`
		Parallel    int    `yaml:"parallel"`
	} `yaml:"encoder"`

	Transcription struct {
		URL               string `yaml:"url"`
		Model             string `yaml:"model"`
		SummaryModel      string `yaml:"summary_model"`
		APIKey            string `yaml:"api_key"`
		RequestsPerMinute int    `yaml:"requests_per_minute"`
	} `yaml:"transcription"`
}

// EnvConfig holds the resolved configuration.
type EnvConfig struct {
	port              int
	logLevel          string
	dataDir           string
	tempDir           string
	ffmpegPath        string
	ffprobePath       string
	headless          bool
	transcribeURL     string
	transcribeModel   string
	summaryModel      string
	apiKey            string
	requestsPerMinute int
	exportParallel    int
}

// New creates a new EnvConfig from defaults, the config file and the
// environment.
func New() (*EnvConfig, error) {
	cfg := &EnvConfig{
		port:              DefaultPort,
		logLevel:          DefaultLogLevel,
		dataDir:           defaultDataDir(),
		transcribeURL:     DefaultTranscribeURL,
		transcribeModel:   DefaultTranscribeModel,
		summaryModel:      DefaultSummaryModel,
		requestsPerMinute: DefaultRequestsPerMinute,
	}

	// The data directory locates the config file, so it is read first.
	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}

	if err := cfg.loadFile(filepath.Join(cfg.dataDir, ConfigFilename)); err != nil {
		return nil, err
	}
	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}

	if cfg.port < 1 || cfg.port > 65535 {
		return nil, fmt.Errorf("invalid port %d: must be between 1 and 65535", cfg.port)
	}
	if cfg.requestsPerMinute < 1 {
		return nil, fmt.Errorf("invalid requests per minute %d: must be positive", cfg.requestsPerMinute)
	}
	if cfg.exportParallel < 0 {
		return nil, fmt.Errorf("invalid export parallelism %d: must not be negative", cfg.exportParallel)
	}
	return cfg, nil
}

func (c *EnvConfig) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	setInt(&c.port, fc.Port)
	setString(&c.logLevel, fc.LogLevel)
	setString(&c.tempDir, fc.TempDir)
	if fc.Headless != nil {
		c.headless = *fc.Headless
	}
	setString(&c.ffmpegPath, fc.Encoder.FFmpegPath)
	setString(&c.ffprobePath, fc.Encoder.FFprobePath)
	setInt(&c.exportParallel, fc.Encoder.Parallel)
	setString(&c.transcribeURL, fc.Transcription.URL)
	setString(&c.transcribeModel, fc.Transcription.Model)
	setString(&c.summaryModel, fc.Transcription.SummaryModel)
	setString(&c.apiKey, fc.Transcription.APIKey)
	setInt(&c.requestsPerMinute, fc.Transcription.RequestsPerMinute)
	return nil
}

func (c *EnvConfig) loadEnv() error {
	if err := envInt(EnvPort, &c.port); err != nil {
		return err
	}
	if err := envInt(EnvRequestsPerMinute, &c.requestsPerMinute); err != nil {
		return err
	}
	if err := envInt(EnvExportParallel, &c.exportParallel); err != nil {
		return err
	}
	if h := os.Getenv(EnvHeadless); h != "" {
		v, err := strconv.ParseBool(h)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvHeadless, err)
		}
		c.headless = v
	}

	setString(&c.logLevel, os.Getenv(EnvLogLevel))
	setString(&c.tempDir, os.Getenv(EnvTempDir))
	setString(&c.ffmpegPath, os.Getenv(EnvFFmpegPath))
	setString(&c.ffprobePath, os.Getenv(EnvFFprobePath))
	setString(&c.transcribeURL, os.Getenv(EnvTranscribeURL))
	setString(&c.transcribeModel, os.Getenv(EnvTranscribeModel))
	setString(&c.summaryModel, os.Getenv(EnvSummaryModel))
	setString(&c.apiKey, os.Getenv(EnvAPIKey))
	return nil
}

func envInt(name string, dst *int) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	*dst = n
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// TempDir is where exports and audio extraction stage intermediate files.
func (c *EnvConfig) TempDir() string {
	if c.tempDir != "" {
		return c.tempDir
	}
	return filepath.Join(c.dataDir, "tmp")
}

// FFmpegPath is empty when ffmpeg should be looked up on PATH.
func (c *EnvConfig) FFmpegPath() string {
	return c.ffmpegPath
}

func (c *EnvConfig) FFprobePath() string {
	return c.ffprobePath
}

func (c *EnvConfig) ProbeTimeout() time.Duration {
	return DefaultProbeTimeout
}

// Headless disables the system tray.
func (c *EnvConfig) Headless() bool {
	return c.headless
}

func (c *EnvConfig) TranscribeURL() string {
	return c.transcribeURL
}

func (c *EnvConfig) TranscribeModel() string {
	return c.transcribeModel
}

func (c *EnvConfig) SummaryModel() string {
	return c.summaryModel
}

func (c *EnvConfig) APIKey() string {
	return c.apiKey
}

func (c *EnvConfig) RequestsPerMinute() int {
	return c.requestsPerMinute
}

func (c *EnvConfig) ServiceTimeout() time.Duration {
	return DefaultServiceTimeout
}

// ExportParallel bounds concurrent clip renders; 0 means unbounded.
func (c *EnvConfig) ExportParallel() int {
	return c.exportParallel
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
