package transcribe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"

	"github.com/google/uuid"

	"github.com/trimline/trimline/internal/encoder"
)

const (
	audioBitrate       = "128k"
	defaultAudioFormat = "mp3"
)

type audioFormat struct {
	codec   string
	bitrate string
	muxer   string
}

var audioFormats = map[string]audioFormat{
	"mp3": {codec: "libmp3lame", bitrate: audioBitrate, muxer: "mp3"},
	"m4a": {codec: "aac", bitrate: audioBitrate, muxer: "ipod"},
	"wav": {codec: "pcm_s16le", muxer: "wav"},
}

// tempAudioName matches files created by ExtractAudio and nothing else.
var tempAudioName = regexp.MustCompile(`^trimline-audio-[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}\.(mp3|m4a|wav)$`)

// AudioExtractor strips the audio track of a video into a temp file.
type AudioExtractor struct {
	enc     encoder.Encoder
	tempDir string
	logger  *slog.Logger
}

func NewAudioExtractor(enc encoder.Encoder, tempDir string, logger *slog.Logger) *AudioExtractor {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &AudioExtractor{enc: enc, tempDir: tempDir, logger: logger.With("component", "audio")}
}

// ExtractAudio encodes the audio of videoPath into a uniquely named temp
// file and returns its path. The caller owns the file and should release it
// with CleanupAudio.
func (a *AudioExtractor) ExtractAudio(ctx context.Context, videoPath, format string) (string, error) {
	if format == "" {
		format = defaultAudioFormat
	}
	af, ok := audioFormats[format]
	if !ok {
		return "", fmt.Errorf("unsupported audio format %q", format)
	}

	out := filepath.Join(a.tempDir, fmt.Sprintf("trimline-audio-%s.%s", uuid.NewString(), format))
	job := encoder.Job{
		Input:        videoPath,
		NoVideo:      true,
		AudioCodec:   af.codec,
		AudioBitrate: af.bitrate,
		Format:       af.muxer,
		Output:       out,
	}

	if err := a.enc.Run(ctx, job, encoder.Events{}); err != nil {
		a.CleanupAudio(out)
		var encErr *encoder.Error
		if errors.As(err, &encErr) && encoder.IsNoAudio(encErr.Diagnostic) {
			return "", fmt.Errorf("%w: %s", ErrNoAudioTrack, filepath.Base(videoPath))
		}
		return "", fmt.Errorf("extract audio: %w", err)
	}

	a.logger.Debug("audio extracted", "output", filepath.Base(out))
	return out, nil
}

// CleanupAudio deletes a file produced by ExtractAudio. Paths outside the
// temp directory or not matching the temp naming scheme are ignored. Failures
// are logged only.
func (a *AudioExtractor) CleanupAudio(path string) {
	clean := filepath.Clean(path)
	if filepath.Dir(clean) != filepath.Clean(a.tempDir) || !tempAudioName.MatchString(filepath.Base(clean)) {
		a.logger.Warn("refusing to delete non-temp audio path", "path", filepath.Base(clean))
		return
	}
	if err := os.Remove(clean); err != nil && !os.IsNotExist(err) {
		a.logger.Warn("cannot remove temp audio", "path", filepath.Base(clean), "error", err)
	}
}
