// Package media validates files offered for import and turns them into
// library videos.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"

	"github.com/trimline/trimline/internal/editor"
	"github.com/trimline/trimline/internal/encoder"
)

// headerSize is enough for every matcher filetype ships.
const headerSize = 8192

var (
	ErrNotMedia   = errors.New("file is not a video or audio file")
	ErrUnreadable = errors.New("media file cannot be probed")
)

// extensions are accepted when the header is not recognized; some
// recorders write containers filetype does not know.
var extensions = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/x-m4v",
	".mov":  "video/quicktime",
	".mkv":  "video/x-matroska",
	".webm": "video/webm",
	".avi":  "video/x-msvideo",
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".wav":  "audio/x-wav",
}

type Importer struct {
	enc    encoder.Encoder
	logger *slog.Logger
}

func NewImporter(enc encoder.Encoder, logger *slog.Logger) *Importer {
	return &Importer{enc: enc, logger: logger.With("component", "media")}
}

// Import checks that path is a media file, probes its duration and returns a
// Video ready for the store.
func (i *Importer) Import(ctx context.Context, path string) (editor.Video, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return editor.Video{}, fmt.Errorf("invalid path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return editor.Video{}, fmt.Errorf("path does not exist: %w", err)
	}
	if info.IsDir() {
		return editor.Video{}, fmt.Errorf("%w: %s is a directory", ErrNotMedia, filepath.Base(absPath))
	}

	mime, err := DetectMIME(absPath)
	if err != nil {
		return editor.Video{}, err
	}

	probe, err := i.enc.Probe(ctx, absPath)
	if err != nil {
		return editor.Video{}, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	if !probe.HasVideo && !probe.HasAudio {
		return editor.Video{}, fmt.Errorf("%w: no streams", ErrUnreadable)
	}

	i.logger.Info("media imported",
		"name", filepath.Base(absPath),
		"mime", mime,
		"duration", probe.Duration,
	)

	return editor.Video{
		Path:     absPath,
		Name:     filepath.Base(absPath),
		Duration: probe.Duration,
		Size:     info.Size(),
		MimeType: mime,
	}, nil
}

// DetectMIME sniffs the file header and falls back to the extension.
func DetectMIME(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	head := make([]byte, headerSize)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read header: %w", err)
	}
	head = head[:n]

	if filetype.IsVideo(head) || filetype.IsAudio(head) {
		kind, _ := filetype.Match(head)
		return kind.MIME.Value, nil
	}
	if kind, _ := filetype.Match(head); kind != filetype.Unknown {
		return "", fmt.Errorf("%w: detected %s", ErrNotMedia, kind.MIME.Value)
	}

	if mime, ok := extensions[strings.ToLower(filepath.Ext(path))]; ok {
		return mime, nil
	}
	return "", fmt.Errorf("%w: %s", ErrNotMedia, filepath.Base(path))
}
