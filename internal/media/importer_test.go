package media

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trimline/trimline/internal/encoder"
)

type fakeEncoder struct {
	probe *encoder.ProbeResult
	err   error
}

func (f *fakeEncoder) Run(ctx context.Context, job encoder.Job, ev encoder.Events) error {
	return nil
}

func (f *fakeEncoder) Probe(ctx context.Context, path string) (*encoder.ProbeResult, error) {
	return f.probe, f.err
}

func newImporter(enc *fakeEncoder) *Importer {
	return NewImporter(enc, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func mp4Header() []byte {
	h := []byte{0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p', 'i', 's', 'o', 'm', 0x00, 0x00, 0x02, 0x00}
	return append(h, make([]byte, 64)...)
}

func TestImport_Video(t *testing.T) {
	path := writeFile(t, "talk.mp4", mp4Header())
	imp := newImporter(&fakeEncoder{probe: &encoder.ProbeResult{Duration: 42.5, HasVideo: true, HasAudio: true}})

	v, err := imp.Import(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, path, v.Path)
	assert.Equal(t, "talk.mp4", v.Name)
	assert.Equal(t, 42.5, v.Duration)
	assert.True(t, strings.HasPrefix(v.MimeType, "video/"), v.MimeType)
	assert.EqualValues(t, len(mp4Header()), v.Size)
}

func TestImport_AudioAccepted(t *testing.T) {
	data := append([]byte("ID3\x03\x00\x00\x00\x00\x00\x00"), make([]byte, 32)...)
	path := writeFile(t, "voice.mp3", data)
	imp := newImporter(&fakeEncoder{probe: &encoder.ProbeResult{Duration: 3, HasAudio: true}})

	v, err := imp.Import(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "audio/mpeg", v.MimeType)
}

func TestImport_RejectsNonMedia(t *testing.T) {
	imp := newImporter(&fakeEncoder{probe: &encoder.ProbeResult{HasVideo: true}})

	txt := writeFile(t, "notes.txt", []byte("just some text"))
	_, err := imp.Import(context.Background(), txt)
	assert.ErrorIs(t, err, ErrNotMedia)

	png := writeFile(t, "clip.mp4", []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"))
	_, err = imp.Import(context.Background(), png)
	assert.ErrorIs(t, err, ErrNotMedia, "header wins over extension")

	_, err = imp.Import(context.Background(), t.TempDir())
	assert.ErrorIs(t, err, ErrNotMedia)
}

func TestImport_ExtensionFallback(t *testing.T) {
	path := writeFile(t, "screen.mov", []byte{0x00, 0x01, 0x02, 0x03})
	imp := newImporter(&fakeEncoder{probe: &encoder.ProbeResult{Duration: 1, HasVideo: true}})

	v, err := imp.Import(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "video/quicktime", v.MimeType)
}

func TestImport_ProbeFailure(t *testing.T) {
	path := writeFile(t, "broken.mp4", mp4Header())

	_, err := newImporter(&fakeEncoder{err: errors.New("moov atom not found")}).Import(context.Background(), path)
	assert.ErrorIs(t, err, ErrUnreadable)

	_, err = newImporter(&fakeEncoder{probe: &encoder.ProbeResult{}}).Import(context.Background(), path)
	assert.ErrorIs(t, err, ErrUnreadable)
}

func TestImport_MissingFile(t *testing.T) {
	_, err := newImporter(&fakeEncoder{}).Import(context.Background(), "/does/not/exist.mp4")
	assert.Error(t, err)
}
