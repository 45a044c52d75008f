package transcribe

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/trimline/trimline/internal/transcript"
)

// MaxAudioBytes is the upload limit of the transcription service.
const MaxAudioBytes = 25 * 1024 * 1024

// Service turns videos into transcripts and transcripts into summaries.
type Service struct {
	audio       *AudioExtractor
	transcriber Transcriber
	summarizer  Summarizer
	maxBytes    int64
	now         func() time.Time
	logger      *slog.Logger
}

func NewService(audio *AudioExtractor, transcriber Transcriber, summarizer Summarizer, logger *slog.Logger) *Service {
	return &Service{
		audio:       audio,
		transcriber: transcriber,
		summarizer:  summarizer,
		maxBytes:    MaxAudioBytes,
		now:         time.Now,
		logger:      logger.With("component", "transcribe"),
	}
}

// TranscribeVideo extracts the audio of videoPath, sends it for
// transcription and normalizes the result. The temp audio file is removed on
// every path.
func (s *Service) TranscribeVideo(ctx context.Context, videoPath string) (*transcript.Transcript, error) {
	audioPath, err := s.audio.ExtractAudio(ctx, videoPath, defaultAudioFormat)
	if err != nil {
		return nil, err
	}
	defer s.audio.CleanupAudio(audioPath)

	info, err := os.Stat(audioPath)
	if err != nil {
		return nil, fmt.Errorf("stat extracted audio: %w", err)
	}
	if info.Size() > s.maxBytes {
		return nil, fmt.Errorf("%w: %.1f MB > %d MB", ErrAudioTooLarge,
			float64(info.Size())/(1024*1024), s.maxBytes/(1024*1024))
	}

	s.logger.Info("transcribing audio", "bytes", info.Size())
	resp, err := s.transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		return nil, err
	}
	return s.normalize(resp), nil
}

func (s *Service) normalize(resp *TranscriptionResponse) *transcript.Transcript {
	segments := make([]transcript.Segment, 0, len(resp.Segments))
	for _, seg := range resp.Segments {
		segments = append(segments, transcript.Segment{
			Start: seg.Start,
			End:   seg.End,
			Text:  strings.TrimSpace(seg.Text),
		})
	}

	full := strings.TrimSpace(resp.Text)
	if full == "" {
		full = transcript.JoinText(segments)
	}
	duration := resp.Duration
	if duration == 0 && len(segments) > 0 {
		duration = segments[len(segments)-1].End
	}

	return &transcript.Transcript{
		Segments:    segments,
		FullText:    full,
		Duration:    duration,
		Language:    resp.Language,
		GeneratedAt: s.now(),
	}
}

// SummarizeTranscript asks the summarization service for a short and a
// detailed summary plus key topics.
func (s *Service) SummarizeTranscript(ctx context.Context, t *transcript.Transcript) (*transcript.Summary, error) {
	if t == nil {
		return nil, ErrEmptyTranscript
	}
	text := strings.TrimSpace(t.FullText)
	if text == "" {
		text = transcript.JoinText(t.Segments)
	}
	if text == "" {
		return nil, ErrEmptyTranscript
	}

	resp, err := s.summarizer.Summarize(ctx, text)
	if err != nil {
		return nil, err
	}
	topics := resp.KeyTopics
	if topics == nil {
		topics = []string{}
	}
	return &transcript.Summary{
		Short:       strings.TrimSpace(resp.Short),
		Detailed:    strings.TrimSpace(resp.Detailed),
		KeyTopics:   topics,
		GeneratedAt: s.now(),
	}, nil
}
